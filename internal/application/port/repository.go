package port

import (
	"context"

	"github.com/mkelleher/invoicehub/internal/domain/entity"
)

// UserRepository defines persistence operations for User.
// Lookups return entity.ErrNotFound when no row matches so id resolution can
// branch on a tagged result instead of driving control flow off scan errors.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	GetByGoogleID(ctx context.Context, googleID string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// InvoiceRepository defines persistence operations for Invoice headers.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error

	// GetByIDForUser retrieves an invoice only if it belongs to userID;
	// entity.ErrNotFound otherwise.
	GetByIDForUser(ctx context.Context, id, userID int64) (*entity.Invoice, error)

	// ListByUser returns userID's invoices ordered newest created first.
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*entity.Invoice, error)

	// CountByUser returns the total number of invoices owned by userID.
	CountByUser(ctx context.Context, userID int64) (int, error)

	// UpdateStatus sets the status of an invoice.
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// LineItemRepository defines persistence operations for LineItem.
type LineItemRepository interface {
	Create(ctx context.Context, item *entity.LineItem) error

	// GetByInvoiceID returns items ordered by their payload position.
	GetByInvoiceID(ctx context.Context, invoiceID int64) ([]*entity.LineItem, error)
}

// HistoryRepository defines persistence operations for ApprovalEntry.
type HistoryRepository interface {
	Create(ctx context.Context, entry *entity.ApprovalEntry) error
	GetByInvoiceID(ctx context.Context, invoiceID int64) ([]*entity.ApprovalEntry, error)
}

// TransactionManager handles database transactions. Repository calls made
// with the callback's context join the same transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
