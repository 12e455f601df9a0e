package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/mkelleher/invoicehub/internal/application/port"
	"github.com/mkelleher/invoicehub/internal/domain/entity"
)

// InvoiceRepository implements port.InvoiceRepository
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

const invoiceColumns = `id, invoice_number, date, due_date, supplier, supplier_address,
		supplier_email, supplier_phone, amount, tax, total, status, confidence,
		confidence_score, number_of_units, notes, document_url, user_id, created_at, updated_at`

// Create creates a new invoice header
func (r *InvoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoices (
			invoice_number, date, due_date, supplier, supplier_address,
			supplier_email, supplier_phone, amount, tax, total, status,
			confidence, confidence_score, number_of_units, notes, document_url, user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.exec(ctx).ExecContext(ctx, query,
		invoice.InvoiceNumber,
		invoice.Date,
		invoice.DueDate,
		invoice.Supplier,
		invoice.SupplierAddress,
		invoice.SupplierEmail,
		invoice.SupplierPhone,
		invoice.Amount,
		invoice.Tax,
		invoice.Total,
		invoice.Status,
		invoice.Confidence,
		invoice.ConfidenceScore,
		invoice.NumberOfUnits,
		invoice.Notes,
		invoice.DocumentURL,
		invoice.UserID,
	)
	if err != nil {
		r.logger.Error("Failed to create invoice", zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	invoice.ID = id
	return nil
}

// GetByIDForUser retrieves an invoice scoped to its owner. Unknown ids and
// other users' invoices are indistinguishable to the caller.
func (r *InvoiceRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ? AND user_id = ?`

	invoice, err := r.scanRow(r.exec(ctx).QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get invoice", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return invoice, nil
}

// ListByUser returns one page of the user's invoices, newest created first
func (r *InvoiceRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	rows, err := r.exec(ctx).QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		invoice, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}

	return invoices, rows.Err()
}

// CountByUser returns the number of invoices owned by the user
func (r *InvoiceRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.exec(ctx).QueryRowContext(ctx,
		`SELECT COUNT(1) FROM invoices WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count invoices", zap.Int64("user_id", userID), zap.Error(err))
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return count, nil
}

// UpdateStatus sets the invoice status
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE invoices SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	result, err := r.exec(ctx).ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update invoice status", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update invoice status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return entity.ErrNotFound
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *InvoiceRepository) scanRow(row scanner) (*entity.Invoice, error) {
	var invoice entity.Invoice
	var documentURL sql.NullString

	err := row.Scan(
		&invoice.ID,
		&invoice.InvoiceNumber,
		&invoice.Date,
		&invoice.DueDate,
		&invoice.Supplier,
		&invoice.SupplierAddress,
		&invoice.SupplierEmail,
		&invoice.SupplierPhone,
		&invoice.Amount,
		&invoice.Tax,
		&invoice.Total,
		&invoice.Status,
		&invoice.Confidence,
		&invoice.ConfidenceScore,
		&invoice.NumberOfUnits,
		&invoice.Notes,
		&documentURL,
		&invoice.UserID,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	invoice.DocumentURL = documentURL.String
	return &invoice, nil
}

func (r *InvoiceRepository) exec(ctx context.Context) executor {
	return pickExecutor(ctx, r.db)
}

// Verify interface compliance
var _ port.InvoiceRepository = (*InvoiceRepository)(nil)
