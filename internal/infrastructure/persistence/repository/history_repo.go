package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/mkelleher/invoicehub/internal/application/port"
	"github.com/mkelleher/invoicehub/internal/domain/entity"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new approval history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an approval history entry
func (r *HistoryRepository) Create(ctx context.Context, entry *entity.ApprovalEntry) error {
	query := `
		INSERT INTO approval_history (invoice_id, user_id, action, notes)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.exec(ctx).ExecContext(ctx, query,
		entry.InvoiceID,
		entry.UserID,
		entry.Action,
		entry.Notes,
	)
	if err != nil {
		r.logger.Error("Failed to create approval entry", zap.Int64("invoice_id", entry.InvoiceID), zap.Error(err))
		return fmt.Errorf("failed to create approval entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// GetByInvoiceID returns the invoice's history, oldest first
func (r *HistoryRepository) GetByInvoiceID(ctx context.Context, invoiceID int64) ([]*entity.ApprovalEntry, error) {
	query := `
		SELECT id, invoice_id, user_id, action, notes, created_at
		FROM approval_history
		WHERE invoice_id = ?
		ORDER BY created_at, id
	`

	rows, err := r.exec(ctx).QueryContext(ctx, query, invoiceID)
	if err != nil {
		r.logger.Error("Failed to get approval history", zap.Int64("invoice_id", invoiceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval history: %w", err)
	}
	defer rows.Close()

	var entries []*entity.ApprovalEntry
	for rows.Next() {
		var entry entity.ApprovalEntry
		var userID sql.NullInt64

		err := rows.Scan(
			&entry.ID,
			&entry.InvoiceID,
			&userID,
			&entry.Action,
			&entry.Notes,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval entry: %w", err)
		}

		entry.UserID = userID.Int64
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

func (r *HistoryRepository) exec(ctx context.Context) executor {
	return pickExecutor(ctx, r.db)
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
