package port

import (
	"context"

	"github.com/mkelleher/invoicehub/internal/domain/entity"
)

// TextExtractor pulls raw text out of a document on the local filesystem.
type TextExtractor interface {
	ExtractText(path string) (string, error)
}

// FieldExtractor turns raw document text into structured invoice fields via
// an external completion API. The result is relayed without validation.
type FieldExtractor interface {
	Extract(ctx context.Context, text string) (*entity.ExtractedInvoice, error)
}

// InvoiceExporter renders a set of invoices into a downloadable workbook.
type InvoiceExporter interface {
	Workbook(invoices []*entity.Invoice) ([]byte, error)
}
