// Package export renders invoice data into downloadable spreadsheets.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mkelleher/invoicehub/internal/application/port"
	"github.com/mkelleher/invoicehub/internal/domain/entity"
)

const sheetName = "Invoices"

var headerRow = []string{
	"Invoice Number", "Date", "Due Date", "Supplier", "Amount", "Tax",
	"Total", "Status", "Confidence", "Confidence Score", "Units", "Created At",
}

// ExcelExporter implements port.InvoiceExporter using excelize.
type ExcelExporter struct {
	logger *zap.Logger
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{logger: logger}
}

// Workbook renders the invoices into an xlsx file, one row per invoice.
func (e *ExcelExporter) Workbook(invoices []*entity.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	for col, title := range headerRow {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return nil, fmt.Errorf("failed to set header cell: %w", err)
		}
	}

	for i, invoice := range invoices {
		values := []interface{}{
			invoice.InvoiceNumber,
			invoice.Date.Format("2006-01-02"),
			invoice.DueDate.Format("2006-01-02"),
			invoice.Supplier,
			invoice.Amount,
			invoice.Tax,
			invoice.Total,
			invoice.Status,
			invoice.Confidence,
			invoice.ConfidenceScore,
			invoice.NumberOfUnits,
			invoice.CreatedAt.Format("2006-01-02 15:04:05"),
		}

		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to set cell: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Debug("Workbook rendered", zap.Int("invoices", len(invoices)))
	return buf.Bytes(), nil
}

// Verify interface compliance
var _ port.InvoiceExporter = (*ExcelExporter)(nil)
