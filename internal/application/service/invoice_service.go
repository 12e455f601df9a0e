package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mkelleher/invoicehub/internal/application/port"
	"github.com/mkelleher/invoicehub/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// Pagination bounds for invoice listing.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// LineItemPayload is one line item as submitted by the caller. Values are
// persisted exactly as given.
type LineItemPayload struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// ApprovalPayload is the invoice submitted for approval. Only invoice_number
// is required; everything else is filled by Normalize.
type ApprovalPayload struct {
	InvoiceNumber   string            `json:"invoice_number"`
	Date            string            `json:"date"`
	DueDate         string            `json:"due_date"`
	Supplier        string            `json:"supplier"`
	SupplierAddress string            `json:"supplier_address"`
	SupplierEmail   string            `json:"supplier_email"`
	SupplierPhone   string            `json:"supplier_phone"`
	Amount          float64           `json:"amount"`
	Tax             float64           `json:"tax"`
	Total           float64           `json:"total"`
	Confidence      string            `json:"confidence"`
	ConfidenceScore *int              `json:"confidence_score"`
	NumberOfUnits   int               `json:"number_of_units"`
	Notes           string            `json:"notes"`
	DocumentURL     string            `json:"document_url"`
	LineItems       []LineItemPayload `json:"line_items"`
}

// InvoicePage is one page of invoice summaries, newest created first.
type InvoicePage struct {
	Count    int               `json:"count"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Results  []*entity.Invoice `json:"results"`
}

// InvoiceService manages invoice intake and owner-scoped queries.
type InvoiceService interface {
	// Approve persists the payload as an Approved invoice with its line items
	// and an approval history entry, atomically.
	Approve(ctx context.Context, userID int64, payload ApprovalPayload) (*entity.Invoice, error)

	// ApproveByID flips an owned Pending invoice to Approved.
	ApproveByID(ctx context.Context, userID, invoiceID int64, notes string) (*entity.Invoice, error)

	// List returns one page of the user's invoices.
	List(ctx context.Context, userID int64, page, pageSize int) (*InvoicePage, error)

	// Get returns one owned invoice with nested line items.
	Get(ctx context.Context, userID, invoiceID int64) (*entity.Invoice, error)

	// ExportWorkbook renders all of the user's invoices into a spreadsheet.
	ExportWorkbook(ctx context.Context, userID int64) ([]byte, error)
}

type invoiceServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	itemRepo    port.LineItemRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	exporter    port.InvoiceExporter
	logger      Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo port.InvoiceRepository,
	itemRepo port.LineItemRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	exporter port.InvoiceExporter,
	logger Logger,
) InvoiceService {
	return &invoiceServiceImpl{
		invoiceRepo: invoiceRepo,
		itemRepo:    itemRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		exporter:    exporter,
		logger:      logger,
	}
}

// Normalize fills defaults for absent optional fields. Kept as a single
// explicit step so the defaulting contract stays auditable.
func (p *ApprovalPayload) Normalize(now time.Time) {
	today := now.Format(dateLayout)
	if p.Date == "" {
		p.Date = today
	}
	if p.DueDate == "" {
		p.DueDate = today
	}
	if p.Supplier == "" {
		p.Supplier = "Unknown Supplier"
	}
	if p.Confidence == "" {
		p.Confidence = entity.ConfidenceMedium
	}
	if p.ConfidenceScore == nil {
		score := 50
		p.ConfidenceScore = &score
	}
	// Amount, tax, total and number_of_units already default to zero.
}

func (s *invoiceServiceImpl) Approve(ctx context.Context, userID int64, payload ApprovalPayload) (*entity.Invoice, error) {
	if strings.TrimSpace(payload.InvoiceNumber) == "" {
		return nil, fmt.Errorf("%w: invoice_number is required", entity.ErrInvalidInput)
	}

	payload.Normalize(time.Now())

	date, err := time.Parse(dateLayout, payload.Date)
	if err != nil {
		return nil, fmt.Errorf("parse date: %w", err)
	}
	dueDate, err := time.Parse(dateLayout, payload.DueDate)
	if err != nil {
		return nil, fmt.Errorf("parse due_date: %w", err)
	}

	invoice := &entity.Invoice{
		InvoiceNumber:   payload.InvoiceNumber,
		Date:            date,
		DueDate:         dueDate,
		Supplier:        payload.Supplier,
		SupplierAddress: payload.SupplierAddress,
		SupplierEmail:   payload.SupplierEmail,
		SupplierPhone:   payload.SupplierPhone,
		Amount:          payload.Amount,
		Tax:             payload.Tax,
		Total:           payload.Total,
		Status:          entity.StatusApproved,
		Confidence:      payload.Confidence,
		ConfidenceScore: *payload.ConfidenceScore,
		NumberOfUnits:   payload.NumberOfUnits,
		Notes:           payload.Notes,
		DocumentURL:     payload.DocumentURL,
		UserID:          userID,
	}

	// Header, line items and history commit or roll back as one unit.
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.Create(txCtx, invoice); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		for i, item := range payload.LineItems {
			lineItem := &entity.LineItem{
				InvoiceID:   invoice.ID,
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Total:       item.Total,
				Position:    i,
			}
			if err := s.itemRepo.Create(txCtx, lineItem); err != nil {
				return fmt.Errorf("create line item %d: %w", i, err)
			}
			invoice.LineItems = append(invoice.LineItems, *lineItem)
		}

		entry := &entity.ApprovalEntry{
			InvoiceID: invoice.ID,
			UserID:    userID,
			Action:    "Approved",
			Notes:     payload.Notes,
		}
		if err := s.historyRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("create approval entry: %w", err)
		}

		return nil
	})

	if err != nil {
		s.logger.Error("Failed to approve invoice", "error", err, "invoice_number", payload.InvoiceNumber)
		return nil, err
	}

	s.logger.Info("Invoice approved",
		"invoice_id", invoice.ID,
		"invoice_number", invoice.InvoiceNumber,
		"line_items", len(invoice.LineItems))
	return invoice, nil
}

func (s *invoiceServiceImpl) ApproveByID(ctx context.Context, userID, invoiceID int64, notes string) (*entity.Invoice, error) {
	var invoice *entity.Invoice

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		invoice, err = s.invoiceRepo.GetByIDForUser(txCtx, invoiceID, userID)
		if err != nil {
			return err
		}

		if invoice.Status == entity.StatusApproved {
			return entity.ErrAlreadyApproved
		}

		if err := s.invoiceRepo.UpdateStatus(txCtx, invoiceID, entity.StatusApproved); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		invoice.Status = entity.StatusApproved

		entry := &entity.ApprovalEntry{
			InvoiceID: invoiceID,
			UserID:    userID,
			Action:    "Approved",
			Notes:     notes,
		}
		if err := s.historyRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("create approval entry: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Invoice status updated", "invoice_id", invoiceID, "status", entity.StatusApproved)
	return invoice, nil
}

func (s *invoiceServiceImpl) List(ctx context.Context, userID int64, page, pageSize int) (*InvoicePage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	count, err := s.invoiceRepo.CountByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to count invoices", "error", err, "user_id", userID)
		return nil, err
	}

	invoices, err := s.invoiceRepo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		s.logger.Error("Failed to list invoices", "error", err, "user_id", userID)
		return nil, err
	}

	return &InvoicePage{
		Count:    count,
		Page:     page,
		PageSize: pageSize,
		Results:  invoices,
	}, nil
}

func (s *invoiceServiceImpl) Get(ctx context.Context, userID, invoiceID int64) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByIDForUser(ctx, invoiceID, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.itemRepo.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		s.logger.Error("Failed to load line items", "error", err, "invoice_id", invoiceID)
		return nil, err
	}
	for _, item := range items {
		invoice.LineItems = append(invoice.LineItems, *item)
	}

	history, err := s.historyRepo.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		s.logger.Error("Failed to load approval history", "error", err, "invoice_id", invoiceID)
		return nil, err
	}
	for _, entry := range history {
		invoice.History = append(invoice.History, *entry)
	}

	return invoice, nil
}

func (s *invoiceServiceImpl) ExportWorkbook(ctx context.Context, userID int64) ([]byte, error) {
	count, err := s.invoiceRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	invoices, err := s.invoiceRepo.ListByUser(ctx, userID, count, 0)
	if err != nil {
		return nil, err
	}

	return s.exporter.Workbook(invoices)
}
