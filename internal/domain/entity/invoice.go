package entity

import "time"

// Invoice status values. Pending may move to Approved or Rejected; both are
// terminal.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// Confidence labels supplied by the extraction process.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Invoice is one invoice header. Supplier detail is flattened onto the header;
// line items live in their own table and cascade with the invoice.
type Invoice struct {
	ID              int64           `json:"id"`
	InvoiceNumber   string          `json:"invoice_number"`
	Date            time.Time       `json:"date"`
	DueDate         time.Time       `json:"due_date"`
	Supplier        string          `json:"supplier"`
	SupplierAddress string          `json:"supplier_address"`
	SupplierEmail   string          `json:"supplier_email"`
	SupplierPhone   string          `json:"supplier_phone"`
	Amount          float64         `json:"amount"`
	Tax             float64         `json:"tax"`
	Total           float64         `json:"total"`
	Status          string          `json:"status"`
	Confidence      string          `json:"confidence"`
	ConfidenceScore int             `json:"confidence_score"`
	NumberOfUnits   int             `json:"number_of_units"`
	Notes           string          `json:"notes"`
	DocumentURL     string          `json:"document_url,omitempty"`
	UserID          int64           `json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	LineItems       []LineItem      `json:"line_items,omitempty"`
	History         []ApprovalEntry `json:"approval_history,omitempty"`
}

// LineItem is one billed item belonging to an invoice. Totals are
// caller-supplied and never recomputed.
type LineItem struct {
	ID          int64   `json:"id"`
	InvoiceID   int64   `json:"-"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
	Position    int     `json:"-"`
}

// ApprovalEntry records one action taken against an invoice. Append-only.
type ApprovalEntry struct {
	ID        int64     `json:"id"`
	InvoiceID int64     `json:"-"`
	UserID    int64     `json:"user_id"`
	Action    string    `json:"action"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"date"`
}
