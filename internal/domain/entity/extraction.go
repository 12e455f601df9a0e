package entity

// ExtractedInvoice is the structured result relayed from the completion API.
// The fields mirror the approval payload so a client can feed the extraction
// result straight back into the approval endpoint. Nothing here is validated
// against the invoice schema; it is passed through as the model returned it.
type ExtractedInvoice struct {
	InvoiceNumber   string              `json:"invoice_number"`
	Date            string              `json:"date"`
	DueDate         string              `json:"due_date"`
	Supplier        string              `json:"supplier"`
	SupplierAddress string              `json:"supplier_address"`
	SupplierEmail   string              `json:"supplier_email"`
	SupplierPhone   string              `json:"supplier_phone"`
	LineItems       []ExtractedLineItem `json:"line_items"`
	Subtotal        float64             `json:"subtotal"`
	Tax             float64             `json:"tax"`
	Total           float64             `json:"total"`
	Confidence      string              `json:"confidence"`
	ConfidenceScore int                 `json:"confidence_score"`
}

// ExtractedLineItem is one line item as returned by the extraction model.
type ExtractedLineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}
