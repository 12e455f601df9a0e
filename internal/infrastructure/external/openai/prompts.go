package openai

import "fmt"

const extractionSystemPrompt = `You are an invoice data extraction assistant. ` +
	`Given the raw text of an invoice, extract the structured fields below. ` +
	`Always respond with a single valid JSON object and nothing else.`

const extractionSchema = `{
  "invoice_number": "string",
  "date": "YYYY-MM-DD",
  "due_date": "YYYY-MM-DD",
  "supplier": "string",
  "supplier_address": "string",
  "supplier_email": "string",
  "supplier_phone": "string",
  "line_items": [
    {"description": "string", "quantity": 0, "unit_price": 0.0, "total": 0.0}
  ],
  "subtotal": 0.0,
  "tax": 0.0,
  "total": 0.0,
  "confidence": "high|medium|low",
  "confidence_score": 0
}`

// buildExtractionPrompt wraps the document text with the fixed field schema.
func buildExtractionPrompt(text string) string {
	return fmt.Sprintf(
		"Extract the invoice fields from the following document text.\n\n"+
			"Respond with JSON matching exactly this schema:\n%s\n\n"+
			"Use empty strings or zero for fields you cannot find. "+
			"Set confidence and confidence_score to your own estimate of extraction reliability.\n\n"+
			"Document text:\n%s",
		extractionSchema, text)
}
