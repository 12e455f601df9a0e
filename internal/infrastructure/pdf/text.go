// Package pdf extracts raw text from PDF documents using mupdf.
package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/mkelleher/invoicehub/internal/application/port"
)

// TextExtractor implements port.TextExtractor over go-fitz.
type TextExtractor struct {
	logger *zap.Logger
}

// NewTextExtractor creates a new PDF text extractor
func NewTextExtractor(logger *zap.Logger) *TextExtractor {
	return &TextExtractor{logger: logger}
}

// ExtractText concatenates the text of every page in the document.
func (e *TextExtractor) ExtractText(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf("document not found: %s", path)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	pageCount := doc.NumPage()

	for pageNum := 0; pageNum < pageCount; pageNum++ {
		text, err := doc.Text(pageNum)
		if err != nil {
			e.logger.Warn("Failed to extract page text",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("no text extracted from document")
	}

	e.logger.Debug("Text extracted", zap.String("path", path), zap.Int("pages", pageCount))
	return sb.String(), nil
}

// Verify interface compliance
var _ port.TextExtractor = (*TextExtractor)(nil)
