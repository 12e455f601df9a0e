package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/mkelleher/invoicehub/internal/application/port"
	"github.com/mkelleher/invoicehub/internal/domain/entity"
)

// ExtractionService turns a document URL into structured invoice fields by
// chaining fetch, text extraction and an external completion API.
type ExtractionService interface {
	ProcessDocument(ctx context.Context, documentURL string) (*entity.ExtractedInvoice, error)
}

type extractionServiceImpl struct {
	httpClient     *http.Client
	textExtractor  port.TextExtractor
	fieldExtractor port.FieldExtractor
	logger         Logger
}

// NewExtractionService creates a new ExtractionService
func NewExtractionService(
	httpClient *http.Client,
	textExtractor port.TextExtractor,
	fieldExtractor port.FieldExtractor,
	logger Logger,
) ExtractionService {
	return &extractionServiceImpl{
		httpClient:     httpClient,
		textExtractor:  textExtractor,
		fieldExtractor: fieldExtractor,
		logger:         logger,
	}
}

func (s *extractionServiceImpl) ProcessDocument(ctx context.Context, documentURL string) (*entity.ExtractedInvoice, error) {
	path, err := s.fetchToTempFile(ctx, documentURL)
	if err != nil {
		s.logger.Error("Failed to fetch document", "error", err, "url", documentURL)
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	// The temp file is removed on every exit path.
	defer os.Remove(path)

	text, err := s.textExtractor.ExtractText(path)
	if err != nil {
		s.logger.Error("Failed to extract text", "error", err, "url", documentURL)
		return nil, fmt.Errorf("extract text: %w", err)
	}

	extracted, err := s.fieldExtractor.Extract(ctx, text)
	if err != nil {
		s.logger.Error("Failed to extract invoice fields", "error", err, "url", documentURL)
		return nil, fmt.Errorf("extract fields: %w", err)
	}

	s.logger.Info("Document processed",
		"url", documentURL,
		"invoice_number", extracted.InvoiceNumber,
		"line_items", len(extracted.LineItems))
	return extracted, nil
}

// fetchToTempFile downloads the document to a temporary file and returns its
// path. The caller owns removal.
func (s *extractionServiceImpl) fetchToTempFile(ctx context.Context, documentURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, documentURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching document", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "invoicehub-*.pdf")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return tmp.Name(), nil
}
