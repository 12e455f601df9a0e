package openai

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mkelleher/invoicehub/internal/application/port"
	"github.com/mkelleher/invoicehub/internal/domain/entity"
)

// Extractor implements port.FieldExtractor against an OpenAI-compatible
// chat-completions endpoint.
type Extractor struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// Config holds completion API settings.
type Config struct {
	APIKey      string
	BaseURL     string // empty for api.openai.com; set for compatible providers
	Model       string
	Temperature float32
}

// NewExtractor creates a new field extractor
func NewExtractor(cfg Config, logger *zap.Logger) *Extractor {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Extractor{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// Extract submits the document text with the fixed extraction prompt and
// parses the response as JSON. The result is relayed without validation.
func (e *Extractor) Extract(ctx context.Context, text string) (*entity.ExtractedInvoice, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: extractionSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildExtractionPrompt(text),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})

	if err != nil {
		e.logger.Error("Completion API call failed", zap.Error(err))
		return nil, fmt.Errorf("completion API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from completion API")
	}

	content := resp.Choices[0].Message.Content

	var extracted entity.ExtractedInvoice
	if err := json.Unmarshal([]byte(content), &extracted); err != nil {
		e.logger.Error("Failed to parse extraction result",
			zap.Error(err),
			zap.String("content", content))
		return nil, fmt.Errorf("failed to parse extraction result: %w", err)
	}

	e.logger.Info("Invoice fields extracted",
		zap.String("invoice_number", extracted.InvoiceNumber),
		zap.Int("line_items", len(extracted.LineItems)))

	return &extracted, nil
}

// Verify interface compliance
var _ port.FieldExtractor = (*Extractor)(nil)
