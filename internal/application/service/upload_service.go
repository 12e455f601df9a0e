package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkelleher/invoicehub/internal/application/port"
	"github.com/mkelleher/invoicehub/internal/domain/entity"
)

const keyPrefix = "invoices"

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._\-]+`)

// UploadService forwards uploaded documents to object storage.
type UploadService interface {
	// Upload validates the filename, streams the bytes to storage under a
	// collision-resistant key and returns the public retrieval URL.
	Upload(ctx context.Context, filename string, body io.Reader, size int64) (string, error)
}

type uploadServiceImpl struct {
	storage port.ObjectStorage
	logger  Logger
}

// NewUploadService creates a new UploadService
func NewUploadService(storage port.ObjectStorage, logger Logger) UploadService {
	return &uploadServiceImpl{
		storage: storage,
		logger:  logger,
	}
}

func (s *uploadServiceImpl) Upload(ctx context.Context, filename string, body io.Reader, size int64) (string, error) {
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return "", fmt.Errorf("%w: only .pdf files are accepted", entity.ErrInvalidInput)
	}

	key := buildKey(filename, time.Now())

	if err := s.storage.Put(ctx, key, "application/pdf", body, size); err != nil {
		s.logger.Error("Failed to store document", "error", err, "key", key)
		return "", fmt.Errorf("store document: %w", err)
	}

	url := s.storage.PublicURL(key)
	s.logger.Info("Document stored", "key", key, "size", size)
	return url, nil
}

// buildKey combines a timestamp, a random suffix and the sanitized original
// name so concurrent uploads of the same file never collide.
func buildKey(filename string, now time.Time) string {
	name := unsafeKeyChars.ReplaceAllString(filepath.Base(filename), "_")
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%s/%s_%s_%s", keyPrefix, now.UTC().Format("20060102T150405"), suffix, name)
}
