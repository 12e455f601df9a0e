package port

import (
	"context"
	"io"
)

// ObjectStorage abstracts the external object store documents are forwarded to.
type ObjectStorage interface {
	// Put streams the object body to the store under key.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error

	// PublicURL returns the deterministic retrieval URL for key.
	PublicURL(key string) string
}
