// Package storage provides image object storage backends.
package storage

import (
	"context"
	"time"

	"github.com/pagelens/pagelens/internal/domain"
)

// Store persists image bytes and hands out retrieval URLs.
type Store interface {
	// Put uploads the given bytes under a generated key and returns the
	// stored object description including a presigned URL when supported.
	Put(ctx context.Context, data []byte, filename, contentType string) (domain.StoredImage, error)

	// Get returns the raw bytes for a previously stored key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

func expiresAt(expiry time.Duration) time.Time {
	return time.Now().Add(expiry).UTC()
}
