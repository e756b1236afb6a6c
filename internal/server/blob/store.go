// Package blob stores encrypted file content in object storage.
package blob

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store is an object store keyed by storage key. Missing objects are
// reported as common.ErrorNotFound.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// NewStorageKey returns a fresh key of the form shared/<yyyy>/<m>/<d>/<uuid>.
func NewStorageKey(now time.Time) string {
	return fmt.Sprintf("shared/%d/%d/%d/%v", now.Year(), now.Month(), now.Day(), uuid.New())
}
