// Package storage persists uploaded media blobs and removes them once the records
// that reference them are gone.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrUnavailable indicates the blob store could not be reached or is not configured.
var ErrUnavailable = errors.New("blob store unavailable")

// BlobStore uploads blobs and deletes them by the location Save returned.
type BlobStore interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	Delete(ctx context.Context, location string) error
}

// ObjectKey builds a collision-free key under prefix that keeps the extension of filename.
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(filename)))
	return path.Join(strings.Trim(prefix, "/"), uuid.NewString()+ext)
}

// Upload is a client-supplied file awaiting persistence.
type Upload struct {
	Filename string
	Body     io.Reader
}

// Reaper schedules blob deletion in the background.
type Reaper interface {
	Enqueue(ctx context.Context, locations ...string) error
}
