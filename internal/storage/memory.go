package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemoryStorage keeps blobs in process memory. Used by the in-memory store mode and tests.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	baseURL string
}

// NewMemoryStorage returns an empty MemoryStorage whose locations are prefixed with baseURL.
func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[string][]byte),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (m *MemoryStorage) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", fmt.Errorf("memory storage: empty key")
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", fmt.Errorf("memory storage read %s: %w", key, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.objects[key] = buf.Bytes()
	m.mu.Unlock()

	if m.baseURL == "" {
		return key, nil
	}
	return m.baseURL + "/" + key, nil
}

func (m *MemoryStorage) Delete(_ context.Context, location string) error {
	key := strings.TrimLeft(strings.TrimPrefix(location, m.baseURL), "/")

	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Len reports how many blobs are stored.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// Has reports whether a blob exists at location.
func (m *MemoryStorage) Has(location string) bool {
	key := strings.TrimLeft(strings.TrimPrefix(location, m.baseURL), "/")

	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}
