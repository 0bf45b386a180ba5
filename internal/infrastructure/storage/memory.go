package storage

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/procurement/backend/internal/application/attachment"
	"github.com/procurement/backend/internal/domain/shared"
)

type object struct {
	data        []byte
	contentType string
}

// MemoryStorage keeps objects in process. Download URLs point at a
// memory:// location and are only meaningful to tests and local tooling.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]object
	expiry  time.Duration
}

// NewMemoryStorage creates an empty store
func NewMemoryStorage(expiry time.Duration) *MemoryStorage {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &MemoryStorage{objects: make(map[string]object), expiry: expiry}
}

func (m *MemoryStorage) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[storageKey] = object{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

func (m *MemoryStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errEmptyKey
	}
	m.mu.RLock()
	_, ok := m.objects[storageKey]
	m.mu.RUnlock()
	if !ok {
		return "", time.Time{}, fmt.Errorf("object %s: %w", storageKey, shared.ErrNotFound)
	}
	if expiresIn <= 0 {
		expiresIn = m.expiry
	}
	expiresAt := time.Now().Add(expiresIn)
	u := url.URL{
		Scheme:   "memory",
		Path:     "/" + storageKey,
		RawQuery: url.Values{"expires": {expiresAt.UTC().Format(time.RFC3339)}}.Encode(),
	}
	return u.String(), expiresAt, nil
}

func (m *MemoryStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, storageKey)
	return nil
}

// Object returns a stored object's bytes and content type
func (m *MemoryStorage) Object(storageKey string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[storageKey]
	return o.data, o.contentType, ok
}

// Len reports the number of stored objects
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

var _ attachment.ObjectStorageService = (*MemoryStorage)(nil)
