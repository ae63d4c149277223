package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pagelens/pagelens/internal/domain"
)

// MemoryStore keeps objects in process memory. It backs the default
// configuration and tests where no object store is available.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	bucket  string
	expiry  time.Duration
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(bucket string, expiry time.Duration) *MemoryStore {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		bucket:  bucket,
		expiry:  expiry,
	}
}

func (s *MemoryStore) Put(_ context.Context, data []byte, filename, contentType string) (domain.StoredImage, error) {
	key := objectKey(filename)

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.objects[key] = memoryObject{data: buf, contentType: contentType}
	s.mu.Unlock()

	return domain.StoredImage{
		Key:         key,
		Bucket:      s.bucket,
		ContentType: contentType,
		URL:         fmt.Sprintf("memory://%s/%s", s.bucket, key),
		ExpiresAt:   expiresAt(s.expiry),
	}, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.StorageError(fmt.Sprintf("object %s not found", key), nil)
	}
	return obj.data, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len reports the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
