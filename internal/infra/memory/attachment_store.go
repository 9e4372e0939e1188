package memory

import (
	"context"
	"io"
	"sync"

	"scholarpath-service/internal/domain"
)

// AttachmentStore keeps uploaded files in memory. Demo and test use only.
type AttachmentStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewAttachmentStore() *AttachmentStore {
	return &AttachmentStore{objects: make(map[string][]byte)}
}

func (s *AttachmentStore) Upload(_ context.Context, key string, data io.Reader) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = b
	return nil
}

func (s *AttachmentStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Get returns a stored object; tests use it to assert uploads landed.
func (s *AttachmentStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	return b, nil
}
