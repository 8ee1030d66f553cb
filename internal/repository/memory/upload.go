package memory

import (
	"context"
	"sync"

	"github.com/lalith-99/galynx/internal/models"
)

type PendingUploadStore struct {
	mu      sync.Mutex
	uploads map[string]models.PendingUpload
}

func NewPendingUploadStore() *PendingUploadStore {
	return &PendingUploadStore{uploads: make(map[string]models.PendingUpload)}
}

func (s *PendingUploadStore) Put(ctx context.Context, upload models.PendingUpload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[upload.UploadID] = upload
	return nil
}

// Take removes and returns the pending upload, so a ticket can only be
// committed once.
func (s *PendingUploadStore) Take(ctx context.Context, uploadID string) (*models.PendingUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	upload, ok := s.uploads[uploadID]
	if !ok {
		return nil, nil
	}
	delete(s.uploads, uploadID)
	return &upload, nil
}
