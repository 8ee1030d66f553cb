package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/lalith-99/galynx/internal/models"
)

type AttachmentStore struct {
	mu          sync.RWMutex
	attachments map[uuid.UUID]models.Attachment
}

func NewAttachmentStore() *AttachmentStore {
	return &AttachmentStore{attachments: make(map[uuid.UUID]models.Attachment)}
}

func (s *AttachmentStore) Put(ctx context.Context, attachment models.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments[attachment.ID] = attachment
	return nil
}

func (s *AttachmentStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attachment, ok := s.attachments[id]
	if !ok {
		return nil, nil
	}
	return &attachment, nil
}
