package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lalith-99/galynx/internal/identity"
	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/repository"
)

type MessageStore struct {
	mu       sync.RWMutex
	messages map[uuid.UUID]models.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{messages: make(map[uuid.UUID]models.Message)}
}

func (s *MessageStore) Create(ctx context.Context, message models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[message.ID] = message
	return nil
}

func (s *MessageStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	message, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	return &message, nil
}

func (s *MessageStore) Update(ctx context.Context, message models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[message.ID] = message
	return nil
}

func (s *MessageStore) ListChannelPage(ctx context.Context, channelID uuid.UUID, before *repository.Cursor, limit int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page(func(m *models.Message) bool {
		return m.ChannelID == channelID
	}, before, limit), nil
}

func (s *MessageStore) ListThreadPage(ctx context.Context, rootID uuid.UUID, before *repository.Cursor, limit int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page(func(m *models.Message) bool {
		return m.ThreadRootID != nil && *m.ThreadRootID == rootID
	}, before, limit), nil
}

func (s *MessageStore) ListThread(ctx context.Context, rootID uuid.UUID) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.Message, 0)
	for _, message := range s.messages {
		if message.ThreadRootID != nil && *message.ThreadRootID == rootID {
			items = append(items, message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return identity.Less(items[i].CreatedAt, items[i].ID, items[j].CreatedAt, items[j].ID)
	})
	return items, nil
}

func (s *MessageStore) DeleteByChannel(ctx context.Context, channelID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, message := range s.messages {
		if message.ChannelID == channelID {
			delete(s.messages, id)
		}
	}
	return nil
}

// page filters, sorts newest-first by (created_at, id), applies the cursor
// and caps at limit. Caller holds at least the read lock.
func (s *MessageStore) page(match func(*models.Message) bool, before *repository.Cursor, limit int) []models.Message {
	items := make([]models.Message, 0)
	for _, message := range s.messages {
		if match(&message) && before.Before(message.CreatedAt, message.ID) {
			items = append(items, message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return identity.Less(items[j].CreatedAt, items[j].ID, items[i].CreatedAt, items[i].ID)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
