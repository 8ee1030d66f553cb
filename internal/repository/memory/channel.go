package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lalith-99/galynx/internal/models"
)

type channelMemberKey struct {
	channelID uuid.UUID
	userID    uuid.UUID
}

type ChannelStore struct {
	mu       sync.RWMutex
	channels map[uuid.UUID]models.Channel
	members  map[channelMemberKey]models.ChannelMember
}

func NewChannelStore() *ChannelStore {
	return &ChannelStore{
		channels: make(map[uuid.UUID]models.Channel),
		members:  make(map[channelMemberKey]models.ChannelMember),
	}
}

func (s *ChannelStore) Create(ctx context.Context, channel models.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[channel.ID] = channel
	return nil
}

func (s *ChannelStore) GetByID(ctx context.Context, channelID uuid.UUID) (*models.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	channel, ok := s.channels[channelID]
	if !ok {
		return nil, nil
	}
	return &channel, nil
}

func (s *ChannelStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.Channel, 0)
	for _, channel := range s.channels {
		if channel.WorkspaceID == workspaceID {
			items = append(items, channel)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt != items[j].CreatedAt {
			return items[i].CreatedAt < items[j].CreatedAt
		}
		return items[i].ID.String() < items[j].ID.String()
	})
	return items, nil
}

func (s *ChannelStore) NameExists(ctx context.Context, workspaceID uuid.UUID, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, channel := range s.channels {
		if channel.WorkspaceID == workspaceID && channel.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *ChannelStore) Delete(ctx context.Context, channelID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.channels, channelID)
	for key := range s.members {
		if key.channelID == channelID {
			delete(s.members, key)
		}
	}
	return nil
}

func (s *ChannelStore) AddMember(ctx context.Context, member models.ChannelMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := channelMemberKey{channelID: member.ChannelID, userID: member.UserID}
	if _, exists := s.members[key]; !exists {
		s.members[key] = member
	}
	return nil
}

func (s *ChannelStore) RemoveMember(ctx context.Context, channelID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, channelMemberKey{channelID: channelID, userID: userID})
	return nil
}

func (s *ChannelStore) ListMembers(ctx context.Context, channelID uuid.UUID) ([]models.ChannelMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.ChannelMember, 0)
	for key, member := range s.members {
		if key.channelID == channelID {
			items = append(items, member)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].AddedAt != items[j].AddedAt {
			return items[i].AddedAt < items[j].AddedAt
		}
		return items[i].UserID.String() < items[j].UserID.String()
	})
	return items, nil
}

func (s *ChannelStore) IsMember(ctx context.Context, channelID, userID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[channelMemberKey{channelID: channelID, userID: userID}]
	return ok, nil
}
