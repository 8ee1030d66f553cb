package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lalith-99/galynx/internal/models"
)

type reactionKey struct {
	messageID uuid.UUID
	emoji     string
	userID    uuid.UUID
}

type ReactionStore struct {
	mu        sync.RWMutex
	reactions map[reactionKey]struct{}
}

func NewReactionStore() *ReactionStore {
	return &ReactionStore{reactions: make(map[reactionKey]struct{})}
}

func (s *ReactionStore) Add(ctx context.Context, reaction models.Reaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactions[reactionKey{reaction.MessageID, reaction.Emoji, reaction.UserID}] = struct{}{}
	return nil
}

func (s *ReactionStore) Remove(ctx context.Context, reaction models.Reaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reactions, reactionKey{reaction.MessageID, reaction.Emoji, reaction.UserID})
	return nil
}

func (s *ReactionStore) ListUsers(ctx context.Context, messageID uuid.UUID, emoji string) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]uuid.UUID, 0)
	for key := range s.reactions {
		if key.messageID == messageID && key.emoji == emoji {
			users = append(users, key.userID)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].String() < users[j].String()
	})
	return users, nil
}
