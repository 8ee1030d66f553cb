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

type AuditStore struct {
	mu      sync.RWMutex
	entries []models.AuditEntry
}

func NewAuditStore() *AuditStore {
	return &AuditStore{entries: make([]models.AuditEntry, 0)}
}

func (s *AuditStore) Append(ctx context.Context, entry models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *AuditStore) ListPage(ctx context.Context, workspaceID uuid.UUID, before *repository.Cursor, limit int) ([]models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.AuditEntry, 0)
	for _, entry := range s.entries {
		if entry.WorkspaceID == workspaceID && before.Before(entry.CreatedAt, entry.ID) {
			items = append(items, entry)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return identity.Less(items[j].CreatedAt, items[j].ID, items[i].CreatedAt, items[i].ID)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
