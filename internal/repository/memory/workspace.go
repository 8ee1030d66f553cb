package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lalith-99/galynx/internal/models"
)

type membershipKey struct {
	workspaceID uuid.UUID
	userID      uuid.UUID
}

type WorkspaceStore struct {
	mu          sync.RWMutex
	workspaces  map[uuid.UUID]models.Workspace
	memberships map[membershipKey]models.Membership
}

func NewWorkspaceStore() *WorkspaceStore {
	return &WorkspaceStore{
		workspaces:  make(map[uuid.UUID]models.Workspace),
		memberships: make(map[membershipKey]models.Membership),
	}
}

func (s *WorkspaceStore) Put(ctx context.Context, workspace models.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaces[workspace.ID] = workspace
	return nil
}

func (s *WorkspaceStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	workspace, ok := s.workspaces[id]
	if !ok {
		return nil, nil
	}
	return &workspace, nil
}

func (s *WorkspaceStore) PutMembership(ctx context.Context, membership models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := membershipKey{workspaceID: membership.WorkspaceID, userID: membership.UserID}
	s.memberships[key] = membership
	return nil
}

func (s *WorkspaceStore) GetMembership(ctx context.Context, workspaceID, userID uuid.UUID) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	membership, ok := s.memberships[membershipKey{workspaceID: workspaceID, userID: userID}]
	if !ok {
		return nil, nil
	}
	return &membership, nil
}

func (s *WorkspaceStore) ListUserMemberships(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.Membership, 0)
	for key, membership := range s.memberships {
		if key.userID == userID {
			items = append(items, membership)
		}
	}
	sortMemberships(items)
	return items, nil
}

func (s *WorkspaceStore) ListWorkspaceMemberships(ctx context.Context, workspaceID uuid.UUID) ([]models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.Membership, 0)
	for key, membership := range s.memberships {
		if key.workspaceID == workspaceID {
			items = append(items, membership)
		}
	}
	sortMemberships(items)
	return items, nil
}

// Map iteration order is random; sort so listings are stable.
func sortMemberships(items []models.Membership) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].WorkspaceID != items[j].WorkspaceID {
			return items[i].WorkspaceID.String() < items[j].WorkspaceID.String()
		}
		return items[i].UserID.String() < items[j].UserID.String()
	})
}
