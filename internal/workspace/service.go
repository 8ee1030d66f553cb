// Package workspace implements workspace creation, listing and workspace
// membership management.
package workspace

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/access"
	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/audit"
	"github.com/lalith-99/galynx/internal/identity"
	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/repository"
)

// MaxNameRunes caps a workspace name after trimming.
const MaxNameRunes = 80

type Service struct {
	workspaces repository.WorkspaceRepository
	users      repository.UserRepository
	recorder   *audit.Recorder
	logger     *zap.Logger
}

func NewService(
	workspaces repository.WorkspaceRepository,
	users repository.UserRepository,
	recorder *audit.Recorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		workspaces: workspaces,
		users:      users,
		recorder:   recorder,
		logger:     logger,
	}
}

// View is one workspace as seen by a member, role included.
type View struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	CreatedBy uuid.UUID   `json:"created_by"`
	CreatedAt int64       `json:"created_at"`
	Role      models.Role `json:"role"`
}

// MemberView is one workspace membership row joined with its user.
type MemberView struct {
	UserID uuid.UUID   `json:"user_id"`
	Email  string      `json:"email"`
	Name   string      `json:"name"`
	Role   models.Role `json:"role"`
}

// List returns every workspace the user belongs to.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]View, error) {
	memberships, err := s.workspaces.ListUserMemberships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	views := make([]View, 0, len(memberships))
	for _, membership := range memberships {
		workspace, err := s.workspaces.GetByID(ctx, membership.WorkspaceID)
		if err != nil {
			return nil, fmt.Errorf("lookup workspace: %w", err)
		}
		if workspace == nil {
			continue
		}
		views = append(views, View{
			ID:        workspace.ID,
			Name:      workspace.Name,
			CreatedBy: workspace.CreatedBy,
			CreatedAt: workspace.CreatedAt,
			Role:      membership.Role,
		})
	}
	return views, nil
}

// Create makes a new workspace. Any authenticated user may create one and
// becomes its owner.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, name string) (*models.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.BadRequest("workspace name must not be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameRunes {
		return nil, apperr.BadRequest("workspace name exceeds 80 characters")
	}

	workspace := models.Workspace{
		ID:        identity.NewID(),
		Name:      name,
		CreatedBy: userID,
		CreatedAt: identity.NowMS(),
	}
	if err := s.workspaces.Put(ctx, workspace); err != nil {
		return nil, fmt.Errorf("store workspace: %w", err)
	}
	membership := models.Membership{WorkspaceID: workspace.ID, UserID: userID, Role: models.RoleOwner}
	if err := s.workspaces.PutMembership(ctx, membership); err != nil {
		return nil, fmt.Errorf("store owner membership: %w", err)
	}

	targetID := workspace.ID.String()
	s.recorder.Record(workspace.ID, &userID, audit.ActionWorkspaceCreated, "workspace", &targetID,
		map[string]any{"name": name})
	return &workspace, nil
}

// ListMembers returns the members of the principal's workspace joined
// with their user records.
func (s *Service) ListMembers(ctx context.Context, principal access.Principal) ([]MemberView, error) {
	memberships, err := s.workspaces.ListWorkspaceMemberships(ctx, principal.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("list workspace memberships: %w", err)
	}
	views := make([]MemberView, 0, len(memberships))
	for _, membership := range memberships {
		user, err := s.users.GetByID(ctx, membership.UserID)
		if err != nil {
			return nil, fmt.Errorf("lookup user: %w", err)
		}
		if user == nil {
			continue
		}
		views = append(views, MemberView{
			UserID: user.ID,
			Email:  user.Email,
			Name:   user.Name,
			Role:   membership.Role,
		})
	}
	return views, nil
}

// AddMember onboards an existing user into the principal's workspace.
// Owner or admin only. Only admin and member roles can be granted.
func (s *Service) AddMember(ctx context.Context, principal access.Principal, userID uuid.UUID, role models.Role) error {
	if err := access.RequireAdmin(principal); err != nil {
		return err
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		return apperr.BadRequest("role must be admin or member")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return apperr.NotFound("user not found")
	}

	membership := models.Membership{WorkspaceID: principal.WorkspaceID, UserID: userID, Role: role}
	if err := s.workspaces.PutMembership(ctx, membership); err != nil {
		return fmt.Errorf("store membership: %w", err)
	}
	targetID := userID.String()
	s.recorder.Record(principal.WorkspaceID, &principal.UserID, audit.ActionMemberOnboarded, "user", &targetID,
		map[string]any{"role": string(role)})
	return nil
}
