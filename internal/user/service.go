// Package user implements user provisioning and profile lookups within a
// workspace.
package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/access"
	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/audit"
	"github.com/lalith-99/galynx/internal/auth"
	"github.com/lalith-99/galynx/internal/identity"
	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/repository"
)

// MinPasswordLen is the minimum accepted password length in bytes.
const MinPasswordLen = 8

type Service struct {
	users      repository.UserRepository
	workspaces repository.WorkspaceRepository
	recorder   *audit.Recorder
	logger     *zap.Logger
}

func NewService(
	users repository.UserRepository,
	workspaces repository.WorkspaceRepository,
	recorder *audit.Recorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		users:      users,
		workspaces: workspaces,
		recorder:   recorder,
		logger:     logger,
	}
}

// View is a user profile scoped to one workspace.
type View struct {
	UserID      uuid.UUID   `json:"user_id"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	WorkspaceID uuid.UUID   `json:"workspace_id"`
	Role        models.Role `json:"role"`
}

// Me returns the caller's own profile.
func (s *Service) Me(ctx context.Context, principal access.Principal) (*View, error) {
	user, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return &View{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
		WorkspaceID: principal.WorkspaceID,
		Role:        principal.Role,
	}, nil
}

// List returns every user in the principal's workspace. Owner or admin
// only.
func (s *Service) List(ctx context.Context, principal access.Principal) ([]View, error) {
	if err := access.RequireAdmin(principal); err != nil {
		return nil, err
	}
	memberships, err := s.workspaces.ListWorkspaceMemberships(ctx, principal.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("list workspace memberships: %w", err)
	}
	views := make([]View, 0, len(memberships))
	for _, membership := range memberships {
		user, err := s.users.GetByID(ctx, membership.UserID)
		if err != nil {
			return nil, fmt.Errorf("lookup user: %w", err)
		}
		if user == nil {
			continue
		}
		views = append(views, View{
			UserID:      user.ID,
			Email:       user.Email,
			Name:        user.Name,
			WorkspaceID: membership.WorkspaceID,
			Role:        membership.Role,
		})
	}
	return views, nil
}

// Create provisions a new user and onboards them into the principal's
// workspace. Owner or admin only. The owner role is assigned at workspace
// creation and cannot be granted here.
func (s *Service) Create(ctx context.Context, principal access.Principal, email, name, password string, role models.Role) (*View, error) {
	if err := access.RequireAdmin(principal); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.BadRequest("email is not valid")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.BadRequest("name must not be empty")
	}
	if len(password) < MinPasswordLen {
		return nil, apperr.BadRequest("password must be at least 8 characters")
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, apperr.BadRequest("role must be admin or member")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}
	if existing != nil {
		return nil, apperr.BadRequest("email already registered")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		ID:           identity.NewID(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("store user: %w", err)
	}
	membership := models.Membership{WorkspaceID: principal.WorkspaceID, UserID: user.ID, Role: role}
	if err := s.workspaces.PutMembership(ctx, membership); err != nil {
		return nil, fmt.Errorf("store membership: %w", err)
	}

	targetID := user.ID.String()
	s.recorder.Record(principal.WorkspaceID, &principal.UserID, audit.ActionUserCreated, "user", &targetID,
		map[string]any{"email": email, "role": string(role)})
	return &View{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
		WorkspaceID: principal.WorkspaceID,
		Role:        role,
	}, nil
}
