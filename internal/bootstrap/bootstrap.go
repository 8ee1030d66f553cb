// Package bootstrap seeds the minimum operational state: an owner user,
// their workspace and a public general channel. Seeding is idempotent so
// both server startup and the CLI can run it safely.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/auth"
	"github.com/lalith-99/galynx/internal/identity"
	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/repository"
)

// DefaultChannelName is the public channel every fresh workspace gets.
const DefaultChannelName = "general"

// Params configure one seeding run.
type Params struct {
	WorkspaceName string
	Email         string
	Password      string
}

// Report describes what a run found or created.
type Report struct {
	Created     bool      `json:"created"`
	UserID      uuid.UUID `json:"user_id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	ChannelID   uuid.UUID `json:"channel_id,omitempty"`
	Email       string    `json:"email"`
}

// Seed ensures the owner account and its workspace exist. A user already
// registered under the email short-circuits the run; nothing is modified
// then.
func Seed(ctx context.Context, stores *repository.Stores, params Params, logger *zap.Logger) (*Report, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("bootstrap email %q is not valid", params.Email)
	}

	existing, err := stores.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup bootstrap user: %w", err)
	}
	if existing != nil {
		memberships, err := stores.Workspaces.ListUserMemberships(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("list bootstrap memberships: %w", err)
		}
		report := &Report{Created: false, UserID: existing.ID, Email: email}
		if len(memberships) > 0 {
			report.WorkspaceID = memberships[0].WorkspaceID
		}
		logger.Info("bootstrap user already present", zap.String("email", email))
		return report, nil
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash bootstrap password: %w", err)
	}
	now := identity.NowMS()

	user := models.User{
		ID:           identity.NewID(),
		Email:        email,
		Name:         "Owner",
		PasswordHash: hash,
	}
	if err := stores.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create bootstrap user: %w", err)
	}

	workspace := models.Workspace{
		ID:        identity.NewID(),
		Name:      params.WorkspaceName,
		CreatedBy: user.ID,
		CreatedAt: now,
	}
	if err := stores.Workspaces.Put(ctx, workspace); err != nil {
		return nil, fmt.Errorf("create bootstrap workspace: %w", err)
	}
	membership := models.Membership{WorkspaceID: workspace.ID, UserID: user.ID, Role: models.RoleOwner}
	if err := stores.Workspaces.PutMembership(ctx, membership); err != nil {
		return nil, fmt.Errorf("create bootstrap membership: %w", err)
	}

	channel := models.Channel{
		ID:          identity.NewID(),
		WorkspaceID: workspace.ID,
		Name:        DefaultChannelName,
		CreatedBy:   user.ID,
		CreatedAt:   now,
	}
	if err := stores.Channels.Create(ctx, channel); err != nil {
		return nil, fmt.Errorf("create bootstrap channel: %w", err)
	}

	logger.Info("bootstrap seeded",
		zap.String("email", email),
		zap.String("workspace_id", workspace.ID.String()),
	)
	return &Report{
		Created:     true,
		UserID:      user.ID,
		WorkspaceID: workspace.ID,
		ChannelID:   channel.ID,
		Email:       email,
	}, nil
}
