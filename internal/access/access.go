// Package access centralizes workspace and channel permission checks so
// the HTTP handlers and the realtime engine enforce identical rules.
package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/repository"
)

// Principal is the authenticated caller as seen by permission checks,
// extracted from access-token claims.
type Principal struct {
	UserID      uuid.UUID
	WorkspaceID uuid.UUID
	Email       string
	Role        models.Role
}

// IsAdmin reports whether the principal holds an administrative role.
func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleOwner || p.Role == models.RoleAdmin
}

type Checker struct {
	channels repository.ChannelRepository
}

func NewChecker(channels repository.ChannelRepository) *Checker {
	return &Checker{channels: channels}
}

// ResolveChannel loads a channel and enforces visibility. Channels outside
// the principal's workspace are reported as not_found so their existence
// never leaks, and the same applies to private channels the principal is
// not a member of; owners and admins bypass the membership requirement.
func (c *Checker) ResolveChannel(ctx context.Context, principal Principal, channelID uuid.UUID) (*models.Channel, error) {
	channel, err := c.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("lookup channel: %w", err)
	}
	if channel == nil || channel.WorkspaceID != principal.WorkspaceID {
		return nil, apperr.NotFound("channel not found")
	}
	if channel.IsPrivate && !principal.IsAdmin() {
		member, err := c.channels.IsMember(ctx, channel.ID, principal.UserID)
		if err != nil {
			return nil, fmt.Errorf("check channel membership: %w", err)
		}
		if !member {
			return nil, apperr.NotFound("channel not found")
		}
	}
	return channel, nil
}

// RequireAdmin gates owner/admin-only surfaces.
func RequireAdmin(principal Principal) error {
	if !principal.IsAdmin() {
		return apperr.Forbidden("admin role required")
	}
	return nil
}
