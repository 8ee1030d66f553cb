package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/identity"
	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/repository/memory"
)

func TestResolveChannelVisibility(t *testing.T) {
	stores := memory.NewStores()
	checker := NewChecker(stores.Channels)
	ctx := context.Background()

	workspaceID := identity.NewID()
	member := Principal{UserID: identity.NewID(), WorkspaceID: workspaceID, Role: models.RoleMember}
	admin := Principal{UserID: identity.NewID(), WorkspaceID: workspaceID, Role: models.RoleAdmin}
	outsider := Principal{UserID: identity.NewID(), WorkspaceID: identity.NewID(), Role: models.RoleOwner}

	public := models.Channel{ID: identity.NewID(), WorkspaceID: workspaceID, Name: "general", CreatedBy: admin.UserID, CreatedAt: identity.NowMS()}
	private := models.Channel{ID: identity.NewID(), WorkspaceID: workspaceID, Name: "secret", IsPrivate: true, CreatedBy: admin.UserID, CreatedAt: identity.NowMS()}
	require.NoError(t, stores.Channels.Create(ctx, public))
	require.NoError(t, stores.Channels.Create(ctx, private))

	got, err := checker.ResolveChannel(ctx, member, public.ID)
	require.NoError(t, err)
	assert.Equal(t, public.ID, got.ID)

	// A private channel hides from non-members entirely.
	_, err = checker.ResolveChannel(ctx, member, private.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)

	// Admins bypass private membership.
	_, err = checker.ResolveChannel(ctx, admin, private.ID)
	require.NoError(t, err)

	// Membership grants access.
	require.NoError(t, stores.Channels.AddMember(ctx, models.ChannelMember{ChannelID: private.ID, UserID: member.UserID, AddedAt: identity.NowMS()}))
	_, err = checker.ResolveChannel(ctx, member, private.ID)
	require.NoError(t, err)

	// Cross-workspace access reads as not found, never forbidden.
	_, err = checker.ResolveChannel(ctx, outsider, private.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)

	_, err = checker.ResolveChannel(ctx, member, identity.NewID())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(Principal{Role: models.RoleOwner}))
	assert.NoError(t, RequireAdmin(Principal{Role: models.RoleAdmin}))

	err := RequireAdmin(Principal{Role: models.RoleMember})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeForbidden, apperr.From(err).Code)
}
