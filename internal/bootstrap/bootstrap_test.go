package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/auth"
	"github.com/lalith-99/galynx/internal/models"
	memstore "github.com/lalith-99/galynx/internal/repository/memory"
)

func TestSeedCreatesOwnerWorkspaceAndChannel(t *testing.T) {
	ctx := t.Context()
	stores := memstore.NewStores()

	report, err := Seed(ctx, stores, Params{
		WorkspaceName: "Acme",
		Email:         "  Owner@Acme.Test ",
		Password:      "hunter2hunter2",
	}, zap.NewNop())
	require.NoError(t, err)
	require.True(t, report.Created)
	assert.Equal(t, "owner@acme.test", report.Email)

	owner, err := stores.Users.GetByEmail(ctx, "owner@acme.test")
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, report.UserID, owner.ID)
	ok, err := auth.VerifyPassword("hunter2hunter2", owner.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	membership, err := stores.Workspaces.GetMembership(ctx, report.WorkspaceID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	assert.Equal(t, models.RoleOwner, membership.Role)

	channels, err := stores.Channels.ListByWorkspace(ctx, report.WorkspaceID)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, DefaultChannelName, channels[0].Name)
	assert.False(t, channels[0].IsPrivate)
	assert.Equal(t, report.ChannelID, channels[0].ID)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := t.Context()
	stores := memstore.NewStores()

	first, err := Seed(ctx, stores, Params{
		WorkspaceName: "Acme",
		Email:         "owner@acme.test",
		Password:      "hunter2hunter2",
	}, zap.NewNop())
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := Seed(ctx, stores, Params{
		WorkspaceName: "Acme Again",
		Email:         "OWNER@acme.test",
		Password:      "different-password",
	}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.UserID, second.UserID)
	assert.Equal(t, first.WorkspaceID, second.WorkspaceID)

	memberships, err := stores.Workspaces.ListUserMemberships(ctx, first.UserID)
	require.NoError(t, err)
	assert.Len(t, memberships, 1)

	channels, err := stores.Channels.ListByWorkspace(ctx, first.WorkspaceID)
	require.NoError(t, err)
	assert.Len(t, channels, 1)
}

func TestSeedRejectsInvalidEmail(t *testing.T) {
	stores := memstore.NewStores()

	_, err := Seed(t.Context(), stores, Params{
		WorkspaceName: "Acme",
		Email:         "not-an-email",
		Password:      "hunter2hunter2",
	}, zap.NewNop())
	require.Error(t, err)
}
