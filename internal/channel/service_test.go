package channel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/access"
	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/audit"
	"github.com/lalith-99/galynx/internal/events"
	"github.com/lalith-99/galynx/internal/identity"
	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/repository"
	"github.com/lalith-99/galynx/internal/repository/memory"
)

type fixture struct {
	service *Service
	stores  *repository.Stores
	bus     *events.Bus
	admin   access.Principal
	member  access.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	stores := memory.NewStores()
	bus := events.NewBus()
	recorder := audit.NewRecorder(stores.Audit, zap.NewNop())
	t.Cleanup(recorder.Close)
	checker := access.NewChecker(stores.Channels)
	service := NewService(stores.Channels, stores.Messages, stores.Workspaces, checker, bus, recorder, zap.NewNop())

	ctx := context.Background()
	workspaceID := identity.NewID()
	admin := access.Principal{UserID: identity.NewID(), WorkspaceID: workspaceID, Role: models.RoleAdmin}
	member := access.Principal{UserID: identity.NewID(), WorkspaceID: workspaceID, Role: models.RoleMember}
	require.NoError(t, stores.Workspaces.Put(ctx, models.Workspace{ID: workspaceID, Name: "Acme", CreatedBy: admin.UserID, CreatedAt: identity.NowMS()}))
	require.NoError(t, stores.Workspaces.PutMembership(ctx, models.Membership{WorkspaceID: workspaceID, UserID: admin.UserID, Role: models.RoleAdmin}))
	require.NoError(t, stores.Workspaces.PutMembership(ctx, models.Membership{WorkspaceID: workspaceID, UserID: member.UserID, Role: models.RoleMember}))

	return &fixture{service: service, stores: stores, bus: bus, admin: admin, member: member}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperr.From(err).Code)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, f.member, "general", false)
	assertCode(t, err, apperr.CodeForbidden)

	_, err = f.service.Create(ctx, f.admin, "   ", false)
	assertCode(t, err, apperr.CodeBadRequest)

	created, err := f.service.Create(ctx, f.admin, "  GENERAL ", false)
	require.NoError(t, err)
	assert.Equal(t, "general", created.Name)

	// Names are unique per workspace after normalization.
	_, err = f.service.Create(ctx, f.admin, "General", false)
	assertCode(t, err, apperr.CodeBadRequest)
}

func TestCreateBroadcastsAndSeedsPrivateMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub := f.bus.Subscribe(f.admin.WorkspaceID)
	defer f.bus.Unsubscribe(sub)

	created, err := f.service.Create(ctx, f.admin, "war-room", true)
	require.NoError(t, err)

	event := <-sub.C
	assert.Equal(t, events.TypeChannelCreated, event.Type)
	view, ok := event.Payload.(View)
	require.True(t, ok)
	assert.Equal(t, created.ID, view.ID)
	assert.True(t, view.IsPrivate)

	isMember, err := f.stores.Channels.IsMember(ctx, created.ID, f.admin.UserID)
	require.NoError(t, err)
	assert.True(t, isMember)
}

func TestListFiltersPrivateChannels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	public, err := f.service.Create(ctx, f.admin, "general", false)
	require.NoError(t, err)
	private, err := f.service.Create(ctx, f.admin, "secret", true)
	require.NoError(t, err)

	views, err := f.service.List(ctx, f.member)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, public.ID, views[0].ID)

	// Admins see private channels without membership.
	views, err = f.service.List(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, views, 2)

	require.NoError(t, f.service.AddMember(ctx, f.admin, private.ID, f.member.UserID))
	views, err = f.service.List(ctx, f.member)
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestDeleteCascadesMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	channel, err := f.service.Create(ctx, f.admin, "doomed", false)
	require.NoError(t, err)
	msg := models.Message{
		ID:          identity.NewID(),
		WorkspaceID: channel.WorkspaceID,
		ChannelID:   channel.ID,
		SenderID:    f.member.UserID,
		BodyMD:      "last words",
		CreatedAt:   identity.NowMS(),
	}
	require.NoError(t, f.stores.Messages.Create(ctx, msg))

	// A plain member who is not the creator cannot delete.
	err = f.service.Delete(ctx, f.member, channel.ID)
	assertCode(t, err, apperr.CodeForbidden)

	sub := f.bus.Subscribe(f.admin.WorkspaceID)
	defer f.bus.Unsubscribe(sub)

	require.NoError(t, f.service.Delete(ctx, f.admin, channel.ID))
	event := <-sub.C
	assert.Equal(t, events.TypeChannelDeleted, event.Type)

	gone, err := f.stores.Channels.GetByID(ctx, channel.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	goneMsg, err := f.stores.Messages.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Nil(t, goneMsg)
}

func TestDeleteByCreator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The creator may delete their own channel even without an admin role.
	channel := models.Channel{
		ID:          identity.NewID(),
		WorkspaceID: f.member.WorkspaceID,
		Name:        "mine",
		CreatedBy:   f.member.UserID,
		CreatedAt:   identity.NowMS(),
	}
	require.NoError(t, f.stores.Channels.Create(ctx, channel))
	require.NoError(t, f.service.Delete(ctx, f.member, channel.ID))
}

func TestMemberManagement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	private, err := f.service.Create(ctx, f.admin, "secret", true)
	require.NoError(t, err)
	public, err := f.service.Create(ctx, f.admin, "general", false)
	require.NoError(t, err)

	// Public channels have no managed membership.
	err = f.service.AddMember(ctx, f.admin, public.ID, f.member.UserID)
	assertCode(t, err, apperr.CodeBadRequest)

	// Only workspace members can be added.
	err = f.service.AddMember(ctx, f.admin, private.ID, identity.NewID())
	assertCode(t, err, apperr.CodeNotFound)

	require.NoError(t, f.service.AddMember(ctx, f.admin, private.ID, f.member.UserID))
	members, err := f.service.ListMembers(ctx, f.admin, private.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	// Member listings are an admin surface.
	_, err = f.service.ListMembers(ctx, f.member, private.ID)
	assertCode(t, err, apperr.CodeForbidden)

	require.NoError(t, f.service.RemoveMember(ctx, f.admin, private.ID, f.member.UserID))
	members, err = f.service.ListMembers(ctx, f.admin, private.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	// Once removed, the channel disappears for the former member.
	_, err = f.service.Get(ctx, f.member, private.ID)
	assertCode(t, err, apperr.CodeNotFound)
}

func TestCrossWorkspaceReadsAsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	channel, err := f.service.Create(ctx, f.admin, "general", false)
	require.NoError(t, err)

	outsider := access.Principal{UserID: identity.NewID(), WorkspaceID: identity.NewID(), Role: models.RoleOwner}
	_, err = f.service.Get(ctx, outsider, channel.ID)
	assertCode(t, err, apperr.CodeNotFound)
	err = f.service.Delete(ctx, outsider, channel.ID)
	assertCode(t, err, apperr.CodeNotFound)
}
