package message

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
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
	service   *Service
	stores    *repository.Stores
	bus       *events.Bus
	workspace models.Workspace
	channel   models.Channel
	member    access.Principal
	admin     access.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	stores := memory.NewStores()
	bus := events.NewBus()
	recorder := audit.NewRecorder(stores.Audit, zap.NewNop())
	t.Cleanup(recorder.Close)

	workspace := models.Workspace{ID: identity.NewID(), Name: "acme", CreatedAt: identity.NowMS()}
	require.NoError(t, stores.Workspaces.Put(ctx, workspace))

	channel := models.Channel{
		ID:          identity.NewID(),
		WorkspaceID: workspace.ID,
		Name:        "general",
		CreatedAt:   identity.NowMS(),
	}
	require.NoError(t, stores.Channels.Create(ctx, channel))

	member := access.Principal{UserID: identity.NewID(), WorkspaceID: workspace.ID, Role: models.RoleMember}
	admin := access.Principal{UserID: identity.NewID(), WorkspaceID: workspace.ID, Role: models.RoleAdmin}

	service := NewService(stores.Messages, stores.Reactions, access.NewChecker(stores.Channels), bus, recorder, zap.NewNop())
	return &fixture{
		service:   service,
		stores:    stores,
		bus:       bus,
		workspace: workspace,
		channel:   channel,
		member:    member,
		admin:     admin,
	}
}

func TestCreateValidatesBody(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, f.member, f.channel.ID, "  hello world  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello world", created.BodyMD)
	assert.Equal(t, f.channel.ID, created.ChannelID)

	_, err = f.service.Create(ctx, f.member, f.channel.ID, "   ", nil)
	assertCode(t, err, apperr.CodeBadRequest)

	_, err = f.service.Create(ctx, f.member, f.channel.ID, strings.Repeat("x", MaxBodyBytes+1), nil)
	assertCode(t, err, apperr.CodeBadRequest)
}

func TestCreateBroadcasts(t *testing.T) {
	f := newFixture(t)
	sub := f.bus.Subscribe(f.workspace.ID)
	defer f.bus.Unsubscribe(sub)

	created, err := f.service.Create(context.Background(), f.member, f.channel.ID, "hi", nil)
	require.NoError(t, err)

	event := <-sub.C
	assert.Equal(t, events.TypeMessageCreated, event.Type)
	view := event.Payload.(View)
	assert.Equal(t, created.ID, view.ID)
}

func TestEditOnlyBySender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.service.Create(ctx, f.member, f.channel.ID, "original", nil)
	require.NoError(t, err)

	_, err = f.service.Edit(ctx, f.admin, created.ID, "hijacked")
	assertCode(t, err, apperr.CodeForbidden)

	edited, err := f.service.Edit(ctx, f.member, created.ID, "revised")
	require.NoError(t, err)
	assert.Equal(t, "revised", edited.BodyMD)
	require.NotNil(t, edited.EditedAt)
}

func TestDeletePermissionsAndIdempotency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := access.Principal{UserID: identity.NewID(), WorkspaceID: f.workspace.ID, Role: models.RoleMember}

	created, err := f.service.Create(ctx, f.member, f.channel.ID, "to delete", nil)
	require.NoError(t, err)

	_, err = f.service.Delete(ctx, other, created.ID)
	assertCode(t, err, apperr.CodeForbidden)

	// Admin may delete another member's message.
	deleted, err := f.service.Delete(ctx, f.admin, created.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted.DeletedAt)

	// Deleting again is a no-op, not an error.
	again, err := f.service.Delete(ctx, f.admin, created.ID)
	require.NoError(t, err)
	assert.Equal(t, deleted.DeletedAt, again.DeletedAt)

	// Tombstones reject edits.
	_, err = f.service.Edit(ctx, f.member, created.ID, "necromancy")
	assertCode(t, err, apperr.CodeNotFound)
}

func TestListChannelTombstonesAndPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		created, err := f.service.Create(ctx, f.member, f.channel.ID, "message body", nil)
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}
	_, err := f.service.Delete(ctx, f.member, ids[2])
	require.NoError(t, err)

	page, err := f.service.ListChannel(ctx, f.member, f.channel.ID, "", 3)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	require.NotNil(t, page.NextCursor)
	// Newest first.
	assert.Equal(t, ids[4], page.Items[0].ID)

	// The deleted message is listed as a tombstone with an empty body.
	assert.Equal(t, ids[2], page.Items[2].ID)
	assert.True(t, page.Items[2].Deleted)
	assert.Empty(t, page.Items[2].BodyMD)

	rest, err := f.service.ListChannel(ctx, f.member, f.channel.ID, *page.NextCursor, 3)
	require.NoError(t, err)
	require.Len(t, rest.Items, 2)
	assert.Nil(t, rest.NextCursor)
	assert.Equal(t, ids[1], rest.Items[0].ID)

	_, err = f.service.ListChannel(ctx, f.member, f.channel.ID, "not-a-cursor", 3)
	assertCode(t, err, apperr.CodeBadRequest)
}

func TestThreadRepliesInheritRootChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root, err := f.service.Create(ctx, f.member, f.channel.ID, "root", nil)
	require.NoError(t, err)

	reply, err := f.service.CreateReply(ctx, f.admin, root.ID, "reply")
	require.NoError(t, err)
	assert.Equal(t, f.channel.ID, reply.ChannelID)
	require.NotNil(t, reply.ThreadRootID)
	assert.Equal(t, root.ID, *reply.ThreadRootID)

	// A reply cannot itself be a thread root.
	_, err = f.service.CreateReply(ctx, f.member, reply.ID, "nested")
	assertCode(t, err, apperr.CodeBadRequest)

	other := models.Channel{ID: identity.NewID(), WorkspaceID: f.workspace.ID, Name: "random", CreatedAt: identity.NowMS()}
	require.NoError(t, f.stores.Channels.Create(ctx, other))
	_, err = f.service.Create(ctx, f.member, other.ID, "wrong room", &root.ID)
	assertCode(t, err, apperr.CodeBadRequest)
}

func TestThreadSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root, err := f.service.Create(ctx, f.member, f.channel.ID, "root", nil)
	require.NoError(t, err)

	first, err := f.service.CreateReply(ctx, f.admin, root.ID, "first")
	require.NoError(t, err)
	second, err := f.service.CreateReply(ctx, f.member, root.ID, "second")
	require.NoError(t, err)

	summary, err := f.service.ThreadSummary(ctx, f.member, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ReplyCount)
	require.NotNil(t, summary.LastReplyAt)
	assert.Equal(t, second.CreatedAt, *summary.LastReplyAt)
	// Root sender leads the participant list.
	assert.Equal(t, []uuid.UUID{f.member.UserID, f.admin.UserID}, summary.Participants)

	// Deleted replies still count but stop contributing participants.
	_, err = f.service.Delete(ctx, f.member, second.ID)
	require.NoError(t, err)
	summary, err = f.service.ThreadSummary(ctx, f.member, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ReplyCount)
	assert.Equal(t, first.CreatedAt, *summary.LastReplyAt)
	assert.Equal(t, []uuid.UUID{f.member.UserID, f.admin.UserID}, summary.Participants)

	// A deleted root hides the whole thread.
	_, err = f.service.Delete(ctx, f.member, root.ID)
	require.NoError(t, err)
	_, err = f.service.ThreadSummary(ctx, f.member, root.ID)
	assertCode(t, err, apperr.CodeNotFound)
}

func TestPrivateChannelVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	private := models.Channel{
		ID:          identity.NewID(),
		WorkspaceID: f.workspace.ID,
		Name:        "secret",
		IsPrivate:   true,
		CreatedAt:   identity.NowMS(),
	}
	require.NoError(t, f.stores.Channels.Create(ctx, private))
	require.NoError(t, f.stores.Channels.AddMember(ctx, models.ChannelMember{
		ChannelID: private.ID, UserID: f.member.UserID, AddedAt: identity.NowMS(),
	}))

	created, err := f.service.Create(ctx, f.member, private.ID, "secret note", nil)
	require.NoError(t, err)

	// Non-members cannot even observe that the channel exists.
	outsider := access.Principal{UserID: identity.NewID(), WorkspaceID: f.workspace.ID, Role: models.RoleMember}
	_, err = f.service.Create(ctx, outsider, private.ID, "knock knock", nil)
	assertCode(t, err, apperr.CodeNotFound)
	_, err = f.service.Edit(ctx, outsider, created.ID, "sneaky")
	assertCode(t, err, apperr.CodeNotFound)

	// Admins see private channels without membership.
	_, err = f.service.ListChannel(ctx, f.admin, private.ID, "", 10)
	require.NoError(t, err)

	// Cross-workspace lookups report not_found.
	stranger := access.Principal{UserID: identity.NewID(), WorkspaceID: identity.NewID(), Role: models.RoleAdmin}
	_, err = f.service.Edit(ctx, stranger, created.ID, "x")
	assertCode(t, err, apperr.CodeNotFound)
}

func TestReactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, f.member, f.channel.ID, "react to me", nil)
	require.NoError(t, err)

	update, err := f.service.React(ctx, f.member, created.ID, " :tada: ", true)
	require.NoError(t, err)
	assert.Equal(t, ":tada:", update.Emoji)
	assert.Equal(t, OpAdd, update.Op)
	assert.Equal(t, 1, update.Count)
	assert.Equal(t, []uuid.UUID{f.member.UserID}, update.UserIDs)

	// Re-adding is a no-op on the aggregate.
	update, err = f.service.React(ctx, f.member, created.ID, ":tada:", true)
	require.NoError(t, err)
	assert.Equal(t, 1, update.Count)

	update, err = f.service.React(ctx, f.admin, created.ID, ":tada:", true)
	require.NoError(t, err)
	assert.Equal(t, 2, update.Count)

	update, err = f.service.React(ctx, f.member, created.ID, ":tada:", false)
	require.NoError(t, err)
	assert.Equal(t, OpRemove, update.Op)
	assert.Equal(t, 1, update.Count)
	assert.Equal(t, []uuid.UUID{f.admin.UserID}, update.UserIDs)

	// Removing a missing tuple still reports the aggregate.
	update, err = f.service.React(ctx, f.member, created.ID, ":tada:", false)
	require.NoError(t, err)
	assert.Equal(t, 1, update.Count)

	_, err = f.service.React(ctx, f.member, created.ID, "   ", true)
	assertCode(t, err, apperr.CodeBadRequest)
	_, err = f.service.React(ctx, f.member, created.ID, strings.Repeat("x", MaxEmojiRunes+1), true)
	assertCode(t, err, apperr.CodeBadRequest)

	_, err = f.service.Delete(ctx, f.member, created.ID)
	require.NoError(t, err)
	_, err = f.service.React(ctx, f.member, created.ID, ":tada:", true)
	assertCode(t, err, apperr.CodeNotFound)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}
