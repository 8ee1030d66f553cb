package attach

import (
	"context"
	"strings"
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
	"github.com/lalith-99/galynx/internal/objstore"
	"github.com/lalith-99/galynx/internal/repository"
	"github.com/lalith-99/galynx/internal/repository/memory"
)

func newTestSetup(t *testing.T) (*Service, access.Principal, *models.Channel) {
	service, _, _, principal, channel := newTestSetupFull(t)
	return service, principal, channel
}

func newTestSetupFull(t *testing.T) (*Service, *repository.Stores, *events.Bus, access.Principal, *models.Channel) {
	t.Helper()
	stores := memory.NewStores()
	bus := events.NewBus()
	recorder := audit.NewRecorder(stores.Audit, zap.NewNop())
	t.Cleanup(recorder.Close)
	service := NewService(stores.PendingUploads, stores.Attachments, stores.Messages, objstore.NewLocal(), bus, recorder, zap.NewNop())

	workspaceID := identity.NewID()
	principal := access.Principal{
		UserID:      identity.NewID(),
		WorkspaceID: workspaceID,
		Role:        models.RoleMember,
	}
	channel := &models.Channel{
		ID:          identity.NewID(),
		WorkspaceID: workspaceID,
		Name:        "general",
		CreatedBy:   principal.UserID,
		CreatedAt:   identity.NowMS(),
	}
	return service, stores, bus, principal, channel
}

func TestPresignValidation(t *testing.T) {
	service, principal, channel := newTestSetup(t)
	ctx := context.Background()

	_, err := service.Presign(ctx, principal, channel, "  ", "image/png", 100)
	assert.Equal(t, apperr.CodeBadRequest, apperr.From(err).Code)

	_, err = service.Presign(ctx, principal, channel, "cat.png", "", 100)
	assert.Equal(t, apperr.CodeBadRequest, apperr.From(err).Code)

	_, err = service.Presign(ctx, principal, channel, "cat.png", "image/png", 0)
	assert.Equal(t, apperr.CodeBadRequest, apperr.From(err).Code)

	_, err = service.Presign(ctx, principal, channel, "cat.png", "image/png", MaxSizeBytes+1)
	assert.Equal(t, apperr.CodeBadRequest, apperr.From(err).Code)
}

func TestPresignThenCommit(t *testing.T) {
	service, principal, channel := newTestSetup(t)
	ctx := context.Background()

	result, err := service.Presign(ctx, principal, channel, "q3 report.pdf", "application/pdf", 2048)
	require.NoError(t, err)
	assert.NotEmpty(t, result.UploadID)
	assert.Contains(t, result.UploadURL, "storage.galynx.local")
	assert.True(t, strings.HasSuffix(result.Key, "-q3_report.pdf"))
	assert.Contains(t, result.Key, "workspace/"+channel.WorkspaceID.String()+"/channel/"+channel.ID.String()+"/uploads/")

	attachment, err := service.Commit(ctx, principal, result.UploadID, nil)
	require.NoError(t, err)
	assert.Equal(t, "q3 report.pdf", attachment.Filename)
	assert.Equal(t, result.Key, attachment.Key)
	assert.Equal(t, int64(2048), attachment.SizeBytes)

	// A ticket commits at most once.
	_, err = service.Commit(ctx, principal, result.UploadID, nil)
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)
}

func TestCommitOwnershipChecks(t *testing.T) {
	service, principal, channel := newTestSetup(t)
	ctx := context.Background()

	result, err := service.Presign(ctx, principal, channel, "cat.png", "image/png", 100)
	require.NoError(t, err)

	otherWorkspace := principal
	otherWorkspace.WorkspaceID = identity.NewID()
	_, err = service.Commit(ctx, otherWorkspace, result.UploadID, nil)
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)

	// The workspace check consumed the ticket; issue a fresh one.
	result, err = service.Presign(ctx, principal, channel, "cat.png", "image/png", 100)
	require.NoError(t, err)

	otherUser := principal
	otherUser.UserID = identity.NewID()
	_, err = service.Commit(ctx, otherUser, result.UploadID, nil)
	assert.Equal(t, apperr.CodeForbidden, apperr.From(err).Code)
}

func TestCommitWithMessageBroadcastsUpdate(t *testing.T) {
	service, stores, bus, principal, channel := newTestSetupFull(t)
	ctx := context.Background()

	msg := models.Message{
		ID:          identity.NewID(),
		WorkspaceID: channel.WorkspaceID,
		ChannelID:   channel.ID,
		SenderID:    principal.UserID,
		BodyMD:      "see attached",
		CreatedAt:   identity.NowMS(),
	}
	require.NoError(t, stores.Messages.Create(ctx, msg))

	sub := bus.Subscribe(channel.WorkspaceID)
	defer bus.Unsubscribe(sub)

	result, err := service.Presign(ctx, principal, channel, "q3.pdf", "application/pdf", 512)
	require.NoError(t, err)
	attachment, err := service.Commit(ctx, principal, result.UploadID, &msg.ID)
	require.NoError(t, err)
	require.NotNil(t, attachment.MessageID)
	assert.Equal(t, msg.ID, *attachment.MessageID)

	event := <-sub.C
	assert.Equal(t, events.TypeMessageUpdated, event.Type)

	// An unknown message leaves nothing attached.
	result, err = service.Presign(ctx, principal, channel, "q4.pdf", "application/pdf", 512)
	require.NoError(t, err)
	missing := identity.NewID()
	_, err = service.Commit(ctx, principal, result.UploadID, &missing)
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)
}

func TestGetAttachment(t *testing.T) {
	service, principal, channel := newTestSetup(t)
	ctx := context.Background()

	result, err := service.Presign(ctx, principal, channel, "cat.png", "image/png", 100)
	require.NoError(t, err)
	attachment, err := service.Commit(ctx, principal, result.UploadID, nil)
	require.NoError(t, err)

	got, downloadURL, err := service.Get(ctx, principal, attachment.ID)
	require.NoError(t, err)
	assert.Equal(t, attachment.ID, got.ID)
	assert.Contains(t, downloadURL, "storage.galynx.local")

	outsider := principal
	outsider.WorkspaceID = identity.NewID()
	_, _, err = service.Get(ctx, outsider, attachment.ID)
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)
}

func TestPresignAndCommitWriteAuditTrail(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores()
	recorder := audit.NewRecorder(stores.Audit, zap.NewNop())
	service := NewService(stores.PendingUploads, stores.Attachments, stores.Messages, objstore.NewLocal(), events.NewBus(), recorder, zap.NewNop())

	workspaceID := identity.NewID()
	principal := access.Principal{
		UserID:      identity.NewID(),
		WorkspaceID: workspaceID,
		Role:        models.RoleMember,
	}
	channel := &models.Channel{
		ID:          identity.NewID(),
		WorkspaceID: workspaceID,
		Name:        "general",
		CreatedBy:   principal.UserID,
		CreatedAt:   identity.NowMS(),
	}

	result, err := service.Presign(ctx, principal, channel, "cat.png", "image/png", 100)
	require.NoError(t, err)
	attachment, err := service.Commit(ctx, principal, result.UploadID, nil)
	require.NoError(t, err)

	// Close drains the queue so every entry has landed.
	recorder.Close()

	entries, err := stores.Audit.ListPage(ctx, workspaceID, nil, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first: commit, then presign.
	assert.Equal(t, audit.ActionAttachmentCommit, entries[0].Action)
	require.NotNil(t, entries[0].TargetID)
	assert.Equal(t, attachment.ID.String(), *entries[0].TargetID)
	assert.Equal(t, audit.ActionAttachmentPresign, entries[1].Action)
	require.NotNil(t, entries[1].TargetID)
	assert.Equal(t, result.UploadID, *entries[1].TargetID)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report-v2_final.pdf", SanitizeFilename("report-v2_final.pdf"))
	assert.Equal(t, "caf__menu.txt", SanitizeFilename("café menu.txt"))
	assert.Equal(t, "____.png", SanitizeFilename("猫の写真.png"))
}
