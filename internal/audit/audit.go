// Package audit records who did what, asynchronously, so the primary
// request path never waits on the audit store.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/identity"
	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/repository"
)

// Audit action names.
const (
	ActionAuthLogin            = "AUTH_LOGIN"
	ActionAuthRefresh          = "AUTH_REFRESH"
	ActionAuthLogout           = "AUTH_LOGOUT"
	ActionUserCreated          = "USER_CREATED"
	ActionWorkspaceCreated     = "WORKSPACE_CREATED"
	ActionMemberOnboarded      = "WORKSPACE_MEMBER_ONBOARDED"
	ActionChannelCreated       = "CHANNEL_CREATED"
	ActionChannelDeleted       = "CHANNEL_DELETED"
	ActionChannelMemberAdded   = "CHANNEL_MEMBER_ADDED"
	ActionChannelMemberRemoved = "CHANNEL_MEMBER_REMOVED"
	ActionMessageCreated       = "MESSAGE_CREATED"
	ActionMessageUpdated       = "MESSAGE_UPDATED"
	ActionMessageDeleted       = "MESSAGE_DELETED"
	ActionThreadReplyCreated   = "THREAD_REPLY_CREATED"
	ActionReactionAdded        = "REACTION_ADDED"
	ActionReactionRemoved      = "REACTION_REMOVED"
	ActionAttachmentPresign    = "ATTACHMENT_PRESIGN"
	ActionAttachmentCommit     = "ATTACHMENT_COMMIT"
	ActionWSConnected          = "WS_CONNECTED"
	ActionWSDisconnected       = "WS_DISCONNECTED"
)

const queueSize = 1024

// Recorder buffers audit entries and writes them from a background
// goroutine. Record never blocks; when the buffer is full the entry is
// dropped with a warning.
type Recorder struct {
	repo   repository.AuditRepository
	logger *zap.Logger
	queue  chan models.AuditEntry
	wg     sync.WaitGroup
	once   sync.Once
}

func NewRecorder(repo repository.AuditRepository, logger *zap.Logger) *Recorder {
	r := &Recorder{
		repo:   repo,
		logger: logger,
		queue:  make(chan models.AuditEntry, queueSize),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Record enqueues an audit entry. actorID and targetID may be nil.
func (r *Recorder) Record(workspaceID uuid.UUID, actorID *uuid.UUID, action, targetType string, targetID *string, metadata map[string]any) {
	entry := models.AuditEntry{
		ID:          identity.NewID(),
		WorkspaceID: workspaceID,
		ActorID:     actorID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Metadata:    metadata,
		CreatedAt:   identity.NowMS(),
	}
	select {
	case r.queue <- entry:
	default:
		r.logger.Warn("audit queue full, dropping entry",
			zap.String("action", action),
			zap.String("workspace_id", workspaceID.String()),
		)
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for entry := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.repo.Append(ctx, entry); err != nil {
			r.logger.Error("append audit entry",
				zap.String("action", entry.Action),
				zap.Error(err),
			)
		}
		cancel()
	}
}

// Close drains the queue and stops the writer. Safe to call once at
// shutdown.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.queue)
	})
	r.wg.Wait()
}
