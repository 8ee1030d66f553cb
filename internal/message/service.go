// Package message implements message creation, editing, soft deletion,
// listings, threads and reactions. The HTTP handlers and the realtime
// engine both route through this service so validation, permissions and
// event publication stay identical.
package message

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/access"
	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/audit"
	"github.com/lalith-99/galynx/internal/events"
	"github.com/lalith-99/galynx/internal/identity"
	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/repository"
)

// MaxBodyBytes caps a message body after trimming.
const MaxBodyBytes = 32 << 10

type Service struct {
	messages  repository.MessageRepository
	reactions repository.ReactionRepository
	checker   *access.Checker
	bus       *events.Bus
	recorder  *audit.Recorder
	logger    *zap.Logger
}

func NewService(
	messages repository.MessageRepository,
	reactions repository.ReactionRepository,
	checker *access.Checker,
	bus *events.Bus,
	recorder *audit.Recorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		messages:  messages,
		reactions: reactions,
		checker:   checker,
		bus:       bus,
		recorder:  recorder,
		logger:    logger,
	}
}

// Create posts a message to a channel. When threadRootID is set the root
// must be a live top-level message in the same channel.
func (s *Service) Create(ctx context.Context, principal access.Principal, channelID uuid.UUID, body string, threadRootID *uuid.UUID) (*models.Message, error) {
	channel, err := s.checker.ResolveChannel(ctx, principal, channelID)
	if err != nil {
		return nil, err
	}
	body, err = validateBody(body)
	if err != nil {
		return nil, err
	}

	if threadRootID != nil {
		root, err := s.liveRoot(ctx, principal, *threadRootID)
		if err != nil {
			return nil, err
		}
		if root.ChannelID != channel.ID {
			return nil, apperr.BadRequest("thread root is in a different channel")
		}
	}

	message := models.Message{
		ID:           identity.NewID(),
		WorkspaceID:  channel.WorkspaceID,
		ChannelID:    channel.ID,
		SenderID:     principal.UserID,
		ThreadRootID: threadRootID,
		BodyMD:       body,
		CreatedAt:    identity.NowMS(),
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	s.broadcast(events.TypeMessageCreated, message)
	action := audit.ActionMessageCreated
	if threadRootID != nil {
		action = audit.ActionThreadReplyCreated
		s.publishThreadUpdate(ctx, principal, *threadRootID, channel.ID)
	}
	targetID := message.ID.String()
	s.recorder.Record(channel.WorkspaceID, &principal.UserID, action, "message", &targetID,
		map[string]any{"channel_id": channel.ID.String()})
	return &message, nil
}

// CreateReply posts into a thread, inheriting the root's channel.
func (s *Service) CreateReply(ctx context.Context, principal access.Principal, rootID uuid.UUID, body string) (*models.Message, error) {
	root, err := s.liveRoot(ctx, principal, rootID)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, principal, root.ChannelID, body, &rootID)
}

// Edit replaces a message body. Only the sender may edit, and tombstones
// are not editable.
func (s *Service) Edit(ctx context.Context, principal access.Principal, messageID uuid.UUID, body string) (*models.Message, error) {
	message, err := s.visibleMessage(ctx, principal, messageID)
	if err != nil {
		return nil, err
	}
	if message.Deleted() {
		return nil, apperr.NotFound("message not found")
	}
	if message.SenderID != principal.UserID {
		return nil, apperr.Forbidden("only the sender can edit a message")
	}
	body, err = validateBody(body)
	if err != nil {
		return nil, err
	}

	now := identity.NowMS()
	message.BodyMD = body
	message.EditedAt = &now
	if err := s.messages.Update(ctx, *message); err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}

	s.broadcast(events.TypeMessageUpdated, *message)
	targetID := message.ID.String()
	s.recorder.Record(message.WorkspaceID, &principal.UserID, audit.ActionMessageUpdated, "message", &targetID,
		map[string]any{"channel_id": message.ChannelID.String()})
	return message, nil
}

// Delete soft-deletes a message. The sender or a workspace admin may
// delete; deleting an already-deleted message is a no-op.
func (s *Service) Delete(ctx context.Context, principal access.Principal, messageID uuid.UUID) (*models.Message, error) {
	message, err := s.visibleMessage(ctx, principal, messageID)
	if err != nil {
		return nil, err
	}
	if message.Deleted() {
		return message, nil
	}
	if message.SenderID != principal.UserID && !principal.IsAdmin() {
		return nil, apperr.Forbidden("cannot delete another user's message")
	}

	now := identity.NowMS()
	message.DeletedAt = &now
	if err := s.messages.Update(ctx, *message); err != nil {
		return nil, fmt.Errorf("delete message: %w", err)
	}

	s.broadcast(events.TypeMessageDeleted, *message)
	targetID := message.ID.String()
	s.recorder.Record(message.WorkspaceID, &principal.UserID, audit.ActionMessageDeleted, "message", &targetID,
		map[string]any{"channel_id": message.ChannelID.String()})
	return message, nil
}

// ListChannel pages a channel's messages newest-first.
func (s *Service) ListChannel(ctx context.Context, principal access.Principal, channelID uuid.UUID, cursor string, limit int) (*Page, error) {
	channel, err := s.checker.ResolveChannel(ctx, principal, channelID)
	if err != nil {
		return nil, err
	}
	before, limit, err := pageArgs(cursor, limit)
	if err != nil {
		return nil, err
	}
	items, err := s.messages.ListChannelPage(ctx, channel.ID, before, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list channel messages: %w", err)
	}
	return buildPage(items, limit), nil
}

// ListThreadReplies pages a thread's replies newest-first.
func (s *Service) ListThreadReplies(ctx context.Context, principal access.Principal, rootID uuid.UUID, cursor string, limit int) (*Page, error) {
	root, err := s.liveRoot(ctx, principal, rootID)
	if err != nil {
		return nil, err
	}
	if _, err := s.checker.ResolveChannel(ctx, principal, root.ChannelID); err != nil {
		return nil, err
	}
	before, limit, err := pageArgs(cursor, limit)
	if err != nil {
		return nil, err
	}
	items, err := s.messages.ListThreadPage(ctx, root.ID, before, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list thread replies: %w", err)
	}
	return buildPage(items, limit), nil
}

// ThreadSummary aggregates a thread's reply activity.
func (s *Service) ThreadSummary(ctx context.Context, principal access.Principal, rootID uuid.UUID) (*ThreadSummary, error) {
	root, err := s.liveRoot(ctx, principal, rootID)
	if err != nil {
		return nil, err
	}
	if _, err := s.checker.ResolveChannel(ctx, principal, root.ChannelID); err != nil {
		return nil, err
	}
	return s.summarize(ctx, *root)
}

func (s *Service) summarize(ctx context.Context, root models.Message) (*ThreadSummary, error) {
	replies, err := s.messages.ListThread(ctx, root.ID)
	if err != nil {
		return nil, fmt.Errorf("list thread: %w", err)
	}

	summary := &ThreadSummary{
		RootID:       root.ID,
		ChannelID:    root.ChannelID,
		ReplyCount:   len(replies),
		Participants: []uuid.UUID{root.SenderID},
	}
	seen := map[uuid.UUID]struct{}{root.SenderID: {}}
	for _, reply := range replies {
		if reply.Deleted() {
			continue
		}
		created := reply.CreatedAt
		summary.LastReplyAt = &created
		if _, ok := seen[reply.SenderID]; !ok {
			seen[reply.SenderID] = struct{}{}
			summary.Participants = append(summary.Participants, reply.SenderID)
		}
	}
	return summary, nil
}

// liveRoot resolves a thread root: it must exist in the caller's
// workspace, be top-level, and not be deleted.
func (s *Service) liveRoot(ctx context.Context, principal access.Principal, rootID uuid.UUID) (*models.Message, error) {
	root, err := s.messages.GetByID(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("lookup thread root: %w", err)
	}
	if root == nil || root.WorkspaceID != principal.WorkspaceID || root.Deleted() {
		return nil, apperr.NotFound("thread root not found")
	}
	if root.ThreadRootID != nil {
		return nil, apperr.BadRequest("message is not a thread root")
	}
	return root, nil
}

// visibleMessage loads a message the principal is allowed to see,
// including the channel-level visibility rules.
func (s *Service) visibleMessage(ctx context.Context, principal access.Principal, messageID uuid.UUID) (*models.Message, error) {
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("lookup message: %w", err)
	}
	if message == nil || message.WorkspaceID != principal.WorkspaceID {
		return nil, apperr.NotFound("message not found")
	}
	if _, err := s.checker.ResolveChannel(ctx, principal, message.ChannelID); err != nil {
		return nil, err
	}
	return message, nil
}

func (s *Service) publishThreadUpdate(ctx context.Context, principal access.Principal, rootID, channelID uuid.UUID) {
	root, err := s.messages.GetByID(ctx, rootID)
	if err != nil || root == nil {
		s.logger.Warn("thread update skipped", zap.String("root_id", rootID.String()), zap.Error(err))
		return
	}
	summary, err := s.summarize(ctx, *root)
	if err != nil {
		s.logger.Warn("thread update skipped", zap.String("root_id", rootID.String()), zap.Error(err))
		return
	}
	channel := channelID
	s.bus.Publish(events.Event{
		Type:        events.TypeThreadUpdated,
		WorkspaceID: principal.WorkspaceID,
		ChannelID:   &channel,
		ServerTS:    identity.NowMS(),
		Payload:     summary,
	})
}

func (s *Service) broadcast(eventType string, message models.Message) {
	channelID := message.ChannelID
	s.bus.Publish(events.Event{
		Type:        eventType,
		WorkspaceID: message.WorkspaceID,
		ChannelID:   &channelID,
		ServerTS:    identity.NowMS(),
		Payload:     NewView(message),
	})
}

func validateBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", apperr.BadRequest("message body must not be empty")
	}
	if len(body) > MaxBodyBytes {
		return "", apperr.BadRequest("message body exceeds 32768 bytes")
	}
	return body, nil
}

func pageArgs(cursor string, limit int) (*repository.Cursor, int, error) {
	before, err := repository.ParseCursor(cursor)
	if err != nil {
		return nil, 0, apperr.BadRequest("invalid cursor")
	}
	return before, repository.ClampLimit(limit), nil
}

// buildPage trims the probe row and derives next_cursor from the last
// returned item when the probe confirmed older rows exist.
func buildPage(items []models.Message, limit int) *Page {
	page := &Page{Items: make([]View, 0, len(items))}
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	for _, item := range items {
		page.Items = append(page.Items, NewView(item))
	}
	if hasMore {
		last := items[len(items)-1]
		cursor := repository.EncodeCursor(last.CreatedAt, last.ID)
		page.NextCursor = &cursor
	}
	return page
}
