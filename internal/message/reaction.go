package message

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lalith-99/galynx/internal/access"
	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/audit"
	"github.com/lalith-99/galynx/internal/events"
	"github.com/lalith-99/galynx/internal/identity"
	"github.com/lalith-99/galynx/internal/models"
)

// MaxEmojiRunes caps an emoji identifier after trimming.
const MaxEmojiRunes = 32

// Reaction ops carried on ReactionUpdate.Op.
const (
	OpAdd    = "add"
	OpRemove = "remove"
)

// React adds or removes one (message, emoji, user) tuple and returns the
// aggregated state for that emoji. Set semantics: re-adding or removing a
// missing tuple still succeeds and reports the current aggregate.
func (s *Service) React(ctx context.Context, principal access.Principal, messageID uuid.UUID, emoji string, add bool) (*ReactionUpdate, error) {
	emoji, err := validateEmoji(emoji)
	if err != nil {
		return nil, err
	}
	message, err := s.visibleMessage(ctx, principal, messageID)
	if err != nil {
		return nil, err
	}
	if message.Deleted() {
		return nil, apperr.NotFound("message not found")
	}

	reaction := models.Reaction{
		MessageID: message.ID,
		Emoji:     emoji,
		UserID:    principal.UserID,
	}
	op := OpAdd
	action := audit.ActionReactionAdded
	if add {
		err = s.reactions.Add(ctx, reaction)
	} else {
		op = OpRemove
		action = audit.ActionReactionRemoved
		err = s.reactions.Remove(ctx, reaction)
	}
	if err != nil {
		return nil, fmt.Errorf("%s reaction: %w", op, err)
	}

	users, err := s.reactions.ListUsers(ctx, message.ID, emoji)
	if err != nil {
		return nil, fmt.Errorf("list reaction users: %w", err)
	}
	update := &ReactionUpdate{
		MessageID:   message.ID,
		ChannelID:   message.ChannelID,
		WorkspaceID: message.WorkspaceID,
		Emoji:       emoji,
		Count:       len(users),
		UserIDs:     users,
		Op:          op,
	}

	channelID := message.ChannelID
	s.bus.Publish(events.Event{
		Type:        events.TypeReactionUpdated,
		WorkspaceID: message.WorkspaceID,
		ChannelID:   &channelID,
		ServerTS:    identity.NowMS(),
		Payload:     update,
	})
	targetID := message.ID.String()
	s.recorder.Record(message.WorkspaceID, &principal.UserID, action, "message", &targetID,
		map[string]any{"emoji": emoji, "channel_id": message.ChannelID.String()})
	return update, nil
}

func validateEmoji(emoji string) (string, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return "", apperr.BadRequest("emoji must not be empty")
	}
	if utf8.RuneCountInString(emoji) > MaxEmojiRunes {
		return "", apperr.BadRequest("emoji exceeds 32 characters")
	}
	return emoji, nil
}
