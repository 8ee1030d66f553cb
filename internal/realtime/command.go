package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/message"
)

// Command names accepted over the realtime socket.
const (
	CmdSendMessage    = "SEND_MESSAGE"
	CmdEditMessage    = "EDIT_MESSAGE"
	CmdDeleteMessage  = "DELETE_MESSAGE"
	CmdAddReaction    = "ADD_REACTION"
	CmdRemoveReaction = "REMOVE_REACTION"
	CmdFetchMore      = "FETCH_MORE"
	CmdFetchThread    = "FETCH_THREAD"
)

// maxClientMsgIDLen caps client_msg_id after trimming.
const maxClientMsgIDLen = 128

// commandEnvelope is one inbound frame.
type commandEnvelope struct {
	Command     string          `json:"command"`
	ClientMsgID string          `json:"client_msg_id"`
	Payload     json.RawMessage `json:"payload"`
}

// ackPayload rides inside an ACK event. Deduped marks a replay from the
// idempotency cache.
type ackPayload struct {
	Command     string `json:"command"`
	ClientMsgID string `json:"client_msg_id,omitempty"`
	Deduped     bool   `json:"deduped"`
	Result      any    `json:"result"`
}

// errorPayload rides inside an ERROR event.
type errorPayload struct {
	Command     string `json:"command,omitempty"`
	ClientMsgID string `json:"client_msg_id,omitempty"`
	Status      int    `json:"status"`
	Error       string `json:"error"`
	Message     string `json:"message"`
}

type sendMessagePayload struct {
	ChannelID    uuid.UUID  `json:"channel_id"`
	BodyMD       string     `json:"body_md"`
	ThreadRootID *uuid.UUID `json:"thread_root_id"`
}

type editMessagePayload struct {
	MessageID uuid.UUID `json:"message_id"`
	BodyMD    string    `json:"body_md"`
}

type deleteMessagePayload struct {
	MessageID uuid.UUID `json:"message_id"`
}

type reactionPayload struct {
	MessageID uuid.UUID `json:"message_id"`
	Emoji     string    `json:"emoji"`
}

type fetchMorePayload struct {
	ChannelID uuid.UUID `json:"channel_id"`
	Cursor    string    `json:"cursor"`
	Limit     int       `json:"limit"`
}

type fetchThreadPayload struct {
	RootID uuid.UUID `json:"root_id"`
	Cursor string    `json:"cursor"`
	Limit  int       `json:"limit"`
}

// execute runs one command and returns its ACK result.
func (s *session) execute(ctx context.Context, env commandEnvelope) (any, error) {
	switch env.Command {
	case CmdSendMessage:
		var payload sendMessagePayload
		if err := decodePayload(env.Payload, &payload); err != nil {
			return nil, err
		}
		created, err := s.engine.messages.Create(ctx, s.principal, payload.ChannelID, payload.BodyMD, payload.ThreadRootID)
		if err != nil {
			return nil, err
		}
		return message.NewView(*created), nil

	case CmdEditMessage:
		var payload editMessagePayload
		if err := decodePayload(env.Payload, &payload); err != nil {
			return nil, err
		}
		edited, err := s.engine.messages.Edit(ctx, s.principal, payload.MessageID, payload.BodyMD)
		if err != nil {
			return nil, err
		}
		return message.NewView(*edited), nil

	case CmdDeleteMessage:
		var payload deleteMessagePayload
		if err := decodePayload(env.Payload, &payload); err != nil {
			return nil, err
		}
		deleted, err := s.engine.messages.Delete(ctx, s.principal, payload.MessageID)
		if err != nil {
			return nil, err
		}
		return message.NewView(*deleted), nil

	case CmdAddReaction, CmdRemoveReaction:
		var payload reactionPayload
		if err := decodePayload(env.Payload, &payload); err != nil {
			return nil, err
		}
		return s.engine.messages.React(ctx, s.principal, payload.MessageID, payload.Emoji, env.Command == CmdAddReaction)

	case CmdFetchMore:
		var payload fetchMorePayload
		if err := decodePayload(env.Payload, &payload); err != nil {
			return nil, err
		}
		return s.engine.messages.ListChannel(ctx, s.principal, payload.ChannelID, payload.Cursor, payload.Limit)

	case CmdFetchThread:
		var payload fetchThreadPayload
		if err := decodePayload(env.Payload, &payload); err != nil {
			return nil, err
		}
		return s.engine.messages.ListThreadReplies(ctx, s.principal, payload.RootID, payload.Cursor, payload.Limit)
	}
	return nil, apperr.BadRequest("unknown command")
}

// commandTarget extracts the identifier that scopes a mutating command's
// idempotency key: the channel for sends, the message for the rest.
func commandTarget(command string, raw json.RawMessage) string {
	var probe struct {
		ChannelID uuid.UUID `json:"channel_id"`
		MessageID uuid.UUID `json:"message_id"`
	}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &probe)
	}
	if command == CmdSendMessage {
		return probe.ChannelID.String()
	}
	return probe.MessageID.String()
}

// mutating reports whether a command goes through the idempotency cache.
func mutating(command string) bool {
	switch command {
	case CmdSendMessage, CmdEditMessage, CmdDeleteMessage, CmdAddReaction, CmdRemoveReaction:
		return true
	}
	return false
}

// normalizeClientMsgID trims and validates an optional client_msg_id. An
// absent id stays absent; a present one must be non-empty and at most 128
// characters after trimming.
func normalizeClientMsgID(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", apperr.BadRequest("client_msg_id must not be blank")
	}
	if utf8.RuneCountInString(id) > maxClientMsgIDLen {
		return "", apperr.BadRequest("client_msg_id exceeds 128 characters")
	}
	return id, nil
}

func decodePayload(raw json.RawMessage, target any) error {
	if len(raw) == 0 {
		return apperr.BadRequest("missing command payload")
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return apperr.BadRequest("malformed command payload")
	}
	return nil
}
