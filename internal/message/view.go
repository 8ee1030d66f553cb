package message

import (
	"github.com/google/uuid"

	"github.com/lalith-99/galynx/internal/models"
)

// View is the client-facing rendering of a message. Soft-deleted messages
// stay listed as tombstones: empty body, deleted flag set.
type View struct {
	ID           uuid.UUID  `json:"id"`
	WorkspaceID  uuid.UUID  `json:"workspace_id"`
	ChannelID    uuid.UUID  `json:"channel_id"`
	SenderID     uuid.UUID  `json:"sender_id"`
	ThreadRootID *uuid.UUID `json:"thread_root_id,omitempty"`
	BodyMD       string     `json:"body_md"`
	CreatedAt    int64      `json:"created_at"`
	EditedAt     *int64     `json:"edited_at,omitempty"`
	Deleted      bool       `json:"deleted"`
}

func NewView(m models.Message) View {
	view := View{
		ID:           m.ID,
		WorkspaceID:  m.WorkspaceID,
		ChannelID:    m.ChannelID,
		SenderID:     m.SenderID,
		ThreadRootID: m.ThreadRootID,
		BodyMD:       m.BodyMD,
		CreatedAt:    m.CreatedAt,
		EditedAt:     m.EditedAt,
		Deleted:      m.Deleted(),
	}
	if view.Deleted {
		view.BodyMD = ""
	}
	return view
}

// Page is one listing window plus the cursor for the next one.
type Page struct {
	Items      []View  `json:"items"`
	NextCursor *string `json:"next_cursor"`
}

// ThreadSummary aggregates a thread's replies. Participants start with the
// root sender; soft-deleted replies count toward ReplyCount but contribute
// neither participants nor LastReplyAt.
type ThreadSummary struct {
	RootID       uuid.UUID   `json:"root_id"`
	ChannelID    uuid.UUID   `json:"channel_id"`
	ReplyCount   int         `json:"reply_count"`
	LastReplyAt  *int64      `json:"last_reply_at_ms"`
	Participants []uuid.UUID `json:"participants"`
}

// ReactionUpdate is the aggregated reaction state after one add or remove.
type ReactionUpdate struct {
	MessageID   uuid.UUID   `json:"message_id"`
	ChannelID   uuid.UUID   `json:"channel_id"`
	WorkspaceID uuid.UUID   `json:"workspace_id"`
	Emoji       string      `json:"emoji"`
	Count       int         `json:"count"`
	UserIDs     []uuid.UUID `json:"user_ids"`
	Op          string      `json:"op"`
}
