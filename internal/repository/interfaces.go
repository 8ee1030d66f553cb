package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lalith-99/galynx/internal/models"
)

// Every method takes a context because both backends do (or may do) I/O,
// and callers carry request deadlines. Lookups return nil, nil when the
// record does not exist; "not found" is a domain decision made above the
// repository layer.

// UserRepository handles authenticated identities.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error

	// GetByEmail looks a user up by lowercased email. Returns nil, nil if absent.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// WorkspaceRepository handles workspaces and workspace memberships.
type WorkspaceRepository interface {
	Put(ctx context.Context, workspace models.Workspace) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)

	// PutMembership upserts the (workspace, user) role.
	PutMembership(ctx context.Context, membership models.Membership) error
	GetMembership(ctx context.Context, workspaceID, userID uuid.UUID) (*models.Membership, error)

	// ListUserMemberships returns every workspace the user belongs to.
	ListUserMemberships(ctx context.Context, userID uuid.UUID) ([]models.Membership, error)

	// ListWorkspaceMemberships returns every member of a workspace.
	ListWorkspaceMemberships(ctx context.Context, workspaceID uuid.UUID) ([]models.Membership, error)
}

// ChannelRepository handles channels and private-channel membership.
type ChannelRepository interface {
	Create(ctx context.Context, channel models.Channel) error
	GetByID(ctx context.Context, channelID uuid.UUID) (*models.Channel, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Channel, error)

	// NameExists checks the per-workspace unique name constraint. Names are
	// stored trimmed and lowercased, so this is an exact match.
	NameExists(ctx context.Context, workspaceID uuid.UUID, name string) (bool, error)

	// Delete removes the channel and its member rows. Message cleanup is
	// the MessageRepository's job.
	Delete(ctx context.Context, channelID uuid.UUID) error

	AddMember(ctx context.Context, member models.ChannelMember) error
	RemoveMember(ctx context.Context, channelID, userID uuid.UUID) error
	ListMembers(ctx context.Context, channelID uuid.UUID) ([]models.ChannelMember, error)

	// IsMember is the hot-path check before every private-channel read.
	IsMember(ctx context.Context, channelID, userID uuid.UUID) (bool, error)
}

// MessageRepository handles message persistence. Soft-deleted messages are
// returned by every method; tombstone rendering happens in the service.
type MessageRepository interface {
	Create(ctx context.Context, message models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)

	// Update replaces the stored message matched by ID.
	Update(ctx context.Context, message models.Message) error

	// ListChannelPage returns up to limit channel messages strictly older
	// than the cursor, newest first by (created_at, id).
	ListChannelPage(ctx context.Context, channelID uuid.UUID, before *Cursor, limit int) ([]models.Message, error)

	// ListThreadPage is ListChannelPage scoped to one thread's replies.
	ListThreadPage(ctx context.Context, rootID uuid.UUID, before *Cursor, limit int) ([]models.Message, error)

	// ListThread returns all replies of a thread, oldest first.
	ListThread(ctx context.Context, rootID uuid.UUID) ([]models.Message, error)

	// DeleteByChannel hard-removes every message in a channel. Only channel
	// deletion cascades call this.
	DeleteByChannel(ctx context.Context, channelID uuid.UUID) error
}

// ReactionRepository stores (message, emoji, user) tuples with set semantics.
type ReactionRepository interface {
	Add(ctx context.Context, reaction models.Reaction) error
	Remove(ctx context.Context, reaction models.Reaction) error

	// ListUsers returns the distinct users who reacted with emoji.
	ListUsers(ctx context.Context, messageID uuid.UUID, emoji string) ([]uuid.UUID, error)
}

// RefreshSessionRepository stores refresh tokens keyed by their SHA-256 hash.
type RefreshSessionRepository interface {
	Put(ctx context.Context, session models.RefreshSession) error
	Get(ctx context.Context, tokenHash string) (*models.RefreshSession, error)
	Update(ctx context.Context, session models.RefreshSession) error
}

// PendingUploadRepository stores presigned uploads awaiting commit.
type PendingUploadRepository interface {
	Put(ctx context.Context, pending models.PendingUpload) error

	// Take consumes the pending upload exactly once. A second Take for the
	// same ID returns nil, nil.
	Take(ctx context.Context, uploadID string) (*models.PendingUpload, error)
}

// AttachmentRepository stores committed attachment metadata.
type AttachmentRepository interface {
	Put(ctx context.Context, attachment models.Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error)
}

// AuditRepository is append-only.
type AuditRepository interface {
	Append(ctx context.Context, entry models.AuditEntry) error

	// ListPage pages workspace entries newest first, same cursor rules as
	// message listings.
	ListPage(ctx context.Context, workspaceID uuid.UUID, before *Cursor, limit int) ([]models.AuditEntry, error)
}

// Stores bundles one implementation of every repository so wiring stays a
// single value.
type Stores struct {
	Users          UserRepository
	Workspaces     WorkspaceRepository
	Channels       ChannelRepository
	Messages       MessageRepository
	Reactions      ReactionRepository
	RefreshTokens  RefreshSessionRepository
	PendingUploads PendingUploadRepository
	Attachments    AttachmentRepository
	Audit          AuditRepository
}
