package models

import (
	"github.com/google/uuid"
)

// Role is a user's standing within one workspace.
type Role string

// Workspace roles. Owner goes to whoever creates a workspace (bootstrap or
// POST /workspaces); membership and user APIs can grant admin and member.
const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ValidRole reports whether value is one of the three membership roles.
func ValidRole(value string) bool {
	switch Role(value) {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Workspace is the top-level isolation boundary. Every user membership,
// channel and message belongs to exactly one workspace.
type Workspace struct {
	ID        uuid.UUID `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name"`
	CreatedBy uuid.UUID `json:"created_by" bson:"created_by"`
	CreatedAt int64     `json:"created_at" bson:"created_at"`
}

// User is an authenticated identity. Workspace roles live on Membership,
// not here, so one user can belong to several workspaces.
type User struct {
	ID           uuid.UUID `json:"id" bson:"id"`
	Email        string    `json:"email" bson:"email"`
	Name         string    `json:"name" bson:"name"`
	PasswordHash string    `json:"-" bson:"password_hash"`
}

// Membership joins a user to a workspace with a role.
type Membership struct {
	WorkspaceID uuid.UUID `json:"workspace_id" bson:"workspace_id"`
	UserID      uuid.UUID `json:"user_id" bson:"user_id"`
	Role        Role      `json:"role" bson:"role"`
}

// Channel is a chat room within a workspace. Names are stored trimmed and
// lowercased and are unique per workspace.
type Channel struct {
	ID          uuid.UUID `json:"id" bson:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id" bson:"workspace_id"`
	Name        string    `json:"name" bson:"name"`
	IsPrivate   bool      `json:"is_private" bson:"is_private"`
	CreatedBy   uuid.UUID `json:"created_by" bson:"created_by"`
	CreatedAt   int64     `json:"created_at" bson:"created_at"`
}

// ChannelMember joins a user to a private channel.
type ChannelMember struct {
	ChannelID uuid.UUID `json:"channel_id" bson:"channel_id"`
	UserID    uuid.UUID `json:"user_id" bson:"user_id"`
	AddedAt   int64     `json:"added_at" bson:"added_at"`
}

// Message is a chat message. Deletion is soft: DeletedAt is set and the
// row stays so listings can render a tombstone.
type Message struct {
	ID           uuid.UUID  `json:"id" bson:"id"`
	WorkspaceID  uuid.UUID  `json:"workspace_id" bson:"workspace_id"`
	ChannelID    uuid.UUID  `json:"channel_id" bson:"channel_id"`
	SenderID     uuid.UUID  `json:"sender_id" bson:"sender_id"`
	ThreadRootID *uuid.UUID `json:"thread_root_id,omitempty" bson:"thread_root_id,omitempty"`
	BodyMD       string     `json:"body_md" bson:"body_md"`
	CreatedAt    int64      `json:"created_at" bson:"created_at"`
	EditedAt     *int64     `json:"edited_at,omitempty" bson:"edited_at,omitempty"`
	DeletedAt    *int64     `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
}

// Deleted reports whether the message has been soft-deleted.
func (m *Message) Deleted() bool {
	return m.DeletedAt != nil
}

// Reaction is one (message, emoji, user) tuple. Set semantics: adding an
// existing tuple or removing a missing one is a no-op.
type Reaction struct {
	MessageID uuid.UUID `json:"message_id" bson:"message_id"`
	Emoji     string    `json:"emoji" bson:"emoji"`
	UserID    uuid.UUID `json:"user_id" bson:"user_id"`
}

// RefreshSession is a stored refresh token. Only the SHA-256 hex hash of
// the opaque token is kept; ReplacedByHash links rotations into a chain so
// reuse detection can revoke every descendant.
type RefreshSession struct {
	TokenHash      string    `json:"-" bson:"token_hash"`
	UserID         uuid.UUID `json:"user_id" bson:"user_id"`
	ExpiresAt      int64     `json:"expires_at" bson:"expires_at"`
	RevokedAt      *int64    `json:"revoked_at,omitempty" bson:"revoked_at,omitempty"`
	ReplacedByHash *string   `json:"-" bson:"replaced_by_hash,omitempty"`
}

// PendingUpload is a presigned upload waiting to be committed. Commit
// consumes it exactly once; expired pendings are rejected at commit time.
type PendingUpload struct {
	UploadID    string    `json:"upload_id" bson:"upload_id"`
	WorkspaceID uuid.UUID `json:"workspace_id" bson:"workspace_id"`
	ChannelID   uuid.UUID `json:"channel_id" bson:"channel_id"`
	UploaderID  uuid.UUID `json:"uploader_id" bson:"uploader_id"`
	Filename    string    `json:"filename" bson:"filename"`
	ContentType string    `json:"content_type" bson:"content_type"`
	SizeBytes   int64     `json:"size_bytes" bson:"size_bytes"`
	StorageKey  string    `json:"storage_key" bson:"storage_key"`
	ExpiresAt   int64     `json:"expires_at" bson:"expires_at"`
	CreatedAt   int64     `json:"created_at" bson:"created_at"`
}

// Attachment is committed upload metadata. The blob itself lives in the
// object store; the API only hands out presigned URLs.
type Attachment struct {
	ID          uuid.UUID  `json:"id" bson:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id" bson:"workspace_id"`
	ChannelID   uuid.UUID  `json:"channel_id" bson:"channel_id"`
	MessageID   *uuid.UUID `json:"message_id,omitempty" bson:"message_id,omitempty"`
	UploaderID  uuid.UUID  `json:"uploader_id" bson:"uploader_id"`
	Filename    string     `json:"filename" bson:"filename"`
	ContentType string     `json:"content_type" bson:"content_type"`
	SizeBytes   int64      `json:"size_bytes" bson:"size_bytes"`
	Bucket      string     `json:"storage_bucket" bson:"bucket"`
	Key         string     `json:"storage_key" bson:"key"`
	Region      string     `json:"storage_region" bson:"region"`
	CreatedAt   int64      `json:"created_at" bson:"created_at"`
}

// AuditEntry is one append-only audit record.
type AuditEntry struct {
	ID          uuid.UUID      `json:"id" bson:"id"`
	WorkspaceID uuid.UUID      `json:"workspace_id" bson:"workspace_id"`
	ActorID     *uuid.UUID     `json:"actor_id,omitempty" bson:"actor_id,omitempty"`
	Action      string         `json:"action" bson:"action"`
	TargetType  string         `json:"target_type" bson:"target_type"`
	TargetID    *string        `json:"target_id,omitempty" bson:"target_id,omitempty"`
	Metadata    map[string]any `json:"metadata" bson:"metadata"`
	CreatedAt   int64          `json:"created_at" bson:"created_at"`
}
