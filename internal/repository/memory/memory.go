// Package memory is the default persistence backend: plain maps guarded by
// RWMutexes. It is the reference implementation for repository semantics;
// the mongo backend must behave identically.
package memory

import "github.com/lalith-99/galynx/internal/repository"

// NewStores wires a full in-memory repository set.
func NewStores() *repository.Stores {
	return &repository.Stores{
		Users:          NewUserStore(),
		Workspaces:     NewWorkspaceStore(),
		Channels:       NewChannelStore(),
		Messages:       NewMessageStore(),
		Reactions:      NewReactionStore(),
		RefreshTokens:  NewRefreshSessionStore(),
		PendingUploads: NewPendingUploadStore(),
		Attachments:    NewAttachmentStore(),
		Audit:          NewAuditStore(),
	}
}
