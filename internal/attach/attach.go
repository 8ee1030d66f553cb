// Package attach implements the two-phase attachment flow: presign an
// upload ticket, then commit it into an attachment record.
package attach

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/access"
	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/audit"
	"github.com/lalith-99/galynx/internal/events"
	"github.com/lalith-99/galynx/internal/identity"
	"github.com/lalith-99/galynx/internal/message"
	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/objstore"
	"github.com/lalith-99/galynx/internal/repository"
)

const (
	MaxSizeBytes = 100 << 20
	UploadTTL    = 900 * time.Second
	DownloadTTL  = 600 * time.Second
)

type Service struct {
	uploads     repository.PendingUploadRepository
	attachments repository.AttachmentRepository
	messages    repository.MessageRepository
	store       objstore.Storage
	bus         *events.Bus
	recorder    *audit.Recorder
	logger      *zap.Logger
}

func NewService(
	uploads repository.PendingUploadRepository,
	attachments repository.AttachmentRepository,
	messages repository.MessageRepository,
	store objstore.Storage,
	bus *events.Bus,
	recorder *audit.Recorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		uploads:     uploads,
		attachments: attachments,
		messages:    messages,
		store:       store,
		bus:         bus,
		recorder:    recorder,
		logger:      logger,
	}
}

// PresignResult is handed to the client so it can PUT the object body
// directly to storage.
type PresignResult struct {
	UploadID  string `json:"upload_id"`
	UploadURL string `json:"upload_url"`
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	ExpiresAt int64  `json:"expires_at"`
}

// Presign validates the upload request and issues a one-time ticket. The
// caller's channel access must already be checked.
func (s *Service) Presign(ctx context.Context, principal access.Principal, channel *models.Channel, filename, contentType string, sizeBytes int64) (*PresignResult, error) {
	filename = strings.TrimSpace(filename)
	contentType = strings.TrimSpace(contentType)
	if filename == "" {
		return nil, apperr.BadRequest("filename must not be empty")
	}
	if contentType == "" {
		return nil, apperr.BadRequest("content_type must not be empty")
	}
	if sizeBytes <= 0 || sizeBytes > MaxSizeBytes {
		return nil, apperr.BadRequest("size_bytes must be between 1 and 104857600")
	}

	uploadID := identity.NewID().String()
	key := fmt.Sprintf("workspace/%s/channel/%s/uploads/%s-%s",
		channel.WorkspaceID, channel.ID, uploadID, SanitizeFilename(filename))

	uploadURL, err := s.store.PresignPut(ctx, key, UploadTTL)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	now := identity.NowMS()
	pending := models.PendingUpload{
		UploadID:    uploadID,
		WorkspaceID: channel.WorkspaceID,
		ChannelID:   channel.ID,
		UploaderID:  principal.UserID,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		StorageKey:  key,
		ExpiresAt:   now + UploadTTL.Milliseconds(),
		CreatedAt:   now,
	}
	if err := s.uploads.Put(ctx, pending); err != nil {
		return nil, fmt.Errorf("store pending upload: %w", err)
	}

	s.recorder.Record(channel.WorkspaceID, &principal.UserID, audit.ActionAttachmentPresign, "attachment", &uploadID,
		map[string]any{"key": key, "expires_at": pending.ExpiresAt / 1000})

	return &PresignResult{
		UploadID:  uploadID,
		UploadURL: uploadURL,
		Bucket:    s.store.Bucket(),
		Key:       key,
		ExpiresAt: pending.ExpiresAt / 1000,
	}, nil
}

// Commit consumes a pending upload exactly once and records the
// attachment. Checks run in order: existence, workspace, uploader, expiry.
func (s *Service) Commit(ctx context.Context, principal access.Principal, uploadID string, messageID *uuid.UUID) (*models.Attachment, error) {
	pending, err := s.uploads.Take(ctx, uploadID)
	if err != nil {
		return nil, fmt.Errorf("take pending upload: %w", err)
	}
	if pending == nil {
		return nil, apperr.NotFound("upload not found")
	}
	if pending.WorkspaceID != principal.WorkspaceID {
		return nil, apperr.NotFound("upload not found")
	}
	if pending.UploaderID != principal.UserID {
		return nil, apperr.Forbidden("upload belongs to another user")
	}
	if pending.ExpiresAt <= identity.NowMS() {
		return nil, apperr.BadRequest("upload expired")
	}

	var attached *models.Message
	if messageID != nil {
		attached, err = s.messages.GetByID(ctx, *messageID)
		if err != nil {
			return nil, fmt.Errorf("lookup message: %w", err)
		}
		if attached == nil || attached.WorkspaceID != principal.WorkspaceID || attached.Deleted() {
			return nil, apperr.NotFound("message not found")
		}
		if attached.ChannelID != pending.ChannelID {
			return nil, apperr.BadRequest("message is in a different channel")
		}
	}

	attachment := models.Attachment{
		ID:          identity.NewID(),
		WorkspaceID: pending.WorkspaceID,
		ChannelID:   pending.ChannelID,
		MessageID:   messageID,
		UploaderID:  pending.UploaderID,
		Filename:    pending.Filename,
		ContentType: pending.ContentType,
		SizeBytes:   pending.SizeBytes,
		Bucket:      s.store.Bucket(),
		Key:         pending.StorageKey,
		Region:      s.store.Region(),
		CreatedAt:   identity.NowMS(),
	}
	if err := s.attachments.Put(ctx, attachment); err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	attachmentID := attachment.ID.String()
	s.recorder.Record(attachment.WorkspaceID, &principal.UserID, audit.ActionAttachmentCommit, "attachment", &attachmentID,
		map[string]any{"channel_id": attachment.ChannelID, "message_id": messageID})

	// Attaching to a message updates that message for everyone watching.
	if attached != nil {
		channelID := attached.ChannelID
		s.bus.Publish(events.Event{
			Type:        events.TypeMessageUpdated,
			WorkspaceID: attached.WorkspaceID,
			ChannelID:   &channelID,
			ServerTS:    identity.NowMS(),
			Payload:     message.NewView(*attached),
		})
	}
	return &attachment, nil
}

// Get returns attachment metadata with a fresh download URL. Attachments
// outside the caller's workspace read as not found.
func (s *Service) Get(ctx context.Context, principal access.Principal, id uuid.UUID) (*models.Attachment, string, error) {
	attachment, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("lookup attachment: %w", err)
	}
	if attachment == nil || attachment.WorkspaceID != principal.WorkspaceID {
		return nil, "", apperr.NotFound("attachment not found")
	}
	downloadURL, err := s.store.PresignGet(ctx, attachment.Key, attachment.Filename, DownloadTTL)
	if err != nil {
		return nil, "", fmt.Errorf("presign download: %w", err)
	}
	return attachment, downloadURL, nil
}

// SanitizeFilename keeps ASCII alphanumerics plus ".-_" and replaces every
// other character (rune) with a single underscore.
func SanitizeFilename(filename string) string {
	var b strings.Builder
	b.Grow(len(filename))
	for _, r := range filename {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
