package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lalith-99/galynx/internal/models"
)

type attachmentDoc struct {
	ID          string  `bson:"_id"`
	WorkspaceID string  `bson:"workspace_id"`
	ChannelID   string  `bson:"channel_id"`
	MessageID   *string `bson:"message_id,omitempty"`
	UploaderID  string  `bson:"uploader_id"`
	Filename    string  `bson:"filename"`
	ContentType string  `bson:"content_type"`
	SizeBytes   int64   `bson:"size_bytes"`
	Bucket      string  `bson:"storage_bucket"`
	Key         string  `bson:"storage_key"`
	Region      string  `bson:"storage_region"`
	CreatedAt   int64   `bson:"created_at"`
}

func toAttachmentDoc(attachment models.Attachment) attachmentDoc {
	doc := attachmentDoc{
		ID:          attachment.ID.String(),
		WorkspaceID: attachment.WorkspaceID.String(),
		ChannelID:   attachment.ChannelID.String(),
		UploaderID:  attachment.UploaderID.String(),
		Filename:    attachment.Filename,
		ContentType: attachment.ContentType,
		SizeBytes:   attachment.SizeBytes,
		Bucket:      attachment.Bucket,
		Key:         attachment.Key,
		Region:      attachment.Region,
		CreatedAt:   attachment.CreatedAt,
	}
	if attachment.MessageID != nil {
		messageID := attachment.MessageID.String()
		doc.MessageID = &messageID
	}
	return doc
}

func (d attachmentDoc) model() (models.Attachment, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("parse attachment id: %w", err)
	}
	workspaceID, err := uuid.Parse(d.WorkspaceID)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("parse attachment workspace_id: %w", err)
	}
	channelID, err := uuid.Parse(d.ChannelID)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("parse attachment channel_id: %w", err)
	}
	uploaderID, err := uuid.Parse(d.UploaderID)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("parse attachment uploader_id: %w", err)
	}
	attachment := models.Attachment{
		ID:          id,
		WorkspaceID: workspaceID,
		ChannelID:   channelID,
		UploaderID:  uploaderID,
		Filename:    d.Filename,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		Bucket:      d.Bucket,
		Key:         d.Key,
		Region:      d.Region,
		CreatedAt:   d.CreatedAt,
	}
	if d.MessageID != nil {
		messageID, err := uuid.Parse(*d.MessageID)
		if err != nil {
			return models.Attachment{}, fmt.Errorf("parse attachment message_id: %w", err)
		}
		attachment.MessageID = &messageID
	}
	return attachment, nil
}

type AttachmentStore struct {
	coll *mongo.Collection
}

func (s *AttachmentStore) Put(ctx context.Context, attachment models.Attachment) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := s.coll.ReplaceOne(ctx,
			bson.M{"_id": attachment.ID.String()},
			toAttachmentDoc(attachment),
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("upsert attachment: %w", err)
		}
		return nil
	})
}

func (s *AttachmentStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	var doc attachmentDoc
	err := withRetry(ctx, func(ctx context.Context) error {
		return s.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find attachment: %w", err)
	}
	attachment, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}
