package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lalith-99/galynx/internal/models"
)

type pendingUploadDoc struct {
	UploadID    string `bson:"_id"`
	WorkspaceID string `bson:"workspace_id"`
	ChannelID   string `bson:"channel_id"`
	UploaderID  string `bson:"uploader_id"`
	Filename    string `bson:"filename"`
	ContentType string `bson:"content_type"`
	SizeBytes   int64  `bson:"size_bytes"`
	StorageKey  string `bson:"storage_key"`
	ExpiresAt   int64  `bson:"expires_at"`
	CreatedAt   int64  `bson:"created_at"`
}

func toPendingUploadDoc(upload models.PendingUpload) pendingUploadDoc {
	return pendingUploadDoc{
		UploadID:    upload.UploadID,
		WorkspaceID: upload.WorkspaceID.String(),
		ChannelID:   upload.ChannelID.String(),
		UploaderID:  upload.UploaderID.String(),
		Filename:    upload.Filename,
		ContentType: upload.ContentType,
		SizeBytes:   upload.SizeBytes,
		StorageKey:  upload.StorageKey,
		ExpiresAt:   upload.ExpiresAt,
		CreatedAt:   upload.CreatedAt,
	}
}

func (d pendingUploadDoc) model() (models.PendingUpload, error) {
	workspaceID, err := uuid.Parse(d.WorkspaceID)
	if err != nil {
		return models.PendingUpload{}, fmt.Errorf("parse pending upload workspace_id: %w", err)
	}
	channelID, err := uuid.Parse(d.ChannelID)
	if err != nil {
		return models.PendingUpload{}, fmt.Errorf("parse pending upload channel_id: %w", err)
	}
	uploaderID, err := uuid.Parse(d.UploaderID)
	if err != nil {
		return models.PendingUpload{}, fmt.Errorf("parse pending upload uploader_id: %w", err)
	}
	return models.PendingUpload{
		UploadID:    d.UploadID,
		WorkspaceID: workspaceID,
		ChannelID:   channelID,
		UploaderID:  uploaderID,
		Filename:    d.Filename,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		StorageKey:  d.StorageKey,
		ExpiresAt:   d.ExpiresAt,
		CreatedAt:   d.CreatedAt,
	}, nil
}

type PendingUploadStore struct {
	coll *mongo.Collection
}

func (s *PendingUploadStore) Put(ctx context.Context, upload models.PendingUpload) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := s.coll.InsertOne(ctx, toPendingUploadDoc(upload))
		if err != nil {
			return fmt.Errorf("insert pending upload: %w", err)
		}
		return nil
	})
}

// Take atomically removes and returns the pending upload. FindOneAndDelete
// guarantees a ticket commits at most once even with concurrent callers.
func (s *PendingUploadStore) Take(ctx context.Context, uploadID string) (*models.PendingUpload, error) {
	var doc pendingUploadDoc
	err := withRetry(ctx, func(ctx context.Context) error {
		return s.coll.FindOneAndDelete(ctx, bson.M{"_id": uploadID}).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("take pending upload: %w", err)
	}
	upload, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &upload, nil
}
