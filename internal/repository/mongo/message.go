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
	"github.com/lalith-99/galynx/internal/repository"
)

type messageDoc struct {
	ID           string  `bson:"_id"`
	WorkspaceID  string  `bson:"workspace_id"`
	ChannelID    string  `bson:"channel_id"`
	SenderID     string  `bson:"sender_id"`
	ThreadRootID *string `bson:"thread_root_id,omitempty"`
	BodyMD       string  `bson:"body_md"`
	CreatedAt    int64   `bson:"created_at"`
	EditedAt     *int64  `bson:"edited_at,omitempty"`
	DeletedAt    *int64  `bson:"deleted_at,omitempty"`
}

func toMessageDoc(message models.Message) messageDoc {
	doc := messageDoc{
		ID:          message.ID.String(),
		WorkspaceID: message.WorkspaceID.String(),
		ChannelID:   message.ChannelID.String(),
		SenderID:    message.SenderID.String(),
		BodyMD:      message.BodyMD,
		CreatedAt:   message.CreatedAt,
		EditedAt:    message.EditedAt,
		DeletedAt:   message.DeletedAt,
	}
	if message.ThreadRootID != nil {
		root := message.ThreadRootID.String()
		doc.ThreadRootID = &root
	}
	return doc
}

func (d messageDoc) model() (models.Message, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Message{}, fmt.Errorf("parse message id: %w", err)
	}
	workspaceID, err := uuid.Parse(d.WorkspaceID)
	if err != nil {
		return models.Message{}, fmt.Errorf("parse message workspace_id: %w", err)
	}
	channelID, err := uuid.Parse(d.ChannelID)
	if err != nil {
		return models.Message{}, fmt.Errorf("parse message channel_id: %w", err)
	}
	senderID, err := uuid.Parse(d.SenderID)
	if err != nil {
		return models.Message{}, fmt.Errorf("parse message sender_id: %w", err)
	}
	message := models.Message{
		ID:          id,
		WorkspaceID: workspaceID,
		ChannelID:   channelID,
		SenderID:    senderID,
		BodyMD:      d.BodyMD,
		CreatedAt:   d.CreatedAt,
		EditedAt:    d.EditedAt,
		DeletedAt:   d.DeletedAt,
	}
	if d.ThreadRootID != nil {
		root, err := uuid.Parse(*d.ThreadRootID)
		if err != nil {
			return models.Message{}, fmt.Errorf("parse message thread_root_id: %w", err)
		}
		message.ThreadRootID = &root
	}
	return message, nil
}

type MessageStore struct {
	coll *mongo.Collection
}

func (s *MessageStore) Create(ctx context.Context, message models.Message) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := s.coll.InsertOne(ctx, toMessageDoc(message))
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		return nil
	})
}

func (s *MessageStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var doc messageDoc
	err := withRetry(ctx, func(ctx context.Context) error {
		return s.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find message: %w", err)
	}
	message, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (s *MessageStore) Update(ctx context.Context, message models.Message) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": message.ID.String()}, toMessageDoc(message))
		if err != nil {
			return fmt.Errorf("replace message: %w", err)
		}
		return nil
	})
}

func (s *MessageStore) ListChannelPage(ctx context.Context, channelID uuid.UUID, before *repository.Cursor, limit int) ([]models.Message, error) {
	return s.listPage(ctx, cursorFilter(bson.M{"channel_id": channelID.String()}, before), limit)
}

func (s *MessageStore) ListThreadPage(ctx context.Context, rootID uuid.UUID, before *repository.Cursor, limit int) ([]models.Message, error) {
	return s.listPage(ctx, cursorFilter(bson.M{"thread_root_id": rootID.String()}, before), limit)
}

func (s *MessageStore) listPage(ctx context.Context, filter bson.M, limit int) ([]models.Message, error) {
	var docs []messageDoc
	err := withRetry(ctx, func(ctx context.Context) error {
		cur, err := s.coll.Find(ctx, filter,
			options.Find().SetSort(pageSort).SetLimit(int64(limit)),
		)
		if err != nil {
			return err
		}
		docs = docs[:0]
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return docsToMessages(docs)
}

func (s *MessageStore) ListThread(ctx context.Context, rootID uuid.UUID) ([]models.Message, error) {
	var docs []messageDoc
	err := withRetry(ctx, func(ctx context.Context) error {
		cur, err := s.coll.Find(ctx,
			bson.M{"thread_root_id": rootID.String()},
			options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
		)
		if err != nil {
			return err
		}
		docs = docs[:0]
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, fmt.Errorf("list thread: %w", err)
	}
	return docsToMessages(docs)
}

func (s *MessageStore) DeleteByChannel(ctx context.Context, channelID uuid.UUID) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := s.coll.DeleteMany(ctx, bson.M{"channel_id": channelID.String()})
		if err != nil {
			return fmt.Errorf("delete channel messages: %w", err)
		}
		return nil
	})
}

func docsToMessages(docs []messageDoc) ([]models.Message, error) {
	items := make([]models.Message, 0, len(docs))
	for _, doc := range docs {
		message, err := doc.model()
		if err != nil {
			return nil, err
		}
		items = append(items, message)
	}
	return items, nil
}
