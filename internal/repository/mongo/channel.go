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

type channelDoc struct {
	ID          string `bson:"_id"`
	WorkspaceID string `bson:"workspace_id"`
	Name        string `bson:"name"`
	IsPrivate   bool   `bson:"is_private"`
	CreatedBy   string `bson:"created_by"`
	CreatedAt   int64  `bson:"created_at"`
}

func toChannelDoc(channel models.Channel) channelDoc {
	return channelDoc{
		ID:          channel.ID.String(),
		WorkspaceID: channel.WorkspaceID.String(),
		Name:        channel.Name,
		IsPrivate:   channel.IsPrivate,
		CreatedBy:   channel.CreatedBy.String(),
		CreatedAt:   channel.CreatedAt,
	}
}

func (d channelDoc) model() (models.Channel, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Channel{}, fmt.Errorf("parse channel id: %w", err)
	}
	workspaceID, err := uuid.Parse(d.WorkspaceID)
	if err != nil {
		return models.Channel{}, fmt.Errorf("parse channel workspace_id: %w", err)
	}
	createdBy, err := uuid.Parse(d.CreatedBy)
	if err != nil {
		return models.Channel{}, fmt.Errorf("parse channel created_by: %w", err)
	}
	return models.Channel{
		ID:          id,
		WorkspaceID: workspaceID,
		Name:        d.Name,
		IsPrivate:   d.IsPrivate,
		CreatedBy:   createdBy,
		CreatedAt:   d.CreatedAt,
	}, nil
}

type channelMemberDoc struct {
	ChannelID string `bson:"channel_id"`
	UserID    string `bson:"user_id"`
	AddedAt   int64  `bson:"added_at"`
}

func (d channelMemberDoc) model() (models.ChannelMember, error) {
	channelID, err := uuid.Parse(d.ChannelID)
	if err != nil {
		return models.ChannelMember{}, fmt.Errorf("parse channel member channel_id: %w", err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return models.ChannelMember{}, fmt.Errorf("parse channel member user_id: %w", err)
	}
	return models.ChannelMember{ChannelID: channelID, UserID: userID, AddedAt: d.AddedAt}, nil
}

type ChannelStore struct {
	channels *mongo.Collection
	members  *mongo.Collection
}

func (s *ChannelStore) Create(ctx context.Context, channel models.Channel) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := s.channels.InsertOne(ctx, toChannelDoc(channel))
		if err != nil {
			return fmt.Errorf("insert channel: %w", err)
		}
		return nil
	})
}

func (s *ChannelStore) GetByID(ctx context.Context, channelID uuid.UUID) (*models.Channel, error) {
	var doc channelDoc
	err := withRetry(ctx, func(ctx context.Context) error {
		return s.channels.FindOne(ctx, bson.M{"_id": channelID.String()}).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find channel: %w", err)
	}
	channel, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

func (s *ChannelStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Channel, error) {
	var docs []channelDoc
	err := withRetry(ctx, func(ctx context.Context) error {
		cur, err := s.channels.Find(ctx,
			bson.M{"workspace_id": workspaceID.String()},
			options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
		)
		if err != nil {
			return err
		}
		docs = docs[:0]
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	items := make([]models.Channel, 0, len(docs))
	for _, doc := range docs {
		channel, err := doc.model()
		if err != nil {
			return nil, err
		}
		items = append(items, channel)
	}
	return items, nil
}

func (s *ChannelStore) NameExists(ctx context.Context, workspaceID uuid.UUID, name string) (bool, error) {
	var count int64
	err := withRetry(ctx, func(ctx context.Context) error {
		var err error
		count, err = s.channels.CountDocuments(ctx,
			bson.M{"workspace_id": workspaceID.String(), "name": name},
			options.Count().SetLimit(1),
		)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("count channels: %w", err)
	}
	return count > 0, nil
}

func (s *ChannelStore) Delete(ctx context.Context, channelID uuid.UUID) error {
	return withRetry(ctx, func(ctx context.Context) error {
		if _, err := s.channels.DeleteOne(ctx, bson.M{"_id": channelID.String()}); err != nil {
			return fmt.Errorf("delete channel: %w", err)
		}
		if _, err := s.members.DeleteMany(ctx, bson.M{"channel_id": channelID.String()}); err != nil {
			return fmt.Errorf("delete channel members: %w", err)
		}
		return nil
	})
}

func (s *ChannelStore) AddMember(ctx context.Context, member models.ChannelMember) error {
	return withRetry(ctx, func(ctx context.Context) error {
		// $setOnInsert keeps the original added_at when the row already exists.
		_, err := s.members.UpdateOne(ctx,
			bson.M{"channel_id": member.ChannelID.String(), "user_id": member.UserID.String()},
			bson.M{"$setOnInsert": channelMemberDoc{
				ChannelID: member.ChannelID.String(),
				UserID:    member.UserID.String(),
				AddedAt:   member.AddedAt,
			}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("upsert channel member: %w", err)
		}
		return nil
	})
}

func (s *ChannelStore) RemoveMember(ctx context.Context, channelID, userID uuid.UUID) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := s.members.DeleteOne(ctx,
			bson.M{"channel_id": channelID.String(), "user_id": userID.String()},
		)
		if err != nil {
			return fmt.Errorf("delete channel member: %w", err)
		}
		return nil
	})
}

func (s *ChannelStore) ListMembers(ctx context.Context, channelID uuid.UUID) ([]models.ChannelMember, error) {
	var docs []channelMemberDoc
	err := withRetry(ctx, func(ctx context.Context) error {
		cur, err := s.members.Find(ctx,
			bson.M{"channel_id": channelID.String()},
			options.Find().SetSort(bson.D{{Key: "added_at", Value: 1}, {Key: "user_id", Value: 1}}),
		)
		if err != nil {
			return err
		}
		docs = docs[:0]
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, fmt.Errorf("list channel members: %w", err)
	}
	items := make([]models.ChannelMember, 0, len(docs))
	for _, doc := range docs {
		member, err := doc.model()
		if err != nil {
			return nil, err
		}
		items = append(items, member)
	}
	return items, nil
}

func (s *ChannelStore) IsMember(ctx context.Context, channelID, userID uuid.UUID) (bool, error) {
	var count int64
	err := withRetry(ctx, func(ctx context.Context) error {
		var err error
		count, err = s.members.CountDocuments(ctx,
			bson.M{"channel_id": channelID.String(), "user_id": userID.String()},
			options.Count().SetLimit(1),
		)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("count channel members: %w", err)
	}
	return count > 0, nil
}
