package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lalith-99/galynx/internal/models"
)

type reactionDoc struct {
	MessageID string `bson:"message_id"`
	Emoji     string `bson:"emoji"`
	UserID    string `bson:"user_id"`
}

type ReactionStore struct {
	coll *mongo.Collection
}

func (s *ReactionStore) Add(ctx context.Context, reaction models.Reaction) error {
	return withRetry(ctx, func(ctx context.Context) error {
		// Upsert keeps the unique index happy when the same user reacts twice.
		_, err := s.coll.UpdateOne(ctx,
			bson.M{
				"message_id": reaction.MessageID.String(),
				"emoji":      reaction.Emoji,
				"user_id":    reaction.UserID.String(),
			},
			bson.M{"$setOnInsert": reactionDoc{
				MessageID: reaction.MessageID.String(),
				Emoji:     reaction.Emoji,
				UserID:    reaction.UserID.String(),
			}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("upsert reaction: %w", err)
		}
		return nil
	})
}

func (s *ReactionStore) Remove(ctx context.Context, reaction models.Reaction) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := s.coll.DeleteOne(ctx, bson.M{
			"message_id": reaction.MessageID.String(),
			"emoji":      reaction.Emoji,
			"user_id":    reaction.UserID.String(),
		})
		if err != nil {
			return fmt.Errorf("delete reaction: %w", err)
		}
		return nil
	})
}

func (s *ReactionStore) ListUsers(ctx context.Context, messageID uuid.UUID, emoji string) ([]uuid.UUID, error) {
	var docs []reactionDoc
	err := withRetry(ctx, func(ctx context.Context) error {
		cur, err := s.coll.Find(ctx,
			bson.M{"message_id": messageID.String(), "emoji": emoji},
			options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}}),
		)
		if err != nil {
			return err
		}
		docs = docs[:0]
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	users := make([]uuid.UUID, 0, len(docs))
	for _, doc := range docs {
		userID, err := uuid.Parse(doc.UserID)
		if err != nil {
			return nil, fmt.Errorf("parse reaction user_id: %w", err)
		}
		users = append(users, userID)
	}
	return users, nil
}
