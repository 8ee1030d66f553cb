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

type refreshSessionDoc struct {
	TokenHash      string  `bson:"_id"`
	UserID         string  `bson:"user_id"`
	ExpiresAt      int64   `bson:"expires_at"`
	RevokedAt      *int64  `bson:"revoked_at,omitempty"`
	ReplacedByHash *string `bson:"replaced_by_hash,omitempty"`
}

func toRefreshSessionDoc(session models.RefreshSession) refreshSessionDoc {
	return refreshSessionDoc{
		TokenHash:      session.TokenHash,
		UserID:         session.UserID.String(),
		ExpiresAt:      session.ExpiresAt,
		RevokedAt:      session.RevokedAt,
		ReplacedByHash: session.ReplacedByHash,
	}
}

func (d refreshSessionDoc) model() (models.RefreshSession, error) {
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return models.RefreshSession{}, fmt.Errorf("parse refresh session user_id: %w", err)
	}
	return models.RefreshSession{
		TokenHash:      d.TokenHash,
		UserID:         userID,
		ExpiresAt:      d.ExpiresAt,
		RevokedAt:      d.RevokedAt,
		ReplacedByHash: d.ReplacedByHash,
	}, nil
}

type RefreshSessionStore struct {
	coll *mongo.Collection
}

func (s *RefreshSessionStore) Put(ctx context.Context, session models.RefreshSession) error {
	return s.upsert(ctx, session)
}

func (s *RefreshSessionStore) Update(ctx context.Context, session models.RefreshSession) error {
	return s.upsert(ctx, session)
}

func (s *RefreshSessionStore) upsert(ctx context.Context, session models.RefreshSession) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := s.coll.ReplaceOne(ctx,
			bson.M{"_id": session.TokenHash},
			toRefreshSessionDoc(session),
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("upsert refresh session: %w", err)
		}
		return nil
	})
}

func (s *RefreshSessionStore) Get(ctx context.Context, tokenHash string) (*models.RefreshSession, error) {
	var doc refreshSessionDoc
	err := withRetry(ctx, func(ctx context.Context) error {
		return s.coll.FindOne(ctx, bson.M{"_id": tokenHash}).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh session: %w", err)
	}
	session, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &session, nil
}
