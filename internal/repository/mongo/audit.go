package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/repository"
)

type auditDoc struct {
	ID          string         `bson:"_id"`
	WorkspaceID string         `bson:"workspace_id"`
	ActorID     *string        `bson:"actor_id,omitempty"`
	Action      string         `bson:"action"`
	TargetType  string         `bson:"target_type"`
	TargetID    *string        `bson:"target_id,omitempty"`
	Metadata    map[string]any `bson:"metadata,omitempty"`
	CreatedAt   int64          `bson:"created_at"`
}

func toAuditDoc(entry models.AuditEntry) auditDoc {
	doc := auditDoc{
		ID:          entry.ID.String(),
		WorkspaceID: entry.WorkspaceID.String(),
		Action:      entry.Action,
		TargetType:  entry.TargetType,
		TargetID:    entry.TargetID,
		Metadata:    entry.Metadata,
		CreatedAt:   entry.CreatedAt,
	}
	if entry.ActorID != nil {
		actorID := entry.ActorID.String()
		doc.ActorID = &actorID
	}
	return doc
}

func (d auditDoc) model() (models.AuditEntry, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("parse audit id: %w", err)
	}
	workspaceID, err := uuid.Parse(d.WorkspaceID)
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("parse audit workspace_id: %w", err)
	}
	entry := models.AuditEntry{
		ID:          id,
		WorkspaceID: workspaceID,
		Action:      d.Action,
		TargetType:  d.TargetType,
		TargetID:    d.TargetID,
		Metadata:    d.Metadata,
		CreatedAt:   d.CreatedAt,
	}
	if d.ActorID != nil {
		actorID, err := uuid.Parse(*d.ActorID)
		if err != nil {
			return models.AuditEntry{}, fmt.Errorf("parse audit actor_id: %w", err)
		}
		entry.ActorID = &actorID
	}
	return entry, nil
}

type AuditStore struct {
	coll *mongo.Collection
}

func (s *AuditStore) Append(ctx context.Context, entry models.AuditEntry) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := s.coll.InsertOne(ctx, toAuditDoc(entry))
		if err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}
		return nil
	})
}

func (s *AuditStore) ListPage(ctx context.Context, workspaceID uuid.UUID, before *repository.Cursor, limit int) ([]models.AuditEntry, error) {
	var docs []auditDoc
	err := withRetry(ctx, func(ctx context.Context) error {
		cur, err := s.coll.Find(ctx,
			cursorFilter(bson.M{"workspace_id": workspaceID.String()}, before),
			options.Find().SetSort(pageSort).SetLimit(int64(limit)),
		)
		if err != nil {
			return err
		}
		docs = docs[:0]
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	items := make([]models.AuditEntry, 0, len(docs))
	for _, doc := range docs {
		entry, err := doc.model()
		if err != nil {
			return nil, err
		}
		items = append(items, entry)
	}
	return items, nil
}
