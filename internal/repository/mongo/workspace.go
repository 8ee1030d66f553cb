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

type workspaceDoc struct {
	ID        string `bson:"_id"`
	Name      string `bson:"name"`
	CreatedBy string `bson:"created_by"`
	CreatedAt int64  `bson:"created_at"`
}

func toWorkspaceDoc(workspace models.Workspace) workspaceDoc {
	return workspaceDoc{
		ID:        workspace.ID.String(),
		Name:      workspace.Name,
		CreatedBy: workspace.CreatedBy.String(),
		CreatedAt: workspace.CreatedAt,
	}
}

func (d workspaceDoc) model() (models.Workspace, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Workspace{}, fmt.Errorf("parse workspace id: %w", err)
	}
	createdBy, err := uuid.Parse(d.CreatedBy)
	if err != nil {
		return models.Workspace{}, fmt.Errorf("parse workspace created_by: %w", err)
	}
	return models.Workspace{
		ID:        id,
		Name:      d.Name,
		CreatedBy: createdBy,
		CreatedAt: d.CreatedAt,
	}, nil
}

type membershipDoc struct {
	WorkspaceID string `bson:"workspace_id"`
	UserID      string `bson:"user_id"`
	Role        string `bson:"role"`
}

func (d membershipDoc) model() (models.Membership, error) {
	workspaceID, err := uuid.Parse(d.WorkspaceID)
	if err != nil {
		return models.Membership{}, fmt.Errorf("parse membership workspace_id: %w", err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return models.Membership{}, fmt.Errorf("parse membership user_id: %w", err)
	}
	return models.Membership{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        models.Role(d.Role),
	}, nil
}

type WorkspaceStore struct {
	workspaces  *mongo.Collection
	memberships *mongo.Collection
}

func (s *WorkspaceStore) Put(ctx context.Context, workspace models.Workspace) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := s.workspaces.ReplaceOne(ctx,
			bson.M{"_id": workspace.ID.String()},
			toWorkspaceDoc(workspace),
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("upsert workspace: %w", err)
		}
		return nil
	})
}

func (s *WorkspaceStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	var doc workspaceDoc
	err := withRetry(ctx, func(ctx context.Context) error {
		return s.workspaces.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find workspace: %w", err)
	}
	workspace, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &workspace, nil
}

func (s *WorkspaceStore) PutMembership(ctx context.Context, membership models.Membership) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := s.memberships.ReplaceOne(ctx,
			bson.M{"workspace_id": membership.WorkspaceID.String(), "user_id": membership.UserID.String()},
			membershipDoc{
				WorkspaceID: membership.WorkspaceID.String(),
				UserID:      membership.UserID.String(),
				Role:        string(membership.Role),
			},
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("upsert membership: %w", err)
		}
		return nil
	})
}

func (s *WorkspaceStore) GetMembership(ctx context.Context, workspaceID, userID uuid.UUID) (*models.Membership, error) {
	var doc membershipDoc
	err := withRetry(ctx, func(ctx context.Context) error {
		return s.memberships.FindOne(ctx,
			bson.M{"workspace_id": workspaceID.String(), "user_id": userID.String()},
		).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find membership: %w", err)
	}
	membership, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

func (s *WorkspaceStore) ListUserMemberships(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	return s.listMemberships(ctx, bson.M{"user_id": userID.String()})
}

func (s *WorkspaceStore) ListWorkspaceMemberships(ctx context.Context, workspaceID uuid.UUID) ([]models.Membership, error) {
	return s.listMemberships(ctx, bson.M{"workspace_id": workspaceID.String()})
}

func (s *WorkspaceStore) listMemberships(ctx context.Context, filter bson.M) ([]models.Membership, error) {
	var docs []membershipDoc
	err := withRetry(ctx, func(ctx context.Context) error {
		cur, err := s.memberships.Find(ctx, filter,
			options.Find().SetSort(bson.D{{Key: "workspace_id", Value: 1}, {Key: "user_id", Value: 1}}),
		)
		if err != nil {
			return err
		}
		docs = docs[:0]
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	items := make([]models.Membership, 0, len(docs))
	for _, doc := range docs {
		membership, err := doc.model()
		if err != nil {
			return nil, err
		}
		items = append(items, membership)
	}
	return items, nil
}
