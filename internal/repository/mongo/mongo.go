// Package mongo persists the repository set in MongoDB. Documents store
// UUIDs as canonical lowercase strings: the hex form sorts the same way
// as the raw 128-bit value, so sorting and range-filtering on _id matches
// the cursor ordering without any binary comparisons.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lalith-99/galynx/internal/repository"
)

const (
	collUsers           = "auth_users"
	collMemberships     = "auth_memberships"
	collWorkspaces      = "workspaces"
	collChannels        = "channels"
	collChannelMembers  = "channel_members"
	collMessages        = "messages"
	collReactions       = "reactions"
	collRefreshSessions = "refresh_sessions"
	collPendingUploads  = "pending_uploads"
	collAttachments     = "attachments"
	collAuditLog        = "audit_log"
)

// NewStores wires a full mongo-backed repository set over one database.
func NewStores(database *mongo.Database) *repository.Stores {
	return &repository.Stores{
		Users:          &UserStore{coll: database.Collection(collUsers)},
		Workspaces:     &WorkspaceStore{workspaces: database.Collection(collWorkspaces), memberships: database.Collection(collMemberships)},
		Channels:       &ChannelStore{channels: database.Collection(collChannels), members: database.Collection(collChannelMembers)},
		Messages:       &MessageStore{coll: database.Collection(collMessages)},
		Reactions:      &ReactionStore{coll: database.Collection(collReactions)},
		RefreshTokens:  &RefreshSessionStore{coll: database.Collection(collRefreshSessions)},
		PendingUploads: &PendingUploadStore{coll: database.Collection(collPendingUploads)},
		Attachments:    &AttachmentStore{coll: database.Collection(collAttachments)},
		Audit:          &AuditStore{coll: database.Collection(collAuditLog)},
	}
}

// EnsureIndexes creates the secondary indexes the query paths rely on.
// Index creation is idempotent, so this runs unconditionally at startup.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		collUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collMemberships: {
			{Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		collChannels: {
			{Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "name", Value: 1}}},
		},
		collChannelMembers: {
			{Keys: bson.D{{Key: "channel_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collMessages: {
			{Keys: bson.D{{Key: "channel_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "thread_root_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		},
		collReactions: {
			{Keys: bson.D{{Key: "message_id", Value: 1}, {Key: "emoji", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collAuditLog: {
			{Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		},
	}
	for name, models := range specs {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

var retryDelays = []time.Duration{50 * time.Millisecond, 200 * time.Millisecond, 800 * time.Millisecond}

// withRetry re-runs fn on transient driver errors with a short backoff.
// Non-transient errors and exhausted attempts return the last error as-is.
func withRetry(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil || !isTransient(err) || attempt == len(retryDelays) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelays[attempt]):
		}
	}
}

func isTransient(err error) bool {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.HasErrorLabel("RetryableWriteError") ||
			serverErr.HasErrorLabel("TransientTransactionError")
	}
	return false
}

// cursorFilter appends the strict (created_at, _id) descending-page bound
// to a base filter. A nil cursor means the first page.
func cursorFilter(base bson.M, before *repository.Cursor) bson.M {
	if before == nil {
		return base
	}
	base["$or"] = bson.A{
		bson.M{"created_at": bson.M{"$lt": before.CreatedAt}},
		bson.M{"created_at": before.CreatedAt, "_id": bson.M{"$lt": before.ID.String()}},
	}
	return base
}

var pageSort = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
