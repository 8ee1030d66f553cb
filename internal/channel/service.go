// Package channel implements channel lifecycle and private-channel
// membership management.
package channel

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/access"
	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/audit"
	"github.com/lalith-99/galynx/internal/events"
	"github.com/lalith-99/galynx/internal/identity"
	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/repository"
)

// MaxNameRunes caps a channel name after trimming.
const MaxNameRunes = 80

type Service struct {
	channels   repository.ChannelRepository
	messages   repository.MessageRepository
	workspaces repository.WorkspaceRepository
	checker    *access.Checker
	bus        *events.Bus
	recorder   *audit.Recorder
	logger     *zap.Logger
}

func NewService(
	channels repository.ChannelRepository,
	messages repository.MessageRepository,
	workspaces repository.WorkspaceRepository,
	checker *access.Checker,
	bus *events.Bus,
	recorder *audit.Recorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		channels:   channels,
		messages:   messages,
		workspaces: workspaces,
		checker:    checker,
		bus:        bus,
		recorder:   recorder,
		logger:     logger,
	}
}

// View is the client-facing rendering of a channel.
type View struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Name        string    `json:"name"`
	IsPrivate   bool      `json:"is_private"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   int64     `json:"created_at"`
}

func NewView(c models.Channel) View {
	return View{
		ID:          c.ID,
		WorkspaceID: c.WorkspaceID,
		Name:        c.Name,
		IsPrivate:   c.IsPrivate,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
	}
}

// MemberView is one private-channel membership row.
type MemberView struct {
	ChannelID uuid.UUID `json:"channel_id"`
	UserID    uuid.UUID `json:"user_id"`
	AddedAt   int64     `json:"added_at"`
}

// List returns the channels visible to the principal: every public channel
// in the workspace, plus the private ones the principal belongs to. Owners
// and admins see everything.
func (s *Service) List(ctx context.Context, principal access.Principal) ([]View, error) {
	channels, err := s.channels.ListByWorkspace(ctx, principal.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	views := make([]View, 0, len(channels))
	for _, channel := range channels {
		if channel.IsPrivate && !principal.IsAdmin() {
			member, err := s.channels.IsMember(ctx, channel.ID, principal.UserID)
			if err != nil {
				return nil, fmt.Errorf("check channel membership: %w", err)
			}
			if !member {
				continue
			}
		}
		views = append(views, NewView(channel))
	}
	return views, nil
}

// Get returns one channel, subject to the same visibility rules as List.
func (s *Service) Get(ctx context.Context, principal access.Principal, channelID uuid.UUID) (*View, error) {
	channel, err := s.checker.ResolveChannel(ctx, principal, channelID)
	if err != nil {
		return nil, err
	}
	view := NewView(*channel)
	return &view, nil
}

// Create makes a new channel. Owner or admin only. Names are stored
// trimmed and lowercased and must be unique within the workspace. The
// creator of a private channel becomes its first member.
func (s *Service) Create(ctx context.Context, principal access.Principal, name string, isPrivate bool) (*models.Channel, error) {
	if err := access.RequireAdmin(principal); err != nil {
		return nil, err
	}
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	exists, err := s.channels.NameExists(ctx, principal.WorkspaceID, name)
	if err != nil {
		return nil, fmt.Errorf("check channel name: %w", err)
	}
	if exists {
		return nil, apperr.BadRequest("channel name already exists in this workspace")
	}

	channel := models.Channel{
		ID:          identity.NewID(),
		WorkspaceID: principal.WorkspaceID,
		Name:        name,
		IsPrivate:   isPrivate,
		CreatedBy:   principal.UserID,
		CreatedAt:   identity.NowMS(),
	}
	if err := s.channels.Create(ctx, channel); err != nil {
		return nil, fmt.Errorf("store channel: %w", err)
	}
	if isPrivate {
		member := models.ChannelMember{ChannelID: channel.ID, UserID: principal.UserID, AddedAt: channel.CreatedAt}
		if err := s.channels.AddMember(ctx, member); err != nil {
			return nil, fmt.Errorf("add channel creator: %w", err)
		}
	}

	s.broadcast(events.TypeChannelCreated, channel)
	targetID := channel.ID.String()
	s.recorder.Record(channel.WorkspaceID, &principal.UserID, audit.ActionChannelCreated, "channel", &targetID,
		map[string]any{"name": name, "is_private": isPrivate})
	return &channel, nil
}

// Delete removes a channel and every message in it. The channel creator
// may delete their own channel; otherwise owner or admin is required.
func (s *Service) Delete(ctx context.Context, principal access.Principal, channelID uuid.UUID) error {
	channel, err := s.checker.ResolveChannel(ctx, principal, channelID)
	if err != nil {
		return err
	}
	if channel.CreatedBy != principal.UserID && !principal.IsAdmin() {
		return apperr.Forbidden("only the channel creator or an admin may delete a channel")
	}

	if err := s.messages.DeleteByChannel(ctx, channel.ID); err != nil {
		return fmt.Errorf("delete channel messages: %w", err)
	}
	if err := s.channels.Delete(ctx, channel.ID); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}

	s.broadcast(events.TypeChannelDeleted, *channel)
	targetID := channel.ID.String()
	s.recorder.Record(channel.WorkspaceID, &principal.UserID, audit.ActionChannelDeleted, "channel", &targetID,
		map[string]any{"name": channel.Name})
	return nil
}

// ListMembers returns a private channel's member rows. Owner or admin only.
func (s *Service) ListMembers(ctx context.Context, principal access.Principal, channelID uuid.UUID) ([]MemberView, error) {
	channel, err := s.checker.ResolveChannel(ctx, principal, channelID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireAdmin(principal); err != nil {
		return nil, err
	}
	if !channel.IsPrivate {
		return nil, apperr.BadRequest("public channels have no member list")
	}
	members, err := s.channels.ListMembers(ctx, channel.ID)
	if err != nil {
		return nil, fmt.Errorf("list channel members: %w", err)
	}
	views := make([]MemberView, 0, len(members))
	for _, m := range members {
		views = append(views, MemberView{ChannelID: m.ChannelID, UserID: m.UserID, AddedAt: m.AddedAt})
	}
	return views, nil
}

// AddMember adds a workspace member to a private channel. The channel
// creator or an admin may manage membership. The target user must already
// belong to the workspace.
func (s *Service) AddMember(ctx context.Context, principal access.Principal, channelID, userID uuid.UUID) error {
	channel, err := s.resolveManaged(ctx, principal, channelID)
	if err != nil {
		return err
	}
	membership, err := s.workspaces.GetMembership(ctx, channel.WorkspaceID, userID)
	if err != nil {
		return fmt.Errorf("lookup workspace membership: %w", err)
	}
	if membership == nil {
		return apperr.NotFound("user not found in this workspace")
	}
	member := models.ChannelMember{ChannelID: channel.ID, UserID: userID, AddedAt: identity.NowMS()}
	if err := s.channels.AddMember(ctx, member); err != nil {
		return fmt.Errorf("add channel member: %w", err)
	}
	targetID := channel.ID.String()
	s.recorder.Record(channel.WorkspaceID, &principal.UserID, audit.ActionChannelMemberAdded, "channel", &targetID,
		map[string]any{"user_id": userID.String()})
	return nil
}

// RemoveMember drops a user from a private channel. Same permissions as
// AddMember. Removing a user who is not a member is a no-op.
func (s *Service) RemoveMember(ctx context.Context, principal access.Principal, channelID, userID uuid.UUID) error {
	channel, err := s.resolveManaged(ctx, principal, channelID)
	if err != nil {
		return err
	}
	if err := s.channels.RemoveMember(ctx, channel.ID, userID); err != nil {
		return fmt.Errorf("remove channel member: %w", err)
	}
	targetID := channel.ID.String()
	s.recorder.Record(channel.WorkspaceID, &principal.UserID, audit.ActionChannelMemberRemoved, "channel", &targetID,
		map[string]any{"user_id": userID.String()})
	return nil
}

// resolveManaged loads a private channel the principal may manage
// membership of: the creator or an admin.
func (s *Service) resolveManaged(ctx context.Context, principal access.Principal, channelID uuid.UUID) (*models.Channel, error) {
	channel, err := s.checker.ResolveChannel(ctx, principal, channelID)
	if err != nil {
		return nil, err
	}
	if !channel.IsPrivate {
		return nil, apperr.BadRequest("public channels have no member list")
	}
	if channel.CreatedBy != principal.UserID && !principal.IsAdmin() {
		return nil, apperr.Forbidden("only the channel creator or an admin may manage members")
	}
	return channel, nil
}

func (s *Service) broadcast(eventType string, channel models.Channel) {
	channelID := channel.ID
	s.bus.Publish(events.Event{
		Type:        eventType,
		WorkspaceID: channel.WorkspaceID,
		ChannelID:   &channelID,
		ServerTS:    identity.NowMS(),
		Payload:     NewView(channel),
	})
}

func normalizeName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", apperr.BadRequest("channel name must not be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameRunes {
		return "", apperr.BadRequest("channel name exceeds 80 characters")
	}
	return name, nil
}
