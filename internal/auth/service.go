package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/audit"
	"github.com/lalith-99/galynx/internal/identity"
	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/repository"
)

// TokenPair is what a successful login or refresh hands back to the client.
// Expiry fields are unix seconds.
type TokenPair struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	AccessExpiresAt  int64  `json:"access_expires_at"`
	RefreshExpiresAt int64  `json:"refresh_expires_at"`
}

// Session identifies the authenticated principal behind a token pair.
type Session struct {
	User       models.User
	Membership models.Membership
}

type Service struct {
	users      repository.UserRepository
	workspaces repository.WorkspaceRepository
	refresh    repository.RefreshSessionRepository
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	recorder   *audit.Recorder
	logger     *zap.Logger
}

func NewService(
	users repository.UserRepository,
	workspaces repository.WorkspaceRepository,
	refresh repository.RefreshSessionRepository,
	secret string,
	accessTTL, refreshTTL time.Duration,
	recorder *audit.Recorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		users:      users,
		workspaces: workspaces,
		refresh:    refresh,
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		recorder:   recorder,
		logger:     logger,
	}
}

// Login verifies credentials and issues a token pair. Unknown emails and
// wrong passwords produce the same error so the response never reveals
// which accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, *Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, nil, apperr.Unauthorized("invalid credentials")
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, nil, apperr.Unauthorized("invalid credentials")
	}

	membership, err := s.primaryMembership(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issuePair(ctx, *user, *membership)
	if err != nil {
		return nil, nil, err
	}

	userID := user.ID.String()
	s.recorder.Record(membership.WorkspaceID, &user.ID, audit.ActionAuthLogin, "user", &userID,
		map[string]any{"email": user.Email})
	return pair, &Session{User: *user, Membership: *membership}, nil
}

// Refresh rotates a refresh token. Presenting an already-rotated token is
// treated as theft: every descendant session in the rotation chain is
// revoked before the caller gets an error.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, *Session, error) {
	hash := HashRefreshToken(refreshToken)
	session, err := s.refresh.Get(ctx, hash)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup refresh session: %w", err)
	}
	if session == nil {
		return nil, nil, apperr.Unauthorized("invalid refresh token")
	}

	now := identity.NowMS()
	if session.RevokedAt != nil {
		if err := s.revokeChain(ctx, session, now); err != nil {
			s.logger.Error("revoke refresh chain", zap.Error(err))
		}
		s.logger.Warn("refresh token reuse detected",
			zap.String("user_id", session.UserID.String()),
		)
		s.recordForUser(ctx, session.UserID, audit.ActionAuthRefresh,
			map[string]any{"reason": "reuse_detected"})
		return nil, nil, apperr.Unauthorized("refresh token reuse detected")
	}
	if session.ExpiresAt <= now {
		return nil, nil, apperr.Unauthorized("refresh token expired")
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, nil, apperr.Unauthorized("invalid refresh token")
	}
	membership, err := s.primaryMembership(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	token, newHash, err := NewRefreshToken()
	if err != nil {
		return nil, nil, err
	}
	successor := models.RefreshSession{
		TokenHash: newHash,
		UserID:    user.ID,
		ExpiresAt: now + s.refreshTTL.Milliseconds(),
	}
	if err := s.refresh.Put(ctx, successor); err != nil {
		return nil, nil, fmt.Errorf("store refresh session: %w", err)
	}

	session.RevokedAt = &now
	session.ReplacedByHash = &newHash
	if err := s.refresh.Update(ctx, *session); err != nil {
		return nil, nil, fmt.Errorf("rotate refresh session: %w", err)
	}

	access, accessExp, err := s.accessToken(*user, *membership)
	if err != nil {
		return nil, nil, err
	}
	pair := &TokenPair{
		AccessToken:      access,
		RefreshToken:     token,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: successor.ExpiresAt / 1000,
	}

	s.recorder.Record(membership.WorkspaceID, &user.ID, audit.ActionAuthRefresh, "session", nil,
		map[string]any{"reason": "token_rotation"})
	return pair, &Session{User: *user, Membership: *membership}, nil
}

// Logout revokes the presented refresh token. Unknown tokens are ignored so
// the endpoint never leaks whether a token was valid.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.refresh.Get(ctx, HashRefreshToken(refreshToken))
	if err != nil {
		return fmt.Errorf("lookup refresh session: %w", err)
	}
	if session == nil || session.RevokedAt != nil {
		return nil
	}
	now := identity.NowMS()
	session.RevokedAt = &now
	if err := s.refresh.Update(ctx, *session); err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	s.recordForUser(ctx, session.UserID, audit.ActionAuthLogout, nil)
	return nil
}

// recordForUser writes an audit entry for flows where only the user is
// known; the workspace comes from their primary membership. Users without
// a membership produce no entry.
func (s *Service) recordForUser(ctx context.Context, userID uuid.UUID, action string, metadata map[string]any) {
	memberships, err := s.workspaces.ListUserMemberships(ctx, userID)
	if err != nil || len(memberships) == 0 {
		return
	}
	s.recorder.Record(memberships[0].WorkspaceID, &userID, action, "session", nil, metadata)
}

func (s *Service) primaryMembership(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	memberships, err := s.workspaces.ListUserMemberships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	if len(memberships) == 0 {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	return &memberships[0], nil
}

func (s *Service) issuePair(ctx context.Context, user models.User, membership models.Membership) (*TokenPair, error) {
	access, accessExp, err := s.accessToken(user, membership)
	if err != nil {
		return nil, err
	}

	token, hash, err := NewRefreshToken()
	if err != nil {
		return nil, err
	}
	session := models.RefreshSession{
		TokenHash: hash,
		UserID:    user.ID,
		ExpiresAt: identity.NowMS() + s.refreshTTL.Milliseconds(),
	}
	if err := s.refresh.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("store refresh session: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     token,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: session.ExpiresAt / 1000,
	}, nil
}

func (s *Service) accessToken(user models.User, membership models.Membership) (string, int64, error) {
	access, err := GenerateAccessToken(user.ID, membership.WorkspaceID, user.Email, membership.Role, s.secret, s.accessTTL)
	if err != nil {
		return "", 0, err
	}
	return access, time.Now().Add(s.accessTTL).Unix(), nil
}

// revokeChain marks the session and every successor reachable through
// replaced_by_hash as revoked.
func (s *Service) revokeChain(ctx context.Context, start *models.RefreshSession, now int64) error {
	session := start
	for session != nil {
		if session.RevokedAt == nil {
			session.RevokedAt = &now
			if err := s.refresh.Update(ctx, *session); err != nil {
				return fmt.Errorf("revoke session: %w", err)
			}
		}
		if session.ReplacedByHash == nil {
			return nil
		}
		next, err := s.refresh.Get(ctx, *session.ReplacedByHash)
		if err != nil {
			return fmt.Errorf("walk refresh chain: %w", err)
		}
		session = next
	}
	return nil
}
