package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lalith-99/galynx/internal/access"
	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/audit"
	"github.com/lalith-99/galynx/internal/identity"
	"github.com/lalith-99/galynx/internal/models"
	"github.com/lalith-99/galynx/internal/repository"
	"github.com/lalith-99/galynx/internal/repository/memory"
)

func newFixture(t *testing.T) (*Service, *repository.Stores, access.Principal) {
	t.Helper()
	stores := memory.NewStores()
	recorder := audit.NewRecorder(stores.Audit, zap.NewNop())
	t.Cleanup(recorder.Close)
	service := NewService(stores.Users, stores.Workspaces, recorder, zap.NewNop())

	ctx := context.Background()
	owner := models.User{ID: identity.NewID(), Email: "owner@acme.test", Name: "Owner", PasswordHash: "x"}
	require.NoError(t, stores.Users.Create(ctx, owner))
	workspaceID := identity.NewID()
	require.NoError(t, stores.Workspaces.Put(ctx, models.Workspace{ID: workspaceID, Name: "Acme", CreatedBy: owner.ID, CreatedAt: identity.NowMS()}))
	require.NoError(t, stores.Workspaces.PutMembership(ctx, models.Membership{WorkspaceID: workspaceID, UserID: owner.ID, Role: models.RoleOwner}))

	principal := access.Principal{UserID: owner.ID, WorkspaceID: workspaceID, Email: owner.Email, Role: models.RoleOwner}
	return service, stores, principal
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperr.From(err).Code)
}

func TestCreateValidation(t *testing.T) {
	service, _, principal := newFixture(t)
	ctx := context.Background()

	member := principal
	member.Role = models.RoleMember
	_, err := service.Create(ctx, member, "dev@acme.test", "Dev", "hunter2hunter2", models.RoleMember)
	assertCode(t, err, apperr.CodeForbidden)

	_, err = service.Create(ctx, principal, "not-an-email", "Dev", "hunter2hunter2", models.RoleMember)
	assertCode(t, err, apperr.CodeBadRequest)

	_, err = service.Create(ctx, principal, "dev@acme.test", "  ", "hunter2hunter2", models.RoleMember)
	assertCode(t, err, apperr.CodeBadRequest)

	_, err = service.Create(ctx, principal, "dev@acme.test", "Dev", "short", models.RoleMember)
	assertCode(t, err, apperr.CodeBadRequest)

	_, err = service.Create(ctx, principal, "dev@acme.test", "Dev", "hunter2hunter2", models.RoleOwner)
	assertCode(t, err, apperr.CodeBadRequest)
}

func TestCreateNormalizesAndRejectsDuplicates(t *testing.T) {
	service, stores, principal := newFixture(t)
	ctx := context.Background()

	view, err := service.Create(ctx, principal, "  Dev@Acme.Test ", "Dev", "hunter2hunter2", models.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, "dev@acme.test", view.Email)
	assert.Equal(t, models.RoleMember, view.Role)
	assert.Equal(t, principal.WorkspaceID, view.WorkspaceID)

	stored, err := stores.Users.GetByEmail(ctx, "dev@acme.test")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "hunter2hunter2", stored.PasswordHash)

	_, err = service.Create(ctx, principal, "DEV@acme.test", "Dev Again", "hunter2hunter2", models.RoleMember)
	assertCode(t, err, apperr.CodeBadRequest)
}

func TestMe(t *testing.T) {
	service, _, principal := newFixture(t)
	ctx := context.Background()

	me, err := service.Me(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, principal.UserID, me.UserID)
	assert.Equal(t, "owner@acme.test", me.Email)
	assert.Equal(t, models.RoleOwner, me.Role)

	ghost := principal
	ghost.UserID = identity.NewID()
	_, err = service.Me(ctx, ghost)
	assertCode(t, err, apperr.CodeNotFound)
}

func TestListRequiresAdmin(t *testing.T) {
	service, _, principal := newFixture(t)
	ctx := context.Background()

	_, err := service.Create(ctx, principal, "dev@acme.test", "Dev", "hunter2hunter2", models.RoleMember)
	require.NoError(t, err)

	views, err := service.List(ctx, principal)
	require.NoError(t, err)
	assert.Len(t, views, 2)

	member := principal
	member.Role = models.RoleMember
	_, err = service.List(ctx, member)
	assertCode(t, err, apperr.CodeForbidden)
}
