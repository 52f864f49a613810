package user

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ticket-ingest/constants"
	"github.com/joseph-ayodele/ticket-ingest/internal/auth"
	"github.com/joseph-ayodele/ticket-ingest/internal/common"
	"github.com/joseph-ayodele/ticket-ingest/internal/repository"
)

func newService(t *testing.T) (*Service, *auth.Tokens) {
	t.Helper()
	ctx := context.Background()
	db, err := repository.OpenSQLite(ctx, "", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, slog.Default()) })
	require.NoError(t, repository.Migrate(ctx, db, slog.Default()))
	tokens := auth.NewTokens("test-secret", time.Hour, nil)
	return NewService(repository.NewUserRepository(db, slog.Default()), tokens, nil), tokens
}

func TestCreateAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, tokens := newService(t)

	u, err := svc.CreateUser(ctx, CreateUserRequest{Username: " Tecnico1 ", Password: "balanza-2026", Role: "tecnico"})
	require.NoError(t, err)
	assert.Equal(t, "tecnico1", u.Username)
	assert.Equal(t, constants.RoleTechnician, u.Role)

	res, err := svc.Login(ctx, "tecnico1", "balanza-2026")
	require.NoError(t, err)
	p, err := tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, constants.RoleTechnician, p.Role)

	_, err = svc.Login(ctx, "tecnico1", "wrong-password")
	assert.True(t, errors.Is(err, common.ErrUnauthorized))
	_, err = svc.Login(ctx, "nobody", "balanza-2026")
	assert.True(t, errors.Is(err, common.ErrUnauthorized))
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CreateUser(context.Background(), CreateUserRequest{Username: "x", Password: "short", Role: "root"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrValidation))
	assert.Contains(t, err.Error(), "password")
	assert.Contains(t, err.Error(), "role")
}

func TestDefaultRoleIsApprentice(t *testing.T) {
	svc, _ := newService(t)
	u, err := svc.CreateUser(context.Background(), CreateUserRequest{Username: "nuevo", Password: "12345678"})
	require.NoError(t, err)
	assert.Equal(t, constants.RoleApprentice, u.Role)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", ""))
	list, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin-pass-1"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin-pass-1"))
	list, err = svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, constants.RoleAdmin, list[0].Role)
}
