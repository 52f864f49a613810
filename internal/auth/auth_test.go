package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ticket-ingest/constants"
	"github.com/joseph-ayodele/ticket-ingest/internal/common"
	"github.com/joseph-ayodele/ticket-ingest/internal/entity"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret-pass"))
}

func TestTokenRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tokens := NewTokens("secret", time.Hour, func() time.Time { return now })
	u := &entity.User{ID: uuid.New(), Username: "sup", Role: constants.RoleSupervisor}

	tok, exp, err := tokens.Issue(u)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	p, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, "sup", p.Username)
	assert.Equal(t, constants.RoleSupervisor, p.Role)
}

func TestVerifyRejects(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	tokens := NewTokens("secret", time.Hour, func() time.Time { return clock })
	u := &entity.User{ID: uuid.New(), Username: "a", Role: constants.RoleAdmin}
	tok, _, err := tokens.Issue(u)
	require.NoError(t, err)

	clock = now.Add(2 * time.Hour)
	_, err = tokens.Verify(tok)
	assert.True(t, errors.Is(err, common.ErrUnauthorized), "expired")

	clock = now
	_, err = NewTokens("other", time.Hour, func() time.Time { return clock }).Verify(tok)
	assert.True(t, errors.Is(err, common.ErrUnauthorized), "wrong secret")

	_, err = tokens.Verify("garbage")
	assert.True(t, errors.Is(err, common.ErrUnauthorized))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   u.ID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Verify(unsigned)
	assert.True(t, errors.Is(err, common.ErrUnauthorized), "alg none")
}
