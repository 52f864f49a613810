// Package auth issues and verifies login tokens and password hashes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/ticket-ingest/constants"
	"github.com/joseph-ayodele/ticket-ingest/internal/common"
	"github.com/joseph-ayodele/ticket-ingest/internal/entity"
)

// Claims is the access token payload. Subject holds the user id.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     constants.Role
}

type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration, now func() time.Time) *Tokens {
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue signs an HS256 access token for u.
func (t *Tokens) Issue(u *entity.User) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		Username: u.Username,
		Role:     string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Issuer:    "ticket-ingest",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses a token and returns its principal.
func (t *Tokens) Verify(token string) (Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, common.NewAppError("UNAUTHORIZED", "invalid or expired token", fmt.Errorf("%w: %w", common.ErrUnauthorized, err))
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, common.NewAppError("UNAUTHORIZED", "invalid token subject", common.ErrUnauthorized)
	}
	role, ok := constants.CanonicalizeRole(claims.Role)
	if !ok {
		return Principal{}, common.NewAppError("UNAUTHORIZED", "unknown role in token", common.ErrUnauthorized)
	}
	return Principal{UserID: id, Username: claims.Username, Role: role}, nil
}
