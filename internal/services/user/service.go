package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ticket-ingest/constants"
	"github.com/joseph-ayodele/ticket-ingest/internal/auth"
	"github.com/joseph-ayodele/ticket-ingest/internal/common"
	"github.com/joseph-ayodele/ticket-ingest/internal/entity"
	"github.com/joseph-ayodele/ticket-ingest/internal/repository"
)

// Service handles user accounts and login.
type Service struct {
	users  repository.UserRepository
	tokens *auth.Tokens
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new user service.
func NewService(users repository.UserRepository, tokens *auth.Tokens, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

// CreateUserRequest represents user creation parameters.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
}

// CreateUser validates the request, hashes the password and stores the user.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*entity.User, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))

	validator := common.NewValidator()
	validator.Field("username", username, common.Required, common.Username)
	validator.Field("password", req.Password, common.Required, common.MinLength(8))
	validator.Field("full_name", req.FullName, common.MaxLength(128))
	role, ok := constants.CanonicalizeRole(req.Role)
	if req.Role != "" && !ok {
		validator.Field("role", req.Role, common.OneOf(constants.RolesAsStringSlice()...))
	}
	if err := validator.Error(); err != nil {
		return nil, common.NewAppError("VALIDATION_ERROR", validator.ErrorMessage(), err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, common.NewAppError("INTERNAL", "hash password", fmt.Errorf("%w: %w", common.ErrInternal, err))
	}
	u := &entity.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		FullName:     strings.TrimSpace(req.FullName),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user created successfully", "user_id", u.ID, "username", u.Username, "role", u.Role)
	return u, nil
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]*entity.User, error) {
	list, err := s.users.List(ctx)
	if err != nil {
		// DB error already logged in repository layer
		return nil, err
	}
	s.logger.Debug("users listed", "count", len(list))
	return list, nil
}

// LoginResult carries an issued access token.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *entity.User `json:"user"`
}

var errBadCredentials = common.NewAppError("UNAUTHORIZED", "invalid username or password", common.ErrUnauthorized)

// Login checks the credentials and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.users.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if errors.Is(err, common.ErrNotFound) {
		s.logger.Warn("login failed", "username", username, "reason", "unknown user")
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		s.logger.Warn("login failed", "username", username, "reason", "bad password")
		return nil, errBadCredentials
	}
	tok, exp, err := s.tokens.Issue(u)
	if err != nil {
		return nil, common.NewAppError("INTERNAL", "issue token", fmt.Errorf("%w: %w", common.ErrInternal, err))
	}
	s.logger.Info("login ok", "user_id", u.ID, "role", u.Role)
	return &LoginResult{Token: tok, ExpiresAt: exp, User: u}, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
// An empty password disables bootstrapping.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if password == "" {
		s.logger.Debug("admin bootstrap skipped", "reason", "no password configured")
		return nil
	}
	_, err := s.users.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return err
	}
	_, err = s.CreateUser(ctx, CreateUserRequest{
		Username: username,
		Password: password,
		Role:     string(constants.RoleAdmin),
		FullName: "Administrador",
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	s.logger.Info("bootstrap admin created", "username", username)
	return nil
}
