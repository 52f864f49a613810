package repository

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/ticket-ingest/constants"
	"github.com/joseph-ayodele/ticket-ingest/internal/common"
	"github.com/joseph-ayodele/ticket-ingest/internal/entity"
)

type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	Count(ctx context.Context) (int, error)
}

type userRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewUserRepository(db *DB, logger *slog.Logger) UserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

var userColumns = []string{"id", "username", "password_hash", "role", "full_name", "created_at"}

func (r *userRepository) Create(ctx context.Context, u *entity.User) error {
	if _, err := r.GetByUsername(ctx, u.Username); err == nil {
		return common.NewAppError("ALREADY_EXISTS", fmt.Sprintf("username %q is taken", u.Username), common.ErrInvalidInput)
	}
	vals := []any{u.ID, u.Username, u.PasswordHash, string(u.Role), u.FullName, u.CreatedAt}
	if err := userTable.validate(userColumns, vals); err != nil {
		return common.NewAppError("VALIDATION_ERROR", "invalid user", fmt.Errorf("%w: %w", common.ErrValidation, err))
	}
	query, args := entsql.Dialect(r.db.Dialect()).
		Insert(userTable.table.Name).
		Columns(userColumns...).
		Values(vals...).
		Query()
	var res stdsql.Result
	if err := r.db.drv.Exec(ctx, query, args, &res); err != nil {
		r.logger.Error("failed to create user", "username", u.Username, "error", err)
		return dbError("create user", err)
	}
	return nil
}

func (r *userRepository) one(ctx context.Context, p *entsql.Predicate) (*entity.User, error) {
	query, args := entsql.Dialect(r.db.Dialect()).
		Select(userColumns...).
		From(entsql.Table(userTable.table.Name)).
		Where(p).
		Query()
	users, err := r.scan(ctx, query, args)
	if err != nil {
		return nil, dbError("get user", err)
	}
	if len(users) == 0 {
		return nil, common.NewAppError("NOT_FOUND", "user not found", common.ErrNotFound)
	}
	return users[0], nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.one(ctx, entsql.EQ("id", id))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.one(ctx, entsql.EQ("username", username))
}

func (r *userRepository) List(ctx context.Context) ([]*entity.User, error) {
	query, args := entsql.Dialect(r.db.Dialect()).
		Select(userColumns...).
		From(entsql.Table(userTable.table.Name)).
		OrderBy("username").
		Query()
	users, err := r.scan(ctx, query, args)
	if err != nil {
		r.logger.Error("failed to list users", "error", err)
		return nil, dbError("list users", err)
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, userTable.table.Name)
}

func (r *userRepository) scan(ctx context.Context, query string, args []any) ([]*entity.User, error) {
	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.User
	for rows.Next() {
		var (
			u    entity.User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.FullName, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Role = constants.Role(role)
		out = append(out, &u)
	}
	return out, rows.Err()
}
