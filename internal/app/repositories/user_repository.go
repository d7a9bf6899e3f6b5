package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/dberrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/logger"
)

const usersEmailKey = "users_email_key"

var userColumns = []string{
	"id", "email", "password", "first_name", "last_name", "role",
	"is_active", "password_changed", "last_login_at", "created_at", "updated_at",
}

// UserRepository handles staff account database operations
type UserRepository struct {
	db     *pgxpool.Pool
	withTx TxRunner
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool, withTx TxRunner) *UserRepository {
	return &UserRepository{db: db, withTx: withTx}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.Role,
		&u.IsActive, &u.PasswordChanged, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// insertUser writes user through q and fills the generated fields
func insertUser(ctx context.Context, q querier, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	sql, args, err := psql.Insert("users").
		Columns("email", "password", "first_name", "last_name", "role", "is_active", "password_changed").
		Values(user.Email, user.Password, user.FirstName, user.LastName, user.Role, user.IsActive, user.PasswordChanged).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, usersEmailKey) {
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error executing create user query")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return insertUser(ctx, r.db, user)
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := psql.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by email, ignoring case
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Expr("lower(email) = lower(?)", strings.TrimSpace(email)))
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`,
		strings.TrimSpace(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking email: %w", err)
	}
	return exists, nil
}

// List returns users ordered by name, optionally restricted to one role
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	q := psql.Select(userColumns...).From("users").OrderBy("first_name", "last_name")
	if filter.Role != nil {
		q = q.Where(squirrel.Eq{"role": *filter.Role})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list users query")
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return collect(rows, scanUser)
}

// Count returns the number of users, optionally restricted to one role
func (r *UserRepository) Count(ctx context.Context, role *models.RoleType) (int, error) {
	q := psql.Select("COUNT(*)").From("users")
	if role != nil {
		q = q.Where(squirrel.Eq{"role": *role})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count users query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return count, nil
}

func updateUser(ctx context.Context, q querier, id uuid.UUID, set map[string]interface{}) error {
	set["updated_at"] = time.Now()
	sql, args, err := psql.Update("users").SetMap(set).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("userID", id.String()).Msg("Error executing update user query")
		return fmt.Errorf("error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// guardLastAdmin locks the administrator rows for the rest of tx and fails with
// ErrLastAdmin when id is the only administrator left
func guardLastAdmin(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	rows, err := tx.Query(ctx,
		`SELECT id FROM users WHERE role = $1 ORDER BY id FOR UPDATE`, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("error locking administrators: %w", err)
	}
	admins, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return fmt.Errorf("error locking administrators: %w", err)
	}

	isAdmin := false
	for _, adminID := range admins {
		if adminID == id {
			isAdmin = true
			break
		}
	}
	if isAdmin && len(admins) <= 1 {
		return apperrors.ErrLastAdmin
	}
	return nil
}

// UpdateRole changes the role of a user. Demoting the last administrator fails with
// ErrLastAdmin.
func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role models.RoleType) error {
	if role == models.RoleAdmin {
		return updateUser(ctx, r.db, id, map[string]interface{}{"role": role})
	}
	return r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := guardLastAdmin(ctx, tx, id); err != nil {
			return err
		}
		return updateUser(ctx, tx, id, map[string]interface{}{"role": role})
	})
}

// UpdatePassword stores a new password hash and the password_changed flag
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, changed bool) error {
	return updateUser(ctx, r.db, id, map[string]interface{}{"password": hash, "password_changed": changed})
}

// UpdateLastLogin updates the last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to update last login time: %w", err)
	}
	return nil
}

// Delete deletes a user. Deleting the last administrator fails with ErrLastAdmin.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := guardLastAdmin(ctx, tx, id); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			logger.Error().Err(err).Str("userID", id.String()).Msg("Error executing delete user query")
			return fmt.Errorf("error deleting user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrUserNotFound
		}
		return nil
	})
}
