package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/dberrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/logger"
)

const pendingRequestEmailKey = "password_requests_pending_email_key"

var passwordRequestColumns = []string{
	"id", "email", "first_name", "last_name", "role", "reason",
	"status", "reviewed_by", "reviewed_at", "created_at",
}

// PasswordRequestRepository handles account request database operations
type PasswordRequestRepository struct {
	db     *pgxpool.Pool
	withTx TxRunner
}

// NewPasswordRequestRepository creates a new PasswordRequestRepository
func NewPasswordRequestRepository(db *pgxpool.Pool, withTx TxRunner) *PasswordRequestRepository {
	return &PasswordRequestRepository{db: db, withTx: withTx}
}

func scanPasswordRequest(row pgx.Row) (*models.PasswordRequest, error) {
	var pr models.PasswordRequest
	err := row.Scan(
		&pr.ID, &pr.Email, &pr.FirstName, &pr.LastName, &pr.Role, &pr.Reason,
		&pr.Status, &pr.ReviewedBy, &pr.ReviewedAt, &pr.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

// Create stores a new PENDING request
func (r *PasswordRequestRepository) Create(ctx context.Context, req *models.PasswordRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Status = models.PasswordRequestPending

	sql, args, err := psql.Insert("password_requests").
		Columns("email", "first_name", "last_name", "role", "reason", "status").
		Values(req.Email, req.FirstName, req.LastName, req.Role, req.Reason, req.Status).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create password request query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&req.ID, &req.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, pendingRequestEmailKey) {
			return apperrors.ErrPasswordRequestExists
		}
		logger.Error().Err(err).Str("email", req.Email).Msg("Error executing create password request query")
		return fmt.Errorf("error creating password request: %w", err)
	}
	return nil
}

// GetByID retrieves a request by ID
func (r *PasswordRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PasswordRequest, error) {
	return r.getByID(ctx, r.db, id, false)
}

func (r *PasswordRequestRepository) getByID(ctx context.Context, q querier, id uuid.UUID, lock bool) (*models.PasswordRequest, error) {
	b := psql.Select(passwordRequestColumns...).From("password_requests").Where(squirrel.Eq{"id": id})
	if lock {
		b = b.Suffix("FOR UPDATE")
	}

	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get password request query: %w", err)
	}

	req, err := scanPasswordRequest(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPasswordRequestNotFound
		}
		return nil, fmt.Errorf("error retrieving password request: %w", err)
	}
	return req, nil
}

// HasPending reports whether email has a PENDING request
func (r *PasswordRequestRepository) HasPending(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM password_requests WHERE lower(email) = lower($1) AND status = $2)`,
		strings.TrimSpace(email), models.PasswordRequestPending).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking pending requests: %w", err)
	}
	return exists, nil
}

// ListByStatus returns requests in the given status, oldest first
func (r *PasswordRequestRepository) ListByStatus(ctx context.Context, status models.PasswordRequestStatus) ([]*models.PasswordRequest, error) {
	sql, args, err := psql.Select(passwordRequestColumns...).
		From("password_requests").
		Where(squirrel.Eq{"status": status}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list password requests query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing password requests: %w", err)
	}
	return collect(rows, scanPasswordRequest)
}

func markReviewed(ctx context.Context, q querier, id, reviewerID uuid.UUID, status models.PasswordRequestStatus) error {
	sql, args, err := psql.Update("password_requests").
		Set("status", status).
		Set("reviewed_by", reviewerID).
		Set("reviewed_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": models.PasswordRequestPending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build review password request query: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error reviewing password request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrPasswordRequestReviewed
	}
	return nil
}

// Approve creates user from the PENDING request id and marks the request APPROVED in one
// transaction. The request row is locked while the user is created.
func (r *PasswordRequestRepository) Approve(ctx context.Context, id, reviewerID uuid.UUID, user *models.User) (*models.PasswordRequest, error) {
	var approved *models.PasswordRequest
	err := r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		req, err := r.getByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if req.Status != models.PasswordRequestPending {
			return apperrors.ErrPasswordRequestReviewed
		}

		user.Email = req.Email
		user.FirstName = req.FirstName
		user.LastName = req.LastName
		user.Role = req.Role
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}

		if err := markReviewed(ctx, tx, id, reviewerID, models.PasswordRequestApproved); err != nil {
			return err
		}

		approved, err = r.getByID(ctx, tx, id, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// Reject marks a PENDING request REJECTED
func (r *PasswordRequestRepository) Reject(ctx context.Context, id, reviewerID uuid.UUID) (*models.PasswordRequest, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := markReviewed(ctx, r.db, id, reviewerID, models.PasswordRequestRejected); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}
