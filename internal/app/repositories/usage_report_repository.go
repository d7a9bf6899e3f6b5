package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/dberrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/helpers"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/logger"
)

const activeUsageKey = "classroom_usage_reports_active_key"

var usageReportColumns = []string{
	"r.id", "r.classroom_id", "c.name", "r.session_id", "r.student_name", "r.subject",
	"r.start_time", "r.end_time", "r.status", "r.reported_by", "r.reported_at", "r.notes",
}

// UsageReportRepository handles classroom usage report database operations
type UsageReportRepository struct {
	db *pgxpool.Pool
}

// NewUsageReportRepository creates a new UsageReportRepository
func NewUsageReportRepository(db *pgxpool.Pool) *UsageReportRepository {
	return &UsageReportRepository{db: db}
}

func selectUsageReports() squirrel.SelectBuilder {
	return psql.Select(usageReportColumns...).
		From("classroom_usage_reports r").
		Join("classrooms c ON c.id = r.classroom_id")
}

func scanUsageReport(row pgx.Row) (*models.UsageReport, error) {
	var u models.UsageReport
	err := row.Scan(
		&u.ID, &u.ClassroomID, &u.ClassroomName, &u.SessionID, &u.StudentName, &u.Subject,
		&u.StartTime, &u.EndTime, &u.Status, &u.ReportedBy, &u.ReportedAt, &u.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create stores a new usage report. A second active report on the same classroom is rejected
// with ErrClassroomInUse.
func (r *UsageReportRepository) Create(ctx context.Context, u *models.UsageReport) error {
	sql, args, err := psql.Insert("classroom_usage_reports").
		Columns("classroom_id", "session_id", "student_name", "subject", "start_time", "end_time", "status", "reported_by", "notes").
		Values(u.ClassroomID, u.SessionID, u.StudentName, u.Subject, u.StartTime, u.EndTime, u.Status, u.ReportedBy, u.Notes).
		Suffix("RETURNING id, reported_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create usage report query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.ReportedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, activeUsageKey) {
			return apperrors.ErrClassroomInUse
		}
		if dberrors.IsForeignKeyError(err, "") {
			return apperrors.ErrClassroomNotFound
		}
		logger.Error().Err(err).Str("classroomID", u.ClassroomID.String()).Msg("Error executing create usage report query")
		return fmt.Errorf("error creating usage report: %w", err)
	}
	return nil
}

// GetByID retrieves a usage report by ID
func (r *UsageReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UsageReport, error) {
	sql, args, err := selectUsageReports().Where(squirrel.Eq{"r.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get usage report query: %w", err)
	}

	u, err := scanUsageReport(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUsageReportNotFound
		}
		return nil, fmt.Errorf("error retrieving usage report: %w", err)
	}
	return u, nil
}

// List returns usage reports newest first
func (r *UsageReportRepository) List(ctx context.Context, filter models.UsageReportFilter) ([]*models.UsageReport, error) {
	q := selectUsageReports().OrderBy("r.start_time DESC")
	if filter.ClassroomID != nil {
		q = q.Where(squirrel.Eq{"r.classroom_id": *filter.ClassroomID})
	}
	if filter.Day != nil {
		start, end := helpers.DayBounds(*filter.Day)
		q = q.Where(squirrel.GtOrEq{"r.start_time": start}).Where(squirrel.Lt{"r.start_time": end})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"r.status": *filter.Status})
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list usage reports query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list usage reports query")
		return nil, fmt.Errorf("error listing usage reports: %w", err)
	}
	return collect(rows, scanUsageReport)
}

// End completes an active report
func (r *UsageReportRepository) End(ctx context.Context, id uuid.UUID, endTime time.Time, notes *string) (*models.UsageReport, error) {
	b := psql.Update("classroom_usage_reports").
		Set("end_time", endTime).
		Set("status", models.UsageCompleted).
		Where(squirrel.Eq{"id": id, "status": models.UsageActive})
	if notes != nil {
		b = b.Set("notes", *notes)
	}

	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build end usage report query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error ending usage report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrUsageReportClosed
	}
	return r.GetByID(ctx, id)
}
