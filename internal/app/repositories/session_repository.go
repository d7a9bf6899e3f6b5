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
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/logger"
)

var sessionColumns = []string{
	"se.id", "se.title", "se.description", "se.start_time", "se.end_time", "se.status",
	"se.teacher_confirmed", "se.teacher_notes", "se.student_id", "se.teacher_id", "se.classroom_id",
	"se.created_at", "se.updated_at",
	"st.first_name", "st.last_name", "st.email",
	"t.first_name", "t.last_name", "t.email",
}

// SessionRepository handles tutoring session database operations
type SessionRepository struct {
	db *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

func selectSessions() squirrel.SelectBuilder {
	return psql.Select(sessionColumns...).
		From("sessions se").
		Join("students st ON st.id = se.student_id").
		Join("users t ON t.id = se.teacher_id")
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var (
		s                     models.Session
		sFirst, sLast, sEmail string
		tFirst, tLast, tEmail string
	)
	err := row.Scan(
		&s.ID, &s.Title, &s.Description, &s.StartTime, &s.EndTime, &s.Status,
		&s.TeacherConfirmed, &s.TeacherNotes, &s.StudentID, &s.TeacherID, &s.ClassroomID,
		&s.CreatedAt, &s.UpdatedAt,
		&sFirst, &sLast, &sEmail,
		&tFirst, &tLast, &tEmail,
	)
	if err != nil {
		return nil, err
	}
	s.Student = models.NewPersonSummary(s.StudentID, sFirst, sLast, sEmail)
	s.Teacher = models.NewPersonSummary(s.TeacherID, tFirst, tLast, tEmail)
	return &s, nil
}

func sessionWriteError(err error) error {
	if dberrors.IsCheckViolation(err) {
		return apperrors.ErrInvalidTimeRange
	}
	if dberrors.IsForeignKeyError(err, "sessions_student_id_fkey") {
		return apperrors.ErrStudentNotFound
	}
	if dberrors.IsForeignKeyError(err, "sessions_teacher_id_fkey") {
		return apperrors.ErrTeacherNotFound
	}
	if dberrors.IsForeignKeyError(err, "sessions_classroom_id_fkey") {
		return apperrors.ErrClassroomNotFound
	}
	logger.Error().Err(err).Msg("Error writing session")
	return fmt.Errorf("error saving session: %w", err)
}

// Create stores a new session
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	sql, args, err := psql.Insert("sessions").
		Columns("title", "description", "start_time", "end_time", "status", "teacher_confirmed",
			"teacher_notes", "student_id", "teacher_id", "classroom_id").
		Values(s.Title, s.Description, s.StartTime, s.EndTime, s.Status, s.TeacherConfirmed,
			s.TeacherNotes, s.StudentID, s.TeacherID, s.ClassroomID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create session query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return sessionWriteError(err)
	}
	return nil
}

// GetByID retrieves a session with its student and teacher embedded
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	sql, args, err := selectSessions().Where(squirrel.Eq{"se.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get session query: %w", err)
	}

	s, err := scanSession(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("error retrieving session: %w", err)
	}
	return s, nil
}

// List returns sessions by start time, oldest first unless filter.NewestFirst is set
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]*models.Session, error) {
	q := selectSessions()
	if filter.NewestFirst {
		q = q.OrderBy("se.start_time DESC")
	} else {
		q = q.OrderBy("se.start_time")
	}
	if filter.TeacherID != nil {
		q = q.Where(squirrel.Eq{"se.teacher_id": *filter.TeacherID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"se.status": *filter.Status})
	}
	if filter.Confirmed != nil {
		q = q.Where(squirrel.Eq{"se.teacher_confirmed": *filter.Confirmed})
	}
	if filter.WithNotes {
		q = q.Where("btrim(se.teacher_notes) <> ''")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list sessions query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list sessions query")
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	return collect(rows, scanSession)
}

// Update writes the mutable columns of s
func (r *SessionRepository) Update(ctx context.Context, s *models.Session) error {
	sql, args, err := psql.Update("sessions").
		Set("title", s.Title).
		Set("description", s.Description).
		Set("start_time", s.StartTime).
		Set("end_time", s.EndTime).
		Set("status", s.Status).
		Set("teacher_confirmed", s.TeacherConfirmed).
		Set("teacher_notes", s.TeacherNotes).
		Set("classroom_id", s.ClassroomID).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": s.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update session query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrSessionNotFound
		}
		return sessionWriteError(err)
	}
	return nil
}

// Delete deletes a session
func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

// Count returns the number of sessions
func (r *SessionRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting sessions: %w", err)
	}
	return n, nil
}
