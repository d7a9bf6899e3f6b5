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

const studentsEmailKey = "students_email_key"

var studentColumns = []string{
	"s.id", "s.first_name", "s.last_name", "s.email", "s.phone", "s.date_of_birth",
	"s.enrollment_date", "s.status", "s.subjects", "s.notes", "s.assigned_teacher_id",
	"s.emergency_contact_name", "s.emergency_contact_phone", "s.emergency_contact_relationship",
	"s.address_street", "s.address_city", "s.address_state", "s.address_zip_code",
	"s.created_at", "s.updated_at",
	"t.first_name", "t.last_name", "t.email",
}

// StudentRepository handles student database operations
type StudentRepository struct {
	db *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{db: db}
}

func selectStudents() squirrel.SelectBuilder {
	return psql.Select(studentColumns...).
		From("students s").
		LeftJoin("users t ON t.id = s.assigned_teacher_id")
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	var (
		s                     models.Student
		tFirst, tLast, tEmail *string
	)
	err := row.Scan(
		&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.Phone, &s.DateOfBirth,
		&s.EnrollmentDate, &s.Status, &s.Subjects, &s.Notes, &s.AssignedTeacherID,
		&s.EmergencyContact.Name, &s.EmergencyContact.Phone, &s.EmergencyContact.Relationship,
		&s.Address.Street, &s.Address.City, &s.Address.State, &s.Address.ZipCode,
		&s.CreatedAt, &s.UpdatedAt,
		&tFirst, &tLast, &tEmail,
	)
	if err != nil {
		return nil, err
	}
	if s.Subjects == nil {
		s.Subjects = []string{}
	}
	if s.AssignedTeacherID != nil && tFirst != nil {
		s.AssignedTeacher = models.NewPersonSummary(*s.AssignedTeacherID, *tFirst, deref(tLast), deref(tEmail))
	}
	return &s, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func studentValues(s *models.Student) map[string]interface{} {
	subjects := s.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	return map[string]interface{}{
		"first_name":                     s.FirstName,
		"last_name":                      s.LastName,
		"email":                          strings.ToLower(strings.TrimSpace(s.Email)),
		"phone":                          s.Phone,
		"date_of_birth":                  s.DateOfBirth,
		"enrollment_date":                s.EnrollmentDate,
		"status":                         s.Status,
		"subjects":                       subjects,
		"notes":                          s.Notes,
		"assigned_teacher_id":            s.AssignedTeacherID,
		"emergency_contact_name":         s.EmergencyContact.Name,
		"emergency_contact_phone":        s.EmergencyContact.Phone,
		"emergency_contact_relationship": s.EmergencyContact.Relationship,
		"address_street":                 s.Address.Street,
		"address_city":                   s.Address.City,
		"address_state":                  s.Address.State,
		"address_zip_code":               s.Address.ZipCode,
	}
}

func studentWriteError(err error, s *models.Student) error {
	if dberrors.IsDuplicateConstraintError(err, studentsEmailKey) {
		return apperrors.NewConflictError("a student with this email already exists")
	}
	if dberrors.IsForeignKeyError(err, "") {
		return apperrors.ErrTeacherNotFound
	}
	logger.Error().Err(err).Str("email", s.Email).Msg("Error writing student")
	return fmt.Errorf("error saving student: %w", err)
}

// Create creates a new student
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	sql, args, err := psql.Insert("students").
		SetMap(studentValues(student)).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&student.ID, &student.CreatedAt, &student.UpdatedAt); err != nil {
		return studentWriteError(err, student)
	}
	return nil
}

// GetByID retrieves a student by ID with the assigned teacher embedded
func (r *StudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	sql, args, err := selectStudents().Where(squirrel.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get student query: %w", err)
	}

	student, err := scanStudent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Str("studentID", id.String()).Msg("Error scanning student row")
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	return student, nil
}

// List returns students ordered by last and first name
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]*models.Student, error) {
	q := selectStudents().OrderBy("s.last_name", "s.first_name")
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"s.status": *filter.Status})
	}
	if filter.AssignedTeacherID != nil {
		q = q.Where(squirrel.Eq{"s.assigned_teacher_id": *filter.AssignedTeacherID})
	}
	if filter.Unassigned {
		q = q.Where(squirrel.Eq{"s.assigned_teacher_id": nil})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list students query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list students query")
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	return collect(rows, scanStudent)
}

// Update writes every mutable column of student
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	values := studentValues(student)
	values["updated_at"] = time.Now()

	sql, args, err := psql.Update("students").
		SetMap(values).
		Where(squirrel.Eq{"id": student.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update student query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&student.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrStudentNotFound
		}
		return studentWriteError(err, student)
	}
	return nil
}

// SetTeacher assigns teacherID to the student, or clears the assignment when nil
func (r *StudentRepository) SetTeacher(ctx context.Context, id uuid.UUID, teacherID *uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE students SET assigned_teacher_id = $1, updated_at = NOW() WHERE id = $2`, teacherID, id)
	if err != nil {
		if dberrors.IsForeignKeyError(err, "") {
			return apperrors.ErrTeacherNotFound
		}
		return fmt.Errorf("error assigning teacher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// Delete deletes a student
func (r *StudentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		logger.Error().Err(err).Str("studentID", id.String()).Msg("Error executing delete student query")
		return fmt.Errorf("error deleting student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}
