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

const classroomsNameKey = "classrooms_name_key"

var classroomColumns = []string{
	"id", "name", "capacity", "location", "equipment", "status", "created_at", "updated_at",
}

// ClassroomRepository handles classroom database operations
type ClassroomRepository struct {
	db *pgxpool.Pool
}

// NewClassroomRepository creates a new ClassroomRepository
func NewClassroomRepository(db *pgxpool.Pool) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

func scanClassroom(row pgx.Row) (*models.Classroom, error) {
	var c models.Classroom
	err := row.Scan(&c.ID, &c.Name, &c.Capacity, &c.Location, &c.Equipment, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.Equipment == nil {
		c.Equipment = []string{}
	}
	return &c, nil
}

func classroomWriteError(err error, name string) error {
	if dberrors.IsDuplicateConstraintError(err, classroomsNameKey) {
		return apperrors.NewConflictError("a classroom with this name already exists")
	}
	if dberrors.IsCheckViolation(err) {
		return apperrors.NewBadRequestError("capacity must be greater than zero")
	}
	logger.Error().Err(err).Str("name", name).Msg("Error writing classroom")
	return fmt.Errorf("error saving classroom: %w", err)
}

// Create creates a new classroom
func (r *ClassroomRepository) Create(ctx context.Context, c *models.Classroom) error {
	equipment := c.Equipment
	if equipment == nil {
		equipment = []string{}
	}

	sql, args, err := psql.Insert("classrooms").
		Columns("name", "capacity", "location", "equipment", "status").
		Values(c.Name, c.Capacity, c.Location, equipment, c.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create classroom query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return classroomWriteError(err, c.Name)
	}
	return nil
}

// GetByID retrieves a classroom by ID
func (r *ClassroomRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Classroom, error) {
	sql, args, err := psql.Select(classroomColumns...).From("classrooms").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get classroom query: %w", err)
	}

	c, err := scanClassroom(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrClassroomNotFound
		}
		return nil, fmt.Errorf("error retrieving classroom: %w", err)
	}
	return c, nil
}

// List returns all classrooms ordered by name
func (r *ClassroomRepository) List(ctx context.Context) ([]*models.Classroom, error) {
	sql, args, err := psql.Select(classroomColumns...).From("classrooms").OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list classrooms query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list classrooms query")
		return nil, fmt.Errorf("error listing classrooms: %w", err)
	}
	return collect(rows, scanClassroom)
}

// Update writes the mutable columns of c
func (r *ClassroomRepository) Update(ctx context.Context, c *models.Classroom) error {
	equipment := c.Equipment
	if equipment == nil {
		equipment = []string{}
	}

	sql, args, err := psql.Update("classrooms").
		Set("name", c.Name).
		Set("capacity", c.Capacity).
		Set("location", c.Location).
		Set("equipment", equipment).
		Set("status", c.Status).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": c.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update classroom query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrClassroomNotFound
		}
		return classroomWriteError(err, c.Name)
	}
	return nil
}

// Delete deletes a classroom and, by cascade, its usage reports
func (r *ClassroomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM classrooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting classroom: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrClassroomNotFound
	}
	return nil
}

// Count returns the number of classrooms
func (r *ClassroomRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM classrooms`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting classrooms: %w", err)
	}
	return n, nil
}
