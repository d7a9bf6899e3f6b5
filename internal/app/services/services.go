// Package services implements the business rules of the tutoring center on top of the
// repository interfaces declared here.
package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/websocket"
)

// UserRepository persists staff accounts
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	Count(ctx context.Context, role *models.RoleType) (int, error)
	// UpdateRole and Delete fail with ErrLastAdmin instead of leaving no administrator
	UpdateRole(ctx context.Context, id uuid.UUID, role models.RoleType) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string, changed bool) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SystemConfigRepository persists the master password hash
type SystemConfigRepository interface {
	Get(ctx context.Context) (*models.SystemConfig, error)
	Initialize(ctx context.Context, masterPasswordHash string) error
	InitializeWithAdmin(ctx context.Context, masterPasswordHash string, admin *models.User) error
}

// NotificationSettingRepository persists extra notification recipients
type NotificationSettingRepository interface {
	Upsert(ctx context.Context, email string, enabled bool) (*models.NotificationSetting, error)
	List(ctx context.Context) ([]*models.NotificationSetting, error)
}

// PasswordRequestRepository persists account requests
type PasswordRequestRepository interface {
	Create(ctx context.Context, req *models.PasswordRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PasswordRequest, error)
	HasPending(ctx context.Context, email string) (bool, error)
	ListByStatus(ctx context.Context, status models.PasswordRequestStatus) ([]*models.PasswordRequest, error)
	Approve(ctx context.Context, id, reviewerID uuid.UUID, user *models.User) (*models.PasswordRequest, error)
	Reject(ctx context.Context, id, reviewerID uuid.UUID) (*models.PasswordRequest, error)
}

// StudentRepository persists students
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	SetTeacher(ctx context.Context, id uuid.UUID, teacherID *uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ClassroomRepository persists classrooms
type ClassroomRepository interface {
	Create(ctx context.Context, c *models.Classroom) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Classroom, error)
	List(ctx context.Context) ([]*models.Classroom, error)
	Update(ctx context.Context, c *models.Classroom) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UsageReportRepository persists classroom usage reports
type UsageReportRepository interface {
	Create(ctx context.Context, u *models.UsageReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.UsageReport, error)
	List(ctx context.Context, filter models.UsageReportFilter) ([]*models.UsageReport, error)
	End(ctx context.Context, id uuid.UUID, endTime time.Time, notes *string) (*models.UsageReport, error)
}

// SessionRepository persists tutoring sessions
type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	List(ctx context.Context, filter models.SessionFilter) ([]*models.Session, error)
	Update(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// EventPublisher pushes live events to dashboard clients
type EventPublisher interface {
	Publish(event websocket.Event)
}

// NopPublisher discards events
type NopPublisher struct{}

// Publish implements EventPublisher
func (NopPublisher) Publish(websocket.Event) {}
