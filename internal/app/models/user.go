package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a staff account that can sign in
type User struct {
	ID              uuid.UUID  `json:"id" db:"id" example:"5b3f6a1e-8c1d-4c59-9a4e-2f0c2b7d9e10"`
	Email           string     `json:"email" db:"email" example:"yoda@tutoring.center"`
	Password        string     `json:"-" db:"password"`
	FirstName       string     `json:"firstName" db:"first_name" example:"Master"`
	LastName        string     `json:"lastName" db:"last_name" example:"Yoda"`
	Role            RoleType   `json:"role" db:"role" example:"TEACHER"`
	IsActive        bool       `json:"isActive" db:"is_active" example:"true"`
	PasswordChanged bool       `json:"passwordChanged" db:"password_changed" example:"false"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}

// FullName joins first and last name
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserFilter narrows user listings
type UserFilter struct {
	Role *RoleType
}

// SystemConfig is the singleton row created when the system is initialized
type SystemConfig struct {
	ID                 int       `db:"id"`
	MasterPasswordHash string    `db:"master_password"`
	InitializedAt      time.Time `db:"initialized_at"`
}

// NotificationSetting is an extra recipient for account-related notifications
type NotificationSetting struct {
	ID                       uuid.UUID `json:"id" db:"id"`
	ModeratorEmail           string    `json:"moderatorEmail" db:"moderator_email"`
	EnableEmailNotifications bool      `json:"enableEmailNotifications" db:"enable_email_notifications"`
	CreatedAt                time.Time `json:"createdAt" db:"created_at"`
}
