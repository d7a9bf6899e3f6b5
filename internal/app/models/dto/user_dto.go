package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
)

// UserResponse is the public view of a user. The password hash is never included.
type UserResponse struct {
	ID              uuid.UUID       `json:"id" swaggertype:"string" format:"uuid"`
	Email           string          `json:"email"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	Name            string          `json:"name"`
	Role            models.RoleType `json:"role" example:"TEACHER"`
	IsActive        bool            `json:"isActive"`
	PasswordChanged bool            `json:"passwordChanged"`
	LastLoginAt     *time.Time      `json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// NewUserResponse converts a user model
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Name:            u.FullName(),
		Role:            u.Role,
		IsActive:        u.IsActive,
		PasswordChanged: u.PasswordChanged,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
	}
}

// NewUserResponses converts a list of users
func NewUserResponses(users []*models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}

// UserSummaryResponse is the short form used in staff pickers
type UserSummaryResponse struct {
	ID        uuid.UUID `json:"id" swaggertype:"string" format:"uuid"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
}

// NewUserSummaries converts users into summaries
func NewUserSummaries(users []*models.User) []UserSummaryResponse {
	out := make([]UserSummaryResponse, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummaryResponse{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName})
	}
	return out
}

// UserListQuery filters the user listing
type UserListQuery struct {
	Role string `form:"role" binding:"omitempty,oneof=ADMIN TEACHER MODERATOR STUDENT"`
}

// UpdateUserRoleRequest changes a user's role
type UpdateUserRoleRequest struct {
	Role models.RoleType `json:"role" binding:"required,oneof=ADMIN TEACHER MODERATOR STUDENT" example:"MODERATOR"`
}

// ChangePasswordRequest replaces a user's password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
}
