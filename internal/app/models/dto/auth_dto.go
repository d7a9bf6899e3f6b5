package dto

import "github.com/EvilEvan/PvtClass-tracker/internal/app/models"

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"admin@tutoring.center"`
	Password string `json:"password" binding:"required" example:"Admin1234"`
}

// LoginResponse carries the access token and the signed-in user
type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType" example:"Bearer"`
	ExpiresIn   int          `json:"expiresIn" example:"86400"`
	User        UserResponse `json:"user"`
}

// CheckAdminResponse reports whether any administrator exists
type CheckAdminResponse struct {
	HasAdmin bool `json:"hasAdmin"`
}

// SystemStatusResponse describes first-run state
type SystemStatusResponse struct {
	Initialized bool `json:"initialized"`
	HasAdmin    bool `json:"hasAdmin"`
	UserCount   int  `json:"userCount"`
}

// InitializeSystemRequest bootstraps the first administrator and the master password
type InitializeSystemRequest struct {
	MasterPassword string `json:"masterPassword" binding:"required,max=72"`
	AdminEmail     string `json:"adminEmail" binding:"required,email"`
	AdminFirstName string `json:"adminFirstName" binding:"required"`
	AdminLastName  string `json:"adminLastName" binding:"required"`
	AdminPassword  string `json:"adminPassword" binding:"required,min=8,max=72"`
}

// MasterUnlockRequest checks a master password
type MasterUnlockRequest struct {
	Password string `json:"password" binding:"required"`
}

// MasterUnlockResponse reports whether the master password matched
type MasterUnlockResponse struct {
	Valid bool `json:"valid"`
}

// CreateUserRequest is an administrator creating an account with a chosen password
type CreateUserRequest struct {
	Email     string          `json:"email" binding:"required,email"`
	FirstName string          `json:"firstName" binding:"required"`
	LastName  string          `json:"lastName" binding:"required"`
	Password  string          `json:"password" binding:"required,min=8,max=72"`
	Role      models.RoleType `json:"role" binding:"required,oneof=ADMIN TEACHER MODERATOR" example:"TEACHER"`
}

// CreateUserByRoleRequest is a staff member creating an account below their own role
type CreateUserByRoleRequest struct {
	Email             string          `json:"email" binding:"required,email"`
	FirstName         string          `json:"firstName" binding:"required"`
	LastName          string          `json:"lastName" binding:"required"`
	Role              models.RoleType `json:"role" binding:"required,oneof=ADMIN TEACHER MODERATOR" example:"TEACHER"`
	RequestorPassword string          `json:"requestorPassword" binding:"required"`
}

// CreateUserByRoleResponse returns the new account and its one-time temporary password
type CreateUserByRoleResponse struct {
	User              UserResponse `json:"user"`
	TemporaryPassword string       `json:"temporaryPassword" example:"x7Kp2mQw9aLz"`
}

// PasswordCreationRequest is a public request for a staff account
type PasswordCreationRequest struct {
	Email     string          `json:"email" binding:"required,email"`
	FirstName string          `json:"firstName" binding:"required"`
	LastName  string          `json:"lastName" binding:"required"`
	Role      models.RoleType `json:"role" binding:"required,oneof=TEACHER MODERATOR" example:"TEACHER"`
	Reason    string          `json:"reason" binding:"max=1000"`
}

// ApprovePasswordRequestRequest sets the password of the approved account
type ApprovePasswordRequestRequest struct {
	Password       string `json:"password" binding:"required,min=8,max=72"`
	MasterPassword string `json:"masterPassword" binding:"required"`
}

// ApprovePasswordRequestResponse returns the reviewed request and the created account
type ApprovePasswordRequestResponse struct {
	Request *models.PasswordRequest `json:"request"`
	User    UserResponse            `json:"user"`
}

// NotificationSettingRequest registers an extra notification recipient
type NotificationSettingRequest struct {
	ModeratorEmail           string `json:"moderatorEmail" binding:"required,email"`
	EnableEmailNotifications *bool  `json:"enableEmailNotifications"`
}
