package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordRequestStatus tracks the approval workflow
type PasswordRequestStatus string

const (
	PasswordRequestPending  PasswordRequestStatus = "PENDING"
	PasswordRequestApproved PasswordRequestStatus = "APPROVED"
	PasswordRequestRejected PasswordRequestStatus = "REJECTED"
)

// PasswordRequest is a self-service request for a staff account awaiting admin approval
type PasswordRequest struct {
	ID         uuid.UUID             `json:"id" db:"id"`
	Email      string                `json:"email" db:"email"`
	FirstName  string                `json:"firstName" db:"first_name"`
	LastName   string                `json:"lastName" db:"last_name"`
	Role       RoleType              `json:"role" db:"role"`
	Reason     string                `json:"reason" db:"reason"`
	Status     PasswordRequestStatus `json:"status" db:"status"`
	ReviewedBy *uuid.UUID            `json:"reviewedBy,omitempty" db:"reviewed_by"`
	ReviewedAt *time.Time            `json:"reviewedAt,omitempty" db:"reviewed_at"`
	CreatedAt  time.Time             `json:"createdAt" db:"created_at"`
}
