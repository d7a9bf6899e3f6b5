package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
)

// CreateSessionRequest schedules a tutoring session
type CreateSessionRequest struct {
	Title       string     `json:"title" binding:"required,max=200" example:"Lightsaber basics"`
	Description string     `json:"description" binding:"max=2000"`
	StartTime   time.Time  `json:"startTime" binding:"required"`
	EndTime     time.Time  `json:"endTime" binding:"required,gtfield=StartTime"`
	StudentID   uuid.UUID  `json:"studentId" binding:"required" swaggertype:"string" format:"uuid"`
	TeacherID   uuid.UUID  `json:"teacherId" binding:"required" swaggertype:"string" format:"uuid"`
	ClassroomID *uuid.UUID `json:"classroomId" swaggertype:"string" format:"uuid"`
}

// UpdateSessionRequest is a partial update
type UpdateSessionRequest struct {
	Title       *string               `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string               `json:"description" binding:"omitempty,max=2000"`
	StartTime   *time.Time            `json:"startTime"`
	EndTime     *time.Time            `json:"endTime"`
	Status      *models.SessionStatus `json:"status" binding:"omitempty,oneof=SCHEDULED COMPLETED CANCELLED"`
	ClassroomID *uuid.UUID            `json:"classroomId" swaggertype:"string" format:"uuid"`
}

// ConfirmSessionRequest records that the teacher held the session
type ConfirmSessionRequest struct {
	Notes string `json:"notes" binding:"max=5000"`
}

// PendingConfirmationQuery optionally narrows pending sessions to one teacher
type PendingConfirmationQuery struct {
	TeacherID string `form:"teacherId" binding:"omitempty,uuid"`
}

// SessionStats summarizes confirmation progress
type SessionStats struct {
	Total            int `json:"total"`
	Completed        int `json:"completed"`
	Confirmed        int `json:"confirmed"`
	WithNotes        int `json:"withNotes"`
	ConfirmationRate int `json:"confirmationRate" example:"75"`
}
