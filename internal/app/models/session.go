package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle of a tutoring session
type SessionStatus string

const (
	SessionScheduled SessionStatus = "SCHEDULED"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionCancelled SessionStatus = "CANCELLED"
)

// Valid reports whether s is a known status
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// Session is a scheduled tutoring appointment between a teacher and a student
type Session struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	Title            string         `json:"title" db:"title"`
	Description      string         `json:"description" db:"description"`
	StartTime        time.Time      `json:"startTime" db:"start_time"`
	EndTime          time.Time      `json:"endTime" db:"end_time"`
	Status           SessionStatus  `json:"status" db:"status"`
	TeacherConfirmed bool           `json:"teacherConfirmed" db:"teacher_confirmed"`
	TeacherNotes     string         `json:"teacherNotes" db:"teacher_notes"`
	StudentID        uuid.UUID      `json:"studentId" db:"student_id"`
	TeacherID        uuid.UUID      `json:"teacherId" db:"teacher_id"`
	ClassroomID      *uuid.UUID     `json:"classroomId,omitempty" db:"classroom_id"`
	Student          *PersonSummary `json:"student,omitempty"`
	Teacher          *PersonSummary `json:"teacher,omitempty"`
	CreatedAt        time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time      `json:"updatedAt" db:"updated_at"`
}

// HasNotes reports whether the teacher left non-blank notes
func (s *Session) HasNotes() bool {
	return strings.TrimSpace(s.TeacherNotes) != ""
}

// SessionFilter narrows session listings
type SessionFilter struct {
	TeacherID   *uuid.UUID
	Status      *SessionStatus
	Confirmed   *bool
	WithNotes   bool
	NewestFirst bool
}
