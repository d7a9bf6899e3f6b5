package models

import (
	"time"

	"github.com/google/uuid"
)

// ClassroomStatus describes whether a room can be booked
type ClassroomStatus string

const (
	ClassroomAvailable   ClassroomStatus = "available"
	ClassroomInUse       ClassroomStatus = "in-use"
	ClassroomMaintenance ClassroomStatus = "maintenance"
)

// Valid reports whether s is a known status
func (s ClassroomStatus) Valid() bool {
	switch s {
	case ClassroomAvailable, ClassroomInUse, ClassroomMaintenance:
		return true
	}
	return false
}

// UsageStatus is the lifecycle of a usage report
type UsageStatus string

const (
	UsageActive    UsageStatus = "active"
	UsageCompleted UsageStatus = "completed"
	UsageCancelled UsageStatus = "cancelled"
)

// Classroom is a bookable room
type Classroom struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	Capacity       int             `json:"capacity" db:"capacity"`
	Location       string          `json:"location" db:"location"`
	Equipment      []string        `json:"equipment" db:"equipment"`
	Status         ClassroomStatus `json:"status" db:"status"`
	CurrentSession *CurrentSession `json:"currentSession,omitempty"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

// CurrentSession summarizes the active usage report of a classroom
type CurrentSession struct {
	ReportID    uuid.UUID  `json:"reportId"`
	SessionID   string     `json:"sessionId,omitempty"`
	StudentName string     `json:"studentName"`
	Subject     string     `json:"subject"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	ReportedBy  string     `json:"reportedBy"`
}

// UsageReport records who used a classroom and when
type UsageReport struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	ClassroomID   uuid.UUID   `json:"classroomId" db:"classroom_id"`
	ClassroomName string      `json:"classroomName,omitempty"`
	SessionID     string      `json:"sessionId,omitempty" db:"session_id"`
	StudentName   string      `json:"studentName" db:"student_name"`
	Subject       string      `json:"subject" db:"subject"`
	StartTime     time.Time   `json:"startTime" db:"start_time"`
	EndTime       *time.Time  `json:"endTime,omitempty" db:"end_time"`
	Status        UsageStatus `json:"status" db:"status"`
	ReportedBy    string      `json:"reportedBy" db:"reported_by"`
	ReportedAt    time.Time   `json:"reportedAt" db:"reported_at"`
	Notes         string      `json:"notes" db:"notes"`
}

// AsCurrentSession projects an active report onto its classroom
func (r *UsageReport) AsCurrentSession() *CurrentSession {
	return &CurrentSession{
		ReportID:    r.ID,
		SessionID:   r.SessionID,
		StudentName: r.StudentName,
		Subject:     r.Subject,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		ReportedBy:  r.ReportedBy,
	}
}

// UsageReportFilter narrows usage report listings
type UsageReportFilter struct {
	ClassroomID *uuid.UUID
	// Day restricts to reports started on this calendar day (UTC)
	Day    *time.Time
	Status *UsageStatus
	Limit  uint64
}
