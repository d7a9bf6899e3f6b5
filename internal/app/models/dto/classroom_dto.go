package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
)

// CreateClassroomRequest adds a room
type CreateClassroomRequest struct {
	Name      string                 `json:"name" binding:"required,max=100" example:"Command Bridge"`
	Capacity  int                    `json:"capacity" binding:"required,gt=0" example:"8"`
	Location  string                 `json:"location" binding:"max=200" example:"Deck 1"`
	Equipment []string               `json:"equipment" binding:"omitempty,dive,required,max=100"`
	Status    models.ClassroomStatus `json:"status" binding:"omitempty,oneof=available in-use maintenance" example:"available"`
}

// UpdateClassroomRequest is a partial update
type UpdateClassroomRequest struct {
	Name      *string                 `json:"name" binding:"omitempty,min=1,max=100"`
	Capacity  *int                    `json:"capacity" binding:"omitempty,gt=0"`
	Location  *string                 `json:"location" binding:"omitempty,max=200"`
	Equipment []string                `json:"equipment" binding:"omitempty,dive,required,max=100"`
	Status    *models.ClassroomStatus `json:"status" binding:"omitempty,oneof=available in-use maintenance"`
}

// ReportUsageRequest opens a usage report on a classroom
type ReportUsageRequest struct {
	ClassroomID uuid.UUID  `json:"classroomId" binding:"required" swaggertype:"string" format:"uuid"`
	SessionID   string     `json:"sessionId" binding:"max=100"`
	StudentName string     `json:"studentName" binding:"required,max=200"`
	Subject     string     `json:"subject" binding:"required,max=100"`
	StartTime   time.Time  `json:"startTime" binding:"required"`
	EndTime     *time.Time `json:"endTime"`
	ReportedBy  string     `json:"reportedBy" binding:"max=200"`
	Notes       string     `json:"notes" binding:"max=2000"`
}

// EndUsageRequest closes an active usage report
type EndUsageRequest struct {
	EndTime *time.Time `json:"endTime"`
	Notes   *string    `json:"notes" binding:"omitempty,max=2000"`
}

// UsageReportQuery filters usage reports
type UsageReportQuery struct {
	Date      string `form:"date" binding:"omitempty,date"`
	Classroom string `form:"classroom" binding:"omitempty,uuid"`
}

// TodaysUsage counts today's usage reports by status
type TodaysUsage struct {
	Completed int `json:"completed"`
	Active    int `json:"active"`
	Total     int `json:"total"`
}

// ClassroomUtilization is the usage of one classroom over all reports
type ClassroomUtilization struct {
	ClassroomID  uuid.UUID `json:"classroomId" swaggertype:"string" format:"uuid"`
	Name         string    `json:"name"`
	Capacity     int       `json:"capacity"`
	ReportCount  int       `json:"reportCount"`
	TotalMinutes int       `json:"totalMinutes"`
}

// ClassroomStats is the classroom dashboard overview
type ClassroomStats struct {
	TotalClassrooms        int                    `json:"totalClassrooms"`
	AvailableClassrooms    int                    `json:"availableClassrooms"`
	InUseClassrooms        int                    `json:"inUseClassrooms"`
	MaintenanceClassrooms  int                    `json:"maintenanceClassrooms"`
	TodaysUsage            TodaysUsage            `json:"todaysUsage"`
	UtilizationByClassroom []ClassroomUtilization `json:"utilizationByClassroom"`
	RecentReports          []*models.UsageReport  `json:"recentReports"`
}
