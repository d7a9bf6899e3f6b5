package dto

import (
	"github.com/google/uuid"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
)

// EmergencyContactInput is the emergency contact block of a student request
type EmergencyContactInput struct {
	Name         string `json:"name" binding:"max=200"`
	Phone        string `json:"phone" binding:"omitempty,phone"`
	Relationship string `json:"relationship" binding:"max=100"`
}

// AddressInput is the address block of a student request
type AddressInput struct {
	Street  string `json:"street" binding:"max=200"`
	City    string `json:"city" binding:"max=100"`
	State   string `json:"state" binding:"max=100"`
	ZipCode string `json:"zipCode" binding:"max=20"`
}

// CreateStudentRequest enrolls a student
type CreateStudentRequest struct {
	FirstName         string                 `json:"firstName" binding:"required,max=100" example:"Luke"`
	LastName          string                 `json:"lastName" binding:"required,max=100" example:"Skywalker"`
	Email             string                 `json:"email" binding:"required,email" example:"luke@rebels.org"`
	Phone             string                 `json:"phone" binding:"omitempty,phone" example:"+1 555 0100"`
	DateOfBirth       string                 `json:"dateOfBirth" binding:"omitempty,date" example:"2005-05-25"`
	EnrollmentDate    string                 `json:"enrollmentDate" binding:"omitempty,date" example:"2024-09-01"`
	Status            models.StudentStatus   `json:"status" binding:"omitempty,oneof=active inactive suspended" example:"active"`
	Subjects          []string               `json:"subjects" binding:"omitempty,dive,required,max=100"`
	Notes             string                 `json:"notes" binding:"max=5000"`
	AssignedTeacherID *uuid.UUID             `json:"assignedTeacherId" swaggertype:"string" format:"uuid"`
	EmergencyContact  *EmergencyContactInput `json:"emergencyContact"`
	Address           *AddressInput          `json:"address"`
}

// UpdateStudentRequest is a partial update. Absent fields are left unchanged.
type UpdateStudentRequest struct {
	FirstName        *string                `json:"firstName" binding:"omitempty,min=1,max=100"`
	LastName         *string                `json:"lastName" binding:"omitempty,min=1,max=100"`
	Email            *string                `json:"email" binding:"omitempty,email"`
	Phone            *string                `json:"phone" binding:"omitempty,phone"`
	DateOfBirth      *string                `json:"dateOfBirth" binding:"omitempty,date"`
	EnrollmentDate   *string                `json:"enrollmentDate" binding:"omitempty,date"`
	Status           *models.StudentStatus  `json:"status" binding:"omitempty,oneof=active inactive suspended"`
	Subjects         []string               `json:"subjects" binding:"omitempty,dive,required,max=100"`
	Notes            *string                `json:"notes" binding:"omitempty,max=5000"`
	EmergencyContact *EmergencyContactInput `json:"emergencyContact"`
	Address          *AddressInput          `json:"address"`
}

// StudentListQuery filters the student listing
type StudentListQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=active inactive suspended"`
}

// AssignTeacherRequest links a student to a teacher
type AssignTeacherRequest struct {
	TeacherID uuid.UUID `json:"teacherId" binding:"required" swaggertype:"string" format:"uuid"`
}

// StudentStats summarizes enrollment
type StudentStats struct {
	Total               int               `json:"total"`
	Active              int               `json:"active"`
	Inactive            int               `json:"inactive"`
	Suspended           int               `json:"suspended"`
	SubjectDistribution map[string]int    `json:"subjectDistribution"`
	RecentEnrollments   []*models.Student `json:"recentEnrollments"`
}
