package models

import (
	"time"

	"github.com/google/uuid"
)

// StudentStatus is the enrollment state of a student
type StudentStatus string

const (
	StudentActive    StudentStatus = "active"
	StudentInactive  StudentStatus = "inactive"
	StudentSuspended StudentStatus = "suspended"
)

// Valid reports whether s is a known status
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentActive, StudentInactive, StudentSuspended:
		return true
	}
	return false
}

// EmergencyContact is the person to call for a student
type EmergencyContact struct {
	Name         string `json:"name" db:"emergency_contact_name"`
	Phone        string `json:"phone" db:"emergency_contact_phone"`
	Relationship string `json:"relationship" db:"emergency_contact_relationship"`
}

// Address is a postal address
type Address struct {
	Street  string `json:"street" db:"address_street"`
	City    string `json:"city" db:"address_city"`
	State   string `json:"state" db:"address_state"`
	ZipCode string `json:"zipCode" db:"address_zip_code"`
}

// PersonSummary is the short form of a user or student embedded in other records
type PersonSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
}

// NewPersonSummary fills Name from the first and last name
func NewPersonSummary(id uuid.UUID, firstName, lastName, email string) *PersonSummary {
	name := firstName
	if lastName != "" {
		name += " " + lastName
	}
	return &PersonSummary{ID: id, Name: name, FirstName: firstName, LastName: lastName, Email: email}
}

// Student is an enrolled learner. Dates are stored as YYYY-MM-DD.
type Student struct {
	ID                uuid.UUID        `json:"id" db:"id"`
	FirstName         string           `json:"firstName" db:"first_name"`
	LastName          string           `json:"lastName" db:"last_name"`
	Email             string           `json:"email" db:"email"`
	Phone             string           `json:"phone" db:"phone"`
	DateOfBirth       string           `json:"dateOfBirth" db:"date_of_birth"`
	EnrollmentDate    string           `json:"enrollmentDate" db:"enrollment_date"`
	Status            StudentStatus    `json:"status" db:"status"`
	Subjects          []string         `json:"subjects" db:"subjects"`
	Notes             string           `json:"notes" db:"notes"`
	AssignedTeacherID *uuid.UUID       `json:"assignedTeacherId,omitempty" db:"assigned_teacher_id"`
	AssignedTeacher   *PersonSummary   `json:"assignedTeacher,omitempty"`
	EmergencyContact  EmergencyContact `json:"emergencyContact"`
	Address           Address          `json:"address"`
	CreatedAt         time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time        `json:"updatedAt" db:"updated_at"`
}

// StudentFilter narrows student listings
type StudentFilter struct {
	Status            *StudentStatus
	AssignedTeacherID *uuid.UUID
	Unassigned        bool
}
