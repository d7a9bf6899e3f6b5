package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models/dto"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/helpers"
)

const recentEnrollmentLimit = 5

// StudentService defines the interface for student operations
type StudentService interface {
	CreateStudent(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error)
	GetStudent(ctx context.Context, id uuid.UUID) (*models.Student, error)
	ListStudents(ctx context.Context, status string) ([]*models.Student, error)
	ListUnassigned(ctx context.Context) ([]*models.Student, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*models.Student, error)
	UpdateStudent(ctx context.Context, id uuid.UUID, req dto.UpdateStudentRequest) (*models.Student, error)
	DeleteStudent(ctx context.Context, id uuid.UUID) error
	AssignTeacher(ctx context.Context, id, teacherID uuid.UUID) (*models.Student, error)
	UnassignTeacher(ctx context.Context, id uuid.UUID) (*models.Student, error)
	GetStats(ctx context.Context) (*dto.StudentStats, error)
}

type studentServiceImpl struct {
	studentRepo StudentRepository
	userRepo    UserRepository
	now         func() time.Time
	logger      zerolog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(studentRepo StudentRepository, userRepo UserRepository, logger zerolog.Logger) StudentService {
	return &studentServiceImpl{
		studentRepo: studentRepo,
		userRepo:    userRepo,
		now:         time.Now,
		logger:      logger,
	}
}

// requireTeacher loads id and checks that it is a teacher account
func requireTeacher(ctx context.Context, users UserRepository, id uuid.UUID) (*models.User, error) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrTeacherNotFound
		}
		return nil, err
	}
	if user.Role != models.RoleTeacher {
		return nil, apperrors.ErrTeacherNotFound
	}
	return user, nil
}

func (s *studentServiceImpl) CreateStudent(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error) {
	student := &models.Student{
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		Email:             normalizeEmail(req.Email),
		Phone:             strings.TrimSpace(req.Phone),
		DateOfBirth:       req.DateOfBirth,
		EnrollmentDate:    req.EnrollmentDate,
		Status:            req.Status,
		Subjects:          cleanList(req.Subjects),
		Notes:             req.Notes,
		AssignedTeacherID: req.AssignedTeacherID,
	}
	if student.Status == "" {
		student.Status = models.StudentActive
	}
	if !student.Status.Valid() {
		return nil, apperrors.NewValidationError("status", "status must be one of active, inactive, suspended")
	}
	if student.EnrollmentDate == "" {
		student.EnrollmentDate = s.now().UTC().Format(helpers.DateLayout)
	}
	if req.EmergencyContact != nil {
		student.EmergencyContact = models.EmergencyContact(*req.EmergencyContact)
	}
	if req.Address != nil {
		student.Address = models.Address(*req.Address)
	}

	if student.AssignedTeacherID != nil {
		if _, err := requireTeacher(ctx, s.userRepo, *student.AssignedTeacherID); err != nil {
			return nil, err
		}
	}

	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, err
	}

	s.logger.Info().Str("studentID", student.ID.String()).Msg("Student created")
	return s.studentRepo.GetByID(ctx, student.ID)
}

func (s *studentServiceImpl) GetStudent(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	return s.studentRepo.GetByID(ctx, id)
}

func (s *studentServiceImpl) ListStudents(ctx context.Context, status string) ([]*models.Student, error) {
	var filter models.StudentFilter
	if status != "" {
		st := models.StudentStatus(status)
		if !st.Valid() {
			return nil, apperrors.NewValidationError("status", "status must be one of active, inactive, suspended")
		}
		filter.Status = &st
	}

	students, err := s.studentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	return students, nil
}

func (s *studentServiceImpl) ListUnassigned(ctx context.Context) ([]*models.Student, error) {
	return s.studentRepo.List(ctx, models.StudentFilter{Unassigned: true})
}

func (s *studentServiceImpl) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*models.Student, error) {
	return s.studentRepo.List(ctx, models.StudentFilter{AssignedTeacherID: &teacherID})
}

func (s *studentServiceImpl) UpdateStudent(ctx context.Context, id uuid.UUID, req dto.UpdateStudentRequest) (*models.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		student.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		student.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		student.Email = normalizeEmail(*req.Email)
	}
	if req.Phone != nil {
		student.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.DateOfBirth != nil {
		student.DateOfBirth = *req.DateOfBirth
	}
	if req.EnrollmentDate != nil {
		student.EnrollmentDate = *req.EnrollmentDate
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, apperrors.NewValidationError("status", "status must be one of active, inactive, suspended")
		}
		student.Status = *req.Status
	}
	if req.Subjects != nil {
		student.Subjects = cleanList(req.Subjects)
	}
	if req.Notes != nil {
		student.Notes = *req.Notes
	}
	if req.EmergencyContact != nil {
		student.EmergencyContact = models.EmergencyContact(*req.EmergencyContact)
	}
	if req.Address != nil {
		student.Address = models.Address(*req.Address)
	}

	if err := s.studentRepo.Update(ctx, student); err != nil {
		return nil, err
	}
	return s.studentRepo.GetByID(ctx, id)
}

func (s *studentServiceImpl) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	if err := s.studentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("studentID", id.String()).Msg("Student deleted")
	return nil
}

func (s *studentServiceImpl) AssignTeacher(ctx context.Context, id, teacherID uuid.UUID) (*models.Student, error) {
	if _, err := requireTeacher(ctx, s.userRepo, teacherID); err != nil {
		return nil, err
	}
	if err := s.studentRepo.SetTeacher(ctx, id, &teacherID); err != nil {
		return nil, err
	}
	s.logger.Info().Str("studentID", id.String()).Str("teacherID", teacherID.String()).Msg("Teacher assigned")
	return s.studentRepo.GetByID(ctx, id)
}

func (s *studentServiceImpl) UnassignTeacher(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	if err := s.studentRepo.SetTeacher(ctx, id, nil); err != nil {
		return nil, err
	}
	return s.studentRepo.GetByID(ctx, id)
}

// GetStats counts students by status and subject and lists the latest enrollments
func (s *studentServiceImpl) GetStats(ctx context.Context) (*dto.StudentStats, error) {
	students, err := s.studentRepo.List(ctx, models.StudentFilter{})
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}

	stats := &dto.StudentStats{
		Total:               len(students),
		SubjectDistribution: map[string]int{},
	}
	for _, st := range students {
		switch st.Status {
		case models.StudentActive:
			stats.Active++
		case models.StudentInactive:
			stats.Inactive++
		case models.StudentSuspended:
			stats.Suspended++
		}
		for _, subject := range st.Subjects {
			stats.SubjectDistribution[subject]++
		}
	}

	recent := make([]*models.Student, len(students))
	copy(recent, students)
	sort.SliceStable(recent, func(i, j int) bool {
		if recent[i].EnrollmentDate != recent[j].EnrollmentDate {
			return recent[i].EnrollmentDate > recent[j].EnrollmentDate
		}
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > recentEnrollmentLimit {
		recent = recent[:recentEnrollmentLimit]
	}
	stats.RecentEnrollments = recent

	return stats, nil
}

// cleanList trims entries and drops blanks and duplicates
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
