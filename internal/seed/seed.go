// Package seed fills an empty database with the center's rooms and sample records.
// Every step only runs when its table is empty, so seeding is safe on every start.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/auth"
)

// DemoTeacherEmail is the account created for sample sessions
const DemoTeacherEmail = "obiwan.kenobi@tutoring.center"

// DemoTeacherPassword is the initial password of the demo teacher. The account is flagged
// as not having changed its password.
const DemoTeacherPassword = "HelloThere1"

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
}

type studentStore interface {
	Create(ctx context.Context, student *models.Student) error
	List(ctx context.Context, filter models.StudentFilter) ([]*models.Student, error)
}

type classroomStore interface {
	Create(ctx context.Context, c *models.Classroom) error
	List(ctx context.Context) ([]*models.Classroom, error)
}

type sessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	List(ctx context.Context, filter models.SessionFilter) ([]*models.Session, error)
}

// Seeder creates default data
type Seeder struct {
	users      userStore
	students   studentStore
	classrooms classroomStore
	sessions   sessionStore
	hasher     *auth.PasswordHasher
	logger     zerolog.Logger
	now        func() time.Time
}

// NewSeeder creates a Seeder over the given repositories
func NewSeeder(users userStore, students studentStore, classrooms classroomStore, sessions sessionStore, hasher *auth.PasswordHasher, logger zerolog.Logger) *Seeder {
	return &Seeder{
		users:      users,
		students:   students,
		classrooms: classrooms,
		sessions:   sessions,
		hasher:     hasher,
		logger:     logger,
		now:        time.Now,
	}
}

// Run seeds classrooms and students, and with demo set a demo teacher and sample sessions.
// Failures of one step do not stop the others; all errors are joined.
func (s *Seeder) Run(ctx context.Context, demo bool) error {
	s.logger.Info().Bool("demo", demo).Msg("Checking/Creating default data...")

	var finalErr error
	if err := s.seedClassrooms(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Error seeding classrooms")
		finalErr = errors.Join(finalErr, err)
	}
	if err := s.seedStudents(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Error seeding students")
		finalErr = errors.Join(finalErr, err)
	}

	if demo {
		teacher, err := s.seedDemoTeacher(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("Error seeding demo teacher")
			finalErr = errors.Join(finalErr, err)
		} else if err := s.seedSessions(ctx, teacher); err != nil {
			s.logger.Error().Err(err).Msg("Error seeding sample sessions")
			finalErr = errors.Join(finalErr, err)
		}
	}

	if finalErr == nil {
		s.logger.Info().Msg("Default data check/creation complete.")
	}
	return finalErr
}

func (s *Seeder) seedClassrooms(ctx context.Context) error {
	existing, err := s.classrooms.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list classrooms: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, c := range defaultClassrooms() {
		if err := s.classrooms.Create(ctx, c); err != nil {
			return fmt.Errorf("failed to create classroom %q: %w", c.Name, err)
		}
	}
	s.logger.Info().Int("count", len(defaultClassrooms())).Msg("Seeded classrooms")
	return nil
}

func (s *Seeder) seedStudents(ctx context.Context) error {
	existing, err := s.students.List(ctx, models.StudentFilter{})
	if err != nil {
		return fmt.Errorf("failed to list students: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	students := defaultStudents()
	for _, st := range students {
		if err := s.students.Create(ctx, st); err != nil {
			return fmt.Errorf("failed to create student %s: %w", st.Email, err)
		}
	}
	s.logger.Info().Int("count", len(students)).Msg("Seeded students")
	return nil
}

// seedDemoTeacher returns an existing teacher or creates the demo one
func (s *Seeder) seedDemoTeacher(ctx context.Context) (*models.User, error) {
	role := models.RoleTeacher
	teachers, err := s.users.List(ctx, models.UserFilter{Role: &role})
	if err != nil {
		return nil, fmt.Errorf("failed to list teachers: %w", err)
	}
	if len(teachers) > 0 {
		return teachers[0], nil
	}

	existing, err := s.users.GetByEmail(ctx, DemoTeacherEmail)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up demo teacher: %w", err)
	}

	hash, err := s.hasher.Hash(DemoTeacherPassword)
	if err != nil {
		return nil, err
	}
	teacher := &models.User{
		Email:     DemoTeacherEmail,
		Password:  hash,
		FirstName: "Obi-Wan",
		LastName:  "Kenobi",
		Role:      models.RoleTeacher,
		IsActive:  true,
	}
	if err := s.users.Create(ctx, teacher); err != nil {
		return nil, fmt.Errorf("failed to create demo teacher: %w", err)
	}
	s.logger.Info().Str("email", teacher.Email).Msg("Seeded demo teacher")
	return teacher, nil
}

// seedSessions schedules one past and one upcoming session per student
func (s *Seeder) seedSessions(ctx context.Context, teacher *models.User) error {
	existing, err := s.sessions.List(ctx, models.SessionFilter{})
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	students, err := s.students.List(ctx, models.StudentFilter{})
	if err != nil {
		return fmt.Errorf("failed to list students: %w", err)
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	created := 0
	for i, st := range students {
		subject := "Tutoring"
		if len(st.Subjects) > 0 {
			subject = st.Subjects[0]
		}
		start := today.Add(time.Duration(15+i) * time.Hour)

		past := &models.Session{
			Title:            subject + " review",
			Description:      "Weekly review with " + st.FirstName,
			StartTime:        start.AddDate(0, 0, -7),
			EndTime:          start.AddDate(0, 0, -7).Add(time.Hour),
			Status:           models.SessionCompleted,
			TeacherConfirmed: true,
			TeacherNotes:     "Good progress on " + subject + ".",
			StudentID:        st.ID,
			TeacherID:        teacher.ID,
		}
		upcoming := &models.Session{
			Title:       subject + " practice",
			Description: "Practice session with " + st.FirstName,
			StartTime:   start.AddDate(0, 0, 1),
			EndTime:     start.AddDate(0, 0, 1).Add(time.Hour),
			Status:      models.SessionScheduled,
			StudentID:   st.ID,
			TeacherID:   teacher.ID,
		}
		for _, session := range []*models.Session{past, upcoming} {
			if err := s.sessions.Create(ctx, session); err != nil {
				return fmt.Errorf("failed to create session %q: %w", session.Title, err)
			}
			created++
		}
	}
	s.logger.Info().Int("count", created).Msg("Seeded sample sessions")
	return nil
}

func defaultClassrooms() []*models.Classroom {
	return []*models.Classroom{
		{
			Name:      "Command Bridge",
			Capacity:  8,
			Location:  "Level 1 - Main Deck",
			Equipment: []string{"Interactive Whiteboard", "Projector", "Sound System", "Video Conferencing"},
			Status:    models.ClassroomAvailable,
		},
		{
			Name:      "Jedi Council Chamber",
			Capacity:  12,
			Location:  "Level 2 - East Wing",
			Equipment: []string{"Holographic Display", "Surround Sound", "Climate Control", "Recording Equipment"},
			Status:    models.ClassroomAvailable,
		},
		{
			Name:      "Rebel Base Conference",
			Capacity:  6,
			Location:  "Level 1 - West Wing",
			Equipment: []string{"Smart Board", "Tablets", "Wireless Presentation", "Coffee Station"},
			Status:    models.ClassroomAvailable,
		},
		{
			Name:      "Death Star Briefing Room",
			Capacity:  15,
			Location:  "Level 3 - Central",
			Equipment: []string{"Large Screen Display", "Microphone System", "Document Camera", "Lighting Controls"},
			Status:    models.ClassroomMaintenance,
		},
	}
}

func defaultStudents() []*models.Student {
	return []*models.Student{
		{
			FirstName:      "Luke",
			LastName:       "Skywalker",
			Email:          "luke.skywalker@rebellion.net",
			Phone:          "+1-555-0101",
			DateOfBirth:    "2005-03-15",
			EnrollmentDate: "2024-09-01",
			Status:         models.StudentActive,
			Subjects:       []string{"Mathematics", "Physics", "Computer Science"},
			Notes:          "Strong analytical skills, great potential in STEM subjects.",
			EmergencyContact: models.EmergencyContact{
				Name: "Owen Lars", Phone: "+1-555-0102", Relationship: "Uncle",
			},
			Address: models.Address{
				Street: "123 Tatooine Drive", City: "Desert Springs", State: "AZ", ZipCode: "85001",
			},
		},
		{
			FirstName:      "Leia",
			LastName:       "Organa",
			Email:          "leia.organa@alderaan.gov",
			Phone:          "+1-555-0201",
			DateOfBirth:    "2005-03-15",
			EnrollmentDate: "2024-09-01",
			Status:         models.StudentActive,
			Subjects:       []string{"Literature", "History", "Political Science"},
			Notes:          "Natural leader, particularly strong in humanities.",
			EmergencyContact: models.EmergencyContact{
				Name: "Bail Organa", Phone: "+1-555-0202", Relationship: "Father",
			},
			Address: models.Address{
				Street: "456 Royal Avenue", City: "Capital City", State: "DC", ZipCode: "20001",
			},
		},
		{
			FirstName:      "Han",
			LastName:       "Solo",
			Email:          "han.solo@smuggler.com",
			Phone:          "+1-555-0301",
			DateOfBirth:    "2004-07-13",
			EnrollmentDate: "2024-10-15",
			Status:         models.StudentActive,
			Subjects:       []string{"Business", "Engineering", "Economics"},
			Notes:          "Practical problem solver. Sometimes needs motivation.",
			EmergencyContact: models.EmergencyContact{
				Name: "Chewbacca", Phone: "+1-555-0302", Relationship: "Friend",
			},
			Address: models.Address{
				Street: "789 Millennium Lane", City: "Corellia", State: "TX", ZipCode: "75001",
			},
		},
	}
}
