package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appauth "github.com/EvilEvan/PvtClass-tracker/internal/app/auth"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models/dto"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/websocket"
)

// SessionService defines the interface for tutoring session operations
type SessionService interface {
	ListSessions(ctx context.Context) ([]*models.Session, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*models.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	CreateSession(ctx context.Context, req dto.CreateSessionRequest) (*models.Session, error)
	UpdateSession(ctx context.Context, id uuid.UUID, req dto.UpdateSessionRequest) (*models.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	ConfirmSession(ctx context.Context, actor appauth.Actor, id uuid.UUID, req dto.ConfirmSessionRequest) (*models.Session, error)
	PendingConfirmation(ctx context.Context, teacherID *uuid.UUID) ([]*models.Session, error)
	WithNotes(ctx context.Context) ([]*models.Session, error)
	GetStats(ctx context.Context) (*dto.SessionStats, error)
}

type sessionServiceImpl struct {
	sessionRepo   SessionRepository
	studentRepo   StudentRepository
	userRepo      UserRepository
	classroomRepo ClassroomRepository
	events        EventPublisher
	logger        zerolog.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(
	sessionRepo SessionRepository,
	studentRepo StudentRepository,
	userRepo UserRepository,
	classroomRepo ClassroomRepository,
	events EventPublisher,
	logger zerolog.Logger,
) SessionService {
	if events == nil {
		events = NopPublisher{}
	}
	return &sessionServiceImpl{
		sessionRepo:   sessionRepo,
		studentRepo:   studentRepo,
		userRepo:      userRepo,
		classroomRepo: classroomRepo,
		events:        events,
		logger:        logger,
	}
}

func (s *sessionServiceImpl) ListSessions(ctx context.Context) ([]*models.Session, error) {
	sessions, err := s.sessionRepo.List(ctx, models.SessionFilter{})
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	return sessions, nil
}

func (s *sessionServiceImpl) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*models.Session, error) {
	return s.sessionRepo.List(ctx, models.SessionFilter{TeacherID: &teacherID, NewestFirst: true})
}

func (s *sessionServiceImpl) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return s.sessionRepo.GetByID(ctx, id)
}

func (s *sessionServiceImpl) CreateSession(ctx context.Context, req dto.CreateSessionRequest) (*models.Session, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, apperrors.ErrInvalidTimeRange
	}

	if _, err := s.studentRepo.GetByID(ctx, req.StudentID); err != nil {
		return nil, err
	}
	if _, err := requireTeacher(ctx, s.userRepo, req.TeacherID); err != nil {
		return nil, err
	}
	if req.ClassroomID != nil {
		if _, err := s.classroomRepo.GetByID(ctx, *req.ClassroomID); err != nil {
			return nil, err
		}
	}

	session := &models.Session{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      models.SessionScheduled,
		StudentID:   req.StudentID,
		TeacherID:   req.TeacherID,
		ClassroomID: req.ClassroomID,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	created, err := s.sessionRepo.GetByID(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	s.events.Publish(websocket.Event{
		Type:      websocket.EventSessionCreated,
		Data:      created,
		TeacherID: created.TeacherID.String(),
	})
	s.logger.Info().
		Str("sessionID", created.ID.String()).
		Str("teacherID", created.TeacherID.String()).
		Msg("Session created")
	return created, nil
}

func (s *sessionServiceImpl) UpdateSession(ctx context.Context, id uuid.UUID, req dto.UpdateSessionRequest) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		session.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		session.Description = *req.Description
	}
	if req.StartTime != nil {
		session.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		session.EndTime = *req.EndTime
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, apperrors.NewValidationError("status", "status must be one of SCHEDULED, COMPLETED, CANCELLED")
		}
		session.Status = *req.Status
	}
	if req.ClassroomID != nil {
		if _, err := s.classroomRepo.GetByID(ctx, *req.ClassroomID); err != nil {
			return nil, err
		}
		session.ClassroomID = req.ClassroomID
	}

	if !session.EndTime.After(session.StartTime) {
		return nil, apperrors.ErrInvalidTimeRange
	}

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	return s.sessionRepo.GetByID(ctx, id)
}

func (s *sessionServiceImpl) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := s.sessionRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("sessionID", id.String()).Msg("Session deleted")
	return nil
}

// ConfirmSession records that the session took place and stores the teacher's notes
func (s *sessionServiceImpl) ConfirmSession(ctx context.Context, actor appauth.Actor, id uuid.UUID, req dto.ConfirmSessionRequest) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := appauth.ValidateSessionConfirmation(actor, session); err != nil {
		return nil, err
	}

	session.TeacherConfirmed = true
	session.TeacherNotes = strings.TrimSpace(req.Notes)
	session.Status = models.SessionCompleted
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	s.events.Publish(websocket.Event{
		Type:      websocket.EventSessionConfirmed,
		Data:      session,
		TeacherID: session.TeacherID.String(),
	})
	s.logger.Info().
		Str("sessionID", id.String()).
		Str("confirmedBy", actor.ID.String()).
		Msg("Session confirmed")
	return session, nil
}

func (s *sessionServiceImpl) PendingConfirmation(ctx context.Context, teacherID *uuid.UUID) ([]*models.Session, error) {
	status := models.SessionScheduled
	confirmed := false
	return s.sessionRepo.List(ctx, models.SessionFilter{
		TeacherID: teacherID,
		Status:    &status,
		Confirmed: &confirmed,
	})
}

func (s *sessionServiceImpl) WithNotes(ctx context.Context) ([]*models.Session, error) {
	return s.sessionRepo.List(ctx, models.SessionFilter{WithNotes: true, NewestFirst: true})
}

// GetStats summarizes completion and confirmation across all sessions
func (s *sessionServiceImpl) GetStats(ctx context.Context) (*dto.SessionStats, error) {
	sessions, err := s.sessionRepo.List(ctx, models.SessionFilter{})
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}

	stats := &dto.SessionStats{Total: len(sessions)}
	for _, session := range sessions {
		if session.Status == models.SessionCompleted {
			stats.Completed++
		}
		if session.TeacherConfirmed {
			stats.Confirmed++
		}
		if session.HasNotes() {
			stats.WithNotes++
		}
	}
	stats.ConfirmationRate = percentage(stats.Confirmed, stats.Total)
	return stats, nil
}

func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

