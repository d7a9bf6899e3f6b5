package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appauth "github.com/EvilEvan/PvtClass-tracker/internal/app/auth"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models/dto"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/helpers"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/websocket"
)

const recentReportLimit = 10

// ClassroomService defines the interface for classroom and usage report operations
type ClassroomService interface {
	ListClassrooms(ctx context.Context) ([]*models.Classroom, error)
	GetClassroom(ctx context.Context, id uuid.UUID) (*models.Classroom, error)
	CreateClassroom(ctx context.Context, req dto.CreateClassroomRequest) (*models.Classroom, error)
	UpdateClassroom(ctx context.Context, id uuid.UUID, req dto.UpdateClassroomRequest) (*models.Classroom, error)
	DeleteClassroom(ctx context.Context, id uuid.UUID) error
	ReportUsage(ctx context.Context, actor appauth.Actor, req dto.ReportUsageRequest) (*models.UsageReport, error)
	EndUsage(ctx context.Context, id uuid.UUID, req dto.EndUsageRequest) (*models.UsageReport, error)
	ListUsageReports(ctx context.Context, query dto.UsageReportQuery) ([]*models.UsageReport, error)
	GetStats(ctx context.Context) (*dto.ClassroomStats, error)
}

type classroomServiceImpl struct {
	classroomRepo ClassroomRepository
	usageRepo     UsageReportRepository
	events        EventPublisher
	now           func() time.Time
	logger        zerolog.Logger
}

// NewClassroomService creates a new ClassroomService
func NewClassroomService(classroomRepo ClassroomRepository, usageRepo UsageReportRepository, events EventPublisher, logger zerolog.Logger) ClassroomService {
	if events == nil {
		events = NopPublisher{}
	}
	return &classroomServiceImpl{
		classroomRepo: classroomRepo,
		usageRepo:     usageRepo,
		events:        events,
		now:           time.Now,
		logger:        logger,
	}
}

// activeReports returns the active usage report of each classroom keyed by classroom id
func (s *classroomServiceImpl) activeReports(ctx context.Context) (map[uuid.UUID]*models.UsageReport, error) {
	status := models.UsageActive
	reports, err := s.usageRepo.List(ctx, models.UsageReportFilter{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("error loading active usage reports: %w", err)
	}
	active := make(map[uuid.UUID]*models.UsageReport, len(reports))
	for _, r := range reports {
		if _, ok := active[r.ClassroomID]; !ok {
			active[r.ClassroomID] = r
		}
	}
	return active, nil
}

// decorate marks classrooms with an active report as in use
func decorate(c *models.Classroom, active map[uuid.UUID]*models.UsageReport) {
	if r, ok := active[c.ID]; ok {
		c.Status = models.ClassroomInUse
		c.CurrentSession = r.AsCurrentSession()
	}
}

func (s *classroomServiceImpl) ListClassrooms(ctx context.Context) ([]*models.Classroom, error) {
	classrooms, err := s.classroomRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing classrooms: %w", err)
	}
	active, err := s.activeReports(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range classrooms {
		decorate(c, active)
	}
	return classrooms, nil
}

func (s *classroomServiceImpl) GetClassroom(ctx context.Context, id uuid.UUID) (*models.Classroom, error) {
	c, err := s.classroomRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	active, err := s.activeReports(ctx)
	if err != nil {
		return nil, err
	}
	decorate(c, active)
	return c, nil
}

func (s *classroomServiceImpl) CreateClassroom(ctx context.Context, req dto.CreateClassroomRequest) (*models.Classroom, error) {
	if req.Capacity <= 0 {
		return nil, apperrors.NewValidationError("capacity", "capacity must be greater than zero")
	}
	c := &models.Classroom{
		Name:      strings.TrimSpace(req.Name),
		Capacity:  req.Capacity,
		Location:  strings.TrimSpace(req.Location),
		Equipment: cleanList(req.Equipment),
		Status:    req.Status,
	}
	if c.Status == "" {
		c.Status = models.ClassroomAvailable
	}
	if !c.Status.Valid() {
		return nil, apperrors.NewValidationError("status", "status must be one of available, in-use, maintenance")
	}

	if err := s.classroomRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info().Str("classroomID", c.ID.String()).Str("name", c.Name).Msg("Classroom created")
	return c, nil
}

func (s *classroomServiceImpl) UpdateClassroom(ctx context.Context, id uuid.UUID, req dto.UpdateClassroomRequest) (*models.Classroom, error) {
	c, err := s.classroomRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			return nil, apperrors.NewValidationError("capacity", "capacity must be greater than zero")
		}
		c.Capacity = *req.Capacity
	}
	if req.Location != nil {
		c.Location = strings.TrimSpace(*req.Location)
	}
	if req.Equipment != nil {
		c.Equipment = cleanList(req.Equipment)
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, apperrors.NewValidationError("status", "status must be one of available, in-use, maintenance")
		}
		c.Status = *req.Status
	}

	if err := s.classroomRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return s.GetClassroom(ctx, id)
}

func (s *classroomServiceImpl) DeleteClassroom(ctx context.Context, id uuid.UUID) error {
	if err := s.classroomRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("classroomID", id.String()).Msg("Classroom deleted")
	return nil
}

// ReportUsage opens a usage report. The classroom must not be under maintenance or already
// have an active report.
func (s *classroomServiceImpl) ReportUsage(ctx context.Context, actor appauth.Actor, req dto.ReportUsageRequest) (*models.UsageReport, error) {
	if req.EndTime != nil && !req.EndTime.After(req.StartTime) {
		return nil, apperrors.ErrInvalidTimeRange
	}

	c, err := s.classroomRepo.GetByID(ctx, req.ClassroomID)
	if err != nil {
		return nil, err
	}
	if c.Status == models.ClassroomMaintenance {
		return nil, apperrors.ErrClassroomNotUsable
	}

	active, err := s.activeReports(ctx)
	if err != nil {
		return nil, err
	}
	if _, busy := active[c.ID]; busy {
		return nil, apperrors.ErrClassroomInUse
	}

	report := &models.UsageReport{
		ClassroomID:   c.ID,
		ClassroomName: c.Name,
		SessionID:     strings.TrimSpace(req.SessionID),
		StudentName:   strings.TrimSpace(req.StudentName),
		Subject:       strings.TrimSpace(req.Subject),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Status:        models.UsageActive,
		ReportedBy:    strings.TrimSpace(req.ReportedBy),
		Notes:         req.Notes,
	}
	if report.ReportedBy == "" {
		report.ReportedBy = actor.Email
	}

	if err := s.usageRepo.Create(ctx, report); err != nil {
		return nil, err
	}

	s.events.Publish(websocket.Event{Type: websocket.EventUsageReported, Data: report})
	s.logger.Info().
		Str("classroomID", c.ID.String()).
		Str("reportID", report.ID.String()).
		Str("reportedBy", report.ReportedBy).
		Msg("Classroom usage reported")
	return report, nil
}

// EndUsage completes an active report. The end time defaults to now.
func (s *classroomServiceImpl) EndUsage(ctx context.Context, id uuid.UUID, req dto.EndUsageRequest) (*models.UsageReport, error) {
	report, err := s.usageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status != models.UsageActive {
		return nil, apperrors.ErrUsageReportClosed
	}

	end := s.now().UTC()
	if req.EndTime != nil {
		end = *req.EndTime
	}
	if !end.After(report.StartTime) {
		return nil, apperrors.ErrInvalidTimeRange
	}

	ended, err := s.usageRepo.End(ctx, id, end, req.Notes)
	if err != nil {
		return nil, err
	}

	s.events.Publish(websocket.Event{Type: websocket.EventUsageEnded, Data: ended})
	s.logger.Info().Str("reportID", id.String()).Msg("Classroom usage ended")
	return ended, nil
}

func (s *classroomServiceImpl) ListUsageReports(ctx context.Context, query dto.UsageReportQuery) ([]*models.UsageReport, error) {
	var filter models.UsageReportFilter
	if query.Date != "" {
		day, err := helpers.ParseDate(query.Date)
		if err != nil {
			return nil, apperrors.NewValidationError("date", err.Error())
		}
		filter.Day = &day
	}
	if query.Classroom != "" {
		id, err := uuid.Parse(query.Classroom)
		if err != nil {
			return nil, apperrors.NewValidationError("classroom", "classroom must be a valid id")
		}
		filter.ClassroomID = &id
	}
	return s.usageRepo.List(ctx, filter)
}

// GetStats builds the classroom dashboard overview
func (s *classroomServiceImpl) GetStats(ctx context.Context) (*dto.ClassroomStats, error) {
	classrooms, err := s.ListClassrooms(ctx)
	if err != nil {
		return nil, err
	}

	stats := &dto.ClassroomStats{
		TotalClassrooms:        len(classrooms),
		UtilizationByClassroom: make([]dto.ClassroomUtilization, 0, len(classrooms)),
	}
	for _, c := range classrooms {
		switch c.Status {
		case models.ClassroomAvailable:
			stats.AvailableClassrooms++
		case models.ClassroomInUse:
			stats.InUseClassrooms++
		case models.ClassroomMaintenance:
			stats.MaintenanceClassrooms++
		}
	}

	today := s.now()
	todays, err := s.usageRepo.List(ctx, models.UsageReportFilter{Day: &today})
	if err != nil {
		return nil, fmt.Errorf("error loading today's usage: %w", err)
	}
	stats.TodaysUsage.Total = len(todays)
	for _, r := range todays {
		switch r.Status {
		case models.UsageActive:
			stats.TodaysUsage.Active++
		case models.UsageCompleted:
			stats.TodaysUsage.Completed++
		}
	}

	all, err := s.usageRepo.List(ctx, models.UsageReportFilter{})
	if err != nil {
		return nil, fmt.Errorf("error loading usage reports: %w", err)
	}
	usage := make(map[uuid.UUID]*dto.ClassroomUtilization, len(classrooms))
	for _, c := range classrooms {
		stats.UtilizationByClassroom = append(stats.UtilizationByClassroom, dto.ClassroomUtilization{
			ClassroomID: c.ID,
			Name:        c.Name,
			Capacity:    c.Capacity,
		})
	}
	for i := range stats.UtilizationByClassroom {
		u := &stats.UtilizationByClassroom[i]
		usage[u.ClassroomID] = u
	}
	for _, r := range all {
		u, ok := usage[r.ClassroomID]
		if !ok {
			continue
		}
		u.ReportCount++
		if r.EndTime != nil && r.EndTime.After(r.StartTime) {
			u.TotalMinutes += int(r.EndTime.Sub(r.StartTime).Minutes())
		}
	}

	recent := all
	if len(recent) > recentReportLimit {
		recent = recent[:recentReportLimit]
	}
	stats.RecentReports = recent

	return stats, nil
}
