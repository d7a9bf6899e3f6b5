package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appauth "github.com/EvilEvan/PvtClass-tracker/internal/app/auth"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models/dto"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/services"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
)

type stubClassroomService struct {
	services.ClassroomService

	reporter  appauth.Actor
	reportErr error
	ended     *dto.EndUsageRequest
	query     *dto.UsageReportQuery
	statsErr  error
}

func (s *stubClassroomService) ReportUsage(_ context.Context, actor appauth.Actor, req dto.ReportUsageRequest) (*models.UsageReport, error) {
	if s.reportErr != nil {
		return nil, s.reportErr
	}
	s.reporter = actor
	return &models.UsageReport{ID: uuid.New(), ClassroomID: req.ClassroomID, Status: models.UsageActive}, nil
}

func (s *stubClassroomService) EndUsage(_ context.Context, id uuid.UUID, req dto.EndUsageRequest) (*models.UsageReport, error) {
	s.ended = &req
	return &models.UsageReport{ID: id, Status: models.UsageCompleted}, nil
}

func (s *stubClassroomService) ListUsageReports(_ context.Context, query dto.UsageReportQuery) ([]*models.UsageReport, error) {
	s.query = &query
	return []*models.UsageReport{}, nil
}

func (s *stubClassroomService) GetStats(context.Context) (*dto.ClassroomStats, error) {
	if s.statsErr != nil {
		return nil, s.statsErr
	}
	return &dto.ClassroomStats{}, nil
}

func newClassroomRouter(svc services.ClassroomService, actor appauth.Actor) *gin.Engine {
	ctrl := NewClassroomController(svc)
	r := gin.New()
	r.Use(asActor(actor))
	r.POST("/classrooms/report-usage", ctrl.ReportUsage)
	r.GET("/classrooms/usage-reports", ctrl.ListUsageReports)
	r.PUT("/classrooms/usage-reports/:id/end", ctrl.EndUsage)
	r.GET("/classrooms/stats/overview", ctrl.GetStats)
	return r
}

func TestReportUsageHandler(t *testing.T) {
	teacher := newActor(models.RoleTeacher)
	classroomID := uuid.New()

	t.Run("reported", func(t *testing.T) {
		svc := &stubClassroomService{}
		w, env := perform(t, newClassroomRouter(svc, teacher), http.MethodPost, "/classrooms/report-usage", map[string]interface{}{
			"classroomId": classroomID.String(),
			"studentName": "Luke Skywalker",
			"subject":     "Piloting",
			"startTime":   "2024-09-02T15:00:00Z",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "Usage reported", env.Message)
		assert.Equal(t, teacher.ID, svc.reporter.ID)
	})

	t.Run("maintenance", func(t *testing.T) {
		svc := &stubClassroomService{reportErr: apperrors.ErrClassroomNotUsable}
		w, env := perform(t, newClassroomRouter(svc, teacher), http.MethodPost, "/classrooms/report-usage", map[string]interface{}{
			"classroomId": classroomID.String(),
			"studentName": "Luke Skywalker",
			"subject":     "Piloting",
			"startTime":   "2024-09-02T15:00:00Z",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, apperrors.ErrClassroomNotUsable.Error(), env.Error.Message)
	})

	t.Run("missing classroom", func(t *testing.T) {
		svc := &stubClassroomService{}
		w, _ := perform(t, newClassroomRouter(svc, teacher), http.MethodPost, "/classrooms/report-usage", map[string]interface{}{
			"studentName": "Luke Skywalker",
			"subject":     "Piloting",
			"startTime":   "2024-09-02T15:00:00Z",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestEndUsageHandler(t *testing.T) {
	svc := &stubClassroomService{}
	r := newClassroomRouter(svc, newActor(models.RoleTeacher))

	w, _ := perform(t, r, http.MethodPut, "/classrooms/usage-reports/"+uuid.NewString()+"/end", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, svc.ended)
	assert.Nil(t, svc.ended.EndTime)
}

func TestListUsageReportsHandler(t *testing.T) {
	svc := &stubClassroomService{}
	r := newClassroomRouter(svc, newActor(models.RoleModerator))
	classroomID := uuid.New()

	w, _ := perform(t, r, http.MethodGet, "/classrooms/usage-reports?date=2024-09-02&classroom="+classroomID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, svc.query)
	assert.Equal(t, "2024-09-02", svc.query.Date)
	assert.Equal(t, classroomID.String(), svc.query.Classroom)

	w, _ = perform(t, r, http.MethodGet, "/classrooms/usage-reports?date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClassroomStatsHandlerHidesInternalErrors(t *testing.T) {
	svc := &stubClassroomService{statsErr: errors.New("pool closed")}
	r := newClassroomRouter(svc, newActor(models.RoleAdmin))

	w, env := perform(t, r, http.MethodGet, "/classrooms/stats/overview", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Internal server error", env.Error.Message)
	assert.NotContains(t, w.Body.String(), "pool closed")
}
