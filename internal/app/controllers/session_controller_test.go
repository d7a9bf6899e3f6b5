package controllers

import (
	"context"
	"net/http"
	"testing"
	"time"

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

type stubSessionService struct {
	services.SessionService

	confirmedBy appauth.Actor
	notes       string
	confirmErr  error
	pendingFor  *uuid.UUID
	pendingCall bool
	created     *dto.CreateSessionRequest
}

func (s *stubSessionService) ConfirmSession(_ context.Context, actor appauth.Actor, id uuid.UUID, req dto.ConfirmSessionRequest) (*models.Session, error) {
	if s.confirmErr != nil {
		return nil, s.confirmErr
	}
	s.confirmedBy = actor
	s.notes = req.Notes
	return &models.Session{ID: id, TeacherConfirmed: true, Status: models.SessionCompleted, TeacherNotes: req.Notes}, nil
}

func (s *stubSessionService) PendingConfirmation(_ context.Context, teacherID *uuid.UUID) ([]*models.Session, error) {
	s.pendingCall = true
	s.pendingFor = teacherID
	return []*models.Session{}, nil
}

func (s *stubSessionService) CreateSession(_ context.Context, req dto.CreateSessionRequest) (*models.Session, error) {
	s.created = &req
	return &models.Session{ID: uuid.New(), Title: req.Title, StartTime: req.StartTime, EndTime: req.EndTime}, nil
}

func newSessionRouter(svc services.SessionService, actor appauth.Actor) *gin.Engine {
	ctrl := NewSessionController(svc)
	r := gin.New()
	r.Use(asActor(actor))
	r.POST("/sessions", ctrl.CreateSession)
	r.GET("/sessions/pending-confirmation", ctrl.PendingConfirmation)
	r.POST("/sessions/:id/confirm", ctrl.ConfirmSession)
	return r
}

func TestConfirmSessionHandler(t *testing.T) {
	teacher := newActor(models.RoleTeacher)
	svc := &stubSessionService{}
	r := newSessionRouter(svc, teacher)
	id := uuid.New()

	w, env := perform(t, r, http.MethodPost, "/sessions/"+id.String()+"/confirm",
		map[string]string{"notes": "Worked on the Force"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Session confirmed", env.Message)
	assert.Equal(t, teacher.ID, svc.confirmedBy.ID)
	assert.Equal(t, models.RoleTeacher, svc.confirmedBy.Role)
	assert.Equal(t, "Worked on the Force", svc.notes)

	// an empty body confirms without notes
	w, _ = perform(t, r, http.MethodPost, "/sessions/"+id.String()+"/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, svc.notes)
}

func TestConfirmSessionHandlerErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{"not found", apperrors.ErrSessionNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"not owner", apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden},
		{"cancelled", apperrors.ErrSessionCancelled, http.StatusConflict, dto.ErrorCodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubSessionService{confirmErr: tt.err}
			r := newSessionRouter(svc, newActor(models.RoleTeacher))

			w, env := perform(t, r, http.MethodPost, "/sessions/"+uuid.NewString()+"/confirm", nil)
			assert.Equal(t, tt.status, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, string(tt.code), env.Error.Code)
		})
	}
}

func TestPendingConfirmationHandler(t *testing.T) {
	svc := &stubSessionService{}
	r := newSessionRouter(svc, newActor(models.RoleModerator))

	w, _ := perform(t, r, http.MethodGet, "/sessions/pending-confirmation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.pendingCall)
	assert.Nil(t, svc.pendingFor)

	teacherID := uuid.New()
	w, _ = perform(t, r, http.MethodGet, "/sessions/pending-confirmation?teacherId="+teacherID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.pendingFor)
	assert.Equal(t, teacherID, *svc.pendingFor)

	w, _ = perform(t, r, http.MethodGet, "/sessions/pending-confirmation?teacherId=yoda", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateSessionHandlerRejectsInvertedTimes(t *testing.T) {
	svc := &stubSessionService{}
	r := newSessionRouter(svc, newActor(models.RoleAdmin))
	start := time.Date(2024, 9, 3, 16, 0, 0, 0, time.UTC)

	body := map[string]interface{}{
		"title":     "Lightsaber basics",
		"startTime": start,
		"endTime":   start.Add(-time.Hour),
		"studentId": uuid.NewString(),
		"teacherId": uuid.NewString(),
	}
	w, env := perform(t, r, http.MethodPost, "/sessions", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "endTime", env.Error.Field)
	assert.Nil(t, svc.created)

	body["endTime"] = start.Add(time.Hour)
	w, _ = perform(t, r, http.MethodPost, "/sessions", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, svc.created)
	assert.Equal(t, "Lightsaber basics", svc.created.Title)
}
