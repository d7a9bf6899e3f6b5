package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models/dto"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/services"
	"github.com/EvilEvan/PvtClass-tracker/internal/middleware"
)

// SessionController handles tutoring sessions
type SessionController struct {
	sessionService services.SessionService
}

// NewSessionController creates a new SessionController
func NewSessionController(sessionService services.SessionService) *SessionController {
	return &SessionController{sessionService: sessionService}
}

// ListSessions lists all sessions
// @Summary List sessions
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Session}
// @Router /sessions [get]
func (c *SessionController) ListSessions(ctx *gin.Context) {
	sessions, err := c.sessionService.ListSessions(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(sessions, ""))
}

// ListByTeacher lists a teacher's sessions newest first
// @Summary Sessions of a teacher
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param teacherId path string true "Teacher ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=[]models.Session}
// @Router /sessions/teacher/{teacherId} [get]
func (c *SessionController) ListByTeacher(ctx *gin.Context) {
	teacherID, ok := parseUUIDParam(ctx, "teacherId")
	if !ok {
		return
	}

	sessions, err := c.sessionService.ListByTeacher(ctx.Request.Context(), teacherID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(sessions, ""))
}

// GetSession returns one session
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=models.Session}
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{id} [get]
func (c *SessionController) GetSession(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	session, err := c.sessionService.GetSession(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(session, ""))
}

// CreateSession schedules a session
// @Summary Create a session
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSessionRequest true "Session"
// @Success 201 {object} dto.APIResponse{data=models.Session}
// @Failure 400 {object} dto.ErrorResponse "End time must be after start time"
// @Failure 404 {object} dto.ErrorResponse "Student, teacher or classroom not found"
// @Router /sessions [post]
func (c *SessionController) CreateSession(ctx *gin.Context) {
	var req dto.CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	session, err := c.sessionService.CreateSession(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(session, "Session created"))
}

// UpdateSession applies a partial update
// @Summary Update a session
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID" Format(uuid)
// @Param request body dto.UpdateSessionRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Session}
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{id} [put]
func (c *SessionController) UpdateSession(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	session, err := c.sessionService.UpdateSession(ctx.Request.Context(), id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(session, "Session updated"))
}

// DeleteSession removes a session
// @Summary Delete a session
// @Tags sessions
// @Security BearerAuth
// @Param id path string true "Session ID" Format(uuid)
// @Success 204 "Deleted"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{id} [delete]
func (c *SessionController) DeleteSession(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.sessionService.DeleteSession(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ConfirmSession records that a session took place
// @Summary Confirm a session
// @Description Teachers confirm their own sessions; administrators and moderators may confirm any. Cancelled sessions cannot be confirmed.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID" Format(uuid)
// @Param request body dto.ConfirmSessionRequest false "Teacher notes"
// @Success 200 {object} dto.APIResponse{data=models.Session}
// @Failure 403 {object} dto.ErrorResponse "Not your session"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Session cancelled"
// @Router /sessions/{id}/confirm [post]
func (c *SessionController) ConfirmSession(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.ConfirmSessionRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			middleware.HandleBindError(ctx, err)
			return
		}
	}

	session, err := c.sessionService.ConfirmSession(ctx.Request.Context(), actor, id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(session, "Session confirmed"))
}

// PendingConfirmation lists scheduled sessions awaiting confirmation
// @Summary Sessions pending confirmation
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param teacherId query string false "Teacher ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=[]models.Session}
// @Router /sessions/pending-confirmation [get]
func (c *SessionController) PendingConfirmation(ctx *gin.Context) {
	var query dto.PendingConfirmationQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	var teacherID *uuid.UUID
	if query.TeacherID != "" {
		id := uuid.MustParse(query.TeacherID)
		teacherID = &id
	}

	sessions, err := c.sessionService.PendingConfirmation(ctx.Request.Context(), teacherID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(sessions, ""))
}

// WithNotes lists sessions carrying teacher notes
// @Summary Sessions with notes
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Session}
// @Router /sessions/with-notes [get]
func (c *SessionController) WithNotes(ctx *gin.Context) {
	sessions, err := c.sessionService.WithNotes(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(sessions, ""))
}

// GetStats summarizes confirmations
// @Summary Session statistics
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SessionStats}
// @Router /sessions/stats [get]
func (c *SessionController) GetStats(ctx *gin.Context) {
	stats, err := c.sessionService.GetStats(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(stats, ""))
}
