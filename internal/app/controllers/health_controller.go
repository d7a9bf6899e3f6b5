package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models/dto"
)

// Pinger is satisfied by the database handle
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports liveness and database reachability
type HealthController struct {
	db      Pinger
	clients func() int
}

// NewHealthController creates a new HealthController. clients reports live event
// connections and may be nil.
func NewHealthController(db Pinger, clients func() int) *HealthController {
	return &HealthController{db: db, clients: clients}
}

// Ping is the liveness probe
func (c *HealthController) Ping(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
}

// Health checks the database
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Failure 503 {object} dto.ErrorResponse "Database unreachable"
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := c.db.Ping(pingCtx); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Database unreachable").
			WithSeverity(dto.ErrorSeverityCritical)
		ctx.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(errorDetail))
		return
	}

	status := gin.H{"status": "ok", "database": "ok"}
	if c.clients != nil {
		status["eventClients"] = c.clients()
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(status, ""))
}
