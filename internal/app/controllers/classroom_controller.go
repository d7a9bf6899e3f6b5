package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models/dto"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/services"
	"github.com/EvilEvan/PvtClass-tracker/internal/middleware"
)

// ClassroomController handles classrooms and their usage reports
type ClassroomController struct {
	classroomService services.ClassroomService
}

// NewClassroomController creates a new ClassroomController
func NewClassroomController(classroomService services.ClassroomService) *ClassroomController {
	return &ClassroomController{classroomService: classroomService}
}

// ListClassrooms lists rooms with their live occupancy
// @Summary List classrooms
// @Tags classrooms
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Classroom}
// @Router /classrooms [get]
func (c *ClassroomController) ListClassrooms(ctx *gin.Context) {
	classrooms, err := c.classroomService.ListClassrooms(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(classrooms, ""))
}

// GetClassroom returns one room
// @Summary Get a classroom
// @Tags classrooms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=models.Classroom}
// @Failure 404 {object} dto.ErrorResponse "Classroom not found"
// @Router /classrooms/{id} [get]
func (c *ClassroomController) GetClassroom(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	classroom, err := c.classroomService.GetClassroom(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(classroom, ""))
}

// CreateClassroom adds a room
// @Summary Create a classroom
// @Tags classrooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateClassroomRequest true "Classroom"
// @Success 201 {object} dto.APIResponse{data=models.Classroom}
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 409 {object} dto.ErrorResponse "Name already used"
// @Router /classrooms [post]
func (c *ClassroomController) CreateClassroom(ctx *gin.Context) {
	var req dto.CreateClassroomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	classroom, err := c.classroomService.CreateClassroom(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(classroom, "Classroom created"))
}

// UpdateClassroom applies a partial update
// @Summary Update a classroom
// @Tags classrooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID" Format(uuid)
// @Param request body dto.UpdateClassroomRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Classroom}
// @Failure 404 {object} dto.ErrorResponse "Classroom not found"
// @Router /classrooms/{id} [put]
func (c *ClassroomController) UpdateClassroom(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateClassroomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	classroom, err := c.classroomService.UpdateClassroom(ctx.Request.Context(), id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(classroom, "Classroom updated"))
}

// DeleteClassroom removes a room
// @Summary Delete a classroom
// @Tags classrooms
// @Security BearerAuth
// @Param id path string true "Classroom ID" Format(uuid)
// @Success 204 "Deleted"
// @Failure 404 {object} dto.ErrorResponse "Classroom not found"
// @Router /classrooms/{id} [delete]
func (c *ClassroomController) DeleteClassroom(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.classroomService.DeleteClassroom(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ReportUsage opens a usage report
// @Summary Report classroom usage
// @Tags classrooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ReportUsageRequest true "Usage"
// @Success 201 {object} dto.APIResponse{data=models.UsageReport}
// @Failure 404 {object} dto.ErrorResponse "Classroom not found"
// @Failure 409 {object} dto.ErrorResponse "Classroom under maintenance or already in use"
// @Router /classrooms/report-usage [post]
func (c *ClassroomController) ReportUsage(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var req dto.ReportUsageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	report, err := c.classroomService.ReportUsage(ctx.Request.Context(), actor, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(report, "Usage reported"))
}

// EndUsage completes a usage report
// @Summary End classroom usage
// @Tags classrooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Usage report ID" Format(uuid)
// @Param request body dto.EndUsageRequest false "End time and notes"
// @Success 200 {object} dto.APIResponse{data=models.UsageReport}
// @Failure 404 {object} dto.ErrorResponse "Report not found"
// @Failure 409 {object} dto.ErrorResponse "Report is not active"
// @Router /classrooms/usage-reports/{id}/end [put]
func (c *ClassroomController) EndUsage(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.EndUsageRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			middleware.HandleBindError(ctx, err)
			return
		}
	}

	report, err := c.classroomService.EndUsage(ctx.Request.Context(), id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(report, "Usage ended"))
}

// ListUsageReports lists usage reports newest first
// @Summary List usage reports
// @Tags classrooms
// @Produce json
// @Security BearerAuth
// @Param date query string false "Day (YYYY-MM-DD)"
// @Param classroom query string false "Classroom ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=[]models.UsageReport}
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Router /classrooms/usage-reports [get]
func (c *ClassroomController) ListUsageReports(ctx *gin.Context) {
	var query dto.UsageReportQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	reports, err := c.classroomService.ListUsageReports(ctx.Request.Context(), query)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(reports, ""))
}

// GetStats builds the classroom overview
// @Summary Classroom statistics
// @Tags classrooms
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ClassroomStats}
// @Router /classrooms/stats/overview [get]
func (c *ClassroomController) GetStats(ctx *gin.Context) {
	stats, err := c.classroomService.GetStats(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(stats, ""))
}
