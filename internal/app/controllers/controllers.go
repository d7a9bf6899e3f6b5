// Package controllers handles HTTP request handling
package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appauth "github.com/EvilEvan/PvtClass-tracker/internal/app/auth"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models/dto"
	"github.com/EvilEvan/PvtClass-tracker/internal/middleware"
)

// AuthService is the part of services.AuthService the controllers call
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	ValidateMasterPassword(ctx context.Context, password string) (bool, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	HasAdmin(ctx context.Context) (bool, error)
	SystemStatus(ctx context.Context) (*dto.SystemStatusResponse, error)
	InitializeSystem(ctx context.Context, req dto.InitializeSystemRequest) (*models.User, error)
	CreateUser(ctx context.Context, actor appauth.Actor, req dto.CreateUserRequest) (*models.User, error)
	CreateUserByRole(ctx context.Context, actor appauth.Actor, req dto.CreateUserByRoleRequest) (*dto.CreateUserByRoleResponse, error)
	RequestPasswordCreation(ctx context.Context, req dto.PasswordCreationRequest) (*models.PasswordRequest, error)
	PendingPasswordRequests(ctx context.Context) ([]*models.PasswordRequest, error)
	ApprovePasswordRequest(ctx context.Context, actor appauth.Actor, id uuid.UUID, req dto.ApprovePasswordRequestRequest) (*dto.ApprovePasswordRequestResponse, error)
	RejectPasswordRequest(ctx context.Context, actor appauth.Actor, id uuid.UUID) (*models.PasswordRequest, error)
	SaveNotificationSetting(ctx context.Context, req dto.NotificationSettingRequest) (*models.NotificationSetting, error)
	NotificationSettings(ctx context.Context) ([]*models.NotificationSetting, error)
}

// parseUUIDParam reads a path parameter as a UUID, writing a 400 when it is malformed
func parseUUIDParam(ctx *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+name).
			WithField(name).
			WithDetails(name + " must be a valid UUID")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return uuid.Nil, false
	}
	return id, true
}

// currentActor returns the authenticated caller, writing a 401 when the context has none
func currentActor(ctx *gin.Context) (appauth.Actor, bool) {
	actor, err := middleware.ActorFromContext(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return appauth.Actor{}, false
	}
	return actor, true
}
