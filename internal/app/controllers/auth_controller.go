package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models/dto"
	"github.com/EvilEvan/PvtClass-tracker/internal/middleware"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService AuthService
	limiter     *middleware.LoginLimiter
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController. A nil limiter disables throttling.
func NewAuthController(authService AuthService, limiter *middleware.LoginLimiter, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		limiter:     limiter,
		logger:      logger,
	}
}

// Login handles user login
// @Summary User login
// @Description Authenticates a staff member and returns an access token. The master password signs in as any active user.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse} "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 429 {object} dto.ErrorResponse "Too many login attempts"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid login request payload")
		middleware.HandleBindError(ctx, err)
		return
	}

	if !c.limiter.Allow(ctx, req.Email) {
		c.logger.Warn().Str("email", req.Email).Msg("Login rate limit exceeded")
		middleware.HandleAPIError(ctx, apperrors.ErrTooManyRequests)
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), req)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Str("email", resp.User.Email).Msg("User logged in successfully")
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp, "Login successful"))
}

// GetProfile returns the signed-in user
// @Summary Current user profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /auth/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	user, err := c.authService.GetProfile(ctx.Request.Context(), actor.ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewUserResponse(user), ""))
}

// CheckAdmin reports whether an administrator exists
// @Summary Check for an administrator
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.CheckAdminResponse}
// @Router /auth/check-admin [get]
func (c *AuthController) CheckAdmin(ctx *gin.Context) {
	hasAdmin, err := c.authService.HasAdmin(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.CheckAdminResponse{HasAdmin: hasAdmin}, ""))
}

// SystemStatus reports first-run state
// @Summary System initialization status
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.SystemStatusResponse}
// @Router /auth/system-status [get]
func (c *AuthController) SystemStatus(ctx *gin.Context) {
	status, err := c.authService.SystemStatus(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(status, ""))
}

// InitializeSystem performs first-run setup
// @Summary Initialize the system
// @Description Stores the master password and creates the first administrator. Only allowed once.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.InitializeSystemRequest true "Setup data"
// @Success 201 {object} dto.APIResponse{data=dto.UserResponse} "System initialized"
// @Failure 400 {object} dto.ErrorResponse "Missing fields or weak password"
// @Failure 401 {object} dto.ErrorResponse "Master password does not match the configured one"
// @Failure 409 {object} dto.ErrorResponse "Already initialized"
// @Failure 429 {object} dto.ErrorResponse "Too many attempts"
// @Router /auth/initialize-system [post]
func (c *AuthController) InitializeSystem(ctx *gin.Context) {
	var req dto.InitializeSystemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}
	if !c.allowMasterAttempt(ctx) {
		return
	}

	admin, err := c.authService.InitializeSystem(ctx.Request.Context(), req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("System initialization failed")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(dto.NewUserResponse(admin), "System initialized"))
}

// MasterUnlock checks a master password
// @Summary Validate the master password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.MasterUnlockRequest true "Password"
// @Success 200 {object} dto.APIResponse{data=dto.MasterUnlockResponse}
// @Failure 400 {object} dto.ErrorResponse "Password missing"
// @Failure 429 {object} dto.ErrorResponse "Too many attempts"
// @Router /auth/master-unlock [post]
func (c *AuthController) MasterUnlock(ctx *gin.Context) {
	var req dto.MasterUnlockRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}
	if !c.allowMasterAttempt(ctx) {
		return
	}

	valid, err := c.authService.ValidateMasterPassword(ctx.Request.Context(), req.Password)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.MasterUnlockResponse{Valid: valid}, ""))
}

// allowMasterAttempt throttles public endpoints that check the master password. It writes
// the 429 response when the client is over the limit.
func (c *AuthController) allowMasterAttempt(ctx *gin.Context) bool {
	if c.limiter.AllowClient(ctx, "master") {
		return true
	}
	c.logger.Warn().Str("ip", ctx.ClientIP()).Str("path", ctx.FullPath()).Msg("Master password rate limit exceeded")
	middleware.HandleAPIError(ctx, apperrors.ErrTooManyRequests)
	return false
}

// CreateUser lets an administrator create an account with a chosen password
// @Summary Create a staff account
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserRequest true "Account"
// @Success 201 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 403 {object} dto.ErrorResponse "Administrators only"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Router /auth/create-user [post]
func (c *AuthController) CreateUser(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	user, err := c.authService.CreateUser(ctx.Request.Context(), actor, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(dto.NewUserResponse(user), "User created"))
}

// CreateUserByRole creates an account with a temporary password
// @Summary Create an account below the caller's role
// @Description Administrators create ADMIN, MODERATOR or TEACHER accounts; moderators create TEACHER accounts. The caller re-enters their password (or the master password).
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserByRoleRequest true "Account"
// @Success 201 {object} dto.APIResponse{data=dto.CreateUserByRoleResponse}
// @Failure 401 {object} dto.ErrorResponse "Requestor password incorrect"
// @Failure 403 {object} dto.ErrorResponse "Role not allowed"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Router /auth/create-user-by-role [post]
func (c *AuthController) CreateUserByRole(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var req dto.CreateUserByRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	resp, err := c.authService.CreateUserByRole(ctx.Request.Context(), actor, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(resp, "User created with a temporary password"))
}

// RequestPasswordCreation files a public account request
// @Summary Request a staff account
// @Tags password-requests
// @Accept json
// @Produce json
// @Param request body dto.PasswordCreationRequest true "Request"
// @Success 201 {object} dto.APIResponse{data=models.PasswordRequest}
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 409 {object} dto.ErrorResponse "Account or pending request already exists"
// @Router /auth/request-password-creation [post]
func (c *AuthController) RequestPasswordCreation(ctx *gin.Context) {
	var req dto.PasswordCreationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	pr, err := c.authService.RequestPasswordCreation(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(pr, "Request submitted for review"))
}

// PendingPasswordRequests lists requests awaiting review
// @Summary Pending account requests
// @Tags password-requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.PasswordRequest}
// @Router /auth/pending-password-requests [get]
func (c *AuthController) PendingPasswordRequests(ctx *gin.Context) {
	requests, err := c.authService.PendingPasswordRequests(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(requests, ""))
}

// ApprovePasswordRequest approves a request and creates the account
// @Summary Approve an account request
// @Tags password-requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID" Format(uuid)
// @Param request body dto.ApprovePasswordRequestRequest true "Password and master password"
// @Success 200 {object} dto.APIResponse{data=dto.ApprovePasswordRequestResponse}
// @Failure 401 {object} dto.ErrorResponse "Invalid master password"
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Failure 409 {object} dto.ErrorResponse "Already reviewed"
// @Router /auth/approve-password-request/{id} [post]
func (c *AuthController) ApprovePasswordRequest(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.ApprovePasswordRequestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	resp, err := c.authService.ApprovePasswordRequest(ctx.Request.Context(), actor, id, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp, "Request approved"))
}

// RejectPasswordRequest rejects a pending request
// @Summary Reject an account request
// @Tags password-requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=models.PasswordRequest}
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Failure 409 {object} dto.ErrorResponse "Already reviewed"
// @Router /auth/reject-password-request/{id} [post]
func (c *AuthController) RejectPasswordRequest(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	pr, err := c.authService.RejectPasswordRequest(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(pr, "Request rejected"))
}

// SaveNotificationSetting registers a notification recipient
// @Summary Add a notification recipient
// @Tags password-requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.NotificationSettingRequest true "Recipient"
// @Success 200 {object} dto.APIResponse{data=models.NotificationSetting}
// @Router /auth/notification-settings [post]
func (c *AuthController) SaveNotificationSetting(ctx *gin.Context) {
	var req dto.NotificationSettingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	setting, err := c.authService.SaveNotificationSetting(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(setting, "Notification setting saved"))
}

// NotificationSettings lists notification recipients
// @Summary List notification recipients
// @Tags password-requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.NotificationSetting}
// @Router /auth/notification-settings [get]
func (c *AuthController) NotificationSettings(ctx *gin.Context) {
	settings, err := c.authService.NotificationSettings(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(settings, ""))
}
