package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appauth "github.com/EvilEvan/PvtClass-tracker/internal/app/auth"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models/dto"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/auth"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/email"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/websocket"
)

// AuthOptions tunes account creation
type AuthOptions struct {
	TempPasswordLength int
}

// AuthService handles sign-in, first-run setup and account creation
type AuthService struct {
	userRepo         UserRepository
	systemRepo       SystemConfigRepository
	requestRepo      PasswordRequestRepository
	notificationRepo NotificationSettingRepository
	jwtService       *auth.JWTService
	hasher           *auth.PasswordHasher
	master           *MasterPassword
	emailService     email.EmailService
	events           EventPublisher
	options          AuthOptions
	logger           zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo UserRepository,
	systemRepo SystemConfigRepository,
	requestRepo PasswordRequestRepository,
	notificationRepo NotificationSettingRepository,
	jwtService *auth.JWTService,
	hasher *auth.PasswordHasher,
	master *MasterPassword,
	emailService email.EmailService,
	events EventPublisher,
	options AuthOptions,
	logger zerolog.Logger,
) *AuthService {
	if events == nil {
		events = NopPublisher{}
	}
	return &AuthService{
		userRepo:         userRepo,
		systemRepo:       systemRepo,
		requestRepo:      requestRepo,
		notificationRepo: notificationRepo,
		jwtService:       jwtService,
		hasher:           hasher,
		master:           master,
		emailService:     emailService,
		events:           events,
		options:          options,
		logger:           logger,
	}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Login verifies credentials and issues an access token. The master password signs in as
// any active user.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !s.hasher.Compare(user.Password, req.Password) {
		ok, err := s.master.Validate(ctx, req.Password)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.ErrInvalidCredentials
		}
		s.logger.Warn().Str("email", user.Email).Str("role", string(user.Role)).Msg("Master password used to sign in")
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Error().Err(err).Str("userID", user.ID.String()).Msg("Failed to record last login")
	}

	token, expiresIn, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}

	s.logger.Info().Str("userID", user.ID.String()).Str("role", string(user.Role)).Msg("User logged in")

	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		User:        dto.NewUserResponse(user),
	}, nil
}

// ValidateMasterPassword reports whether password is the master password
func (s *AuthService) ValidateMasterPassword(ctx context.Context, password string) (bool, error) {
	ok, err := s.master.Validate(ctx, password)
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.Warn().Msg("Master password unlock succeeded")
	}
	return ok, nil
}

// GetProfile returns the signed-in user
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// HasAdmin reports whether at least one administrator exists
func (s *AuthService) HasAdmin(ctx context.Context) (bool, error) {
	role := models.RoleAdmin
	n, err := s.userRepo.Count(ctx, &role)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SystemStatus describes whether first-run setup has happened
func (s *AuthService) SystemStatus(ctx context.Context) (*dto.SystemStatusResponse, error) {
	cfg, err := s.systemRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading system config: %w", err)
	}
	hasAdmin, err := s.HasAdmin(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.userRepo.Count(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &dto.SystemStatusResponse{Initialized: cfg != nil, HasAdmin: hasAdmin, UserCount: total}, nil
}

// InitializeSystem stores the master password and creates the first administrator
func (s *AuthService) InitializeSystem(ctx context.Context, req dto.InitializeSystemRequest) (*models.User, error) {
	cfg, err := s.systemRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading system config: %w", err)
	}
	if cfg != nil {
		return nil, apperrors.ErrSystemAlreadyInitialized
	}

	if s.master.Configured() && !s.master.MatchesConfigured(req.MasterPassword) {
		s.logger.Warn().Str("email", req.AdminEmail).Msg("System initialization with wrong master password")
		return nil, apperrors.ErrInvalidMasterPassword
	}
	if err := auth.ValidatePasswordPolicy(req.AdminPassword); err != nil {
		return nil, err
	}
	if len(req.MasterPassword) > auth.MaxPasswordLength {
		return nil, fmt.Errorf("%w: master password must be at most %d bytes", apperrors.ErrInvalidPassword, auth.MaxPasswordLength)
	}

	exists, err := s.userRepo.EmailExists(ctx, req.AdminEmail)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	masterHash, err := s.hasher.Hash(req.MasterPassword)
	if err != nil {
		return nil, err
	}
	admin, err := s.newUser(req.AdminEmail, req.AdminFirstName, req.AdminLastName, models.RoleAdmin, req.AdminPassword, true)
	if err != nil {
		return nil, err
	}
	// config row and administrator share one transaction
	if err := s.systemRepo.InitializeWithAdmin(ctx, masterHash, admin); err != nil {
		return nil, err
	}

	s.logger.Info().Str("email", admin.Email).Msg("System initialized")
	return admin, nil
}

func (s *AuthService) newUser(email, firstName, lastName string, role models.RoleType, password string, changed bool) (*models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	return &models.User{
		Email:           normalizeEmail(email),
		Password:        hash,
		FirstName:       strings.TrimSpace(firstName),
		LastName:        strings.TrimSpace(lastName),
		Role:            role,
		IsActive:        true,
		PasswordChanged: changed,
	}, nil
}

// CreateUser lets an administrator create an account with a chosen password
func (s *AuthService) CreateUser(ctx context.Context, actor appauth.Actor, req dto.CreateUserRequest) (*models.User, error) {
	if err := appauth.ValidateCreateRole(actor.Role, req.Role); err != nil {
		return nil, err
	}
	if err := auth.ValidatePasswordPolicy(req.Password); err != nil {
		return nil, err
	}

	user, err := s.newUser(req.Email, req.FirstName, req.LastName, req.Role, req.Password, false)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if user.Role == models.RoleAdmin {
		s.ensureSystemConfig(ctx)
	}

	s.logger.Info().
		Str("createdBy", actor.ID.String()).
		Str("email", user.Email).
		Str("role", string(user.Role)).
		Msg("User created")
	return user, nil
}

// ensureSystemConfig persists the configured master password when the system has no
// config row yet
func (s *AuthService) ensureSystemConfig(ctx context.Context) {
	if !s.master.Configured() {
		return
	}
	cfg, err := s.systemRepo.Get(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load system config")
		return
	}
	if cfg != nil {
		return
	}
	hash, err := s.hasher.Hash(s.master.configured)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash configured master password")
		return
	}
	if err := s.systemRepo.Initialize(ctx, hash); err != nil && !errors.Is(err, apperrors.ErrSystemAlreadyInitialized) {
		s.logger.Error().Err(err).Msg("Failed to initialize system config")
	}
}

// verifyRequestor checks password against the caller's own password or the master password
func (s *AuthService) verifyRequestor(ctx context.Context, requestor *models.User, password string) error {
	if s.hasher.Compare(requestor.Password, password) {
		return nil
	}
	ok, err := s.master.Validate(ctx, password)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrInvalidCredentials
	}
	s.logger.Warn().Str("email", requestor.Email).Msg("Master password used to authorize user creation")
	return nil
}

// CreateUserByRole creates an account with a generated temporary password. Admins may create
// admins, moderators and teachers; moderators may create teachers.
func (s *AuthService) CreateUserByRole(ctx context.Context, actor appauth.Actor, req dto.CreateUserByRoleRequest) (*dto.CreateUserByRoleResponse, error) {
	requestor, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.verifyRequestor(ctx, requestor, req.RequestorPassword); err != nil {
		return nil, err
	}
	if err := appauth.ValidateCreateRole(requestor.Role, req.Role); err != nil {
		return nil, err
	}

	temp, err := auth.GenerateTemporaryPassword(s.options.TempPasswordLength)
	if err != nil {
		return nil, err
	}

	user, err := s.newUser(req.Email, req.FirstName, req.LastName, req.Role, temp, false)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("createdBy", requestor.ID.String()).
		Str("email", user.Email).
		Str("role", string(user.Role)).
		Msg("User created with temporary password")

	return &dto.CreateUserByRoleResponse{User: dto.NewUserResponse(user), TemporaryPassword: temp}, nil
}

// RequestPasswordCreation records a self-service account request and notifies reviewers
func (s *AuthService) RequestPasswordCreation(ctx context.Context, req dto.PasswordCreationRequest) (*models.PasswordRequest, error) {
	if req.Role != models.RoleTeacher && req.Role != models.RoleModerator {
		return nil, apperrors.ErrInvalidRole
	}

	addr := normalizeEmail(req.Email)
	exists, err := s.userRepo.EmailExists(ctx, addr)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	pending, err := s.requestRepo.HasPending(ctx, addr)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperrors.ErrPasswordRequestExists
	}

	pr := &models.PasswordRequest{
		Email:     addr,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      req.Role,
		Reason:    strings.TrimSpace(req.Reason),
	}
	if err := s.requestRepo.Create(ctx, pr); err != nil {
		return nil, err
	}

	s.notifyReviewers(ctx, pr)
	s.events.Publish(websocket.Event{Type: websocket.EventPasswordRequestCreated, Data: pr})

	s.logger.Info().Str("email", pr.Email).Str("role", string(pr.Role)).Msg("Password creation requested")
	return pr, nil
}

// notificationRecipients returns enabled notification emails plus every administrator
func (s *AuthService) notificationRecipients(ctx context.Context) []string {
	var recipients []string

	settings, err := s.notificationRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load notification settings")
	}
	for _, setting := range settings {
		if setting.EnableEmailNotifications {
			recipients = append(recipients, setting.ModeratorEmail)
		}
	}

	role := models.RoleAdmin
	admins, err := s.userRepo.List(ctx, models.UserFilter{Role: &role})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load administrators for notification")
	}
	for _, admin := range admins {
		recipients = append(recipients, admin.Email)
	}
	return recipients
}

func (s *AuthService) notifyReviewers(ctx context.Context, pr *models.PasswordRequest) {
	if s.emailService == nil {
		return
	}
	recipients := s.notificationRecipients(ctx)
	if len(recipients) == 0 {
		s.logger.Warn().Str("email", pr.Email).Msg("No recipients for password request notification")
		return
	}

	notice := email.PasswordRequestNotice{
		RequestID: pr.ID.String(),
		Email:     pr.Email,
		FullName:  strings.TrimSpace(pr.FirstName + " " + pr.LastName),
		Role:      string(pr.Role),
		Reason:    pr.Reason,
	}
	if err := s.emailService.SendPasswordRequestNotification(recipients, notice); err != nil {
		s.logger.Error().Err(err).Str("email", pr.Email).Msg("Failed to send password request notification")
	}
}

// PendingPasswordRequests lists requests awaiting review
func (s *AuthService) PendingPasswordRequests(ctx context.Context) ([]*models.PasswordRequest, error) {
	return s.requestRepo.ListByStatus(ctx, models.PasswordRequestPending)
}

// ApprovePasswordRequest creates the requested account after the master password is confirmed
func (s *AuthService) ApprovePasswordRequest(ctx context.Context, actor appauth.Actor, id uuid.UUID, req dto.ApprovePasswordRequestRequest) (*dto.ApprovePasswordRequestResponse, error) {
	ok, err := s.master.Validate(ctx, req.MasterPassword)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn().Str("reviewer", actor.ID.String()).Msg("Password request approval with wrong master password")
		return nil, apperrors.ErrInvalidMasterPassword
	}
	if err := auth.ValidatePasswordPolicy(req.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Password: hash, IsActive: true}

	approved, err := s.requestRepo.Approve(ctx, id, actor.ID, user)
	if err != nil {
		return nil, err
	}

	if s.emailService != nil {
		if err := s.emailService.SendAccountApproved(user.Email, user.FullName(), string(user.Role)); err != nil {
			s.logger.Error().Err(err).Str("email", user.Email).Msg("Failed to send account approval email")
		}
	}

	s.logger.Info().
		Str("requestID", id.String()).
		Str("reviewer", actor.ID.String()).
		Str("email", user.Email).
		Msg("Password request approved")

	return &dto.ApprovePasswordRequestResponse{Request: approved, User: dto.NewUserResponse(user)}, nil
}

// RejectPasswordRequest closes a pending request without creating an account
func (s *AuthService) RejectPasswordRequest(ctx context.Context, actor appauth.Actor, id uuid.UUID) (*models.PasswordRequest, error) {
	rejected, err := s.requestRepo.Reject(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("requestID", id.String()).Str("reviewer", actor.ID.String()).Msg("Password request rejected")
	return rejected, nil
}

// SaveNotificationSetting registers or updates an extra notification recipient
func (s *AuthService) SaveNotificationSetting(ctx context.Context, req dto.NotificationSettingRequest) (*models.NotificationSetting, error) {
	enabled := true
	if req.EnableEmailNotifications != nil {
		enabled = *req.EnableEmailNotifications
	}
	return s.notificationRepo.Upsert(ctx, normalizeEmail(req.ModeratorEmail), enabled)
}

// NotificationSettings lists extra notification recipients
func (s *AuthService) NotificationSettings(ctx context.Context) ([]*models.NotificationSetting, error) {
	return s.notificationRepo.List(ctx)
}
