package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appauth "github.com/EvilEvan/PvtClass-tracker/internal/app/auth"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models/dto"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/auth"
)

// UserService defines the interface for staff account management
type UserService interface {
	ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	ListByRole(ctx context.Context, role models.RoleType) ([]*models.User, error)
	UpdateRole(ctx context.Context, actor appauth.Actor, id uuid.UUID, role models.RoleType) (*models.User, error)
	DeleteUser(ctx context.Context, actor appauth.Actor, id uuid.UUID) error
	ChangePassword(ctx context.Context, actor appauth.Actor, id uuid.UUID, req dto.ChangePasswordRequest) error
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	userRepo UserRepository
	hasher   *auth.PasswordHasher
	master   *MasterPassword
	logger   zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo UserRepository, hasher *auth.PasswordHasher, master *MasterPassword, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		userRepo: userRepo,
		hasher:   hasher,
		master:   master,
		logger:   logger,
	}
}

// ListUsers returns users matching filter
func (s *userServiceImpl) ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return users, nil
}

// ListByRole returns every user with role
func (s *userServiceImpl) ListByRole(ctx context.Context, role models.RoleType) ([]*models.User, error) {
	return s.ListUsers(ctx, models.UserFilter{Role: &role})
}

// UpdateRole changes a user's role. The last administrator cannot be demoted.
func (s *userServiceImpl) UpdateRole(ctx context.Context, actor appauth.Actor, id uuid.UUID, role models.RoleType) (*models.User, error) {
	if !role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}

	// the repository refuses to demote the last administrator
	if err := s.userRepo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("actor", actor.ID.String()).
		Str("userID", id.String()).
		Str("from", string(user.Role)).
		Str("to", string(role)).
		Msg("User role changed")

	user.Role = role
	return user, nil
}

// DeleteUser removes an account. Callers cannot delete themselves or the last administrator.
func (s *userServiceImpl) DeleteUser(ctx context.Context, actor appauth.Actor, id uuid.UUID) error {
	if actor.ID == id {
		return apperrors.NewConflictError("you cannot delete your own account")
	}

	// the repository refuses to remove the last administrator
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("actor", actor.ID.String()).Str("userID", id.String()).Msg("User deleted")
	return nil
}

// ChangePassword sets a new password for user id. The caller must be that user or an
// administrator, and must supply the current password or the master password.
func (s *userServiceImpl) ChangePassword(ctx context.Context, actor appauth.Actor, id uuid.UUID, req dto.ChangePasswordRequest) error {
	if !appauth.CanChangePassword(actor, id) {
		return apperrors.NewForbiddenError("you can only change your own password")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !s.hasher.Compare(user.Password, req.CurrentPassword) {
		ok, err := s.master.Validate(ctx, req.CurrentPassword)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrInvalidCredentials
		}
		s.logger.Warn().Str("email", user.Email).Msg("Master password used to change password")
	}

	if err := auth.ValidatePasswordPolicy(req.NewPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, id, hash, true); err != nil {
		return err
	}

	s.logger.Info().Str("actor", actor.ID.String()).Str("userID", id.String()).Msg("Password changed")
	return nil
}
