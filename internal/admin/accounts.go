// Package admin implements the operator commands that manage accounts without going
// through the HTTP API.
package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/services"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/auth"
)

// Accounts creates administrators and resets passwords
type Accounts struct {
	users          services.UserRepository
	system         services.SystemConfigRepository
	hasher         *auth.PasswordHasher
	masterPassword string
	logger         zerolog.Logger
}

// NewAccounts creates an Accounts. masterPassword is the configured master password and
// may be empty.
func NewAccounts(users services.UserRepository, system services.SystemConfigRepository, hasher *auth.PasswordHasher, masterPassword string, logger zerolog.Logger) *Accounts {
	return &Accounts{
		users:          users,
		system:         system,
		hasher:         hasher,
		masterPassword: masterPassword,
		logger:         logger,
	}
}

// CreateAdminInput describes a new administrator
type CreateAdminInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// CreateAdmin adds an active administrator whose password counts as changed. When the
// system has no config row and a master password is configured, the row is created in the
// same transaction.
func (a *Accounts) CreateAdmin(ctx context.Context, in CreateAdminInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || strings.TrimSpace(in.FirstName) == "" {
		return nil, apperrors.NewValidationError("email", "email and first name are required")
	}
	if err := auth.ValidatePasswordPolicy(in.Password); err != nil {
		return nil, err
	}

	exists, err := a.users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:           email,
		Password:        hash,
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		Role:            models.RoleAdmin,
		IsActive:        true,
		PasswordChanged: true,
	}
	masterHash, err := a.pendingMasterHash(ctx)
	if err != nil {
		return nil, err
	}
	if masterHash == "" {
		err = a.users.Create(ctx, user)
	} else {
		err = a.system.InitializeWithAdmin(ctx, masterHash, user)
	}
	if err != nil {
		return nil, err
	}

	a.logger.Info().Str("email", user.Email).Msg("Administrator created")
	if masterHash != "" {
		a.logger.Info().Msg("System config initialized with the configured master password")
	}
	return user, nil
}

// pendingMasterHash hashes the configured master password when the system has no config
// row yet, and returns "" otherwise
func (a *Accounts) pendingMasterHash(ctx context.Context) (string, error) {
	if a.masterPassword == "" {
		return "", nil
	}
	cfg, err := a.system.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("error loading system config: %w", err)
	}
	if cfg != nil {
		return "", nil
	}
	return a.hasher.Hash(a.masterPassword)
}

// ResetPassword replaces the password of the account with email
func (a *Accounts) ResetPassword(ctx context.Context, email, password string) error {
	if err := auth.ValidatePasswordPolicy(password); err != nil {
		return err
	}
	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := a.hasher.Hash(password)
	if err != nil {
		return err
	}
	if err := a.users.UpdatePassword(ctx, user.ID, hash, true); err != nil {
		return err
	}
	a.logger.Info().Str("email", user.Email).Msg("Password reset")
	return nil
}
