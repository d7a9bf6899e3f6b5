package services

import (
	"context"
	"fmt"

	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/auth"
)

// MasterPassword checks the administrative override password. A hash persisted in
// system_config wins over the configured plain value.
type MasterPassword struct {
	systemRepo SystemConfigRepository
	hasher     *auth.PasswordHasher
	configured string
}

// NewMasterPassword creates a MasterPassword checker
func NewMasterPassword(systemRepo SystemConfigRepository, hasher *auth.PasswordHasher, configured string) *MasterPassword {
	return &MasterPassword{systemRepo: systemRepo, hasher: hasher, configured: configured}
}

// Configured reports whether a master password was supplied through configuration
func (m *MasterPassword) Configured() bool {
	return m.configured != ""
}

// MatchesConfigured compares password with the configured value only
func (m *MasterPassword) MatchesConfigured(password string) bool {
	return m.configured != "" && auth.ConstantTimeEqual(m.configured, password)
}

// Validate reports whether password is the master password
func (m *MasterPassword) Validate(ctx context.Context, password string) (bool, error) {
	if password == "" {
		return false, nil
	}

	cfg, err := m.systemRepo.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("error loading system config: %w", err)
	}
	if cfg != nil && cfg.MasterPasswordHash != "" {
		return m.hasher.Compare(cfg.MasterPasswordHash, password), nil
	}

	return m.MatchesConfigured(password), nil
}
