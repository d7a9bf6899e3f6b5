package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/dberrors"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/logger"
)

// SystemConfigRepository reads and writes the singleton system_config row
type SystemConfigRepository struct {
	db     *pgxpool.Pool
	withTx TxRunner
}

// NewSystemConfigRepository creates a new SystemConfigRepository
func NewSystemConfigRepository(db *pgxpool.Pool, withTx TxRunner) *SystemConfigRepository {
	return &SystemConfigRepository{db: db, withTx: withTx}
}

// Get returns the system configuration, or nil when the system is not initialized
func (r *SystemConfigRepository) Get(ctx context.Context) (*models.SystemConfig, error) {
	var cfg models.SystemConfig
	err := r.db.QueryRow(ctx,
		`SELECT id, master_password, initialized_at FROM system_config WHERE id = 1`).
		Scan(&cfg.ID, &cfg.MasterPasswordHash, &cfg.InitializedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving system config: %w", err)
	}
	return &cfg, nil
}

// Initialize stores the master password hash. It fails with ErrSystemAlreadyInitialized
// when the row already exists.
func (r *SystemConfigRepository) Initialize(ctx context.Context, masterPasswordHash string) error {
	return insertSystemConfig(ctx, r.db, masterPasswordHash)
}

// InitializeWithAdmin stores the master password hash and creates admin in one transaction.
// Nothing is written when either insert fails.
func (r *SystemConfigRepository) InitializeWithAdmin(ctx context.Context, masterPasswordHash string, admin *models.User) error {
	return r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := insertSystemConfig(ctx, tx, masterPasswordHash); err != nil {
			return err
		}
		return insertUser(ctx, tx, admin)
	})
}

func insertSystemConfig(ctx context.Context, q querier, masterPasswordHash string) error {
	_, err := q.Exec(ctx,
		`INSERT INTO system_config (id, master_password) VALUES (1, $1)`, masterPasswordHash)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "") {
			return apperrors.ErrSystemAlreadyInitialized
		}
		logger.Error().Err(err).Msg("Error initializing system config")
		return fmt.Errorf("error initializing system: %w", err)
	}
	return nil
}

// NotificationSettingRepository manages extra notification recipients
type NotificationSettingRepository struct {
	db *pgxpool.Pool
}

// NewNotificationSettingRepository creates a new NotificationSettingRepository
func NewNotificationSettingRepository(db *pgxpool.Pool) *NotificationSettingRepository {
	return &NotificationSettingRepository{db: db}
}

func scanNotificationSetting(row pgx.Row) (*models.NotificationSetting, error) {
	var s models.NotificationSetting
	if err := row.Scan(&s.ID, &s.ModeratorEmail, &s.EnableEmailNotifications, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert stores the notification flag for email, creating the row when missing
func (r *NotificationSettingRepository) Upsert(ctx context.Context, email string, enabled bool) (*models.NotificationSetting, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO notification_settings (moderator_email, enable_email_notifications)
		VALUES ($1, $2)
		ON CONFLICT (moderator_email) DO UPDATE SET enable_email_notifications = EXCLUDED.enable_email_notifications
		RETURNING id, moderator_email, enable_email_notifications, created_at`,
		strings.ToLower(strings.TrimSpace(email)), enabled)

	setting, err := scanNotificationSetting(row)
	if err != nil {
		logger.Error().Err(err).Str("email", email).Msg("Error saving notification setting")
		return nil, fmt.Errorf("error saving notification setting: %w", err)
	}
	return setting, nil
}

// List returns all notification settings
func (r *NotificationSettingRepository) List(ctx context.Context) ([]*models.NotificationSetting, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, moderator_email, enable_email_notifications, created_at
		FROM notification_settings
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("error listing notification settings: %w", err)
	}
	return collect(rows, scanNotificationSetting)
}
