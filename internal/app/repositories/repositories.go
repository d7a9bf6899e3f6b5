// Package repositories persists the tutoring center records in PostgreSQL.
package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EvilEvan/PvtClass-tracker/internal/db"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ querier = (*pgxpool.Pool)(nil)
	_ querier = (pgx.Tx)(nil)
)

// TxRunner runs a function inside a database transaction
type TxRunner func(ctx context.Context, fn db.TransactionFn) error

// psql builds PostgreSQL statements with $n placeholders
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository            *UserRepository
	SystemConfigRepository    *SystemConfigRepository
	NotificationRepository    *NotificationSettingRepository
	PasswordRequestRepository *PasswordRequestRepository
	StudentRepository         *StudentRepository
	ClassroomRepository       *ClassroomRepository
	UsageReportRepository     *UsageReportRepository
	SessionRepository         *SessionRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	pool := database.Pool
	return &Repositories{
		UserRepository:            NewUserRepository(pool, database.WithTransaction),
		SystemConfigRepository:    NewSystemConfigRepository(pool, database.WithTransaction),
		NotificationRepository:    NewNotificationSettingRepository(pool),
		PasswordRequestRepository: NewPasswordRequestRepository(pool, database.WithTransaction),
		StudentRepository:         NewStudentRepository(pool),
		ClassroomRepository:       NewClassroomRepository(pool),
		UsageReportRepository:     NewUsageReportRepository(pool),
		SessionRepository:         NewSessionRepository(pool),
	}
}

// collect scans every row with scan and closes rows
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()

	items := make([]*T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
