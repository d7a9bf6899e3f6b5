package main

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/EvilEvan/PvtClass-tracker/internal/admin"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/migrations"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/repositories"
	"github.com/EvilEvan/PvtClass-tracker/internal/config"
	"github.com/EvilEvan/PvtClass-tracker/internal/db"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/auth"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/logger"
	"github.com/EvilEvan/PvtClass-tracker/internal/seed"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "admin",
		Usage: "operator tasks for the tutoring center",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to the YAML configuration",
				Value: filepath.Join("configs", "config.yaml"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations",
				Action: migrateAction,
			},
			{
				Name:  "seed",
				Usage: "create default classrooms and students",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "demo", Usage: "also create a demo teacher with sample sessions"},
				},
				Action: seedAction,
			},
			{
				Name:  "create-admin",
				Usage: "create an administrator account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "first-name", Required: true},
					&cli.StringFlag{Name: "last-name"},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
				},
				Action: createAdminAction,
			},
			{
				Name:  "reset-password",
				Usage: "replace the password of an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
				},
				Action: resetPasswordAction,
			},
			{
				Name:  "hash-password",
				Usage: "print the bcrypt hash of a password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "password", Required: true},
					&cli.IntFlag{Name: "cost", Value: 12},
				},
				Action: hashPasswordAction,
			},
		},
	}
}

// environment is what the database commands share
type environment struct {
	cfg      *config.Config
	database *db.PostgresDB
	repos    *repositories.Repositories
}

func openEnvironment(c *cli.Context) (*environment, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	logger.Configure(logger.Config{Level: cfg.Logging.Level, Format: logger.FormatText})

	database, err := db.NewPostgresDB(c.Context, cfg)
	if err != nil {
		return nil, err
	}
	return &environment{
		cfg:      cfg,
		database: database,
		repos:    repositories.NewRepositories(database),
	}, nil
}

func migrateAction(c *cli.Context) error {
	env, err := openEnvironment(c)
	if err != nil {
		return err
	}
	defer env.database.Close()

	applied, err := migrations.NewMigrator(env.database.Pool, logger.Get()).Migrate(c.Context, migrations.Files())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "applied %d migration(s)\n", applied)
	return nil
}

func seedAction(c *cli.Context) error {
	env, err := openEnvironment(c)
	if err != nil {
		return err
	}
	defer env.database.Close()

	seeder := seed.NewSeeder(
		env.repos.UserRepository,
		env.repos.StudentRepository,
		env.repos.ClassroomRepository,
		env.repos.SessionRepository,
		auth.NewPasswordHasher(env.cfg.Auth.BcryptCost),
		logger.Get(),
	)
	return seeder.Run(c.Context, c.Bool("demo"))
}

func accounts(env *environment) *admin.Accounts {
	return admin.NewAccounts(
		env.repos.UserRepository,
		env.repos.SystemConfigRepository,
		auth.NewPasswordHasher(env.cfg.Auth.BcryptCost),
		env.cfg.Auth.MasterPassword,
		logger.Get(),
	)
}

func createAdminAction(c *cli.Context) error {
	env, err := openEnvironment(c)
	if err != nil {
		return err
	}
	defer env.database.Close()

	user, err := accounts(env).CreateAdmin(c.Context, admin.CreateAdminInput{
		Email:     c.String("email"),
		FirstName: c.String("first-name"),
		LastName:  c.String("last-name"),
		Password:  c.String("password"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "created administrator %s (%s)\n", user.Email, user.ID)
	return nil
}

func resetPasswordAction(c *cli.Context) error {
	env, err := openEnvironment(c)
	if err != nil {
		return err
	}
	defer env.database.Close()

	if err := accounts(env).ResetPassword(c.Context, c.String("email"), c.String("password")); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "password updated")
	return nil
}

func hashPasswordAction(c *cli.Context) error {
	cost := c.Int("cost")
	if cost < 4 || cost > 31 {
		return fmt.Errorf("bcrypt cost must be between 4 and 31, got %d", cost)
	}
	hash, err := auth.NewPasswordHasher(cost).Hash(c.String("password"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, hash)
	return nil
}
