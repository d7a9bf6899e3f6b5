package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/EvilEvan/PvtClass-tracker/internal/app/controllers"
	appMigrations "github.com/EvilEvan/PvtClass-tracker/internal/app/migrations"
	appModels "github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	appRepos "github.com/EvilEvan/PvtClass-tracker/internal/app/repositories"
	appRoutes "github.com/EvilEvan/PvtClass-tracker/internal/app/routes"
	appServices "github.com/EvilEvan/PvtClass-tracker/internal/app/services"
	"github.com/EvilEvan/PvtClass-tracker/internal/config"
	"github.com/EvilEvan/PvtClass-tracker/internal/db"
	appMiddleware "github.com/EvilEvan/PvtClass-tracker/internal/middleware"
	pkgAuth "github.com/EvilEvan/PvtClass-tracker/internal/pkg/auth"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/email"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/helpers"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/logger"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/websocket"
	"github.com/EvilEvan/PvtClass-tracker/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService      *appServices.AuthService
	UserService      appServices.UserService
	StudentService   appServices.StudentService
	ClassroomService appServices.ClassroomService
	SessionService   appServices.SessionService

	AuthController      *appControllers.AuthController
	UserController      *appControllers.UserController
	StudentController   *appControllers.StudentController
	ClassroomController *appControllers.ClassroomController
	SessionController   *appControllers.SessionController
	HealthController    *appControllers.HealthController
	EventsHandler       *websocket.Handler

	AuthMiddleware *appMiddleware.AuthMiddleware
	Repos          *appRepos.Repositories
	JWTService     *pkgAuth.JWTService
	Hub            *websocket.Hub
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and seeds default data.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	lgr.Info().Msg("Running database migrations...")
	applied, err := appMigrations.NewMigrator(database.Pool, lgr).Migrate(ctx, appMigrations.Files())
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations successfully applied.")

	repos := appRepos.NewRepositories(database)
	seeder := seed.NewSeeder(
		repos.UserRepository,
		repos.StudentRepository,
		repos.ClassroomRepository,
		repos.SessionRepository,
		pkgAuth.NewPasswordHasher(cfg.Auth.BcryptCost),
		lgr,
	)
	if err := seeder.Run(ctx, cfg.Auth.SeedDemoData); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return database, nil
}

// BuildDependencies initializes repositories, services, and controllers. The event hub
// runs until ctx is cancelled.
func BuildDependencies(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(database)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	hasher := pkgAuth.NewPasswordHasher(cfg.Auth.BcryptCost)
	master := appServices.NewMasterPassword(deps.Repos.SystemConfigRepository, hasher, cfg.Auth.MasterPassword)

	emailService := email.NewEmailService(email.SMTPConfig{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		Username:    cfg.SMTP.Username,
		Password:    cfg.SMTP.Password,
		FromName:    cfg.SMTP.FromName,
		FromEmail:   cfg.SMTP.FromEmail,
		UseTLS:      cfg.SMTP.UseTLS,
		FrontendURL: cfg.Server.FrontendURL,
	}, logger.WithComponent("email"))

	deps.Hub = websocket.NewHub(logger.WithComponent("events"))
	go deps.Hub.Run(ctx)

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.SystemConfigRepository,
		deps.Repos.PasswordRequestRepository,
		deps.Repos.NotificationRepository,
		deps.JWTService,
		hasher,
		master,
		emailService,
		deps.Hub,
		appServices.AuthOptions{TempPasswordLength: cfg.Auth.TempPasswordLength},
		lgr,
	)
	deps.UserService = appServices.NewUserService(deps.Repos.UserRepository, hasher, master, lgr)
	deps.StudentService = appServices.NewStudentService(deps.Repos.StudentRepository, deps.Repos.UserRepository, lgr)
	deps.ClassroomService = appServices.NewClassroomService(deps.Repos.ClassroomRepository, deps.Repos.UsageReportRepository, deps.Hub, lgr)
	deps.SessionService = appServices.NewSessionService(
		deps.Repos.SessionRepository,
		deps.Repos.StudentRepository,
		deps.Repos.UserRepository,
		deps.Repos.ClassroomRepository,
		deps.Hub,
		lgr,
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, lgr)
	limiter := appMiddleware.NewLoginLimiter(
		cfg.Auth.LoginRateLimit,
		helpers.ParseDuration(cfg.Auth.LoginRateWindow, time.Minute),
	)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, limiter, lgr)
	deps.UserController = appControllers.NewUserController(deps.UserService)
	deps.StudentController = appControllers.NewStudentController(deps.StudentService)
	deps.ClassroomController = appControllers.NewClassroomController(deps.ClassroomService)
	deps.SessionController = appControllers.NewSessionController(deps.SessionService)
	deps.HealthController = appControllers.NewHealthController(database, deps.Hub.ClientCount)
	deps.EventsHandler = websocket.NewHandler(
		deps.Hub,
		[]string{cfg.Server.FrontendURL},
		[]string{string(appModels.RoleTeacher)},
		logger.WithComponent("events"),
	)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	router.Use(
		appMiddleware.RequestLogger(lgr),
		appMiddleware.Recovery(lgr),
		appMiddleware.CORS([]string{cfg.Server.FrontendURL}),
	)

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.UserController,
		deps.StudentController,
		deps.ClassroomController,
		deps.SessionController,
		deps.HealthController,
		deps.EventsHandler,
		deps.AuthMiddleware,
	)

	return router, nil
}
