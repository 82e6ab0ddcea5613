package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appControllers "github.com/studentdesk/student-api/internal/app/controllers"
	appMigrations "github.com/studentdesk/student-api/internal/app/migrations"
	"github.com/studentdesk/student-api/internal/app/presence"
	appRepos "github.com/studentdesk/student-api/internal/app/repositories"
	appRoutes "github.com/studentdesk/student-api/internal/app/routes"
	appServices "github.com/studentdesk/student-api/internal/app/services"
	"github.com/studentdesk/student-api/internal/config"
	"github.com/studentdesk/student-api/internal/db"
	appMiddleware "github.com/studentdesk/student-api/internal/middleware"
	pkgAuth "github.com/studentdesk/student-api/internal/pkg/auth"
	"github.com/studentdesk/student-api/internal/pkg/filestorage"
	"github.com/studentdesk/student-api/internal/pkg/helpers"
	"github.com/studentdesk/student-api/internal/pkg/logger"
	"github.com/studentdesk/student-api/internal/pkg/validation"
	"github.com/studentdesk/student-api/internal/pkg/websocket"
	"github.com/studentdesk/student-api/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos      *appRepos.Repositories
	JWTService *pkgAuth.JWTService
	Presence   *presence.Tracker
	Storage    *filestorage.LocalStorage

	AuditService   appServices.AuditService
	StudentService appServices.StudentService
	UserService    appServices.UserService
	MessageService appServices.MessageService

	Hub         *websocket.Hub
	AuthLimiter *appMiddleware.LimiterStore
	Handlers    appRoutes.Handlers

	Logger zerolog.Logger
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

// SetupDatabase establishes the database connection, applies migrations and
// seeds the default admin.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool
	lgr.Info().Msg("Database connection successfully established.")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool, appMigrations.Files(), lgr)
	if err := migrator.Up(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		dbPool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	admin := seed.Admin{
		Username: cfg.Admin.Username,
		Password: cfg.Admin.Password,
		FullName: cfg.Admin.FullName,
	}
	if err := seed.CreateDefaultData(ctx, appRepos.NewUserRepository(dbPool), admin, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)
	tx := db.NewTransactor(dbPool, lgr)
	validator := validation.New()

	var err error
	deps.Storage, err = filestorage.NewLocalStorage(cfg.Storage.Location, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.JWT.Secret,
		Expiration:  helpers.ParseDuration(cfg.JWT.Expiration, 10*time.Hour),
		TokenIssuer: cfg.JWT.Issuer,
	})
	deps.Presence = presence.NewTracker()

	deps.AuditService = appServices.NewAuditService(deps.Repos.AuditLogRepository, logger.Component("audit"))
	deps.StudentService = appServices.NewStudentService(
		deps.Repos.StudentRepository,
		deps.Repos.CourseRepository,
		deps.AuditService,
		tx,
		validator,
		logger.Component("students"),
	)
	deps.UserService = appServices.NewUserService(
		deps.Repos.UserRepository,
		deps.AuditService,
		deps.Presence,
		deps.JWTService,
		validator,
		logger.Component("users"),
	)
	deps.MessageService = appServices.NewMessageService(
		deps.Repos.MessageRepository,
		deps.Repos.UserRepository,
		tx,
		validator,
		logger.Component("chat"),
	)

	wsLogger := logger.Component("websocket")
	deps.Hub = websocket.NewHub(deps.Presence, wsLogger)
	wsHandler := websocket.NewHandler(
		deps.Hub,
		websocket.NewAuthenticator(deps.JWTService, deps.Repos.UserRepository),
		websocket.NewMessageHandler(deps.MessageService, deps.Hub, wsLogger),
		websocket.HandlerConfig{
			AllowedOrigins:   cfg.WebSocket.AllowedOrigins,
			SendBuffer:       cfg.WebSocket.SendBuffer,
			HandshakeTimeout: helpers.ParseDuration(cfg.WebSocket.HandshakeTimeout, 10*time.Second),
		},
		wsLogger,
	)

	deps.AuthLimiter = appMiddleware.NewLimiterStore(cfg.RateLimit.AuthPerMinute, cfg.RateLimit.AuthBurst, time.Minute)

	deps.Handlers = appRoutes.Handlers{
		Auth:           appControllers.NewAuthController(deps.UserService, lgr),
		Users:          appControllers.NewUserController(deps.UserService),
		Students:       appControllers.NewStudentController(deps.StudentService, lgr),
		Chat:           appControllers.NewChatController(deps.MessageService, lgr),
		Files:          appControllers.NewFileController(deps.Storage, cfg.Storage.MaxUploadSize, lgr),
		Audit:          appControllers.NewAuditController(deps.AuditService),
		WebSocket:      wsHandler,
		AuthMiddleware: appMiddleware.NewAuthMiddleware(deps.JWTService),
		AuthLimiter:    deps.AuthLimiter,
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		appMiddleware.Recovery(),
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(lgr),
		appMiddleware.CORS(cfg.CORS.AllowedOrigins),
		appMiddleware.AuditContext(),
	)

	appRoutes.SetupRouter(router, cfg.WebSocket.Path, deps.Handlers)
	return router
}
