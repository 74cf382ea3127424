package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appAuth "github.com/hubtc/portal/internal/app/auth"
	appControllers "github.com/hubtc/portal/internal/app/controllers"
	appMigrations "github.com/hubtc/portal/internal/app/migrations"
	appRepos "github.com/hubtc/portal/internal/app/repositories"
	appRoutes "github.com/hubtc/portal/internal/app/routes"
	appServices "github.com/hubtc/portal/internal/app/services"
	"github.com/hubtc/portal/internal/config"
	"github.com/hubtc/portal/internal/db"
	appMiddleware "github.com/hubtc/portal/internal/middleware"
	pkgAuth "github.com/hubtc/portal/internal/pkg/auth"
	"github.com/hubtc/portal/internal/pkg/helpers"
	"github.com/hubtc/portal/internal/pkg/logger"
	"github.com/hubtc/portal/internal/pkg/metrics"
	"github.com/hubtc/portal/internal/pkg/typing"
	"github.com/hubtc/portal/internal/pkg/websocket"
	"github.com/hubtc/portal/internal/seed"
)

// DefaultConfigPath is read when HUBTC_CONFIG is not set
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos        *appRepos.Repositories
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService

	ConversationService appServices.ConversationService
	MessageService      appServices.MessageService
	ReactionService     appServices.ReactionService
	TypingService       appServices.TypingService
	NotificationService appServices.NotificationService
	UserService         appServices.UserService

	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware

	Hub         *websocket.Hub
	WSHandler   *websocket.Handler
	Relay       *websocket.RedisRelay // nil without Redis
	Redis       *redis.Client         // nil without Redis
	TypingStore typing.Store
	Logger      zerolog.Logger
}

// ConfigPath resolves the configuration file location
func ConfigPath() string {
	if path := os.Getenv("HUBTC_CONFIG"); path != "" {
		return path
	}
	return DefaultConfigPath
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(ConfigPath())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// optionally seeds development data.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(database.Pool).MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if cfg.Database.Seed {
		if err := seed.CreateDefaultData(ctx, database, lgr); err != nil {
			// seed data is a convenience, startup continues without it
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return database, nil
}

// SetupRedis connects to Redis when it is enabled. A nil client means in-memory typing state and a local-only hub.
func SetupRedis(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		lgr.Info().Msg("Redis disabled, using in-memory typing state")
		return nil, nil
	}

	cli := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cli.Ping(pingCtx).Err(); err != nil {
		_ = cli.Close()
		lgr.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established.")
	return cli, nil
}

// BuildDependencies initializes repositories, services, controllers and the change stream.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, redisClient *redis.Client, lgr zerolog.Logger) (*Dependencies, error) {
	timings := cfg.Timings()
	deps := &Dependencies{Logger: lgr, Redis: redisClient}

	deps.Repos = appRepos.NewRepositories(database.Pool)
	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.ConversationRepository)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 12*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.Hub = websocket.NewHub(logger.Component("ws-hub"))
	var publisher websocket.Publisher = deps.Hub
	if redisClient != nil {
		deps.Relay = websocket.NewRedisRelay(redisClient, cfg.Redis.Channel, deps.Hub, logger.Component("ws-relay"))
		publisher = deps.Relay
		deps.TypingStore = typing.NewRedisStore(redisClient, timings.TypingTTL)
	} else {
		deps.TypingStore = typing.NewMemoryStore(timings.TypingTTL)
	}
	deps.WSHandler = websocket.NewHandler(deps.Hub, deps.AuthzService, logger.Component("ws"))

	repos := deps.Repos
	deps.ConversationService = appServices.NewConversationService(
		repos.ConversationRepository,
		repos.MessageRepository,
		repos.UserRepository,
		deps.AuthzService,
		logger.Component("conversations"),
	)
	deps.MessageService = appServices.NewMessageService(
		repos.MessageRepository,
		repos.ConversationRepository,
		repos.ReactionRepository,
		repos.ReadReceiptRepository,
		repos.NotificationRepository,
		deps.AuthzService,
		publisher,
		appServices.MessageServiceConfig{
			EditWindow:    timings.EditWindow,
			SnapshotLimit: cfg.Chat.SnapshotLimit,
		},
		logger.Component("messages"),
	)
	deps.ReactionService = appServices.NewReactionService(
		repos.MessageRepository,
		repos.ReactionRepository,
		repos.ReadReceiptRepository,
		deps.AuthzService,
		publisher,
		nil,
		logger.Component("reactions"),
	)
	deps.TypingService = appServices.NewTypingService(
		deps.TypingStore,
		repos.UserRepository,
		deps.AuthzService,
		publisher,
		timings.TypingTTL,
		nil,
		logger.Component("typing"),
	)
	deps.NotificationService = appServices.NewNotificationService(repos.NotificationRepository, nil, logger.Component("notifications"))
	deps.UserService = appServices.NewUserService(repos.UserRepository, logger.Component("users"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, repos.UserRepository)

	deps.Controllers = appRoutes.Controllers{
		Conversation: appControllers.NewConversationController(deps.ConversationService, lgr),
		Message:      appControllers.NewMessageController(deps.MessageService, cfg.Chat.SnapshotLimit, lgr),
		Reaction:     appControllers.NewReactionController(deps.ReactionService, lgr),
		Typing:       appControllers.NewTypingController(deps.TypingService),
		Notification: appControllers.NewNotificationController(deps.NotificationService),
		User:         appControllers.NewUserController(deps.UserService),
	}

	return deps, nil
}

// StartBackground runs the hub, the Redis relay and the typing sweeper until ctx is done.
func StartBackground(ctx context.Context, cfg *config.Config, deps *Dependencies) {
	go deps.Hub.Run(ctx)
	if deps.Relay != nil {
		go deps.Relay.Run(ctx)
	}
	if store, ok := deps.TypingStore.(*typing.MemoryStore); ok {
		go store.Run(ctx, cfg.Timings().TypingTTL)
	}
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
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(logger.Component("http")))

	if cfg.Metrics.Enabled {
		metrics.Register()
		router.Use(appMiddleware.Metrics())
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router,
		deps.Controllers,
		deps.AuthMiddleware,
		deps.WSHandler,
		appRoutes.TypingRate{RPS: cfg.Chat.TypingRate, Burst: cfg.Chat.TypingBurst},
	)

	return router, nil
}
