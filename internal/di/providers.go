package di

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/photoshare/photoshare-api/internal/app"
	"github.com/photoshare/photoshare-api/internal/config"
	"github.com/photoshare/photoshare-api/internal/database"
	"github.com/photoshare/photoshare-api/internal/health"
	"github.com/photoshare/photoshare-api/internal/http/handler"
	"github.com/photoshare/photoshare-api/internal/http/middleware"
	"github.com/photoshare/photoshare-api/internal/http/router"
	"github.com/photoshare/photoshare-api/internal/observability"
	"github.com/photoshare/photoshare-api/internal/repository"
	"github.com/photoshare/photoshare-api/internal/security"
	"github.com/photoshare/photoshare-api/internal/service"
	"github.com/photoshare/photoshare-api/internal/storage"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
)

var SecuritySet = wire.NewSet(
	provideJWTManager,
)

var StorageSet = wire.NewSet(
	provideLocalBackend,
	provideCloudBackend,
)

var ServiceSet = wire.NewSet(
	service.NewUploadService,
	service.NewRegistrationService,
	service.NewAuthService,
	wire.Bind(new(service.RegistrationServiceInterface), new(*service.RegistrationService)),
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
)

var HTTPSet = wire.NewSet(
	provideRegisterHandler,
	handler.NewAuthHandler,
	handler.NewUserHandler,
	provideGlobalRateLimiter,
	provideAuthRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

type MigrationRunner struct {
	db *gorm.DB
}

func NewMigrationRunner(db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{db: db}
}

func (m *MigrationRunner) Run() error {
	return database.Migrate(m.db)
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config) redis.UniversalClient {
	if !cfg.RateLimitRedisEnabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSecret)
}

// LocalStorage and CloudStorage keep wire from conflating the two
// storage.Backend bindings.
type LocalStorage storage.Backend
type CloudStorage storage.Backend

func provideLocalBackend(cfg *config.Config) LocalStorage {
	return storage.NewLocalBackend(cfg.UploadLocalRoot, cfg.UploadPublicBaseURL, cfg.AllowedMimeTypeSet())
}

func provideCloudBackend(cfg *config.Config) (CloudStorage, error) {
	if !cfg.S3Enabled {
		return nil, nil
	}
	backend, err := storage.NewS3Backend(storage.S3Options{
		Endpoint:       cfg.S3Endpoint,
		AccessKey:      cfg.S3AccessKey,
		SecretKey:      cfg.S3SecretKey,
		Region:         cfg.S3Region,
		Bucket:         cfg.S3Bucket,
		UseSSL:         cfg.S3UseSSL,
		ConnectTimeout: cfg.S3ConnectTimeout,
		RequestTimeout: cfg.S3RequestTimeout,
	}, cfg.AllowedMimeTypeSet())
	if err != nil {
		return nil, err
	}
	return backend, nil
}

func provideRegisterHandler(cfg *config.Config, svc service.RegistrationServiceInterface, local LocalStorage, cloud CloudStorage) *handler.RegisterHandler {
	return handler.NewRegisterHandler(cfg, svc, local, cloud)
}

func provideGlobalRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.GlobalRateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":api")
		return middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.APIRateLimitPerMin,
			time.Minute,
			middleware.FailOpen,
			"api",
		).Middleware()
	}
	return middleware.NewRateLimiter(cfg.APIRateLimitPerMin, time.Minute).Middleware()
}

func provideAuthRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.AuthRateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":auth")
		return middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.AuthRateLimitPerMin,
			time.Minute,
			middleware.FailClosed,
			"auth",
		).Middleware()
	}
	return middleware.NewRateLimiter(cfg.AuthRateLimitPerMin, time.Minute).Middleware()
}

func provideRouterDependencies(
	registerHandler *handler.RegisterHandler,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	jwt *security.JWTManager,
	globalRateLimiter router.GlobalRateLimiterFunc,
	authRateLimiter router.AuthRateLimiterFunc,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		RegisterHandler:   registerHandler,
		AuthHandler:       authHandler,
		UserHandler:       userHandler,
		JWTManager:        jwt,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		AuthRateLimitRPM:  cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:   cfg.APIRateLimitPerMin,
		GlobalRateLimiter: globalRateLimiter,
		AuthRateLimiter:   authRateLimiter,
		RegisterBodyLimit: registerBodyLimit(cfg),
		Readiness:         readiness,
		EnableOTelHTTP:    cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

// registerBodyLimit sizes the registration body cap off the per-file
// limits with headroom for multipart framing.
func registerBodyLimit(cfg *config.Config) int64 {
	return cfg.MaxPhotoSize*int64(cfg.MinPhotoCount) + cfg.MaxAvatarSize + (1 << 20)
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	checkers := make([]health.Checker, 0, 3)
	if c := health.NewDBChecker(db); c != nil {
		checkers = append(checkers, c)
	}
	if cfg.RateLimitRedisEnabled {
		if c := health.NewRedisChecker(redisClient); c != nil {
			checkers = append(checkers, c)
		}
	}
	if c := health.NewLocalStorageChecker(cfg.UploadLocalRoot); c != nil {
		checkers = append(checkers, c)
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, checkers...)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, redisClient, readiness)
}
