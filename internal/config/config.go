package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string

	JWTIssuer    string
	JWTAudience  string
	JWTSecret    string
	JWTAccessTTL time.Duration

	// File-upload policy. Sizes are bytes.
	MinPhotoCount     int
	MaxPhotoSize      int64
	MaxAvatarSize     int64
	AllowedMimeTypes  []string
	UploadConcurrency int

	// Local storage backend.
	UploadLocalRoot     string
	UploadPublicBaseURL string
	UploadPhotosDir     string
	UploadAvatarsDir    string

	// S3-compatible storage backend (covers AWS via endpoint).
	S3Enabled        bool
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	S3Region         string
	S3Bucket         string
	S3UseSSL         bool
	S3ConnectTimeout time.Duration
	S3RequestTimeout time.Duration

	AvatarPlaceholderBaseURL string

	CORSAllowedOrigins  []string
	AuthRateLimitPerMin int
	APIRateLimitPerMin  int

	RateLimitRedisEnabled bool
	RateLimitRedisPrefix  string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int

	ReadinessProbeTimeout  time.Duration
	ServerStartGracePeriod time.Duration

	NewsletterFromAddress string
	NewsletterLookback    time.Duration
	SMTPAddr              string

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Env:         env,
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTIssuer:   getEnv("JWT_ISSUER", "photoshare-api"),
		JWTAudience: getEnv("JWT_AUDIENCE", "photoshare-clients"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		MinPhotoCount:     getEnvInt("UPLOAD_MIN_PHOTO_COUNT", 4),
		MaxPhotoSize:      getEnvInt64("UPLOAD_MAX_PHOTO_SIZE", 125<<20),
		MaxAvatarSize:     getEnvInt64("UPLOAD_MAX_AVATAR_SIZE", 5<<20),
		AllowedMimeTypes:  splitCSV(getEnv("UPLOAD_ALLOWED_MIME_TYPES", "image/jpeg,image/png")),
		UploadConcurrency: getEnvInt("UPLOAD_CONCURRENCY", 4),

		UploadLocalRoot:     getEnv("UPLOAD_LOCAL_ROOT", "public/uploads"),
		UploadPublicBaseURL: getEnv("UPLOAD_PUBLIC_BASE_URL", "/uploads"),
		UploadPhotosDir:     getEnv("UPLOAD_PHOTOS_DIR", "photos"),
		UploadAvatarsDir:    getEnv("UPLOAD_AVATARS_DIR", "avatars"),

		S3Enabled:   getEnvBool("S3_ENABLED", false),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3UseSSL:    getEnvBool("S3_USE_SSL", true),

		AvatarPlaceholderBaseURL: getEnv("AVATAR_PLACEHOLDER_BASE_URL", "https://api.dicebear.com/7.x/avataaars/svg"),

		CORSAllowedOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		AuthRateLimitPerMin: getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		APIRateLimitPerMin:  getEnvInt("API_RATE_LIMIT_PER_MIN", 120),

		RateLimitRedisEnabled: getEnvBool("RATE_LIMIT_REDIS_ENABLED", false),
		RateLimitRedisPrefix:  getEnv("RATE_LIMIT_REDIS_PREFIX", "photoshare:rl"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getEnvInt("REDIS_DB", 0),

		NewsletterFromAddress: getEnv("NEWSLETTER_FROM_ADDRESS", "photoshare@example.com"),
		SMTPAddr:              getEnv("SMTP_ADDR", "localhost:25"),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "photoshare-api"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", true),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", true),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", true),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	accessTTL, err := time.ParseDuration(getEnv("JWT_ACCESS_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("parse JWT_ACCESS_TTL: %w", err)
	}
	cfg.JWTAccessTTL = accessTTL

	connectTimeout, err := time.ParseDuration(getEnv("S3_CONNECT_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("parse S3_CONNECT_TIMEOUT: %w", err)
	}
	cfg.S3ConnectTimeout = connectTimeout

	requestTimeout, err := time.ParseDuration(getEnv("S3_REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("parse S3_REQUEST_TIMEOUT: %w", err)
	}
	cfg.S3RequestTimeout = requestTimeout

	probeTimeout, err := time.ParseDuration(getEnv("READINESS_PROBE_TIMEOUT", "1s"))
	if err != nil {
		return nil, fmt.Errorf("parse READINESS_PROBE_TIMEOUT: %w", err)
	}
	cfg.ReadinessProbeTimeout = probeTimeout

	gracePeriod, err := time.ParseDuration(getEnv("SERVER_START_GRACE_PERIOD", "0s"))
	if err != nil {
		return nil, fmt.Errorf("parse SERVER_START_GRACE_PERIOD: %w", err)
	}
	cfg.ServerStartGracePeriod = gracePeriod

	lookback, err := time.ParseDuration(getEnv("NEWSLETTER_LOOKBACK", "168h"))
	if err != nil {
		return nil, fmt.Errorf("parse NEWSLETTER_LOOKBACK: %w", err)
	}
	cfg.NewsletterLookback = lookback

	metricsInterval, err := time.ParseDuration(getEnv("OTEL_METRICS_EXPORT_INTERVAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("parse OTEL_METRICS_EXPORT_INTERVAL: %w", err)
	}
	cfg.OTELMetricsExportInterval = metricsInterval

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.JWTSecret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 chars")
	}
	if c.JWTAccessTTL <= 0 || c.JWTAccessTTL > 24*time.Hour {
		errs = append(errs, "JWT_ACCESS_TTL must be between 1s and 24h")
	}
	if c.MinPhotoCount < 1 {
		errs = append(errs, "UPLOAD_MIN_PHOTO_COUNT must be >= 1")
	}
	if c.MaxPhotoSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_PHOTO_SIZE must be > 0")
	}
	if c.MaxAvatarSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_AVATAR_SIZE must be > 0")
	}
	if len(c.AllowedMimeTypes) == 0 {
		errs = append(errs, "UPLOAD_ALLOWED_MIME_TYPES must not be empty")
	}
	if c.UploadConcurrency < 1 {
		errs = append(errs, "UPLOAD_CONCURRENCY must be >= 1")
	}
	if c.UploadLocalRoot == "" {
		errs = append(errs, "UPLOAD_LOCAL_ROOT is required")
	}
	if c.S3Enabled {
		if c.S3Endpoint == "" {
			errs = append(errs, "S3_ENDPOINT is required when S3_ENABLED=true")
		}
		if c.S3AccessKey == "" || c.S3SecretKey == "" {
			errs = append(errs, "S3_ACCESS_KEY and S3_SECRET_KEY are required when S3_ENABLED=true")
		}
		if c.S3Bucket == "" {
			errs = append(errs, "S3_BUCKET is required when S3_ENABLED=true")
		}
		if c.S3ConnectTimeout <= 0 || c.S3RequestTimeout <= 0 {
			errs = append(errs, "S3 timeouts must be > 0")
		}
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// AllowedMimeTypeSet returns the allow-list as a lookup set of lowercased types.
func (c *Config) AllowedMimeTypeSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.AllowedMimeTypes))
	for _, t := range c.AllowedMimeTypes {
		set[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return set
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
