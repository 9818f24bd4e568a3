package config

import (
	"strings"
	"time"
)

// APIConfig holds runtime configuration for the API service.
type APIConfig struct {
	Environment        string
	Addr               string
	DatabaseURL        string
	MigrationsDir      string
	DBWaitTimeout      time.Duration
	JWTSecret          string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	LogLevel           string
	MediaRoot          string
	MediaURL           string
	ImageMaxBytes      int64
	ImageMaxHeight     int
	ImageMaxPixels     int64
	StorageBackend     string
	S3Bucket           string
	S3Region           string
	S3Endpoint         string
	CORSAllowedOrigins []string
	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:        GetString("APP_ENV", "development"),
		Addr:               GetString("API_ADDR", ":8000"),
		DatabaseURL:        GetString("DATABASE_URL", "postgres://devuser:changeme@db:5432/devdb?sslmode=disable"),
		MigrationsDir:      GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		DBWaitTimeout:      GetDuration("DB_WAIT_TIMEOUT_SECONDS", 60*time.Second),
		JWTSecret:          GetString("JWT_SECRET", "changeme"),
		AccessTokenTTL:     time.Duration(GetInt("ACCESS_TOKEN_TTL_MIN", 60)) * time.Minute,
		RefreshTokenTTL:    time.Duration(GetInt("REFRESH_TOKEN_TTL_HOURS", 24*7)) * time.Hour,
		LogLevel:           GetString("LOG_LEVEL", "info"),
		MediaRoot:          GetString("MEDIA_ROOT", "/vol/web/media"),
		MediaURL:           GetString("MEDIA_URL", "/media/"),
		ImageMaxBytes:      int64(GetInt("IMAGE_MAX_BYTES", 10<<20)),
		ImageMaxHeight:     GetInt("IMAGE_MAX_HEIGHT", 1080),
		ImageMaxPixels:     int64(GetInt("IMAGE_MAX_PIXELS", 40_000_000)),
		StorageBackend:     strings.ToLower(GetString("STORAGE_BACKEND", "local")),
		S3Bucket:           GetString("S3_BUCKET", ""),
		S3Region:           GetString("S3_REGION", "us-east-1"),
		S3Endpoint:         GetString("S3_ENDPOINT", ""),
		CORSAllowedOrigins: GetList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}

// IsProduction reports whether the service runs with production defaults.
func (c APIConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
