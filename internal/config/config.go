package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string
	Verbose bool
	DataDir string

	// Store (document store driver: "json", "sqlite" or "pgx")
	StoreDriver  string
	DBConnection string

	// Blob storage for catalog assets, screenshots and QR images ("local" or "s3")
	StorageDriver string

	// Uploads
	MaxUploadSize    int64
	UploadRateLimit  int
	UploadRateWindow time.Duration

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	dataDir := envString("DATA_DIR", "./data")

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "promoproof"),
		AppEnv:  envString("APP_ENV", "development"),
		Port:    envString("PORT", "8080"),
		Verbose: envBool("VERBOSE", false),
		DataDir: dataDir,

		// Store
		StoreDriver:  envString("STORE_DRIVER", "json"),
		DBConnection: envString("DB_CONNECTION", filepath.Join(dataDir, "promoproof.db")+"?_pragma=journal_mode(WAL)"),

		// Blob storage
		StorageDriver: envString("STORAGE_DRIVER", "local"),

		// Uploads
		MaxUploadSize:    envInt64("MAX_UPLOAD_SIZE", 10<<20), // 10 MB
		UploadRateLimit:  int(envInt64("UPLOAD_RATE_LIMIT", 30)),
		UploadRateWindow: envDuration("UPLOAD_RATE_WINDOW", 1*time.Minute),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// S3
		S3Region:    envString("S3_REGION", ""),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),
	}

	if cfg.StorageDriver == "s3" {
		validateS3(cfg)
	}

	return cfg
}

// validateS3 ensures the bucket settings are present when S3 storage is selected.
// Local storage needs nothing beyond DATA_DIR.
func validateS3(cfg *Config) {
	cfg.S3Region = envRequired("S3_REGION")
	cfg.S3Bucket = envRequired("S3_BUCKET")
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("config invalid integer, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// DebugLogging reports whether debug-level logs should be emitted.
func (c *Config) DebugLogging() bool {
	return c.Verbose || c.IsDevelopment()
}
