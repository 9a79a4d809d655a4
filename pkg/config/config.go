package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvProduction is the environment name that disables development-only features
const EnvProduction = "production"

// Config holds the configuration for all services
type Config struct {
	App      AppConfig      `envPrefix:"MUSIC_"`
	Server   ServerConfig   `envPrefix:"MUSIC_"`
	Database DatabaseConfig `envPrefix:"MUSIC_DB_"`
	Redis    RedisConfig    `envPrefix:"MUSIC_REDIS_"`
	Storage  StorageConfig  `envPrefix:"MUSIC_"`
	Auth     AuthConfig     `envPrefix:"MUSIC_"`
	Logging  LoggingConfig  `envPrefix:"MUSIC_LOG_"`
}

// AppConfig identifies the running deployment
type AppConfig struct {
	Name        string `env:"APP_NAME" envDefault:"Stitch Music API"`
	Version     string `env:"APP_VERSION" envDefault:"0.1.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// IsProduction reports whether development shortcuts must be disabled
func (a *AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Environment, EnvProduction)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port         int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	APIPrefix    string        `env:"API_PREFIX" envDefault:"/api"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" envDefault:"http://localhost:5173,http://127.0.0.1:5173"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"stitch"`
	Password string `env:"PASSWORD" envDefault:"password"`
	DBName   string `env:"NAME" envDefault:"stitch_music"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"true"`
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// StorageConfig holds blob storage and upload configuration.
// The object store is used when both bucket and region are set; the local
// filesystem otherwise.
type StorageConfig struct {
	Bucket            string        `env:"S3_BUCKET"`
	Region            string        `env:"S3_REGION"`
	Endpoint          string        `env:"S3_ENDPOINT"`
	AccessKey         string        `env:"S3_ACCESS_KEY"`
	SecretKey         string        `env:"S3_SECRET_KEY"`
	LocalPath         string        `env:"LOCAL_STORAGE_PATH" envDefault:"storage"`
	LocalBaseURL      string        `env:"LOCAL_BASE_URL" envDefault:"/api/uploads"`
	PresignTTL        time.Duration `env:"PRESIGN_EXPIRATION" envDefault:"15m"`
	UploadSessionTTL  time.Duration `env:"UPLOAD_SESSION_TTL" envDefault:"15m"`
	MaxUploadSize     int64         `env:"MAX_UPLOAD_SIZE" envDefault:"52428800"`
	AllowedAudioTypes []string      `env:"ALLOWED_AUDIO_TYPES" envDefault:"audio/mpeg,audio/mp3,audio/wav,audio/x-wav,audio/wave,audio/flac,audio/x-flac,audio/ogg,audio/aac,audio/mp4,audio/x-m4a,audio/webm"`
	AllowedImageTypes []string      `env:"ALLOWED_IMAGE_TYPES" envDefault:"image/jpeg,image/png,image/webp"`
	Timeout           time.Duration `env:"STORAGE_TIMEOUT" envDefault:"8s"`
}

// UseObjectStore reports whether the S3-compatible backend is configured
func (s *StorageConfig) UseObjectStore() bool {
	return s.Bucket != "" && s.Region != ""
}

// AuthConfig holds token verification settings
type AuthConfig struct {
	JWKSURL         string        `env:"JWKS_URL"`
	JWKSAudience    string        `env:"JWKS_AUDIENCE"`
	JWKSCacheTTL    time.Duration `env:"JWKS_CACHE_TTL" envDefault:"3600s"`
	AllowHeaderAuth bool          `env:"ALLOW_HEADER_AUTH" envDefault:"true"`
	UserInfoURL     string        `env:"AUTH_USERINFO_URL"`
	Timeout         time.Duration `env:"AUTH_TIMEOUT" envDefault:"5s"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"` // json, console
}

// Load reads an optional .env file and parses the environment into a Config
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that env parsing cannot express
func (c *Config) Validate() error {
	if _, err := semver.NewVersion(c.App.Version); err != nil {
		return fmt.Errorf("invalid app version %q: %w", c.App.Version, err)
	}
	if c.Storage.MaxUploadSize <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.Storage.MaxUploadSize)
	}
	if c.Storage.PresignTTL <= 0 || c.Storage.UploadSessionTTL <= 0 {
		return fmt.Errorf("presign and upload session TTLs must be positive")
	}
	if c.Auth.JWKSCacheTTL <= 0 {
		return fmt.Errorf("jwks cache ttl must be positive")
	}
	if (c.Storage.Bucket == "") != (c.Storage.Region == "") {
		log.Warn().
			Str("bucket", c.Storage.Bucket).
			Str("region", c.Storage.Region).
			Msg("object storage needs both bucket and region, falling back to local storage")
	}

	// Header identity is a development shortcut only
	if c.App.IsProduction() && c.Auth.AllowHeaderAuth {
		log.Warn().Msg("header authentication is not allowed in production, disabling it")
		c.Auth.AllowHeaderAuth = false
	}
	return nil
}

// DatabaseURL returns a PostgreSQL connection string
func (d *DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// RedisAddr returns the Redis address
func (r *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// SetupLogging configures the global zerolog logger
func (l *LoggingConfig) SetupLogging() {
	level, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if l.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		return
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
