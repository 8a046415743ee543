// Package config provides environment configuration for the API server.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server  ServerConfig
	App     AppConfig
	DB      DBConfig
	NATS    NATSConfig
	Auth    AuthConfig
	Cache   CacheConfig
	Storage StorageConfig
	Tracing TracingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"toolshare-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"60"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// DBConfig holds SQLite settings.
type DBConfig struct {
	Path string `envconfig:"DB_PATH" default:"./data/marketplace.db"`
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL      string `envconfig:"NATS_URL" default:"nats://localhost:4222"`
	CAFile   string `envconfig:"NATS_CA_FILE" default:""`
	CertFile string `envconfig:"NATS_CERT_FILE" default:""`
	KeyFile  string `envconfig:"NATS_KEY_FILE" default:""`
	Token    string `envconfig:"NATS_TOKEN" default:""`
}

// AuthConfig holds JWT settings.
type AuthConfig struct {
	JWTSecret        string        `envconfig:"JWT_SECRET" default:"development-secret-change-in-production"`
	TokenTTL         time.Duration `envconfig:"JWT_EXPIRATION" default:"24h"`
	ResetTokenTTL    time.Duration `envconfig:"RESET_TOKEN_EXPIRATION" default:"1h"`
	ResetRedirectURL string        `envconfig:"RESET_REDIRECT_URL" default:"http://localhost:3000/reset-password"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"`
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// StorageConfig holds S3-compatible object storage settings for image uploads.
type StorageConfig struct {
	Endpoint  string `envconfig:"STORAGE_ENDPOINT" default:""`
	Region    string `envconfig:"STORAGE_REGION" default:"us-east-1"`
	Bucket    string `envconfig:"STORAGE_BUCKET" default:"toolshare-media"`
	AccessKey string `envconfig:"STORAGE_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"STORAGE_SECRET_KEY" default:""`
	PublicURL string `envconfig:"STORAGE_PUBLIC_URL" default:""`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled  bool   `envconfig:"TRACING_ENABLED" default:"false"`
	Endpoint string `envconfig:"TRACING_ENDPOINT" default:"localhost:4318"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// Configured reports whether object storage credentials are present. When
// they are missing the server still boots with uploads disabled.
func (s *StorageConfig) Configured() bool {
	return s.Endpoint != "" && s.AccessKey != "" && s.SecretKey != ""
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
