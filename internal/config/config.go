package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Token strategies accepted by AUTH_STRATEGY.
const (
	StrategyPaseto = "paseto"
	StrategyJWT    = "jwt"
)

// Refresh token stores accepted by AUTH_REFRESH_STORE.
const (
	RefreshStoreRedis    = "redis"
	RefreshStorePostgres = "postgres"
)

// Chief claim modes accepted by STOVE_CHIEF_CLAIM_MODE.
const (
	ChiefClaimUpgrade = "upgrade"
	ChiefClaimInsert  = "insert"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Email    EmailConfig
	Stove    StoveConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	Env             string        `env:"APP_ENV" envDefault:"dev"` // dev or prod
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	TrustedOrigins  []string      `env:"TRUSTED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","` // CORS allowed origins for cookie auth
}

type DatabaseConfig struct {
	Host           string `env:"DB_HOST" envDefault:"localhost"`
	Port           string `env:"DB_PORT" envDefault:"5432"`
	User           string `env:"DB_USER" envDefault:"postgres"`
	Password       string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName         string `env:"DB_NAME" envDefault:"sstove"`
	SSLMode        string `env:"DB_SSLMODE" envDefault:"disable"`
	ChannelBinding string `env:"DB_CHANNEL_BINDING"` // "require" for Neon DB, empty for local
	MaxOpenConns   int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns   int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type AuthConfig struct {
	Strategy string `env:"AUTH_STRATEGY" envDefault:"paseto"`
	// PASETO symmetric key (must be 32 bytes for v4.local)
	PasetoKey string `env:"PASETO_KEY"`
	// HMAC secret for the JWT strategy
	JWTSecret            string        `env:"JWT_SECRET"`
	RefreshStore         string        `env:"AUTH_REFRESH_STORE" envDefault:"redis"`
	AccessTokenDuration  time.Duration `env:"ACCESS_TOKEN_DURATION" envDefault:"24h"`
	RefreshTokenDuration time.Duration `env:"REFRESH_TOKEN_DURATION" envDefault:"168h"`
	ActivationTokenTTL   time.Duration `env:"ACTIVATION_TOKEN_TTL" envDefault:"24h"`
}

type EmailConfig struct {
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASS"`
	FromEmail    string `env:"EMAIL_FROM"`
	FrontendURL  string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"` // Frontend URL for verification links
}

type StoveConfig struct {
	ChiefClaimMode string `env:"STOVE_CHIEF_CLAIM_MODE" envDefault:"upgrade"`
}

type MetricsConfig struct {
	Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabase reads only the database section. Admin tooling uses it so it
// does not need the API's secrets.
func LoadDatabase() (*DatabaseConfig, error) {
	_ = godotenv.Load()

	cfg := &DatabaseConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field constraints that env tags cannot express.
func (c *Config) Validate() error {
	switch c.Auth.Strategy {
	case StrategyPaseto:
		// Validate PASETO key length (must be 32 bytes for v4.local)
		if len(c.Auth.PasetoKey) != 32 {
			return fmt.Errorf("PASETO_KEY must be exactly 32 bytes, got %d", len(c.Auth.PasetoKey))
		}
	case StrategyJWT:
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(c.Auth.JWTSecret))
		}
	default:
		return fmt.Errorf("unsupported AUTH_STRATEGY %q", c.Auth.Strategy)
	}

	switch c.Auth.RefreshStore {
	case RefreshStoreRedis, RefreshStorePostgres:
	default:
		return fmt.Errorf("unsupported AUTH_REFRESH_STORE %q", c.Auth.RefreshStore)
	}

	switch c.Stove.ChiefClaimMode {
	case ChiefClaimUpgrade, ChiefClaimInsert:
	default:
		return fmt.Errorf("unsupported STOVE_CHIEF_CLAIM_MODE %q", c.Stove.ChiefClaimMode)
	}

	if c.Auth.AccessTokenDuration <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_DURATION must be positive")
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "dev")
}

// SMTPConfigured reports whether outbound mail can be delivered.
func (c *EmailConfig) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUser != ""
}

// Sender returns the From address, falling back to the SMTP user.
func (c *EmailConfig) Sender() string {
	if c.FromEmail != "" {
		return c.FromEmail
	}
	return c.SMTPUser
}
