package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DatabaseURL         string        `mapstructure:"DATABASE_URL"`
	ServerAddr          string        `mapstructure:"SERVER_ADDR"`
	GinMode             string        `mapstructure:"GIN_MODE"`
	JWTSecret           string        `mapstructure:"JWT_SECRET"`
	JWTExpiration       time.Duration `mapstructure:"JWT_EXPIRATION"`
	UploadDir           string        `mapstructure:"UPLOAD_DIR"`
	UploadURLPrefix     string        `mapstructure:"UPLOAD_URL_PREFIX"`
	RedisURL            string        `mapstructure:"REDIS_URL"`
	LeaderboardCacheTTL time.Duration `mapstructure:"LEADERBOARD_CACHE_TTL"`
	SessionSecret       string        `mapstructure:"SESSION_SECRET"`
	CORSAllowedOrigins  string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	DBLogLevel          string        `mapstructure:"DB_LOG_LEVEL"`
	AutoMigrate         bool          `mapstructure:"AUTO_MIGRATE"`
}

// DefaultSessionSecret is only good for development; release mode refuses it.
const DefaultSessionSecret = "change-me-session-secret"

var defaults = map[string]any{
	"DATABASE_URL":          "",
	"SERVER_ADDR":           ":8080",
	"GIN_MODE":              "debug",
	"JWT_SECRET":            "",
	"JWT_EXPIRATION":        "1h",
	"UPLOAD_DIR":            "./public/uploads",
	"UPLOAD_URL_PREFIX":     "/uploads",
	"REDIS_URL":             "",
	"LEADERBOARD_CACHE_TTL": "5m",
	"SESSION_SECRET":        DefaultSessionSecret,
	"CORS_ALLOWED_ORIGINS":  "*",
	"DB_LOG_LEVEL":          "warn",
	"AUTO_MIGRATE":          false,
}

// Load reads configuration from a .env file in the working directory and
// from environment variables, which take precedence.
func Load() (*Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")

	v.AutomaticEnv()
	// Unmarshal only sees env vars for keys viper already knows about.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTExpiration <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION must be positive"))
	}
	if c.GinMode == "release" && (c.SessionSecret == "" || c.SessionSecret == DefaultSessionSecret) {
		errs = append(errs, errors.New("SESSION_SECRET must be set to a private value in release mode"))
	}
	return errors.Join(errs...)
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
