// Package config reads the service configuration from the environment.
//
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Development-only JWT secrets, used when none are configured outside
// production.
const (
	devAccessSecret  = "dev-access-secret-change-me"
	devRefreshSecret = "dev-refresh-secret-change-me"
)

// Config holds all application configuration.
type Config struct {
	Port      int
	Env       string
	LogLevel  string
	StaticDir string

	Store  StoreConfig
	Auth   AuthConfig
	Redis  RedisConfig
	Events EventsConfig
}

// StoreConfig selects and locates the document store.
type StoreConfig struct {
	Driver        string
	DBPath        string
	MongoURI      string
	MongoDatabase string
}

// AuthConfig holds token and password hashing settings.
type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	BcryptCost    int

	// DevSecrets is set when the built-in development secrets are in use.
	DevSecrets bool
}

// RedisConfig configures the response cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// EventsConfig configures the comment event publisher. An empty URL
// disables publishing.
type EventsConfig struct {
	AMQPURL string
	Queue   string
}

// Load reads the configuration. It fails on values the service cannot
// start with; malformed numbers and durations fall back to their defaults.
func Load() (*Config, error) {
	// A missing .env is normal in containers.
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnvAsInt("PORT", 8080),
		Env:       getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		StaticDir: getEnv("STATIC_DIR", "web/static"),
		Store: StoreConfig{
			Driver:        strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
			DBPath:        getEnv("DB_PATH", "data/restaurants.db"),
			MongoURI:      getEnv("MONGO_URI", ""),
			MongoDatabase: getEnv("MONGO_DATABASE", "sample_restaurants"),
		},
		Auth: AuthConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", ""),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", ""),
			AccessTTL:     getEnvAsDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTTL:    getEnvAsDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
			BcryptCost:    getEnvAsInt("BCRYPT_COST", 12),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: getEnvAsDuration("CACHE_TTL", 30*time.Second),
		},
		Events: EventsConfig{
			AMQPURL: getEnv("AMQP_URL", ""),
			Queue:   getEnv("EVENTS_QUEUE", "restaurant.comments"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return errors.New("config: MONGO_URI is required when STORE_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q (want sqlite or mongo)", c.Store.Driver)
	}

	if c.Auth.AccessSecret == "" && c.Auth.RefreshSecret == "" {
		if c.IsProduction() {
			return errors.New("config: JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required in production")
		}
		c.Auth.AccessSecret = devAccessSecret
		c.Auth.RefreshSecret = devRefreshSecret
		c.Auth.DevSecrets = true
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
