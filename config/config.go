package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort     = "8080"
	defaultDriver   = "sqlite"
	defaultDatabase = "calorietrack.db"
	defaultUserID   = "1"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port string

	DatabaseDriver string
	DatabaseURL    string

	// Cloud SQL settings, only read when DatabaseDriver is cloudsqlpostgres.
	CloudSQLConnectionName string
	CloudSQLUser           string
	CloudSQLDatabaseName   string
	CloudSQLPassword       string

	Location *time.Location
	UserID   string

	LogLevel  string
	LogFormat string

	AllowedOrigins []string
}

// Load reads envFile (or .env when empty) into the process environment and
// builds a Config from it. A missing env file is not an error; the returned
// bool reports whether one was loaded.
func Load(envFile string) (*Config, bool, error) {
	loaded := true
	files := []string{}
	if envFile != "" {
		files = append(files, envFile)
	}
	if err := godotenv.Load(files...); err != nil {
		if envFile != "" && !errors.Is(err, os.ErrNotExist) {
			return nil, false, fmt.Errorf("load %s: %w", envFile, err)
		}
		loaded = false
	}

	cfg, err := FromEnv()
	return cfg, loaded, err
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                   envOr("PORT", defaultPort),
		DatabaseDriver:         envOr("DATABASE_DRIVER", defaultDriver),
		DatabaseURL:            envOr("DATABASE_URL", defaultDatabase),
		CloudSQLConnectionName: os.Getenv("CLOUDSQL_CONNECTION_NAME"),
		CloudSQLUser:           os.Getenv("CLOUDSQL_USER"),
		CloudSQLDatabaseName:   os.Getenv("CLOUDSQL_DATABASE_NAME"),
		CloudSQLPassword:       os.Getenv("CLOUDSQL_PASSWORD"),
		UserID:                 envOr("APP_USER_ID", defaultUserID),
		LogLevel:               envOr("LOG_LEVEL", "info"),
		LogFormat:              envOr("LOG_FORMAT", "text"),
		AllowedOrigins:         splitList(envOr("CORS_ALLOWED_ORIGINS", "*")),
	}

	loc, err := loadLocation(os.Getenv("APP_TIMEZONE"))
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	switch cfg.DatabaseDriver {
	case "sqlite", "postgres":
	case "cloudsqlpostgres":
		if cfg.CloudSQLConnectionName == "" || cfg.CloudSQLUser == "" {
			return nil, fmt.Errorf("CLOUDSQL_CONNECTION_NAME and CLOUDSQL_USER must be set for the cloudsqlpostgres driver")
		}
		cfg.DatabaseURL = cfg.cloudSQLURI()
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) cloudSQLURI() string {
	return fmt.Sprintf("host=%s dbname=%s user=%s password=%s sslmode=disable",
		c.CloudSQLConnectionName, c.CloudSQLDatabaseName, c.CloudSQLUser, c.CloudSQLPassword)
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	return loc, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
