// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database    DatabaseConfig
	Server      ServerConfig
	Logging     LoggingConfig
	CORS        CORSConfig
	JWT         JWTConfig
	Progression ProgressionConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret string
}

// ProgressionConfig holds the tunables of the progression engine
type ProgressionConfig struct {
	// PassingPercent is the minimum score/total ratio (x100) to pass a lesson or scene
	PassingPercent int
	// SceneUnlockEveryLessons is how many passed lessons unlock the next scene position
	SceneUnlockEveryLessons int
	// SceneCompletionScore is the score awarded for each completed scene
	SceneCompletionScore int
	// DailyGoalScore is the per-day score target used by the daily-goal achievement
	DailyGoalScore int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return nil, fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// Server configuration
	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8080" // default
	}
	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = serverPort

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "*" // default
	}
	cfg.CORS.AllowedOrigins = strings.Split(corsOrigins, ",")

	// JWT configuration (tokens are issued by the auth service; only the
	// shared secret for validation is needed here)
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	// Progression configuration
	cfg.Progression.PassingPercent, err = intEnv("PASSING_PERCENT", 80)
	if err != nil {
		return nil, err
	}
	cfg.Progression.SceneUnlockEveryLessons, err = intEnv("SCENE_UNLOCK_EVERY_LESSONS", 3)
	if err != nil {
		return nil, err
	}
	cfg.Progression.SceneCompletionScore, err = intEnv("SCENE_COMPLETION_SCORE", 10)
	if err != nil {
		return nil, err
	}
	cfg.Progression.DailyGoalScore, err = intEnv("DAILY_GOAL_SCORE", 20)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// intEnv reads an optional integer environment variable with a default
func intEnv(name string, def int) (int, error) {
	str := os.Getenv(name)
	if str == "" {
		return def, nil
	}
	value, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return value, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}
