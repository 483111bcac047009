package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Service auth
	JWTSecret string

	// Ledger
	// LockTimeout bounds how long an operation waits for a security key's
	// lock when the caller supplies no deadline of its own.
	LockTimeout       time.Duration
	ReportingCurrency string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get values from environment variables with defaults
	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "fundledger"),
		DBPassword: getEnv("DB_PASSWORD", "fundledger"),
		DBName:     getEnv("DB_NAME", "fundledger"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		ReportingCurrency: getEnv("REPORTING_CURRENCY", "INR"),
	}

	// Parse the per-key lock timeout
	lockStr := getEnv("LOCK_TIMEOUT", "5s")
	lockDur, err := time.ParseDuration(lockStr)
	if err != nil {
		log.Printf("Warning: invalid LOCK_TIMEOUT value '%s', falling back to 5s\n", lockStr)
		lockDur = 5 * time.Second
	}
	config.LockTimeout = lockDur

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
