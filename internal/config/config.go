package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Database. Driver selects the backing store once at startup:
	// "postgres" for the hosted database, "sqlite" for the local
	// file-backed fallback.
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	Limits Limits
}

// Limits is the read-only set of import/export bounds exposed to clients.
type Limits struct {
	MaxFileSizeBytes int64    `json:"max_file_size_bytes"`
	MaxRowsCSV       int      `json:"max_rows_csv"`
	MaxRowsXLSX      int      `json:"max_rows_xlsx"`
	MaxBatchSize     int      `json:"max_batch_size"`
	DateFormats      []string `json:"date_formats"`
	Formats          []string `json:"formats"`
}

// DefaultLimits returns the static limits applied to bulk operations.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSizeBytes: 10 << 20,
		MaxRowsCSV:       10000,
		MaxRowsXLSX:      5000,
		MaxBatchSize:     500,
		DateFormats: []string{
			"YYYY-MM-DD", "MM/DD/YYYY", "DD/MM/YYYY",
			"YYYY/MM/DD", "MM-DD-YYYY", "DD-MM-YYYY",
		},
		Formats: []string{"csv", "xlsx"},
	}
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "budgetly"),
		DBPassword: getEnv("DB_PASSWORD", "budgetly"),
		DBName:     getEnv("DB_NAME", "budgetly"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "budgetly.db"),

		Limits: DefaultLimits(),
	}

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
