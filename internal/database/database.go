// Package database wires the GORM connection. Two interchangeable backends
// sit behind the same *gorm.DB handle: a hosted PostgreSQL database and a
// local SQLite file. The backend is chosen once at startup from config;
// nothing above this package depends on which one is in use.
package database

import (
	"fmt"
	"time"

	"budgetly/internal/config"
	"budgetly/internal/logger"
	"budgetly/internal/models"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Manager handles database operations
type Manager struct {
	db     *gorm.DB
	driver string
	dsn    string
}

// NewManager opens the backend selected by cfg.DBDriver.
func NewManager(cfg *config.Config) (*Manager, error) {
	switch cfg.DBDriver {
	case "postgres":
		return newPostgresManager(cfg)
	case "sqlite":
		return newSQLiteManager(cfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (use postgres or sqlite)", cfg.DBDriver)
	}
}

func newPostgresManager(cfg *config.Config) (*Manager, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // Required for Supabase Supavisor; harmless for direct connections
	}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pgURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)

	return &Manager{db: db, driver: "postgres", dsn: pgURL}, nil
}

func newSQLiteManager(cfg *config.Config) (*Manager, error) {
	db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return &Manager{db: db, driver: "sqlite"}, nil
}

// Migrate brings the schema up to date. PostgreSQL uses versioned SQL
// migrations from the migrations/ directory; the SQLite fallback uses GORM
// auto-migration since golang-migrate's SQL files are postgres-specific.
func (m *Manager) Migrate() error {
	if m.driver == "sqlite" {
		return m.db.AutoMigrate(
			&models.Category{},
			&models.Transaction{},
			&models.Budget{},
			&models.AuditLog{},
		)
	}

	logger.Get().Info("Running database migrations...")

	mig, err := migrate.New("file://migrations", m.dsn)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := mig.Close()
		if srcErr != nil {
			logger.Get().Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			logger.Get().Warnf("migrate database close error: %v", dbErr)
		}
	}()

	if err := mig.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Get().Info("Database migrations completed successfully")
	return nil
}

// DB returns the underlying GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}
