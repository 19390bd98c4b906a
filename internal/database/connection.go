package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type DB struct {
	*sql.DB
	Driver string
	logger *zap.Logger
}

type Config struct {
	Driver   string
	URL      string // Full database URL, or file path for sqlite
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the data source name for the configured driver
func (c Config) DSN() string {
	if c.Driver == DriverSQLite || c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func NewConnection(config Config, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	driver := config.Driver
	if driver == "" {
		driver = DriverPostgres
	}
	config.Driver = driver

	switch driver {
	case DriverPostgres:
	case DriverSQLite:
		if config.URL == "" {
			return nil, fmt.Errorf("sqlite database path is required")
		}
		if config.URL != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(config.URL), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// sqlite allows a single writer; an in-memory database also lives
		// only as long as its connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, Driver: driver, logger: logger}, nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// RunMigrations runs all pending database migrations
func (db *DB) RunMigrations() error {
	migrator := NewMigrator(db.DB, db.logger)
	return migrator.RunMigrations()
}

// GetMigrationStatus returns the status of every known migration
func (db *DB) GetMigrationStatus() ([]MigrationStatus, error) {
	migrator := NewMigrator(db.DB, db.logger)
	return migrator.GetMigrationStatus()
}
