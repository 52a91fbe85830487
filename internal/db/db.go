// Package db provides database connectivity for the run history
package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/celestiaorg/gcpiac/internal/db/models"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options represents database connection configuration options
type Options struct {
	Driver   string // sqlite or postgres
	DSN      string // postgres connection string, or sqlite file path
	LogLevel logger.LogLevel
	Log      logrus.FieldLogger
}

// New creates a new database connection with the given options and migrates the schema
func New(opts Options) (*gorm.DB, error) {
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverSQLite, "":
		if opts.DSN == "" {
			return nil, fmt.Errorf("sqlite database path is required")
		}
		if err := os.MkdirAll(filepath.Dir(opts.DSN), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dialector = sqlite.Open(opts.DSN)
	case DriverPostgres:
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver: %s", opts.Driver)
	}

	// Configure custom logger to ignore record not found errors
	newLogger := logger.New(
		opts.Log,
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", opts.Driver, err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the history schema
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Run{})
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
