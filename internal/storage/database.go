// Package storage keeps learner dashboard data in a local SQL database.
package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// DriverNameSQLite identifies the SQLite driver implementation.
	DriverNameSQLite = "sqlite"
	// DefaultDataSourceName is the database file used when none is configured.
	DefaultDataSourceName = "learner_dashboard.db"

	errorMessageMissingDatabaseDriverName = "storage: missing database driver name"
	errorMessageUnsupportedDatabaseDriver = "storage: unsupported database driver"
	errorMessageMissingDataSourceName     = "storage: missing database data source name"
	errorMessageOpenDatabase              = "storage: open database"
	errorMessageOpenSQLiteDatabase        = "storage: open sqlite database"
	errorMessageMigrate                   = "storage: migrate"
)

var (
	// ErrMissingDatabaseDriverName indicates the driver name was omitted.
	ErrMissingDatabaseDriverName = errors.New(errorMessageMissingDatabaseDriverName)
	// ErrUnsupportedDatabaseDriver indicates a driver other than sqlite.
	ErrUnsupportedDatabaseDriver = errors.New(errorMessageUnsupportedDatabaseDriver)
	// ErrMissingDataSourceName indicates the data source name was omitted.
	ErrMissingDataSourceName = errors.New(errorMessageMissingDataSourceName)
)

type databaseOpener func(Config) (*gorm.DB, error)

var databaseOpeners = map[string]databaseOpener{
	DriverNameSQLite: openSQLiteDatabase,
}

// Config selects the database driver and data source.
type Config struct {
	DriverName     string
	DataSourceName string
	// Quiet silences gorm's own logger.
	Quiet bool
}

// OpenDatabase opens the configured database.
func OpenDatabase(configuration Config) (*gorm.DB, error) {
	driverName := strings.ToLower(strings.TrimSpace(configuration.DriverName))
	if driverName == "" {
		return nil, ErrMissingDatabaseDriverName
	}

	opener, driverSupported := databaseOpeners[driverName]
	if !driverSupported {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDatabaseDriver, driverName)
	}

	database, openErr := opener(Config{
		DriverName:     driverName,
		DataSourceName: strings.TrimSpace(configuration.DataSourceName),
		Quiet:          configuration.Quiet,
	})
	if openErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageOpenDatabase, openErr)
	}
	return database, nil
}

func openSQLiteDatabase(configuration Config) (*gorm.DB, error) {
	if configuration.DataSourceName == "" {
		return nil, ErrMissingDataSourceName
	}

	gormConfig := &gorm.Config{}
	if configuration.Quiet {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	}
	database, openErr := gorm.Open(sqlite.Open(configuration.DataSourceName), gormConfig)
	if openErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageOpenSQLiteDatabase, openErr)
	}
	return database, nil
}

// AutoMigrate creates or updates the dashboard tables.
func AutoMigrate(database *gorm.DB) error {
	if migrateErr := database.AutoMigrate(&ProgramRecord{}, &CertificateRecord{}, &SidebarRecord{}); migrateErr != nil {
		return fmt.Errorf("%s: %w", errorMessageMigrate, migrateErr)
	}
	return nil
}

// NewID generates a new globally unique identifier.
func NewID() string {
	return uuid.NewString()
}
