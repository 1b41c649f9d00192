package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Celag1/logicqp-sub003/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options selects the database driver: "sqlite" (Path) or "postgres" (DSN).
type Options struct {
	Driver string
	Path   string
	DSN    string
}

// Open connects to the configured database and migrates the report engine
// schema. The returned handle is passed to components explicitly; there is no
// package-level singleton.
func Open(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case "postgres":
		dialector = postgres.Open(opts.DSN)
	case "sqlite", "":
		if dir := filepath.Dir(opts.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %v", err)
			}
		}
		dialector = sqlite.Open(opts.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the report engine tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.ReportTemplate{},
		&models.ScheduledReport{},
		&models.ReportExecution{},
		&models.Sale{},
		&models.Product{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %v", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %v", err)
	}
	return sqlDB.Close()
}
