// Package db provides database and Redis connectivity for webforge.
package db

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"webforge/internal/logging"
	"webforge/pkg/models"
)

// Open connects to Postgres when dsn is set, otherwise falls back to the
// embedded sqlite store at sqlitePath.
func Open(dsn, sqlitePath string, production bool) (*gorm.DB, error) {
	logLevel := logger.Silent
	if !production {
		logLevel = logger.Warn
	}
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var (
		conn *gorm.DB
		err  error
	)
	if dsn != "" {
		conn, err = gorm.Open(postgres.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		logging.S().Info("connected to postgres")
	} else {
		conn, err = gorm.Open(sqlite.Open(sqlitePath), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logging.S().Infow("using embedded sqlite store", "path", sqlitePath)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return conn, nil
}

// Migrate creates or updates the schema for all persisted models.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Requirement{},
		&models.BuildAttempt{},
		&models.Deployment{},
		&models.ChatMessage{},
		&models.AICall{},
	)
}
