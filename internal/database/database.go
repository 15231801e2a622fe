// Package database opens the gorm handle backing the entry store. Two
// backends share one store implementation: sqlite for single-node
// deployments and postgres for client-server ones, selected by DB_DRIVER.
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opnlab/query-proxy/internal/config"
	"github.com/opnlab/query-proxy/internal/models"
)

func New(logger *logrus.Logger, cfg *config.Config) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	switch cfg.DBDriver {
	case "postgres":
		db, err = openPostgres(logger, cfg)
	case "sqlite":
		db, err = openSQLite(logger, cfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.Entry{}, &models.AccessLog{}, &models.QueryTrace{}); err != nil {
		logger.WithError(err).Error("Database migration failed")
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return db, nil
}

func openPostgres(logger *logrus.Logger, cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword,
		cfg.PostgresDatabase, cfg.PostgresSSLMode)

	log := logger.WithFields(logrus.Fields{
		"component": "database",
		"driver":    "postgres",
		"host":      cfg.PostgresHost,
		"database":  cfg.PostgresDatabase,
	})

	var db *gorm.DB
	var err error
	const maxRetries = 5
	retryDelay := 2 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			break
		}

		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err,
		}).Warn("Database connection failed")

		if attempt < maxRetries {
			time.Sleep(retryDelay)
			retryDelay *= 2
		}
	}

	if err != nil {
		log.WithError(err).Error("Failed to connect to database after retries")
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	log.Info("Database connection established")
	return db, nil
}

func openSQLite(logger *logrus.Logger, cfg *config.Config) (*gorm.DB, error) {
	log := logger.WithFields(logrus.Fields{
		"component": "database",
		"driver":    "sqlite",
		"path":      cfg.SQLitePath,
	})

	db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
	if err != nil {
		log.WithError(err).Error("Failed to open database")
		return nil, fmt.Errorf("database open failed: %w", err)
	}

	log.Info("Database connection established")
	return db, nil
}
