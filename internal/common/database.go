package common

import (
	"context"
	"fmt"
	"time"

	"github.com/stitchmusic/music-api/pkg/config"
	"github.com/stitchmusic/music-api/pkg/types"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM database connection
type Database struct {
	*gorm.DB
}

// NewDatabase creates a new database connection
func NewDatabase(cfg *config.DatabaseConfig, logCfg *config.LoggingConfig) (*Database, error) {
	dsn := cfg.DatabaseURL()

	logLevel := logger.Warn
	if logCfg != nil && logCfg.Level == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Database{DB: db}, nil
}

// Migrate creates or updates the tables owned by this service
func (db *Database) Migrate() error {
	return db.AutoMigrate(
		&types.Track{},
		&types.UploadSession{},
		&types.Like{},
		&types.Comment{},
	)
}

// Ping checks that the database is reachable
func (db *Database) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (db *Database) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
