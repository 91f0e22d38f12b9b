package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"code-review-market/config"
	"code-review-market/models"
)

// Open connects to Postgres, configures the pool and runs migrations.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if cfg.IsDevelopment() {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         NewGormLogger(log, level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info("connected to database")

	if err := Migrate(db, log); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// NewGormLogger routes gorm's statement log through zap.
func NewGormLogger(log *zap.Logger, level logger.LogLevel) logger.Interface {
	return logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// Migrate creates or updates all tables plus the constraints AutoMigrate
// cannot express. It works against both postgres and sqlite.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.ReviewerProfile{},
		&models.ReviewRequest{},
		&models.Quote{},
		&models.Review{},
		&models.Rating{},
		&models.Notification{},
		&models.Message{},
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			log.Error("migration failed", zap.String("pg_code", pgErr.Code), zap.Error(err))
		} else {
			log.Error("migration failed", zap.Error(err))
		}
		return err
	}

	if err := ensureSingleAcceptedQuote(db); err != nil {
		log.Error("failed to create accepted quote index", zap.Error(err))
		return err
	}

	log.Info("database migrations completed")
	return nil
}

// ensureSingleAcceptedQuote allows at most one accepted quote per request.
func ensureSingleAcceptedQuote(db *gorm.DB) error {
	return db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_quotes_one_accepted ON quotes (request_id) WHERE status = 'accepted'",
	).Error
}
