package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/installments/backend/internal/infrastructure/config"
	"github.com/installments/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database owns the gorm handle and its connection pool
type Database struct {
	DB *gorm.DB
}

// DatabaseOption configures NewDatabase
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	logger    logger.Interface
	dialector gorm.Dialector
}

// WithGormLogger routes gorm's SQL logging through l
func WithGormLogger(l logger.Interface) DatabaseOption {
	return func(o *databaseOptions) { o.logger = l }
}

// WithDialector replaces the postgres dialector built from the config
func WithDialector(d gorm.Dialector) DatabaseOption {
	return func(o *databaseOptions) { o.dialector = d }
}

// NewDatabase connects to postgres, sizes the pool from cfg and pings once.
// Timestamps are written in UTC.
func NewDatabase(cfg *config.DatabaseConfig, opts ...DatabaseOption) (*Database, error) {
	o := databaseOptions{logger: logger.Default.LogMode(logger.Silent)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dialector == nil {
		o.dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(o.dialector, &gorm.Config{
		Logger:                 o.logger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		DisableAutomaticPing:   true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Database{DB: db}, nil
}

// AllModels lists every persistence model, parents before children
func AllModels() []any {
	return []any{
		&models.CustomerModel{},
		&models.ContractModel{},
		&models.InstallmentModel{},
		&models.NotificationModel{},
		&models.SettingModel{},
	}
}

// AutoMigrate creates or updates the tables of every model. Production
// schemas are managed by cmd/migrate; this serves development and tests.
func (d *Database) AutoMigrate(ctx context.Context) error {
	if err := d.DB.WithContext(ctx).AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (d *Database) sqlDB() (*sql.DB, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	return sqlDB, nil
}

// PingContext checks the connection; the readiness probe calls it
func (d *Database) PingContext(ctx context.Context) error {
	sqlDB, err := d.sqlDB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool
func (d *Database) Close() error {
	sqlDB, err := d.sqlDB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
