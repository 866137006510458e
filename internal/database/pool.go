// Package database opens the gorm connection pool backing the task store.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"task-matrix/internal/config"
	"task-matrix/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNoConnection = errors.New("database connection not initialised")

type PoolConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	LogLevel        logger.LogLevel
	SlowThreshold   time.Duration
	Logger          zerolog.Logger
}

type DatabasePool struct {
	DB     *gorm.DB
	config *PoolConfig
}

func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		Driver:          config.DriverPostgres,
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		LogLevel:        logger.Warn,
		SlowThreshold:   200 * time.Millisecond,
		Logger:          zerolog.Nop(),
	}
}

// PoolConfigFrom maps the application configuration onto a pool config.
func PoolConfigFrom(cfg *config.Config, l zerolog.Logger) *PoolConfig {
	pc := DefaultPoolConfig()
	pc.Driver = cfg.Database.Driver
	pc.DSN = cfg.GetDatabaseDSN()
	pc.MaxOpenConns = cfg.Database.MaxOpenConns
	pc.MaxIdleConns = cfg.Database.MaxIdleConns
	pc.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
	pc.ConnMaxIdleTime = cfg.Database.ConnMaxIdleTime
	pc.Logger = l
	if !cfg.IsProduction() {
		pc.LogLevel = logger.Info
	}
	return pc
}

func (c *PoolConfig) validate() error {
	if c == nil || c.DSN == "" {
		return errors.New("database DSN is required")
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return errors.New("connection pool sizes must not be negative")
	}
	if c.ConnMaxLifetime < 0 || c.ConnMaxIdleTime < 0 {
		return errors.New("connection lifetimes must not be negative")
	}
	return nil
}

func (c *PoolConfig) dialector() (gorm.Dialector, error) {
	switch c.Driver {
	case config.DriverPostgres, "":
		return postgres.Open(c.DSN), nil
	case config.DriverSQLite:
		return sqlite.Open(c.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

// inMemory reports whether the DSN names a private SQLite memory database,
// which only exists for the lifetime of a single connection.
func (c *PoolConfig) inMemory() bool {
	return c.Driver == config.DriverSQLite && strings.Contains(c.DSN, ":memory:")
}

func NewDatabasePool(cfg *PoolConfig) (*DatabasePool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dialector, err := cfg.dialector()
	if err != nil {
		return nil, err
	}

	gormLogger := logger.New(&cfg.Logger, logger.Config{
		SlowThreshold:             cfg.SlowThreshold,
		LogLevel:                  cfg.LogLevel,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            !cfg.inMemory(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.inMemory() {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cfg.Logger.Info().
		Str("driver", cfg.Driver).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("database pool initialised")

	return &DatabasePool{DB: db, config: cfg}, nil
}

// Migrate creates or updates the schema for every persisted entity.
func (p *DatabasePool) Migrate() error {
	if p.DB == nil {
		return ErrNoConnection
	}
	if err := p.DB.AutoMigrate(&models.User{}, &models.Token{}, &models.Task{}, &models.TaskStatistics{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (p *DatabasePool) Stats() map[string]interface{} {
	if p.DB == nil {
		return map[string]interface{}{"error": ErrNoConnection.Error()}
	}

	sqlDB, err := p.DB.DB()
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}

	stats := sqlDB.Stats()
	return map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration.String(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
	}
}

func (p *DatabasePool) Health(ctx context.Context) error {
	if p.DB == nil {
		return ErrNoConnection
	}

	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func (p *DatabasePool) Close() error {
	if p.DB == nil {
		return nil
	}

	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
