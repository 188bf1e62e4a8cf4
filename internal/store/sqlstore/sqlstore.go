// Package sqlstore implements the relational storage backend on GORM. It
// supports SQLite (pure Go driver), MySQL and PostgreSQL behind the same
// store contract. This file contains database bootstrapping: driver
// selection, PRAGMAs, pool sizing, naming, tracing and schema migration.
package sqlstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-telegram-store/internal/domain"
	"github.com/tbourn/go-telegram-store/internal/store"
)

// Supported driver names for Options.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Options configures Open.
type Options struct {
	// Driver is one of DriverSQLite, DriverMySQL, DriverPostgres.
	Driver string
	// DSN is the driver-specific connection string (file path for SQLite).
	DSN string
	// TablePrefix is prepended to every physical table name.
	TablePrefix string
	// Tracing enables the GORM OpenTelemetry plugin.
	Tracing bool
}

// SQLStore is the relational store.Store implementation. All methods go
// through the embedded *gorm.DB handle and are safe for concurrent use.
type SQLStore struct {
	db     *gorm.DB
	tables store.Tables
}

// Open connects to the configured database and applies driver-specific
// setup. It does not migrate; call AutoMigrate separately so read-only
// deployments can skip it.
func Open(opts Options) (*SQLStore, error) {
	dialector, err := dialector(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   opts.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Driver, err)
	}

	if opts.Driver == DriverSQLite {
		// PRAGMAs
		db.Exec("PRAGMA journal_mode=WAL;")
		db.Exec("PRAGMA synchronous=NORMAL;")
		db.Exec("PRAGMA foreign_keys=ON;")
		db.Exec("PRAGMA busy_timeout=5000;")
	}

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if opts.Tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, fmt.Errorf("enable tracing: %w", err)
		}
	}

	return &SQLStore{db: db, tables: store.Tables{Prefix: opts.TablePrefix}}, nil
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverSQLite:
		// Fail early if the parent directory does not exist (instead of
		// sqlite "out of memory (14)" on Windows).
		if dir := filepath.Dir(dsn); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, err
			}
		}
		return sqlite.Open(dsn), nil
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// AutoMigrate creates or updates the schema for every persisted entity.
func (s *SQLStore) AutoMigrate() error {
	return s.db.AutoMigrate(
		&domain.Chat{},
		&domain.User{},
		&domain.UserChat{},
		&domain.Message{},
		&domain.EditedMessage{},
		&domain.InlineQuery{},
		&domain.ChosenInlineResult{},
		&domain.CallbackQuery{},
		&domain.TelegramUpdate{},
		&domain.Conversation{},
		&domain.ShortURL{},
		&domain.RequestLimiter{},
	)
}

// Connected reports whether the underlying handle answers a ping.
func (s *SQLStore) Connected() bool {
	if s == nil || s.db == nil {
		return false
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.Ping() == nil
}

// Tables exposes the logical-to-physical name mapping.
func (s *SQLStore) Tables() store.Tables { return s.tables }

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
