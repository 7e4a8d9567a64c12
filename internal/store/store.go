// Package store persists invoices with gorm.
//
// SQLite (github.com/glebarez/sqlite, pure Go) is the default driver; PostgreSQL
// is selected with DB_DRIVER=postgres. The invoice_number column carries a
// unique index so that two concurrent first-time uploads of the same invoice
// cannot both create a row.
package store

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	gormprometheus "gorm.io/plugin/prometheus"

	"invoicehub/internal/logger"
	"invoicehub/pkg/models"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and tunes the database.
type Config struct {
	Driver string
	DSN    string

	// Metrics registers gorm connection pool collectors on the default prometheus registry.
	Metrics bool

	// SlowQueryThreshold is the duration above which queries are logged as slow.
	SlowQueryThreshold time.Duration
}

// Dialect returns the gorm dialector for cfg.
func Dialect(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return sqlite.Open(cfg.DSN), nil
	case DriverPostgres:
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported %s database driver", cfg.Driver)
	}
}

// Open connects to the database and migrates the invoice schema.
func Open(cfg Config) (*gorm.DB, error) {
	const op = "Open"

	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, &StoreError{Op: op, Err: err}
	}

	threshold := cfg.SlowQueryThreshold
	if threshold <= 0 {
		threshold = 500 * time.Millisecond
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newQueryLogger(threshold),
	})
	if err != nil {
		return nil, &StoreError{Op: op, Err: err, Details: "driver " + cfg.Driver}
	}

	if cfg.Driver == DriverSQLite || cfg.Driver == "" {
		// One connection serializes writers and keeps ":memory:" databases alive.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, &StoreError{Op: op, Err: err}
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if cfg.Metrics {
		if err := db.Use(gormprometheus.New(gormprometheus.Config{
			DBName:          "invoicehub",
			RefreshInterval: 15,
		})); err != nil {
			return nil, &StoreError{Op: op, Err: err, Details: "register database metrics"}
		}
	}

	if err := db.AutoMigrate(&models.Invoice{}); err != nil {
		return nil, &StoreError{Op: op, Err: err, Details: "migrate invoices"}
	}

	log := logger.WithComponent("store")
	log.Info().Str("driver", dialector.Name()).Bool("metrics", cfg.Metrics).Msg("Database ready")

	return db, nil
}

// Close releases the connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newQueryLogger(slow time.Duration) gormlogger.Interface {
	l := logger.WithComponent("gorm")
	return gormlogger.New(&l, gormlogger.Config{
		SlowThreshold:             slow,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
