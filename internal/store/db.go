package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // registers the "postgres" database/sql driver

	"github.com/vpp-platform/battery-service/migrations"
)

const defaultConnectTimeout = 10 * time.Second

// PoolConfig configures the database/sql connection pool.
type PoolConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MigrationResult reports the schema version after migrations ran.
type MigrationResult struct {
	Version uint
	Dirty   bool
}

// Open connects to PostgreSQL and verifies the connection with a ping.
func Open(ctx context.Context, cfg PoolConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// RunMigrations applies the embedded migrations. It uses a dedicated
// connection so db stays open afterwards.
func RunMigrations(ctx context.Context, db *sql.DB) (MigrationResult, error) {
	src, err := iofs.New(migrations.Postgres, "postgres")
	if err != nil {
		return MigrationResult{}, fmt.Errorf("loading embedded migrations: %w", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = src.Close()
		return MigrationResult{}, fmt.Errorf("acquiring migration connection: %w", err)
	}

	driver, err := migratepg.WithConnection(ctx, conn, &migratepg.Config{})
	if err != nil {
		_ = src.Close()
		_ = conn.Close()
		return MigrationResult{}, fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = src.Close()
		_ = driver.Close()
		return MigrationResult{}, fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return MigrationResult{}, fmt.Errorf("applying migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrationResult{}, fmt.Errorf("reading migration version: %w", err)
	}
	return MigrationResult{Version: version, Dirty: dirty}, nil
}
