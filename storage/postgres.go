package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	pingAttempts = 10
	pingDelay    = 2 * time.Second
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// openPostgres opens dsn, waits for the server to accept connections and
// brings the schema up to date. The wait matters when the database container
// starts alongside the harvester.
func openPostgres(dsn string) (*sqlx.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < pingAttempts; i++ {
		if err = sqlDB.Ping(); err == nil {
			break
		}
		time.Sleep(pingDelay)
	}
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	if err := runMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return sqlx.NewDb(sqlDB, "postgres"), nil
}

// runMigrations applies the embedded migrations over a dedicated connection,
// so closing the migrator leaves the pool open.
func runMigrations(db *sql.DB) error {
	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("postgres: migration connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("postgres: migration driver: %w", err)
	}
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("postgres: migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("postgres: migration instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}
