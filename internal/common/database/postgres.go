// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tour-workers/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	dsn := cfg.GetDSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Schema creates the catalog tables. List-valued columns hold JSON text arrays.
const Schema = `
CREATE TABLE IF NOT EXISTS tours (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	destinations TEXT NOT NULL DEFAULT '[]',
	duration     DOUBLE PRECISION NOT NULL,
	price        DOUBLE PRECISION NOT NULL,
	currency     TEXT NOT NULL DEFAULT 'TND',
	category     TEXT NOT NULL,
	difficulty   TEXT NOT NULL DEFAULT 'easy',
	group_min    INTEGER NOT NULL DEFAULT 1,
	group_max    INTEGER NOT NULL DEFAULT 20,
	includes     TEXT NOT NULL DEFAULT '[]',
	highlights   TEXT NOT NULL DEFAULT '[]',
	images       TEXT NOT NULL DEFAULT '[]',
	rating       DOUBLE PRECISION NOT NULL DEFAULT 0,
	review_count INTEGER NOT NULL DEFAULT 0,
	availability BOOLEAN NOT NULL DEFAULT TRUE,
	seasonality  TEXT NOT NULL DEFAULT '["all"]',
	tags         TEXT NOT NULL DEFAULT '[]',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS customers (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	phone         TEXT,
	budget        DOUBLE PRECISION NOT NULL DEFAULT 0,
	duration      DOUBLE PRECISION NOT NULL DEFAULT 0,
	interests     TEXT NOT NULL DEFAULT '[]',
	travel_style  TEXT NOT NULL DEFAULT '',
	group_size    INTEGER NOT NULL DEFAULT 1,
	past_bookings TEXT NOT NULL DEFAULT '[]',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS bookings (
	id               TEXT PRIMARY KEY,
	customer_id      TEXT NOT NULL REFERENCES customers(id),
	tour_id          TEXT NOT NULL REFERENCES tours(id),
	status           TEXT NOT NULL DEFAULT 'pending',
	booking_date     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	travel_date      TIMESTAMPTZ,
	number_of_people INTEGER NOT NULL DEFAULT 1,
	total_price      DOUBLE PRECISION NOT NULL,
	currency         TEXT NOT NULL DEFAULT 'TND',
	special_requests TEXT,
	payment_status   TEXT NOT NULL DEFAULT 'pending',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_bookings_customer ON bookings(customer_id);
CREATE INDEX IF NOT EXISTS idx_tours_category ON tours(category);
`

// Migrate applies Schema. It is idempotent.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// GetDB returns the underlying *sql.DB for compatibility
func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
