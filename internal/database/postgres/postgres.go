// Package postgres provides the PostgreSQL-backed implementation of the
// database interfaces. Descriptors are stored in a pgvector column.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/patrikzak/attendo/internal/config"
	_ "github.com/lib/pq"
)

// Pool manages a PostgreSQL connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new PostgreSQL connection pool.
func NewPool(cfg *config.DatabaseConfig) (*Pool, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Pool{db: db}, nil
}

// DB returns the underlying sql.DB for direct access.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// QueryRow executes a query that returns a single row.
func (p *Pool) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return p.db.QueryRowContext(ctx, query, args...)
}

// Query executes a query that returns rows.
func (p *Pool) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return rows, nil
}

// Exec executes a query that doesn't return rows.
func (p *Pool) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	result, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing statement: %w", err)
	}
	return result, nil
}

// Store is the PostgreSQL-backed database.Store.
type Store struct {
	pool *Pool
}

// NewStore creates a store on top of an existing pool.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Initialize connects to PostgreSQL, runs pending migrations and seeds the
// default attendance policy.
func Initialize(cfg *config.DatabaseConfig, defaults config.PolicyDefaults) (*Store, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}

	pool, err := NewPool(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL pool: %w", err)
	}

	ctx := context.Background()
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store := NewStore(pool)
	if err := store.seedSettings(ctx, defaults); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to seed settings: %w", err)
	}

	return store, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}
