package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	// Postgres driver
	_ "github.com/lib/pq"

	"github.com/Alias1177/RegimeTrader/internal/model"
	"github.com/Alias1177/RegimeTrader/internal/provider"
)

var _ provider.Store = (*DB)(nil)

// DB represents a database connection
type DB struct {
	*sql.DB
	now func() time.Time
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the params as a lib/pq connection string.
func (p ConnectionParams) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	db, err := sql.Open("postgres", params.DSN())
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return Wrap(db)
}

// Wrap uses an already opened connection and makes sure the cache table exists.
func Wrap(db *sql.DB) (*DB, error) {
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return &DB{DB: db, now: time.Now}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS price_bar_cache (
			cache_key TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

// Get returns the cached series for key, or provider.ErrCacheMiss when absent or expired.
func (db *DB) Get(ctx context.Context, key provider.Key) (model.Series, error) {
	var payload string
	err := db.QueryRowContext(ctx, `
		SELECT payload
		FROM price_bar_cache
		WHERE cache_key = $1 AND expires_at > $2
	`, key.String(), db.now()).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Series{}, provider.ErrCacheMiss
		}
		return model.Series{}, err
	}

	var series model.Series
	if err := json.Unmarshal([]byte(payload), &series); err != nil {
		return model.Series{}, fmt.Errorf("decoding cached series %s: %w", key, err)
	}
	return series, nil
}

// Set upserts the series for key. A non-positive ttl stores it for a year.
func (db *DB) Set(ctx context.Context, key provider.Key, series model.Series, ttl time.Duration) error {
	payload, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("encoding series: %w", err)
	}
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	now := db.now()

	_, err = db.ExecContext(ctx, `
		INSERT INTO price_bar_cache (cache_key, payload, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cache_key)
		DO UPDATE SET
			payload = EXCLUDED.payload,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`, key.String(), string(payload), now, now.Add(ttl))
	return err
}

// PurgeExpired deletes expired cache rows and returns how many were removed.
func (db *DB) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM price_bar_cache WHERE expires_at <= $1`, db.now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
