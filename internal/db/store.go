// Package db implements the local-database components: the match ladder,
// the search log / cache coherence table, and the writeback stage. All
// three share one *sql.DB, opened the usual database/sql + lib/pq way.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// ErrNoDatabaseURL is returned when no connection string is configured.
var ErrNoDatabaseURL = errors.New("database url not set")

// Store wraps the shared *sql.DB and the atlas schema's migrations.
type Store struct {
	DB *sql.DB
}

// Open opens a Postgres connection and ensures the fixed schema
// exists, following internal/store/store.go's connection-pool tuning and
// ping-then-migrate sequence.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, ErrNoDatabaseURL
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	s := &Store{DB: conn}
	if err := s.Migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// Migrate ensures the atlas schema exists.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("db: store not initialized")
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS atlas2 (
	item_no BIGSERIAL PRIMARY KEY,
	key_name TEXT NOT NULL,
	variant TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	admin2 TEXT NOT NULL DEFAULT '',
	admin1 TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL,
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	elevation DOUBLE PRECISION,
	time_zone TEXT NOT NULL DEFAULT '',
	postal_code TEXT NOT NULL DEFAULT '',
	rank SMALLINT NOT NULL DEFAULT 0,
	feature_type TEXT NOT NULL DEFAULT '',
	sound TEXT NOT NULL DEFAULT '',
	source INTEGER NOT NULL DEFAULT 0,
	geonames_id BIGINT NOT NULL DEFAULT 0
);`,
		`CREATE INDEX IF NOT EXISTS atlas2_key_name_idx ON atlas2(key_name);`,
		`CREATE INDEX IF NOT EXISTS atlas2_postal_code_idx ON atlas2(postal_code);`,
		`CREATE INDEX IF NOT EXISTS atlas2_sound_idx ON atlas2(sound);`,
		`CREATE INDEX IF NOT EXISTS atlas2_geonames_id_idx ON atlas2(geonames_id);`,
		`CREATE TABLE IF NOT EXISTS atlas_alt_names (
	alt_key_name TEXT NOT NULL,
	atlas_key_name TEXT NOT NULL,
	alt_name TEXT NOT NULL,
	misspelling CHAR(1) NOT NULL DEFAULT 'N',
	specific_item2 BIGINT
);`,
		`CREATE INDEX IF NOT EXISTS atlas_alt_names_alt_key_name_idx ON atlas_alt_names(alt_key_name);`,
		`CREATE TABLE IF NOT EXISTS atlas_searches2 (
	search_string TEXT PRIMARY KEY,
	extended BOOLEAN NOT NULL DEFAULT FALSE,
	hits INTEGER NOT NULL DEFAULT 0,
	matches INTEGER NOT NULL DEFAULT 0,
	time_stamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
		`CREATE TABLE IF NOT EXISTS atlas_log (
	time_stamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	warning BOOLEAN NOT NULL DEFAULT FALSE,
	message TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS zone_lookup (
	location TEXT PRIMARY KEY,
	zones TEXT NOT NULL
);`,
	}

	for _, stmt := range statements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("db: migrate: %w", err)
		}
	}
	return nil
}

// Log writes one line to the atlas_log table: the same single-line
// diagnostics alog prints, but persisted for later review.
func (s *Store) Log(ctx context.Context, warning bool, message string) {
	if s == nil || s.DB == nil {
		return
	}
	_, _ = s.DB.ExecContext(ctx, `INSERT INTO atlas_log (warning, message) VALUES ($1, $2)`, warning, message)
}
