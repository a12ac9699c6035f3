package store

import (
	"context"
	"fmt"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS page_visits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		visited_at TEXT NOT NULL,
		user_agent TEXT,
		ip_address TEXT,
		referrer TEXT,
		referrer_platform TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_page_visits_visited_at ON page_visits(visited_at);`,
	`CREATE INDEX IF NOT EXISTS idx_page_visits_platform ON page_visits(referrer_platform);`,
	`CREATE TABLE IF NOT EXISTS link_clicks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		clicked_at TEXT NOT NULL,
		link_name TEXT NOT NULL,
		link_url TEXT NOT NULL,
		user_agent TEXT,
		ip_address TEXT,
		referrer TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_link_clicks_clicked_at ON link_clicks(clicked_at);`,
	`CREATE INDEX IF NOT EXISTS idx_link_clicks_link_name ON link_clicks(link_name);`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS page_visits (
		id BIGSERIAL PRIMARY KEY,
		visited_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		user_agent TEXT,
		ip_address TEXT,
		referrer TEXT,
		referrer_platform TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_page_visits_visited_at ON page_visits(visited_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_page_visits_platform ON page_visits(referrer_platform);`,
	`CREATE TABLE IF NOT EXISTS link_clicks (
		id BIGSERIAL PRIMARY KEY,
		clicked_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		link_name TEXT NOT NULL,
		link_url TEXT NOT NULL,
		user_agent TEXT,
		ip_address TEXT,
		referrer TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_link_clicks_clicked_at ON link_clicks(clicked_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_link_clicks_link_name ON link_clicks(link_name);`,
}

// Migrate ensures schema exists
func (s *SQL) Migrate(ctx context.Context) error {
	stmts := sqliteSchema
	if s.dialect == Postgres {
		stmts = postgresSchema
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate %s: %w", s.dialect, err)
		}
	}
	return nil
}

// SchemaReady reports ErrSchemaMissing when either event table is absent.
func (s *SQL) SchemaReady(ctx context.Context) error {
	for _, table := range []string{"page_visits", "link_clicks"} {
		rows, err := s.db.QueryContext(ctx, "SELECT id FROM "+table+" LIMIT 1")
		if err != nil {
			return fmt.Errorf("check %s: %w", table, schemaErr(err))
		}
		rows.Close()
	}
	return nil
}
