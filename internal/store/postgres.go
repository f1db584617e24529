// Package store persists the canonical snapshot in Postgres.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"hemlist/engine/internal/list"
)

func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(10)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the items table, recording the schema version the
// same way the migrations table pattern does so future versions can add
// steps.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			checked BOOLEAN NOT NULL DEFAULT FALSE,
			position INTEGER NOT NULL
		)`,
		`INSERT INTO schema_migrations (version) VALUES ('001_items')
			ON CONFLICT (version) DO NOTHING`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Load reads the persisted snapshot in position order.
func (s *PostgresStore) Load(ctx context.Context) ([]list.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, checked, position FROM items ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	defer rows.Close()

	var items []list.Item
	for rows.Next() {
		var item list.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Checked, &item.Position); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return items, nil
}

// Save replaces the persisted snapshot transactionally, so a crash
// mid-write never leaves a half-updated table.
func (s *PostgresStore) Save(ctx context.Context, items []list.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear snapshot: %w", err)
	}
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO items (id, name, checked, position)
			VALUES ($1, $2, $3, $4)
		`, item.ID, item.Name, item.Checked, item.Position); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}
