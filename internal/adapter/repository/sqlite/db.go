package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// DB wraps the SQLite connection
type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the SQLite database at path and runs migrations
func NewDB(ctx context.Context, path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between concurrent inserts
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	d := &DB{DB: db}
	if err := d.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

func (db *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS assumption_records (
			id                     TEXT PRIMARY KEY,
			property_id            TEXT NOT NULL,
			created_at             INTEGER NOT NULL,
			label                  TEXT NOT NULL DEFAULT '',
			address                TEXT NOT NULL DEFAULT '',
			city                   TEXT NOT NULL DEFAULT '',
			energy_rating          TEXT NOT NULL DEFAULT '',
			surface_sqm            TEXT NOT NULL DEFAULT '0',
			acquisition_date       TEXT,
			purchase_price         TEXT NOT NULL,
			acquisition_fee_rate   TEXT NOT NULL,
			renovation_cost        TEXT NOT NULL,
			down_payment           TEXT NOT NULL,
			annual_interest_rate   TEXT NOT NULL,
			loan_term_years        INTEGER NOT NULL,
			detention_years        INTEGER NOT NULL,
			sale_fee_rate          TEXT NOT NULL,
			discount_rate          TEXT NOT NULL,
			current_market_value   TEXT NOT NULL,
			monthly_rent           TEXT NOT NULL,
			property_management    TEXT NOT NULL,
			accounting             TEXT NOT NULL,
			co_ownership_fees      TEXT NOT NULL,
			property_tax           TEXT NOT NULL,
			maintenance_rate       TEXT NOT NULL,
			insurance_rate         TEXT NOT NULL,
			market_value_growth    TEXT NOT NULL,
			market_rent_growth     TEXT NOT NULL,
			property_charge_growth TEXT NOT NULL,
			vacancy_rate           TEXT NOT NULL,
			unpaid_rent_rate       TEXT NOT NULL,
			capex_amount           TEXT NOT NULL,
			capex_frequency_years  INTEGER NOT NULL,
			withdrawal_rate        TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assumption_records_property_created
			ON assumption_records (property_id, created_at)`,
	}

	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
