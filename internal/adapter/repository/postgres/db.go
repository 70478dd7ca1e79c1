package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=bpinvest sslmode=disable"
func NewDB(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Migrate creates the schema if it does not exist yet
func (db *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS assumption_records (
			id                     UUID PRIMARY KEY,
			property_id            UUID NOT NULL,
			created_at             TIMESTAMPTZ NOT NULL,
			label                  TEXT NOT NULL DEFAULT '',
			address                TEXT NOT NULL DEFAULT '',
			city                   TEXT NOT NULL DEFAULT '',
			energy_rating          TEXT NOT NULL DEFAULT '',
			surface_sqm            NUMERIC NOT NULL DEFAULT 0,
			acquisition_date       DATE,
			purchase_price         NUMERIC NOT NULL,
			acquisition_fee_rate   NUMERIC NOT NULL,
			renovation_cost        NUMERIC NOT NULL,
			down_payment           NUMERIC NOT NULL,
			annual_interest_rate   NUMERIC NOT NULL,
			loan_term_years        INTEGER NOT NULL,
			detention_years        INTEGER NOT NULL,
			sale_fee_rate          NUMERIC NOT NULL,
			discount_rate          NUMERIC NOT NULL,
			current_market_value   NUMERIC NOT NULL,
			monthly_rent           NUMERIC NOT NULL,
			property_management    NUMERIC NOT NULL,
			accounting             NUMERIC NOT NULL,
			co_ownership_fees      NUMERIC NOT NULL,
			property_tax           NUMERIC NOT NULL,
			maintenance_rate       NUMERIC NOT NULL,
			insurance_rate         NUMERIC NOT NULL,
			market_value_growth    NUMERIC NOT NULL,
			market_rent_growth     NUMERIC NOT NULL,
			property_charge_growth NUMERIC NOT NULL,
			vacancy_rate           NUMERIC NOT NULL,
			unpaid_rent_rate       NUMERIC NOT NULL,
			capex_amount           NUMERIC NOT NULL,
			capex_frequency_years  INTEGER NOT NULL,
			withdrawal_rate        NUMERIC NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assumption_records_property_created
			ON assumption_records (property_id, created_at DESC)`,
	}

	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
