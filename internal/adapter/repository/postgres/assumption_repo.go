package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theoba/bp-invest/internal/adapter/repository/sqlrow"
	"github.com/theoba/bp-invest/internal/domain"
)

// assumptionRepository implements domain.AssumptionRepository
type assumptionRepository struct {
	db *DB
}

// NewAssumptionRepository creates a new assumption repository
func NewAssumptionRepository(db *DB) domain.AssumptionRepository {
	return &assumptionRepository{db: db}
}

// Create inserts a new assumption record
func (r *assumptionRepository) Create(ctx context.Context, record *domain.AssumptionRecord) error {
	placeholders := make([]string, len(sqlrow.Columns)+1)
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`
		INSERT INTO assumption_records (created_at, %s)
		VALUES (%s)
	`, sqlrow.ColumnList(), strings.Join(placeholders, ", "))

	args := append([]any{record.CreatedAt}, sqlrow.Args(record)...)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert assumption record: %w", err)
	}

	return nil
}

// GetLatest retrieves the most recent record of a property
func (r *assumptionRepository) GetLatest(ctx context.Context, propertyID uuid.UUID) (*domain.AssumptionRecord, error) {
	query := fmt.Sprintf(`
		SELECT created_at, %s
		FROM assumption_records
		WHERE property_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, sqlrow.ColumnList())

	var createdAt time.Time
	record, err := sqlrow.Scan(r.db.QueryRowContext(ctx, query, propertyID), &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no assumption record for property %s: %w", propertyID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest assumption record: %w", err)
	}
	record.CreatedAt = createdAt.UTC()

	return record, nil
}

// ListProperties returns the identity of the latest record of every property
func (r *assumptionRepository) ListProperties(ctx context.Context) ([]*domain.PropertySummary, error) {
	query := `
		SELECT property_id, label, address, city, created_at
		FROM (
			SELECT DISTINCT ON (property_id) property_id, label, address, city, created_at
			FROM assumption_records
			ORDER BY property_id, created_at DESC, id DESC
		) latest
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	var properties []*domain.PropertySummary
	for rows.Next() {
		var p domain.PropertySummary
		if err := rows.Scan(&p.PropertyID, &p.Label, &p.Address, &p.City, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		properties = append(properties, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating properties: %w", err)
	}

	return properties, nil
}
