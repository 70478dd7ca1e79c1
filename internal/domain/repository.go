package domain

import (
	"context"

	"github.com/google/uuid"
)

// AssumptionRepository defines the interface for assumption record persistence operations
type AssumptionRepository interface {
	// Create stores a new assumption record
	// Records are append-only: a new version of a property is a new record with the same PropertyID
	Create(ctx context.Context, record *AssumptionRecord) error

	// GetLatest retrieves the most recent record (by CreatedAt) of a property
	// Returns an error wrapping ErrNotFound if the property has no record
	GetLatest(ctx context.Context, propertyID uuid.UUID) (*AssumptionRecord, error)

	// ListProperties returns the latest identity of every stored property, most recent first
	ListProperties(ctx context.Context) ([]*PropertySummary, error)
}
