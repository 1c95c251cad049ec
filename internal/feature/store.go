package feature

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the operations on features and footprints.
// Implementations assume inputs are already validated.
type Store interface {
	// Create inserts a queued feature at (lat, lon) and returns its new id.
	Create(ctx context.Context, name string, lat, lon float64) (uuid.UUID, error)

	// Process buffers the feature's location by bufferM meters, upserts its
	// footprint, and marks it done in one transaction. It returns false,
	// with no writes, when id matches no feature.
	Process(ctx context.Context, id uuid.UUID, bufferM float64) (bool, error)

	// Get returns the feature with its footprint area, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Record, error)

	// GetFeature returns the full feature row, or ErrNotFound.
	GetFeature(ctx context.Context, id uuid.UUID) (*Feature, error)

	// Footprint returns the stored footprint polygon, or ErrNotFound.
	Footprint(ctx context.Context, id uuid.UUID) (*Footprint, error)

	// Near returns features within radiusM meters of (lat, lon), nearest first.
	Near(ctx context.Context, lat, lon, radiusM float64) ([]Match, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
