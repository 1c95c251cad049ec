package feature

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the processing state of a feature.
type Status string

const (
	// StatusQueued is the state of a feature that has no footprint yet.
	StatusQueued Status = "queued"
	// StatusDone means the feature's footprint reflects the latest process call.
	StatusDone Status = "done"
)

// DefaultBufferM is the buffer distance used when the caller gives none.
const DefaultBufferM = 500.0

// SRID is the coordinate reference system of every stored geography.
const SRID = 4326

// Feature is a named point of interest.
type Feature struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Record is the read model returned by Get.
type Record struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Status       Status    `json:"status"`
	BufferAreaM2 *float64  `json:"buffer_area_m2"`
}

// Match is one result of a proximity query.
type Match struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	DistanceM float64   `json:"distance_m"`
}

// Footprint is the buffered polygon of a processed feature, rendered as GeoJSON.
type Footprint struct {
	FeatureID uuid.UUID       `json:"feature_id"`
	Area      json.RawMessage `json:"area"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CreateRequest is the input of Create.
type CreateRequest struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// NearRequest is the input of Near.
type NearRequest struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	RadiusM float64 `json:"radius_m"`
}
