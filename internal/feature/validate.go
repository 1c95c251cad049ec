package feature

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// MaxNameLength matches the width of features.name.
const MaxNameLength = 200

// ValidateCoordinates checks lat ∈ [-90, 90] and lon ∈ [-180, 180].
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return invalid("lat must be within [-90, 90], got %v", lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return invalid("lon must be within [-180, 180], got %v", lon)
	}
	return nil
}

// ValidateDistance checks that a radius or buffer distance is a positive,
// finite number of meters.
func ValidateDistance(field string, meters float64) error {
	if math.IsNaN(meters) || math.IsInf(meters, 0) || meters <= 0 {
		return invalid("%s must be a positive number of meters, got %v", field, meters)
	}
	return nil
}

// MaxBufferM caps the footprint buffer at half the Earth's circumference.
// Larger geography buffers stop being polygons.
const MaxBufferM = 20_000_000.0

// ValidateBuffer checks a footprint buffer distance.
func ValidateBuffer(meters float64) error {
	if err := ValidateDistance("buffer_m", meters); err != nil {
		return err
	}
	if meters > MaxBufferM {
		return invalid("buffer_m must be at most %.0f meters, got %v", MaxBufferM, meters)
	}
	return nil
}

// NormalizeName trims and NFC-normalizes name, rejecting empty or oversized values.
func NormalizeName(name string) (string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return "", invalid("name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", invalid("name exceeds %d characters", MaxNameLength)
	}
	return name, nil
}

// ParseID parses a feature id.
func ParseID(id string) (uuid.UUID, error) {
	fid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, invalid("id %q is not a valid UUID", id)
	}
	return fid, nil
}

// ValidateCreate normalizes and checks a create request.
func ValidateCreate(req CreateRequest) (CreateRequest, error) {
	name, err := NormalizeName(req.Name)
	if err != nil {
		return req, err
	}
	if err := ValidateCoordinates(req.Lat, req.Lon); err != nil {
		return req, err
	}
	req.Name = name
	return req, nil
}

// ValidateNear checks a proximity query.
func ValidateNear(req NearRequest) error {
	if err := ValidateCoordinates(req.Lat, req.Lon); err != nil {
		return err
	}
	return ValidateDistance("radius_m", req.RadiusM)
}
