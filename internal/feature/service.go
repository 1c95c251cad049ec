package feature

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Service validates requests and runs them against a Store. It holds no
// state besides its collaborators.
type Service struct {
	store          Store
	defaultBufferM float64
}

// NewService creates a Service. A non-positive defaultBufferM falls back to
// DefaultBufferM.
func NewService(store Store, defaultBufferM float64) *Service {
	if defaultBufferM <= 0 {
		defaultBufferM = DefaultBufferM
	}
	return &Service{store: store, defaultBufferM: defaultBufferM}
}

// DefaultBuffer returns the buffer distance used when a caller passes none.
func (s *Service) DefaultBuffer() float64 { return s.defaultBufferM }

// Create validates req and inserts a new queued feature.
func (s *Service) Create(ctx context.Context, req CreateRequest) (uuid.UUID, error) {
	req, err := ValidateCreate(req)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := s.store.Create(ctx, req.Name, req.Lat, req.Lon)
	if err != nil {
		return uuid.Nil, err
	}

	zap.L().Debug("feature created",
		zap.String("id", id.String()),
		zap.String("name", req.Name),
		zap.Float64("lat", req.Lat),
		zap.Float64("lon", req.Lon),
	)
	return id, nil
}

// Process computes the footprint of feature id with a buffer of bufferM
// meters. A nil bufferM uses the service default.
func (s *Service) Process(ctx context.Context, id string, bufferM *float64) error {
	fid, err := ParseID(id)
	if err != nil {
		return err
	}
	buffer := s.defaultBufferM
	if bufferM != nil {
		buffer = *bufferM
	}
	if err := ValidateBuffer(buffer); err != nil {
		return err
	}

	ok, err := s.store.Process(ctx, fid, buffer)
	if err != nil {
		return err
	}
	if !ok {
		return eris.Wrapf(ErrNotFound, "feature %s", fid)
	}

	zap.L().Debug("feature processed",
		zap.String("id", fid.String()),
		zap.Float64("buffer_m", buffer),
	)
	return nil
}

// Get returns the feature record for id.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	fid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, fid)
}

// GetFeature returns the full feature row for id.
func (s *Service) GetFeature(ctx context.Context, id string) (*Feature, error) {
	fid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.store.GetFeature(ctx, fid)
}

// Footprint returns the footprint polygon of feature id.
func (s *Service) Footprint(ctx context.Context, id string) (*Footprint, error) {
	fid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.store.Footprint(ctx, fid)
}

// Near returns features within req.RadiusM meters of the reference point,
// nearest first.
func (s *Service) Near(ctx context.Context, req NearRequest) ([]Match, error) {
	if err := ValidateNear(req); err != nil {
		return nil, err
	}
	return s.store.Near(ctx, req.Lat, req.Lon, req.RadiusM)
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
