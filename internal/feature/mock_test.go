package feature

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, name string, lat, lon float64) (uuid.UUID, error) {
	args := m.Called(ctx, name, lat, lon)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockStore) Process(ctx context.Context, id uuid.UUID, bufferM float64) (bool, error) {
	args := m.Called(ctx, id, bufferM)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *mockStore) GetFeature(ctx context.Context, id uuid.UUID) (*Feature, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Feature), args.Error(1)
}

func (m *mockStore) Footprint(ctx context.Context, id uuid.UUID) (*Footprint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Footprint), args.Error(1)
}

func (m *mockStore) Near(ctx context.Context, lat, lon, radiusM float64) ([]Match, error) {
	args := m.Called(ctx, lat, lon, radiusM)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Match), args.Error(1)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
