package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/geofeatures/internal/db"
	"github.com/sells-group/geofeatures/internal/feature"
)

// openPool validates the config and connects to the store.
func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := db.Connect(ctx, cfg.Store.DatabaseURL, &db.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	})
	if err != nil {
		return nil, eris.Wrap(err, "connect store")
	}
	return pool, nil
}

func newService(pool db.Pool) *feature.Service {
	return feature.NewService(feature.NewPostgresStore(pool), cfg.Feature.DefaultBufferM)
}
