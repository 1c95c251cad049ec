package feature

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/geofeatures/internal/db"
)

const insertFeatureSQL = `
	INSERT INTO features (id, name, location)
	VALUES ($1, $2, ST_GeomFromEWKB($3)::geography)
`

// processFeatureSQL buffers the source point, upserts the footprint, and
// flips status only for the row the upsert returned, all in one statement.
const processFeatureSQL = `
	WITH src AS (
		SELECT id, location
		FROM features
		WHERE id = $1
	),
	buff AS (
		SELECT id, ST_Buffer(location, CAST($2 AS double precision))::geography AS poly
		FROM src
	),
	upsert_fp AS (
		INSERT INTO footprints (feature_id, area, created_at, updated_at)
		SELECT id, poly, now(), now()
		FROM buff
		ON CONFLICT (feature_id) DO UPDATE SET
			area = EXCLUDED.area,
			updated_at = now()
		RETURNING feature_id
	)
	UPDATE features f
	SET status = 'done', updated_at = now()
	WHERE f.id IN (SELECT feature_id FROM upsert_fp)
	RETURNING f.id::text
`

const getRecordSQL = `
	SELECT f.id::text, f.name, f.status,
	       fp.area IS NOT NULL AS has_area,
	       COALESCE(ST_Area(fp.area)::float8, 0) AS buffer_area_m2
	FROM features f
	LEFT JOIN footprints fp ON fp.feature_id = f.id
	WHERE f.id = $1
`

const getFeatureSQL = `
	SELECT id::text, name, status, ST_AsEWKB(location::geometry), attempts, created_at, updated_at
	FROM features
	WHERE id = $1
`

const getFootprintSQL = `
	SELECT feature_id::text, ST_AsEWKB(area::geometry), updated_at
	FROM footprints
	WHERE feature_id = $1 AND area IS NOT NULL
`

const nearSQL = `
	WITH ref AS (
		SELECT ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography AS g
	)
	SELECT f.id::text, f.name, f.status, ST_Distance(f.location, r.g)::float8 AS distance_m
	FROM features f
	CROSS JOIN ref r
	WHERE ST_DWithin(f.location, r.g, CAST($3 AS double precision))
	ORDER BY distance_m ASC
`

// errNoFeature aborts the process transaction when the id matches nothing.
var errNoFeature = eris.New("feature: no such feature")

// PostgresStore implements Store against PostGIS.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, name string, lat, lon float64) (uuid.UUID, error) {
	loc, err := encodePoint(lat, lon)
	if err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	if _, err := s.pool.Exec(ctx, insertFeatureSQL, id, name, loc); err != nil {
		return uuid.Nil, storeErr(err, "feature: create")
	}
	return id, nil
}

// Process implements Store.
func (s *PostgresStore) Process(ctx context.Context, id uuid.UUID, bufferM float64) (bool, error) {
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var updated string
		err := tx.QueryRow(ctx, processFeatureSQL, id, bufferM).Scan(&updated)
		if eris.Is(err, pgx.ErrNoRows) {
			return errNoFeature
		}
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case eris.Is(err, errNoFeature):
		return false, nil
	default:
		return false, storeErr(err, "feature: process")
	}
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	var (
		rec     Record
		rawID   string
		status  string
		hasArea bool
		area    float64
	)
	err := s.pool.QueryRow(ctx, getRecordSQL, id).Scan(&rawID, &rec.Name, &status, &hasArea, &area)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "feature %s", id)
		}
		return nil, storeErr(err, "feature: get")
	}
	if rec.ID, err = parseStoredID(rawID); err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	if hasArea {
		rec.BufferAreaM2 = &area
	}
	return &rec, nil
}

// GetFeature implements Store.
func (s *PostgresStore) GetFeature(ctx context.Context, id uuid.UUID) (*Feature, error) {
	var (
		f      Feature
		rawID  string
		status string
		loc    []byte
	)
	err := s.pool.QueryRow(ctx, getFeatureSQL, id).Scan(
		&rawID, &f.Name, &status, &loc, &f.Attempts, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "feature %s", id)
		}
		return nil, storeErr(err, "feature: get feature")
	}
	if f.ID, err = parseStoredID(rawID); err != nil {
		return nil, err
	}
	if f.Latitude, f.Longitude, err = decodePoint(loc); err != nil {
		return nil, err
	}
	f.Status = Status(status)
	return &f, nil
}

// Footprint implements Store.
func (s *PostgresStore) Footprint(ctx context.Context, id uuid.UUID) (*Footprint, error) {
	var (
		fp    Footprint
		rawID string
		area  []byte
	)
	err := s.pool.QueryRow(ctx, getFootprintSQL, id).Scan(&rawID, &area, &fp.UpdatedAt)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "footprint for feature %s", id)
		}
		return nil, storeErr(err, "feature: get footprint")
	}
	if fp.FeatureID, err = parseStoredID(rawID); err != nil {
		return nil, err
	}
	if fp.Area, err = polygonGeoJSON(area); err != nil {
		return nil, err
	}
	return &fp, nil
}

// Near implements Store.
func (s *PostgresStore) Near(ctx context.Context, lat, lon, radiusM float64) ([]Match, error) {
	rows, err := s.pool.Query(ctx, nearSQL, lon, lat, radiusM)
	if err != nil {
		return nil, storeErr(err, "feature: near")
	}
	defer rows.Close()

	matches := []Match{}
	for rows.Next() {
		var (
			m      Match
			rawID  string
			status string
		)
		if err := rows.Scan(&rawID, &m.Name, &status, &m.DistanceM); err != nil {
			return nil, storeErr(err, "feature: scan near row")
		}
		if m.ID, err = parseStoredID(rawID); err != nil {
			return nil, err
		}
		m.Status = Status(status)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "feature: iterate near rows")
	}
	return matches, nil
}

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return storeErr(s.pool.Ping(ctx), "feature: ping")
}

func parseStoredID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, eris.Wrapf(err, "feature: stored id %q", raw)
	}
	return id, nil
}
