package feature

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

var testID = uuid.MustParse("6f1c1f9e-3b0a-4a57-9d43-2b8f2f3c9a10")

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *PostgresStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresStore(mock)
}

func TestCreate_Success(t *testing.T) {
	mock, store := newMockStore(t)

	loc, err := encodePoint(45.5017, -73.5673)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO features").
		WithArgs(pgxmock.AnyArg(), "Old Port", loc).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := store.Create(context.Background(), "Old Port", 45.5017, -73.5673)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, uuid.Version(4), id.Version())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateNamesGetDistinctIDs(t *testing.T) {
	mock, store := newMockStore(t)

	for i := 0; i < 2; i++ {
		mock.ExpectExec("INSERT INTO features").
			WithArgs(pgxmock.AnyArg(), "Same", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	a, err := store.Create(context.Background(), "Same", 1, 1)
	require.NoError(t, err)
	b, err := store.Create(context.Background(), "Same", 1, 1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Error(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectExec("INSERT INTO features").
		WithArgs(pgxmock.AnyArg(), "X", pgxmock.AnyArg()).
		WillReturnError(fmt.Errorf("permission denied for table features"))

	_, err := store.Create(context.Background(), "X", 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature: create")
	assert.Contains(t, err.Error(), "permission denied for table features")
	assert.False(t, IsStoreUnavailable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_StoreUnavailable(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectExec("INSERT INTO features").
		WithArgs(pgxmock.AnyArg(), "X", pgxmock.AnyArg()).
		WillReturnError(fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED))

	_, err := store.Create(context.Background(), "X", 0, 0)
	require.Error(t, err)
	assert.True(t, IsStoreUnavailable(err))
	assert.True(t, errors.Is(err, syscall.ECONNREFUSED))
	assert.Contains(t, err.Error(), "feature: create")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcess_Success(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("WITH src AS").
		WithArgs(testID, 500.0).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(testID.String()))
	mock.ExpectCommit()

	ok, err := store.Process(context.Background(), testID, 500)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcess_NotFoundRollsBack(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("WITH src AS").
		WithArgs(testID, 250.0).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	ok, err := store.Process(context.Background(), testID, 250)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcess_QueryErrorRollsBack(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("WITH src AS").
		WithArgs(testID, 500.0).
		WillReturnError(fmt.Errorf("function st_buffer does not exist"))
	mock.ExpectRollback()

	ok, err := store.Process(context.Background(), testID, 500)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "feature: process")
	assert.Contains(t, err.Error(), "function st_buffer does not exist")
	assert.False(t, IsStoreUnavailable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcess_BeginUnavailable(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectBegin().WillReturnError(fmt.Errorf("read: %w", syscall.ECONNRESET))

	_, err := store.Process(context.Background(), testID, 500)
	require.Error(t, err)
	assert.True(t, IsStoreUnavailable(err))
	assert.ErrorIs(t, err, syscall.ECONNRESET)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func recordRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "status", "has_area", "buffer_area_m2"})
}

func TestGet_Queued(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery("SELECT .+ FROM features f LEFT JOIN footprints").
		WithArgs(testID).
		WillReturnRows(recordRows().AddRow(testID.String(), "BeforeProc", "queued", false, 0.0))

	rec, err := store.Get(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, testID, rec.ID)
	assert.Equal(t, "BeforeProc", rec.Name)
	assert.Equal(t, StatusQueued, rec.Status)
	assert.Nil(t, rec.BufferAreaM2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_Done(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery("SELECT .+ FROM features f LEFT JOIN footprints").
		WithArgs(testID).
		WillReturnRows(recordRows().AddRow(testID.String(), "Idempotent", "done", true, 784137.0))

	rec, err := store.Get(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, rec.Status)
	require.NotNil(t, rec.BufferAreaM2)
	assert.InDelta(t, 784137.0, *rec.BufferAreaM2, 0.1)
}

func TestGet_NotFound(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery("SELECT .+ FROM features f LEFT JOIN footprints").
		WithArgs(testID).
		WillReturnRows(recordRows())

	_, err := store.Get(context.Background(), testID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsInvalidInput(err))
}

func TestGet_Error(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery("SELECT .+ FROM features f").
		WithArgs(testID).
		WillReturnError(fmt.Errorf("relation \"features\" does not exist"))

	_, err := store.Get(context.Background(), testID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature: get")
	assert.Contains(t, err.Error(), `relation "features" does not exist`)
	assert.False(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFeature_Success(t *testing.T) {
	mock, store := newMockStore(t)

	loc, err := encodePoint(45.5017, -73.5673)
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM features WHERE id").
		WithArgs(testID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "status", "location", "attempts", "created_at", "updated_at",
		}).AddRow(testID.String(), "Old Port", "queued", loc, 0, now, now))

	f, err := store.GetFeature(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, testID, f.ID)
	assert.InDelta(t, 45.5017, f.Latitude, 1e-9)
	assert.InDelta(t, -73.5673, f.Longitude, 1e-9)
	assert.Equal(t, 0, f.Attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFootprint_Success(t *testing.T) {
	mock, store := newMockStore(t)

	poly := geom.NewPolygonFlat(geom.XY, []float64{
		-73.57, 45.50, -73.56, 45.50, -73.56, 45.51, -73.57, 45.50,
	}, []int{8}).SetSRID(SRID)
	area, err := ewkb.Marshal(poly, ewkb.NDR)
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM footprints").
		WithArgs(testID).
		WillReturnRows(pgxmock.NewRows([]string{"feature_id", "area", "updated_at"}).
			AddRow(testID.String(), area, now))

	fp, err := store.Footprint(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, testID, fp.FeatureID)
	assert.Contains(t, string(fp.Area), `"type":"Polygon"`)
	assert.Equal(t, now, fp.UpdatedAt)
}

func TestFootprint_NotFound(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery("SELECT .+ FROM footprints").
		WithArgs(testID).
		WillReturnRows(pgxmock.NewRows([]string{"feature_id", "area", "updated_at"}))

	_, err := store.Footprint(context.Background(), testID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func nearRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "status", "distance_m"})
}

func TestNear_OrderedMatches(t *testing.T) {
	mock, store := newMockStore(t)

	a, b := uuid.New(), uuid.New()
	// Longitude is bound first, matching ST_MakePoint(lon, lat).
	mock.ExpectQuery("WITH ref AS").
		WithArgs(-73.5673, 45.5017, 300.0).
		WillReturnRows(nearRows().
			AddRow(a.String(), "Near-A", "queued", 0.0).
			AddRow(b.String(), "Near-B", "done", 233.9))

	matches, err := store.Near(context.Background(), 45.5017, -73.5673, 300)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, a, matches[0].ID)
	assert.Equal(t, b, matches[1].ID)
	assert.Equal(t, StatusDone, matches[1].Status)
	assert.InDelta(t, 233.9, matches[1].DistanceM, 0.01)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNear_EmptyIsNotNil(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery("WITH ref AS").
		WithArgs(0.0, 0.0, 10.0).
		WillReturnRows(nearRows())

	matches, err := store.Near(context.Background(), 0, 0, 10)
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestNear_QueryError(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery("WITH ref AS").
		WithArgs(0.0, 0.0, 10.0).
		WillReturnError(fmt.Errorf("read tcp: i/o timeout"))

	_, err := store.Near(context.Background(), 0, 0, 10)
	require.Error(t, err)
	assert.True(t, IsStoreUnavailable(err))
	assert.Contains(t, err.Error(), "read tcp: i/o timeout")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNear_RowError(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery("WITH ref AS").
		WithArgs(0.0, 0.0, 10.0).
		WillReturnRows(nearRows().
			AddRow(uuid.NewString(), "A", "queued", 1.0).
			RowError(0, fmt.Errorf("canceling statement due to statement timeout")))

	_, err := store.Near(context.Background(), 0, 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature: iterate near rows")
	assert.Contains(t, err.Error(), "canceling statement due to statement timeout")
}

func TestPing(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectPing()
	assert.NoError(t, store.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(fmt.Errorf("connection refused"))
	err := store.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, IsStoreUnavailable(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}
