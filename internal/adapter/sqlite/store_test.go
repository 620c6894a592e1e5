package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/tsg-reader/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "tsg.db"), "tsg_data", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

func TestOpen_RejectsBadTableName(t *testing.T) {
	for _, name := range []string{"", "tsg data", "tsg;drop", "1tsg", `tsg"`} {
		_, err := Open(context.Background(), filepath.Join(t.TempDir(), "tsg.db"), name, testLogger())
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "invalid table name")
	}
}

func TestLoadBatch_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	captured := time.Date(2025, 8, 11, 21, 9, 20, 0, time.UTC)
	nmea := time.Unix(1749519966, 0).UTC()
	full := domain.Record{
		DatetimeUTC: captured,
		ScanNo:      ptr(int64(1234)),
		Cond:        4.56,
		Temp:        12.34,
		Salinity:    38.1,
		HullTemp:    11.98,
		TimeElapsed: ptr(3600.5),
		NMEATime:    &nmea,
		Latitude:    ptr(-42.1234),
		Longitude:   ptr(147.8901),
	}
	sparse := domain.Record{
		DatetimeUTC: captured.Add(time.Second),
		Cond:        4.57,
		Temp:        12.1,
		Salinity:    35.1234,
		HullTemp:    12.3456,
	}

	require.NoError(t, s.LoadBatch(ctx, []domain.Record{full, sparse}))

	got, err := s.Records(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, full, got[0])
	assert.Equal(t, sparse, got[1])
}

func TestLoadBatch_AbsentValuesAreNull(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.LoadBatch(ctx, []domain.Record{{
		DatetimeUTC: time.Unix(1754946560, 0).UTC(),
		Cond:        4.2,
		Temp:        12,
		Salinity:    35,
		HullTemp:    11.5,
	}}))

	var nulls int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM tsg_data
		WHERE scan_no IS NULL AND time_elapsed IS NULL AND nmea_time IS NULL
		AND latitude IS NULL AND longitude IS NULL`).Scan(&nulls)
	require.NoError(t, err)
	assert.Equal(t, 1, nulls)
}

func TestLoadBatch_Empty(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.LoadBatch(context.Background(), nil))

	got, err := s.Records(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpen_ReusesExistingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tsg.db")
	ctx := context.Background()

	s, err := Open(ctx, path, "tsg_data", testLogger())
	require.NoError(t, err)
	require.NoError(t, s.LoadBatch(ctx, []domain.Record{{DatetimeUTC: time.Unix(1, 0).UTC(), Cond: 1, Temp: 1, Salinity: 1, HullTemp: 1}}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, "tsg_data", testLogger())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
