package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDegreesMinutes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		axis Axis
		want float64
	}{
		{"north", "41 31.4341 N", Latitude, 41.523901667},
		{"south", "41 31.4341 S", Latitude, -41.523901667},
		{"west with leading zero", "070 40.3335 W", Longitude, -70.672225},
		{"east", "147 53.406 E", Longitude, 147.8901},
		{"lowercase direction", "41 30 n", Latitude, 41.5},
		{"extra spacing", "  41   30   N ", Latitude, 41.5},
		{"equator", "0 0 N", Latitude, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDegreesMinutes(tt.in, tt.axis)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestParseDegreesMinutes_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		axis Axis
	}{
		{"empty", "", Latitude},
		{"four tokens", "41 31 4341 N", Latitude},
		{"decimal only", "41.5239", Latitude},
		{"bad degrees", "xx 31.4 N", Latitude},
		{"minutes out of range", "41 60.0 N", Latitude},
		{"negative degrees", "-41 30 N", Latitude},
		{"latitude too large", "91 0 N", Latitude},
		{"longitude too large", "180 30 E", Longitude},
		{"longitude with north", "70 40 N", Longitude},
		{"unknown direction", "41 30 X", Latitude},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDegreesMinutes(tt.in, tt.axis)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValue)
			assert.Contains(t, err.Error(), tt.in)
		})
	}
}

func TestParseHMSDMY(t *testing.T) {
	tests := []struct {
		name string
		hms  string
		dmy  string
		want time.Time
	}{
		{"reference fix", "210916", "110825", time.Date(2025, 8, 11, 21, 9, 16, 0, time.UTC)},
		{"midnight", "000000", "010100", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"end of century", "235959", "311299", time.Date(2099, 12, 31, 23, 59, 59, 0, time.UTC)},
		{"leap day", "120000", "290224", time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHMSDMY(tt.hms, tt.dmy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHMSDMY_Errors(t *testing.T) {
	tests := []struct {
		name string
		hms  string
		dmy  string
	}{
		{"short time", "21091", "110825"},
		{"fractional time", "210916.00", "110825"},
		{"short date", "210916", "1108"},
		{"non-digit time", "21a916", "110825"},
		{"hour 24", "240000", "110825"},
		{"minute 60", "216000", "110825"},
		{"month 13", "210916", "111325"},
		{"day zero", "210916", "000825"},
		{"not a leap year", "120000", "290225"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHMSDMY(tt.hms, tt.dmy)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValue)
		})
	}
}

func TestParseEpochSeconds(t *testing.T) {
	got, err := ParseEpochSeconds("1749519966")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 10, 1, 46, 6, 0, time.UTC), got)

	_, err = ParseEpochSeconds("1749519966.5")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValue)
}

func TestParseEpochSeconds_Range(t *testing.T) {
	last, err := ParseEpochSeconds("253402300799")
	require.NoError(t, err)
	assert.Equal(t, time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC), last)

	first, err := ParseEpochSeconds("-62135596800")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC), first)

	for _, s := range []string{"253402300800", "-62135596801", "9223372036854775807"} {
		_, err := ParseEpochSeconds(s)
		require.Error(t, err, s)
		assert.ErrorIs(t, err, ErrValue)
		assert.Contains(t, err.Error(), "out of range")
	}
}
