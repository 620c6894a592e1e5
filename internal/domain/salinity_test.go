package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSalinityFromConductivity_ReferenceValues(t *testing.T) {
	tests := []struct {
		name     string
		cond     float64 // S/m
		temp     float64 // ITS-90
		pressure float64
		want     float64
	}{
		// UNESCO 1983 check values are stated on IPTS-68, hence the division.
		{"standard seawater", standardConductivity, 15 / t68Factor, 0, 35.0},
		{"UNESCO deep check", 1.888091 * standardConductivity, 40 / t68Factor, 10000, 40.0},
		// TEOS-10 toolbox SP_from_C examples, conductivity converted from mS/cm.
		{"profile 10 dbar", 3.45487, 28.7856, 10, 20.0099},
		{"profile 50 dbar", 3.47275, 28.4329, 50, 20.2655},
		{"profile 125 dbar", 3.48605, 22.8103, 125, 22.9815},
		{"profile 250 dbar", 3.46810, 10.2600, 250, 31.2045},
		{"profile 600 dbar", 3.45680, 6.8863, 600, 34.0323},
		{"profile 1000 dbar", 3.45600, 4.4036, 1000, 36.4003},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SalinityFromConductivity(tt.cond, tt.temp, tt.pressure)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-4)
		})
	}
}

func TestSalinityFromConductivity_Positive(t *testing.T) {
	got, err := SalinityFromConductivity(5.0, 20.0, 0)
	require.NoError(t, err)
	assert.Greater(t, got, 0.0)
	assert.False(t, math.IsInf(got, 0))
	assert.False(t, math.IsNaN(got))
}

func TestSalinityFromConductivity_LowSalinity(t *testing.T) {
	tests := []struct {
		name string
		cond float64 // S/m
		temp float64
		want float64
	}{
		// Hill et al. (1986) extension, evaluated term by term.
		{"zero conductivity", 0, 10, 0},
		{"near fresh, cold", 0.02, 0, 0.179690148},
		{"fresh, cold", 0.05, 0, 0.462458374},
		{"brackish", 0.1, 0.5, 0.937030704},
		{"just under two", 0.2, 2, 1.849928891},
		{"fresh, warm", 0.01, 15, 0.058079740},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SalinityFromConductivity(tt.cond, tt.temp, 0)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestSalinityFromConductivity_Deterministic(t *testing.T) {
	a, err := SalinityFromConductivity(4.56, 12.34, 0)
	require.NoError(t, err)
	b, err := SalinityFromConductivity(4.56, 12.34, 0)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSalinityFromConductivity_DomainErrors(t *testing.T) {
	tests := []struct {
		name     string
		cond     float64
		temp     float64
		pressure float64
		contains string
	}{
		{"negative conductivity", -1.0, 20, 0, "conductivity must be non-negative"},
		{"negative temperature", 5.0, -10.0, 0, "temperature must be non-negative"},
		{"negative pressure", 5.0, 20, -1, "pressure must be non-negative"},
		{"NaN conductivity", math.NaN(), 20, 0, "conductivity must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SalinityFromConductivity(tt.cond, tt.temp, tt.pressure)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDomain)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
