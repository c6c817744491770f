package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"service-dispatch/internal/domain"
)

func TestDistance_Zero(t *testing.T) {
	t.Parallel()

	p := &domain.Location{Latitude: 28.6138, Longitude: 77.2089}
	require.Zero(t, Distance(p, p))
}

func TestDistance_KnownPairs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		a, b  domain.Location
		want  float64
		delta float64
	}{
		{
			name:  "one degree of longitude on the equator",
			a:     domain.Location{Latitude: 0, Longitude: 0},
			b:     domain.Location{Latitude: 0, Longitude: 1},
			want:  111195,
			delta: 1,
		},
		{
			name:  "neighbouring couriers in Delhi",
			a:     domain.Location{Latitude: 28.6138, Longitude: 77.2089},
			b:     domain.Location{Latitude: 28.6139, Longitude: 77.2090},
			want:  14.8,
			delta: 0.5,
		},
		{
			name:  "symmetric",
			a:     domain.Location{Latitude: 28.6200, Longitude: 77.2100},
			b:     domain.Location{Latitude: 28.6138, Longitude: 77.2089},
			want:  696,
			delta: 5,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.InDelta(t, tt.want, Distance(&tt.a, &tt.b), tt.delta)
			require.InDelta(t, Distance(&tt.a, &tt.b), Distance(&tt.b, &tt.a), 1e-9)
		})
	}
}

func TestDistance_MissingOrInvalidIsUnreachable(t *testing.T) {
	t.Parallel()

	ok := &domain.Location{Latitude: 10, Longitude: 10}

	require.True(t, math.IsInf(Distance(nil, ok), 1))
	require.True(t, math.IsInf(Distance(ok, nil), 1))
	require.True(t, math.IsInf(Distance(ok, &domain.Location{Latitude: 91, Longitude: 0}), 1))
	require.True(t, math.IsInf(Distance(ok, &domain.Location{Latitude: math.NaN(), Longitude: 0}), 1))
}
