package location_test

import (
	"math"
	"testing"
	"time"

	"github.com/benmeehan/trailprint/pkg/location"
	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2025, time.July, 21, 10, 0, 0, 0, time.UTC)

// TestDistanceTo_Symmetric tests that distance does not depend on direction.
func TestDistanceTo_Symmetric(t *testing.T) {
	a := location.NewPoint(t0, 40.7128, -74.0060)
	b := location.NewPoint(t0, 51.5074, -0.1278)

	assert.InDelta(t, a.DistanceTo(b), b.DistanceTo(a), 1e-9)
	assert.Equal(t, 0.0, a.DistanceTo(a))
}

// TestDistanceTo_Collinear tests additivity along a meridian, which is a great circle.
func TestDistanceTo_Collinear(t *testing.T) {
	a := location.NewPoint(t0, 10, 5)
	b := location.NewPoint(t0, 20, 5)
	c := location.NewPoint(t0, 30, 5)

	assert.InDelta(t, a.DistanceTo(c), a.DistanceTo(b)+b.DistanceTo(c), 1e-6)
}

// TestDistanceTo_KnownFixture compares against the spherical law of cosines.
func TestDistanceTo_KnownFixture(t *testing.T) {
	a := location.NewPoint(t0, 40.7128, -74.0060)
	b := location.NewPoint(t0, 40.7580, -73.9855)

	rad := func(d float64) float64 { return d * math.Pi / 180 }
	reference := location.EarthRadiusMiles * math.Acos(
		math.Sin(rad(a.Lat))*math.Sin(rad(b.Lat))+
			math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Cos(rad(b.Lon-a.Lon)))

	got := a.DistanceTo(b)
	assert.InDelta(t, reference, got, 0.1)
	assert.InDelta(t, 3.3025, got, 0.001)
}
