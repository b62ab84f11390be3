package geo

import (
	"testing"

	"github.com/golang/geo/s1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobeRoundTrip(t *testing.T) {
	g := WGS84()
	cases := []struct {
		lat, lon, alt float64
	}{
		{0, 0, 0},
		{45, 90, 1000},
		{-33.9, 151.2, 120},
		{89.5, -179, 50000},
		{-60, -45, -200},
	}
	for _, c := range cases {
		p := g.PointAt(s1.Angle(c.lat)*s1.Degree, s1.Angle(c.lon)*s1.Degree, c.alt)
		pos := g.PositionAt(p)
		assert.InDelta(t, c.lat, pos.Lat.Degrees(), 1e-9)
		assert.InDelta(t, c.lon, pos.Lon.Degrees(), 1e-9)
		assert.InDelta(t, c.alt, pos.Alt, 1e-4)
	}
}

func TestGlobeAxes(t *testing.T) {
	g := WGS84()
	p := g.PointAt(0, 0, 0)
	assert.InDelta(t, g.EquatorialRadius, p[2], 1e-6)
	assert.InDelta(t, 0, p[0], 1e-6)

	north := g.PointAt(90*s1.Degree, 0, 0)
	assert.InDelta(t, g.PolarRadius, north[1], 1e-6)

	east := g.PointAt(0, 90*s1.Degree, 0)
	assert.InDelta(t, g.EquatorialRadius, east[0], 1e-6)
}

func TestSurfaceNormalIsUnit(t *testing.T) {
	g := WGS84()
	n := g.SurfaceNormalAt(30*s1.Degree, 60*s1.Degree)
	assert.InDelta(t, 1, n.Len(), 1e-12)
}

func TestElevationTerrainClampHeight(t *testing.T) {
	g := WGS84()
	terrain := NewElevationTerrain(g, ConstantElevation(120), 1)
	p, ok := terrain.SurfacePoint(10*s1.Degree, 20*s1.Degree, 0)
	require.True(t, ok)
	assert.InDelta(t, 120, g.PositionAt(p).Alt, 1e-6)

	h, err := HeightAboveGround(terrain, g.PointAt(10*s1.Degree, 20*s1.Degree, 150))
	require.NoError(t, err)
	assert.InDelta(t, 30, h, 1e-6)
}

func TestElevationTerrainUnavailable(t *testing.T) {
	terrain := NewElevationTerrain(WGS84(), ElevationFunc(func(_, _ s1.Angle) (float64, bool) {
		return 0, false
	}), 1)
	_, ok := terrain.SurfacePoint(0, 0, 0)
	assert.False(t, ok)

	_, err := HeightAboveGround(terrain, WGS84().PointAt(0, 0, 10))
	assert.ErrorIs(t, err, ErrTerrainUnavailable)
}

func TestParseAltitudeMode(t *testing.T) {
	for _, m := range []AltitudeMode{Absolute, RelativeToGround, ClampToGround, Constant} {
		parsed, err := ParseAltitudeMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err := ParseAltitudeMode("floating")
	assert.Error(t, err)
}

func TestParsePathType(t *testing.T) {
	pt, err := ParsePathType("")
	require.NoError(t, err)
	assert.Equal(t, GreatCircle, pt)

	pt, err = ParsePathType("linear")
	require.NoError(t, err)
	assert.Equal(t, Linear, pt)
	assert.Equal(t, "linear", pt.String())

	_, err = ParsePathType("rhumb")
	assert.Error(t, err)
}
