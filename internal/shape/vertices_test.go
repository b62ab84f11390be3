package shape

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/s1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/geoshape/internal/geo"
)

const lat0, lon0 = 45.0, 7.0

// square returns a counter-clockwise ring with its south-west corner at
// (lat, lon).
func square(lat, lon, size, alt float64) []geo.Position {
	return []geo.Position{
		geo.PositionFromDegrees(lat, lon, alt),
		geo.PositionFromDegrees(lat, lon+size, alt),
		geo.PositionFromDegrees(lat+size, lon+size, alt),
		geo.PositionFromDegrees(lat+size, lon, alt),
	}
}

func TestBoundaryVerticesClosed(t *testing.T) {
	terrain := geo.NewElevationTerrain(geo.WGS84(), geo.ConstantElevation(250), 2)
	b, err := geo.NewBoundary(square(lat0, lon0, 0.01, 100))
	require.NoError(t, err)

	for _, mode := range []geo.AltitudeMode{geo.Absolute, geo.RelativeToGround, geo.ClampToGround, geo.Constant} {
		t.Run(mode.String(), func(t *testing.T) {
			vb, err := NewVertexBuilder(nil, terrain, mode, b[0], 100)
			require.NoError(t, err)
			verts, err := vb.BoundaryVertices(b, nil)
			require.NoError(t, err)
			require.Len(t, verts, len(b))
			assert.Equal(t, verts[0], verts[len(verts)-1])
		})
	}
}

func TestVertexModes(t *testing.T) {
	globe := geo.WGS84()
	terrain := geo.NewElevationTerrain(globe, geo.ConstantElevation(120), 1)
	p := geo.PositionFromDegrees(lat0, lon0, 500)

	cases := []struct {
		mode geo.AltitudeMode
		want float64
	}{
		{geo.Absolute, 500},
		{geo.RelativeToGround, 620},
		{geo.ClampToGround, 120},
	}
	for _, tc := range cases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			vb, err := NewVertexBuilder(nil, terrain, tc.mode, p, p.Alt)
			require.NoError(t, err)
			v, err := vb.Point(p, p.Alt)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, globe.PositionAt(v).Alt, 1e-3)
			assert.Equal(t, v, vb.Reference)
		})
	}
}

func TestAbsoluteVerticesScaleWithExaggeration(t *testing.T) {
	globe := geo.WGS84()
	terrain := geo.NewEllipsoidTerrain(globe, 3)
	p := geo.PositionFromDegrees(lat0, lon0, 100)
	vb, err := NewVertexBuilder(nil, terrain, geo.Absolute, p, p.Alt)
	require.NoError(t, err)
	assert.InDelta(t, 300, globe.PositionAt(vb.Reference).Alt, 1e-3)
}

func TestConstantModeIsPlanar(t *testing.T) {
	globe := geo.WGS84()
	// Terrain rising 1000m per degree of latitude.
	slope := geo.ElevationFunc(func(lat, _ s1.Angle) (float64, bool) {
		return 100 + 1000*(lat.Degrees()-lat0), true
	})
	terrain := geo.NewElevationTerrain(globe, slope, 1)

	b, err := geo.NewBoundary(square(lat0, lon0, 0.1, 0))
	require.NoError(t, err)
	ref := b[0]
	vb, err := NewVertexBuilder(nil, terrain, geo.Constant, ref, 50)
	require.NoError(t, err)
	verts, err := vb.BoundaryVertices(b, nil)
	require.NoError(t, err)

	up := globe.SurfaceNormalAt(ref.Lat, ref.Lon)
	ground, ok := terrain.SurfacePoint(ref.Lat, ref.Lon, 0)
	require.True(t, ok)
	plane := ground.Dot(up) + 50
	for _, v := range verts {
		assert.InDelta(t, plane, v.Add(vb.Reference).Dot(up), 1e-4)
	}

	h, err := geo.HeightAboveGround(terrain, vb.Reference)
	require.NoError(t, err)
	assert.InDelta(t, 50, h, 1e-3)

	// Away from the reference the height above terrain drifts.
	far, err := geo.HeightAboveGround(terrain, verts[2].Add(vb.Reference))
	require.NoError(t, err)
	assert.Greater(t, math.Abs(far-50), 10.0)
}

func TestVertexBuilderNeedsTerrain(t *testing.T) {
	p := geo.PositionFromDegrees(lat0, lon0, 10)

	vb, err := NewVertexBuilder(geo.WGS84(), nil, geo.Absolute, p, p.Alt)
	require.NoError(t, err)
	_, err = vb.Ground(p)
	assert.ErrorIs(t, err, geo.ErrTerrainUnavailable)

	_, err = NewVertexBuilder(geo.WGS84(), nil, geo.RelativeToGround, p, p.Alt)
	assert.ErrorIs(t, err, geo.ErrTerrainUnavailable)

	missing := geo.NewElevationTerrain(geo.WGS84(), geo.ElevationFunc(func(_, _ s1.Angle) (float64, bool) {
		return 0, false
	}), 1)
	_, err = NewVertexBuilder(nil, missing, geo.ClampToGround, p, 0)
	assert.ErrorIs(t, err, geo.ErrTerrainUnavailable)
}

func TestBuildSides(t *testing.T) {
	base := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}, {0, 0, 0}}
	capRing := []mgl64.Vec3{{0, 0, 2}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}, {0, 0, 2}}

	s := BuildSides(capRing, base)
	require.Len(t, s.Points, 16)
	require.Len(t, s.Vertices, 48)
	require.Len(t, s.Normals, 48)
	require.Len(t, s.TexCoords, 32)

	// First face: base[0], base[1], cap[1], cap[0].
	assert.Equal(t, []mgl64.Vec3{base[0], base[1], capRing[1], capRing[0]}, s.Points[:4])
	// The taller left edge spans the full texture, the right edge half of it.
	assert.Equal(t, []float32{0, 0, 1, 0.5, 1, 1, 0, 1}, s.TexCoords[:8])

	center := mgl64.Vec3{0.5, 0.5, 0}
	for f := 0; f < 4; f++ {
		n := mgl64.Vec3{float64(s.Normals[12*f]), float64(s.Normals[12*f+1]), float64(s.Normals[12*f+2])}
		assert.InDelta(t, 1, n.Len(), 1e-6)
		mid := s.Points[4*f].Add(s.Points[4*f+1]).Mul(0.5)
		assert.Greater(t, n.Dot(mid.Sub(center)), 0.0, "face %d faces inward", f)
	}

	assert.Equal(t, Sides{}, BuildSides(capRing, base[:3]))
}

func TestBuildSidesTexCoordsPerFace(t *testing.T) {
	base := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}}
	capRing := []mgl64.Vec3{{0, 0, 5}, {1, 0, 5}, {1, 1, 10}}

	s := BuildSides(capRing, base)
	require.Len(t, s.TexCoords, 16)
	// Equal edges span the whole texture even beside a taller face.
	assert.Equal(t, []float32{0, 0, 1, 0, 1, 1, 0, 1}, s.TexCoords[:8])
	assert.Equal(t, []float32{0, 0.5, 1, 0, 1, 1, 0, 1}, s.TexCoords[8:])

	flat := BuildSides(base, base)
	assert.Equal(t, []float32{0, 1, 1, 1, 1, 1, 0, 1}, flat.TexCoords[:8])
}

func TestSideIndexCaches(t *testing.T) {
	idx := sideFillIndices.Get(3)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7}, idx)
	assert.Equal(t, len(idx), cap(idx))
	assert.Equal(t, []uint32{0, 3, 0, 1, 3, 2}, sideOutlineIndices.Get(2))
	assert.Equal(t, []uint32{0, 2, 4}, evenIndices.Get(3))
}

func TestRegenerator(t *testing.T) {
	t0 := time.Unix(1000, 0)
	var r Regenerator
	assert.Equal(t, StateEmpty, r.Check(t0, 1, geo.RelativeToGround))

	r.Regenerated(t0, 1)
	assert.Equal(t, StateValid, r.Check(t0.Add(time.Second), 1, geo.RelativeToGround))
	assert.Equal(t, StateStale, r.Check(t0.Add(2*time.Second), 1, geo.RelativeToGround))

	r.Regenerated(t0, 1)
	assert.Equal(t, StateValid, r.Check(t0.Add(time.Hour), 1, geo.Absolute))
	assert.Equal(t, StateStale, r.Check(t0, 2, geo.Absolute))

	r.Regenerated(t0, 2)
	r.Invalidate()
	assert.Equal(t, StateStale, r.State())

	r.Reset()
	r.Invalidate()
	assert.Equal(t, StateEmpty, r.State())

	r.Interval = 10 * time.Second
	r.Regenerated(t0, 1)
	assert.Equal(t, StateValid, r.Check(t0.Add(5*time.Second), 1, geo.ClampToGround))
}
