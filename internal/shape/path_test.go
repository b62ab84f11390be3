package shape

import (
	"context"
	"testing"

	"github.com/golang/geo/s1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/geoshape/internal/geo"
	"github.com/inamate/geoshape/internal/geom"
	"github.com/inamate/geoshape/internal/render"
	"github.com/inamate/geoshape/internal/tess"
)

func TestNewPathValidates(t *testing.T) {
	_, err := NewPath("x", []geo.Position{geo.PositionFromDegrees(lat0, lon0, 0)})
	assert.ErrorIs(t, err, ErrInvalidPath)

	p, err := NewPath("x", []geo.Position{geo.PositionFromDegrees(lat0, lon0, 0), geo.PositionFromDegrees(lat0, lon0+1, 0)})
	require.NoError(t, err)
	assert.ErrorIs(t, p.SetPositions(nil), ErrInvalidPath)
	assert.Len(t, p.Positions(), 2)
}

func TestPathSubdivision(t *testing.T) {
	a := geo.PositionFromDegrees(lat0, lon0, 100)
	b := geo.PositionFromDegrees(lat0, lon0+0.01, 100)
	c := geo.PositionFromDegrees(lat0+0.01, lon0+0.01, 100)
	up := b
	up.Alt = 300

	cases := []struct {
		name      string
		positions []geo.Position
		pathType  geo.PathType
		follow    bool
		mode      geo.AltitudeMode
		want      int
	}{
		{"great circle", []geo.Position{a, b, c}, geo.GreatCircle, false, geo.Absolute, 21},
		{"linear absolute", []geo.Position{a, b, c}, geo.Linear, false, geo.Absolute, 3},
		{"linear following terrain", []geo.Position{a, b, c}, geo.Linear, true, geo.RelativeToGround, 21},
		{"repeated position", []geo.Position{a, b, b, c}, geo.GreatCircle, false, geo.Absolute, 21},
		{"vertical segment", []geo.Position{a, b, up}, geo.GreatCircle, false, geo.Absolute, 12},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewPath("p", tc.positions)
			require.NoError(t, err)
			p.SetPathType(tc.pathType)
			p.SetFollowTerrain(tc.follow)
			p.SetAltitudeMode(tc.mode)
			pts := p.subdivide()
			assert.Len(t, pts, tc.want)
			assert.Equal(t, tc.positions[0], pts[0])
			assert.Equal(t, tc.positions[len(tc.positions)-1], pts[len(pts)-1])
		})
	}
}

func TestPathCoincidentPositionsDrawNothing(t *testing.T) {
	a := geo.PositionFromDegrees(lat0, lon0, 0)
	p, err := NewPath("p", []geo.Position{a, a, a})
	require.NoError(t, err)

	terrain := geo.NewEllipsoidTerrain(geo.WGS84(), 1)
	dc, _ := newContext(terrain)
	dc.BeginFrame(overhead(), t0)
	p.Render(dc)
	assert.Equal(t, 0, dc.Queue().Len())
	assert.True(t, p.Extent().IsEmpty())
}

func TestPathGeometry(t *testing.T) {
	terrain := geo.NewEllipsoidTerrain(geo.WGS84(), 1)
	positions := []geo.Position{
		geo.PositionFromDegrees(lat0, lon0, 200),
		geo.PositionFromDegrees(lat0+0.01, lon0+0.01, 200),
	}
	p, err := NewPath("p", positions)
	require.NoError(t, err)
	p.SetAltitudeMode(geo.RelativeToGround)

	g, err := p.buildGeometry(terrain.Globe(), terrain)
	require.NoError(t, err)
	require.Len(t, g.meshes, 1)
	line := g.meshes[0]
	assert.Empty(t, line.fill)
	require.Len(t, line.outline, 1)
	assert.Equal(t, tess.LineStrip, line.outline[0].Mode)
	assert.Len(t, line.outline[0].Indices, 11)

	p.SetExtrude(true)
	g, err = p.buildGeometry(terrain.Globe(), terrain)
	require.NoError(t, err)
	curtain := g.meshes[0]
	require.Len(t, curtain.points, 22)
	assert.Equal(t, tess.Strip, curtain.fill[0].Mode)
	assert.Equal(t, []uint32{0, 2, 4}, curtain.outline[0].Indices[:3])

	for i := 0; i < len(curtain.points); i += 2 {
		h, err := geo.HeightAboveGround(terrain, curtain.points[i].Add(g.ref))
		require.NoError(t, err)
		assert.InDelta(t, 200, h, 1e-3)
		h, err = geo.HeightAboveGround(terrain, curtain.points[i+1].Add(g.ref))
		require.NoError(t, err)
		assert.InDelta(t, 0, h, 1e-3)
	}
}

func TestExtrudedPathIntersectsCurtain(t *testing.T) {
	terrain := geo.NewEllipsoidTerrain(geo.WGS84(), 1)
	globe := terrain.Globe()
	west := geo.PositionFromDegrees(lat0, lon0, 1000)
	east := geo.PositionFromDegrees(lat0, lon0+0.02, 1000)
	p, err := NewPath("fence", []geo.Position{west, east})
	require.NoError(t, err)
	p.SetAltitudeMode(geo.RelativeToGround)
	p.SetExtrude(true)

	// A horizontal line crossing the fence from south to north at 500m.
	south := globe.PointAt(west.Lat-0.001*s1.Degree, west.Lon+0.01*s1.Degree, 500)
	north := globe.PointAt(west.Lat+0.001*s1.Degree, west.Lon+0.01*s1.Degree, 500)
	hits, err := p.Intersect(context.Background(), geom.LineThrough(south, north), terrain)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.InDelta(t, lat0, hits[0].Position.Lat.Degrees(), 1e-4)
	assert.InDelta(t, 500, hits[0].HeightAboveGround, 1)
}

func TestPathRendersAsLines(t *testing.T) {
	terrain := geo.NewEllipsoidTerrain(geo.WGS84(), 1)
	p, err := NewPath("p", []geo.Position{
		geo.PositionFromDegrees(lat0, lon0, 0),
		geo.PositionFromDegrees(lat0+0.01, lon0+0.01, 0),
	})
	require.NoError(t, err)
	layer := render.NewLayer("l1", "paths")
	layer.Add(p)

	dc, rec := newContext(terrain)
	renderFrame(dc, t0, layer)
	var modes []string
	for _, c := range rec.Commands() {
		if c.Op == "draw" {
			modes = append(modes, c.Mode)
		}
	}
	assert.Equal(t, []string{"lineStrip"}, modes)
}
