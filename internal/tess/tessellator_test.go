package tess

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var up = mgl64.Vec3{0, 0, 1}

func ring(xy ...float64) []mgl64.Vec3 {
	var out []mgl64.Vec3
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, mgl64.Vec3{xy[i], xy[i+1], 0})
	}
	return append(out, out[0])
}

func flatten(contours [][]mgl64.Vec3) []mgl64.Vec3 {
	var all []mgl64.Vec3
	for _, c := range contours {
		all = append(all, c...)
	}
	return all
}

func polygonArea(r []mgl64.Vec3) float64 {
	var a float64
	for i := 0; i+1 < len(r); i++ {
		a += r[i][0]*r[i+1][1] - r[i+1][0]*r[i][1]
	}
	return math.Abs(a) / 2
}

// coveredArea sums triangle areas and checks every triangle faces +z.
func coveredArea(t *testing.T, tess *Tessellation, verts []mgl64.Vec3) float64 {
	t.Helper()
	var area float64
	for _, tri := range tess.Triangles() {
		a, b, c := verts[tri[0]], verts[tri[1]], verts[tri[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		assert.GreaterOrEqual(t, n[2], 0.0, "triangle %v faces away from the normal", tri)
		area += n.Len() / 2
	}
	return area
}

func TestConvexSquareIsFan(t *testing.T) {
	contours := [][]mgl64.Vec3{ring(0, 0, 1, 0, 1, 1, 0, 1)}
	res, err := Tessellator{}.Tessellate(contours, up)
	require.NoError(t, err)
	require.Len(t, res.Primitives, 1)
	assert.Equal(t, Fan, res.Primitives[0].Mode)
	assert.InDelta(t, 1, coveredArea(t, res, flatten(contours)), 1e-12)
}

func TestClockwiseInputIsReoriented(t *testing.T) {
	contours := [][]mgl64.Vec3{ring(0, 0, 0, 2, 1, 2, 1, 1, 2, 1, 2, 0)}
	res, err := Tessellator{}.Tessellate(contours, up)
	require.NoError(t, err)
	assert.Equal(t, Triangles, res.Primitives[0].Mode)
	assert.InDelta(t, 3, coveredArea(t, res, flatten(contours)), 1e-12)
}

func TestSquareWithHole(t *testing.T) {
	contours := [][]mgl64.Vec3{
		ring(0, 0, 1, 0, 1, 1, 0, 1),
		ring(0.25, 0.25, 0.25, 0.75, 0.75, 0.75, 0.75, 0.25),
	}
	res, err := Tessellator{}.Tessellate(contours, up)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, coveredArea(t, res, flatten(contours)), 1e-12)

	// Hole winding must not matter.
	contours[1] = ring(0.25, 0.25, 0.75, 0.25, 0.75, 0.75, 0.25, 0.75)
	res, err = Tessellator{}.Tessellate(contours, up)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, coveredArea(t, res, flatten(contours)), 1e-12)
}

func TestIndicesAddressCombinedBuffer(t *testing.T) {
	contours := [][]mgl64.Vec3{
		ring(0, 0, 4, 0, 4, 4, 0, 4),
		ring(1, 1, 1, 2, 2, 2, 2, 1),
		ring(2.5, 2.5, 2.5, 3, 3, 3, 3, 2.5),
	}
	res, err := Tessellator{}.Tessellate(contours, up)
	require.NoError(t, err)
	all := flatten(contours)
	for _, tri := range res.Triangles() {
		for _, i := range tri {
			assert.Less(t, int(i), len(all))
		}
	}
	assert.InDelta(t, 16-1-0.25, coveredArea(t, res, all), 1e-9)
}

func TestCombWithManySplitsAndMerges(t *testing.T) {
	// Teeth pointing down and up create split and merge vertices.
	var xy []float64
	xy = append(xy, 0, 0)
	for i := range 5 {
		x := float64(2*i) + 1
		xy = append(xy, x, 0, x+0.5, 2, x+1, 0)
	}
	xy = append(xy, 12, 0, 12, 5)
	for i := 5; i > 0; i-- {
		x := float64(2 * i)
		xy = append(xy, x, 5, x-0.5, 3, x-1, 5)
	}
	xy = append(xy, 0, 5)
	contours := [][]mgl64.Vec3{ring(xy...)}

	res, err := Tessellator{}.Tessellate(contours, up)
	require.NoError(t, err)
	assert.InDelta(t, polygonArea(contours[0]), coveredArea(t, res, flatten(contours)), 1e-9)
}

func TestRandomStarPolygons(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for range 50 {
		n := 5 + rng.Intn(40)
		var xy []float64
		for i := range n {
			theta := 2 * math.Pi * float64(i) / float64(n)
			r := 0.3 + rng.Float64()
			xy = append(xy, r*math.Cos(theta), r*math.Sin(theta))
		}
		contours := [][]mgl64.Vec3{ring(xy...)}
		res, err := Tessellator{}.Tessellate(contours, up)
		require.NoError(t, err)
		assert.InDelta(t, polygonArea(contours[0]), coveredArea(t, res, flatten(contours)), 1e-9)
	}
}

func TestDuplicatePointsAreDropped(t *testing.T) {
	contours := [][]mgl64.Vec3{ring(0, 0, 1, 0, 1, 0, 1, 1, 0, 1, 0, 1)}
	res, err := Tessellator{}.Tessellate(contours, up)
	require.NoError(t, err)
	assert.InDelta(t, 1, coveredArea(t, res, flatten(contours)), 1e-12)
}

func TestTiltedPlane(t *testing.T) {
	normal := mgl64.Vec3{1, 1, 1}.Normalize()
	rot := mgl64.QuatBetweenVectors(up, normal)
	flat := ring(0, 0, 3, 0, 3, 1, 1, 1, 1, 3, 0, 3)
	tilted := make([]mgl64.Vec3, len(flat))
	for i, p := range flat {
		tilted[i] = rot.Rotate(p).Add(mgl64.Vec3{1000, -200, 50})
	}
	res, err := Tessellator{}.Tessellate([][]mgl64.Vec3{tilted}, normal)
	require.NoError(t, err)

	var area float64
	for _, tri := range res.Triangles() {
		a, b, c := tilted[tri[0]], tilted[tri[1]], tilted[tri[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		assert.Greater(t, n.Dot(normal), 0.0)
		area += n.Len() / 2
	}
	assert.InDelta(t, 5, area, 1e-6)
}

func TestFailures(t *testing.T) {
	_, err := Tessellator{}.Tessellate([][]mgl64.Vec3{ring(0, 0, 1, 1, 1, 0, 0, 1)}, up)
	assert.ErrorIs(t, err, ErrTessellationFailed, "zero-area bowtie")

	_, err = Tessellator{}.Tessellate([][]mgl64.Vec3{ring(0, 0, 1, 0, 2, 0)}, up)
	assert.ErrorIs(t, err, ErrTessellationFailed, "collinear outline")

	_, err = Tessellator{VertexLimit: 4}.Tessellate([][]mgl64.Vec3{ring(0, 0, 1, 0, 1, 1, 0, 1)}, up)
	assert.ErrorIs(t, err, ErrTessellationFailed, "vertex limit")

	_, err = Tessellator{}.Tessellate(nil, up)
	assert.ErrorIs(t, err, ErrTessellationFailed)

	_, err = Tessellator{}.Tessellate([][]mgl64.Vec3{ring(0, 0, 1, 0, 1, 1)}, mgl64.Vec3{})
	assert.ErrorIs(t, err, ErrTessellationFailed)
}

func TestPrimitiveExpansion(t *testing.T) {
	strip := Primitive{Mode: Strip, Indices: []uint32{0, 1, 2, 3}}
	assert.Equal(t, [][3]uint32{{0, 1, 2}, {2, 1, 3}}, strip.Triangles())

	fan := Primitive{Mode: Fan, Indices: []uint32{0, 1, 2, 3}}
	assert.Equal(t, [][3]uint32{{0, 1, 2}, {0, 2, 3}}, fan.Triangles())

	assert.Empty(t, Primitive{Mode: LineLoop, Indices: []uint32{0, 1, 2}}.Triangles())
}

func TestIndexCacheReturnsClippedSlices(t *testing.T) {
	builds := 0
	c := NewIndexCache(func(n int) []uint32 {
		builds++
		out := make([]uint32, n, n*2)
		for i := range out {
			out[i] = uint32(i)
		}
		return out
	})
	a := c.Get(4)
	b := c.Get(4)
	assert.Equal(t, 1, builds)
	assert.Equal(t, len(a), cap(a))

	a = append(a, 99)
	assert.Equal(t, []uint32{0, 1, 2, 3}, b)
	assert.Equal(t, []uint32{0, 1, 2, 3}, c.Get(4))
	assert.Equal(t, 1, c.Len())
}

func TestZeroVertexLimitFallsBackToDefault(t *testing.T) {
	over := make([]mgl64.Vec3, DefaultVertexLimit+1)
	_, err := Tessellator{}.Tessellate([][]mgl64.Vec3{over}, up)
	require.ErrorIs(t, err, ErrTessellationFailed)
	assert.Contains(t, err.Error(), "exceeds limit of 1048576")
}
