package shape

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/geoshape/internal/geom"
	"github.com/inamate/geoshape/internal/tess"
)

// Index sequences depend only on vertex counts, so they are shared by every
// shape in the process.
var (
	// sideFillIndices maps a ring of n points to two triangles per wall
	// face, addressing the 4(n-1) vertices produced by BuildSides.
	sideFillIndices = tess.NewIndexCache(func(n int) []uint32 {
		idx := make([]uint32, 0, 6*(n-1))
		for i := 0; i < n-1; i++ {
			k := uint32(4 * i)
			idx = append(idx, k, k+1, k+2, k, k+2, k+3)
		}
		return idx
	})

	// sideOutlineIndices draws the vertical edges and the bottom and top
	// edges of each wall face as line pairs.
	sideOutlineIndices = tess.NewIndexCache(func(n int) []uint32 {
		idx := make([]uint32, 0, 6*(n-1))
		for i := 0; i < n-1; i++ {
			k := uint32(4 * i)
			idx = append(idx, k, k+3, k, k+1, k+3, k+2)
		}
		return idx
	})

	// sequentialIndices is 0..n-1.
	sequentialIndices = tess.NewIndexCache(func(n int) []uint32 {
		idx := make([]uint32, n)
		for i := range idx {
			idx[i] = uint32(i)
		}
		return idx
	})

	// evenIndices is 0, 2, .., 2(n-1): the top row of an interleaved strip.
	evenIndices = tess.NewIndexCache(func(n int) []uint32 {
		idx := make([]uint32, n)
		for i := range idx {
			idx[i] = uint32(2 * i)
		}
		return idx
	})
)

// Sides holds the wall geometry between a cap ring and its base ring.
type Sides struct {
	Points    []mgl64.Vec3
	Vertices  []float32
	Normals   []float32
	TexCoords []float32
}

// BuildSides builds one quad per consecutive pair of ring points. Each face
// has its own four vertices, ordered base[i], base[i+1], cap[i+1], cap[i],
// so face normals stay flat. capRing and baseRing must have equal lengths.
//
// Texture coordinates are per face: the taller vertical edge spans t in
// [0, 1] and the shorter edge's base sits at 1 - short/tall.
func BuildSides(capRing, baseRing []mgl64.Vec3) Sides {
	n := len(capRing)
	if n < 2 || len(baseRing) != n {
		return Sides{}
	}
	faces := n - 1
	s := Sides{
		Points:    make([]mgl64.Vec3, 0, 4*faces),
		Normals:   make([]float32, 0, 12*faces),
		TexCoords: make([]float32, 0, 8*faces),
	}

	for i := 0; i < faces; i++ {
		b0, b1 := baseRing[i], baseRing[i+1]
		c0, c1 := capRing[i], capRing[i+1]
		s.Points = append(s.Points, b0, b1, c1, c0)

		normal := c1.Sub(b0).Cross(c0.Sub(b1))
		if l := normal.Len(); l > 0 {
			normal = normal.Mul(1 / l)
		}
		n32 := geom.Vec32(normal)
		for range 4 {
			s.Normals = append(s.Normals, n32[:]...)
		}

		hl, hr := c0.Sub(b0).Len(), c1.Sub(b1).Len()
		vl, vr := 1.0, 1.0
		if hmax := max(hl, hr); hmax > 0 {
			vl = 1 - hl/hmax
			vr = 1 - hr/hmax
		}
		s.TexCoords = append(s.TexCoords,
			0, float32(vl),
			1, float32(vr),
			1, 1,
			0, 1,
		)
	}
	s.Vertices = pack(s.Points)
	return s
}
