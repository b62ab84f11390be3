// Package tess triangulates polygon outlines with holes.
//
// Contours are projected onto the plane perpendicular to a caller supplied
// normal, split into y-monotone pieces by a top to bottom sweep and each
// piece is then triangulated with the usual two-chain stack walk.
package tess

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrTessellationFailed is returned for inputs the sweep cannot triangulate:
// self-intersecting or degenerate outlines, or more vertices than the
// tessellator accepts.
var ErrTessellationFailed = errors.New("tessellation failed")

// DefaultVertexLimit bounds the number of input vertices per call.
const DefaultVertexLimit = 1 << 20

// Tessellator triangulates contours. The zero value uses DefaultVertexLimit.
type Tessellator struct {
	VertexLimit int
}

// Tessellate fills the region bounded by contours[0] minus every later
// contour. Vertices are addressed in the returned primitives by their
// position in the concatenation of all contours, closing duplicates
// included. Triangles face the side normal points to.
func (t Tessellator) Tessellate(contours [][]mgl64.Vec3, normal mgl64.Vec3) (*Tessellation, error) {
	limit := t.VertexLimit
	if limit <= 0 {
		limit = DefaultVertexLimit
	}
	total := 0
	for _, c := range contours {
		total += len(c)
	}
	if total > limit {
		return nil, fmt.Errorf("%w: %d vertices exceeds limit of %d", ErrTessellationFailed, total, limit)
	}
	if len(contours) == 0 {
		return nil, fmt.Errorf("%w: no contours", ErrTessellationFailed)
	}

	u, v, ok := planeBasis(normal)
	if !ok {
		return nil, fmt.Errorf("%w: zero normal", ErrTessellationFailed)
	}
	s, err := project(contours, u, v)
	if err != nil {
		return nil, err
	}

	if len(s.rings) == 1 && s.convex(s.rings[0]) {
		ring := s.rings[0]
		idx := make([]uint32, len(ring))
		for i, id := range ring {
			idx[i] = s.verts[id].index
		}
		return &Tessellation{Primitives: []Primitive{{Mode: Fan, Indices: idx}}}, nil
	}

	if err := s.decompose(); err != nil {
		return nil, err
	}
	faces, err := s.faces()
	if err != nil {
		return nil, err
	}

	var indices []uint32
	var area float64
	emit := func(a, b, c int) {
		ar := s.area2(a, b, c)
		if ar == 0 {
			return
		}
		if ar < 0 {
			b, c = c, b
		}
		area += math.Abs(ar) / 2
		indices = append(indices, s.verts[a].index, s.verts[b].index, s.verts[c].index)
	}
	for _, f := range faces {
		s.triangulateMonotone(f, emit)
	}

	want := s.regionArea()
	if math.Abs(area-want) > 1e-6*want+1e-12 {
		return nil, fmt.Errorf("%w: triangles cover %g of %g, outline self-intersects", ErrTessellationFailed, area, want)
	}
	return &Tessellation{Primitives: []Primitive{{Mode: Triangles, Indices: indices}}}, nil
}

// planeBasis returns orthonormal u, v with u × v = normal.
func planeBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3, bool) {
	l := normal.Len()
	if l == 0 || math.IsNaN(l) {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	n := normal.Mul(1 / l)
	axis := mgl64.Vec3{1, 0, 0}
	if math.Abs(n[0]) > 0.9 {
		axis = mgl64.Vec3{0, 1, 0}
	}
	u := n.Cross(axis).Normalize()
	v := n.Cross(u)
	return u, v, true
}

type vertex struct {
	x, y       float64
	index      uint32
	prev, next int
}

// polygon is the projected input: vertices linked into rings, outer ring
// counter-clockwise and holes clockwise so the interior is always on the
// left of each directed edge.
type polygon struct {
	verts     []vertex
	rings     [][]int
	diagonals [][2]int
}

func project(contours [][]mgl64.Vec3, u, v mgl64.Vec3) (*polygon, error) {
	s := &polygon{}
	offset := 0
	for k, c := range contours {
		start := len(s.verts)
		for i, p := range c {
			x, y := p.Dot(u), p.Dot(v)
			if n := len(s.verts); n > start && s.verts[n-1].x == x && s.verts[n-1].y == y {
				continue
			}
			s.verts = append(s.verts, vertex{x: x, y: y, index: uint32(offset + i)})
		}
		if n := len(s.verts); n-start > 1 && s.verts[n-1].x == s.verts[start].x && s.verts[n-1].y == s.verts[start].y {
			s.verts = s.verts[:n-1]
		}
		offset += len(c)

		ring := make([]int, 0, len(s.verts)-start)
		for i := start; i < len(s.verts); i++ {
			ring = append(ring, i)
		}
		a := s.ringArea(ring)
		if len(ring) < 3 || math.Abs(a) <= 1e-12*s.ringScale(ring) {
			if k == 0 {
				return nil, fmt.Errorf("%w: degenerate outer contour", ErrTessellationFailed)
			}
			// Degenerate holes cover nothing.
			s.verts = s.verts[:start]
			continue
		}
		if (k == 0) != (a > 0) {
			for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
				ring[i], ring[j] = ring[j], ring[i]
			}
		}
		for i, id := range ring {
			s.verts[id].next = ring[(i+1)%len(ring)]
			s.verts[id].prev = ring[(i+len(ring)-1)%len(ring)]
		}
		s.rings = append(s.rings, ring)
	}
	return s, nil
}

// ringArea returns the signed area of a ring in input order.
func (s *polygon) ringArea(ring []int) float64 {
	var a float64
	for i, id := range ring {
		p, q := s.verts[id], s.verts[ring[(i+1)%len(ring)]]
		a += p.x*q.y - q.x*p.y
	}
	return a / 2
}

// ringScale is the squared diagonal of the ring's bounding box.
func (s *polygon) ringScale(ring []int) float64 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, id := range ring {
		v := s.verts[id]
		minX, maxX = math.Min(minX, v.x), math.Max(maxX, v.x)
		minY, maxY = math.Min(minY, v.y), math.Max(maxY, v.y)
	}
	dx, dy := maxX-minX, maxY-minY
	return dx*dx + dy*dy
}

// regionArea is the outer area minus every hole.
func (s *polygon) regionArea() float64 {
	var a float64
	for k, ring := range s.rings {
		if k == 0 {
			a += math.Abs(s.ringArea(ring))
		} else {
			a -= math.Abs(s.ringArea(ring))
		}
	}
	return a
}

// area2 is twice the signed area of triangle abc.
func (s *polygon) area2(a, b, c int) float64 {
	pa, pb, pc := s.verts[a], s.verts[b], s.verts[c]
	return (pb.x-pa.x)*(pc.y-pa.y) - (pc.x-pa.x)*(pb.y-pa.y)
}

// convex reports whether the linked ring turns strictly left at every vertex.
func (s *polygon) convex(ring []int) bool {
	for _, id := range ring {
		if s.area2(s.verts[id].prev, id, s.verts[id].next) <= 0 {
			return false
		}
	}
	return true
}

// above orders vertices by y, breaking ties by smaller x first, which acts
// as a sweep line rotated by an infinitesimal angle.
func (s *polygon) above(a, b int) bool {
	pa, pb := s.verts[a], s.verts[b]
	return pa.y > pb.y || (pa.y == pb.y && pa.x < pb.x)
}
