package shape

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/geoshape/internal/geo"
	"github.com/inamate/geoshape/internal/tess"
)

// boundaryShape holds the authored boundary set of a polygon and its
// cached tessellation. changed is called whenever generated geometry must
// be discarded.
type boundaryShape struct {
	boundaries   geo.BoundarySet
	reference    *geo.Position
	texCoords    [][2]float32
	tessellator  tess.Tessellator
	tessellation *tess.Tessellation
	changed      func()
}

// Boundaries returns the outer boundary followed by any holes.
func (b *boundaryShape) Boundaries() geo.BoundarySet {
	return slices.Clone(b.boundaries)
}

// SetBoundaries replaces every ring. The first ring is the outer boundary.
// On error the previous boundaries are kept.
func (b *boundaryShape) SetBoundaries(rings ...[]geo.Position) error {
	set, err := geo.NewBoundarySet(rings...)
	if err != nil {
		return err
	}
	b.replace(set)
	return nil
}

// SetOuterBoundary replaces the outer boundary and keeps existing holes.
func (b *boundaryShape) SetOuterBoundary(locs []geo.Position) error {
	outer, err := geo.NewBoundary(locs)
	if err != nil {
		return fmt.Errorf("outer boundary: %w", err)
	}
	set := geo.BoundarySet{outer}
	if len(b.boundaries) > 1 {
		set = append(set, b.boundaries[1:]...)
	}
	b.replace(set.Normalize())
	return nil
}

// AddInnerBoundary adds a hole. An outer boundary must already be set.
func (b *boundaryShape) AddInnerBoundary(locs []geo.Position) error {
	if len(b.boundaries) == 0 {
		return fmt.Errorf("%w: inner boundary without outer boundary", geo.ErrInvalidBoundary)
	}
	hole, err := geo.NewBoundary(locs)
	if err != nil {
		return fmt.Errorf("inner boundary: %w", err)
	}
	set := append(slices.Clone(b.boundaries), hole)
	b.replace(set.Normalize())
	return nil
}

// SetReferencePosition overrides the location vertices are stored
// relative to. By default it is the first outer boundary location.
func (b *boundaryShape) SetReferencePosition(p geo.Position) {
	b.reference = &p
	b.changed()
}

// SetTextureCoordinates assigns one texture coordinate per outer boundary
// location. Holes are not textured.
func (b *boundaryShape) SetTextureCoordinates(tc [][2]float32) {
	b.texCoords = slices.Clone(tc)
	b.changed()
}

// SetVertexLimit bounds the number of vertices the tessellator accepts.
func (b *boundaryShape) SetVertexLimit(n int) {
	b.tessellator.VertexLimit = n
}

func (b *boundaryShape) replace(set geo.BoundarySet) {
	b.boundaries = set
	b.tessellation = nil
	b.changed()
}

// clear drops boundaries the tessellator could not fill.
func (b *boundaryShape) clear() {
	b.boundaries = nil
	b.tessellation = nil
}

func (b *boundaryShape) referencePosition() geo.Position {
	if b.reference != nil {
		return *b.reference
	}
	return b.boundaries[0][0]
}

// capRings converts every boundary to points relative to the builder's
// reference point.
func (b *boundaryShape) capRings(vb *VertexBuilder, alt func(geo.Position) float64) ([][]mgl64.Vec3, error) {
	rings := make([][]mgl64.Vec3, len(b.boundaries))
	for i, boundary := range b.boundaries {
		r, err := vb.BoundaryVertices(boundary, alt)
		if err != nil {
			return nil, fmt.Errorf("boundary %d: %w", i, err)
		}
		rings[i] = r
	}
	return rings, nil
}

// capMeshes returns the filled cap followed by one outline mesh per ring.
// The outline meshes share the cap's buffers.
func (b *boundaryShape) capMeshes(rings [][]mgl64.Vec3, ref mgl64.Vec3) ([]mesh, error) {
	normal := newellNormal(rings[0])
	if normal.Len() == 0 {
		normal = ref
	}
	if normal.Dot(ref) < 0 {
		normal = normal.Mul(-1)
	}
	normal = normal.Normalize()

	if b.tessellation == nil {
		t, err := b.tessellator.Tessellate(rings, normal)
		if err != nil {
			return nil, err
		}
		b.tessellation = t
	}

	var pts []mgl64.Vec3
	for _, r := range rings {
		pts = append(pts, r...)
	}
	normals := make([]float32, 0, 3*len(pts))
	for range pts {
		normals = append(normals, float32(normal[0]), float32(normal[1]), float32(normal[2]))
	}
	texCoords := make([]float32, 2*len(pts))
	if n := len(b.texCoords); n > 0 {
		for i := range rings[0] {
			tc := b.texCoords[i%n]
			texCoords[2*i], texCoords[2*i+1] = tc[0], tc[1]
		}
	}

	capMesh := mesh{
		role:      roleCap,
		points:    pts,
		vertices:  pack(pts),
		normals:   normals,
		texCoords: texCoords,
		fill:      b.tessellation.Primitives,
	}
	meshes := []mesh{capMesh}
	off := 0
	for _, r := range rings {
		n := len(r)
		meshes = append(meshes, mesh{
			role:     roleCap,
			points:   pts[off : off+n : off+n],
			vertices: capMesh.vertices[3*off : 3*(off+n) : 3*(off+n)],
			outline:  []tess.Primitive{{Mode: tess.LineStrip, Indices: sequentialIndices.Get(n)}},
		})
		off += n
	}
	return meshes, nil
}

// newellNormal returns the unnormalized normal of a closed ring.
func newellNormal(ring []mgl64.Vec3) mgl64.Vec3 {
	var n mgl64.Vec3
	for i, a := range ring {
		b := ring[(i+1)%len(ring)]
		n[0] += (a[1] - b[1]) * (a[2] + b[2])
		n[1] += (a[2] - b[2]) * (a[0] + b[0])
		n[2] += (a[0] - b[0]) * (a[1] + b[1])
	}
	return n
}
