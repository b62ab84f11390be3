package shape

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/geoshape/internal/geo"
	"github.com/inamate/geoshape/internal/geom"
)

// Intersection is one point where a line meets a shape's surface.
type Intersection struct {
	ShapeID  string       `json:"shapeId"`
	Point    mgl64.Vec3   `json:"point"`
	Position geo.Position `json:"-"`
	// Distance is measured from the line origin.
	Distance          float64 `json:"distance"`
	HeightAboveGround float64 `json:"heightAboveGround"`
}

// intersectionCache holds geometry generated for a specific terrain, kept
// apart from the geometry drawn each frame.
type intersectionCache struct {
	terrain  geo.Terrain
	ve       float64
	geometry *geometry
}

// checkEvery is how many triangles are tested between cancellation checks.
const checkEvery = 64

// Intersect returns every point where line meets the shape's filled
// surfaces, nearest first. Geometry is generated against terrain and
// reused while the terrain and its vertical exaggeration are unchanged.
func (s *shapeBase) Intersect(ctx context.Context, line geom.Line, terrain geo.Terrain) ([]Intersection, error) {
	if terrain == nil {
		return nil, geo.ErrTerrainUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ve := terrain.VerticalExaggeration()
	c := &s.intersect
	if c.geometry == nil || c.terrain != terrain || c.ve != ve {
		g, err := s.build(terrain.Globe(), terrain)
		if err != nil {
			return nil, fmt.Errorf("intersect %s: %w", s.id, err)
		}
		*c = intersectionCache{terrain: terrain, ve: ve, geometry: g}
	}
	if c.geometry == nil {
		return nil, nil
	}
	return s.intersectGeometry(ctx, c.geometry, line, terrain)
}

func (s *shapeBase) intersectGeometry(ctx context.Context, g *geometry, line geom.Line, terrain geo.Terrain) ([]Intersection, error) {
	rel := line.Translate(g.ref.Mul(-1))
	scale := line.Direction.Len()
	globe := terrain.Globe()

	var out []Intersection
	tested := 0
	for _, m := range g.meshes {
		for _, prim := range m.fill {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for _, tri := range prim.Triangles() {
				tested++
				if tested%checkEvery == 0 {
					if err := ctx.Err(); err != nil {
						return nil, err
					}
				}
				t, ok := geom.IntersectTriangle(rel, m.points[tri[0]], m.points[tri[1]], m.points[tri[2]])
				if !ok {
					continue
				}
				pt := line.PointAt(t)
				pos := globe.PositionAt(pt)
				h, err := geo.HeightAboveGround(terrain, pt)
				if err != nil {
					h = pos.Alt
				}
				out = append(out, Intersection{
					ShapeID:           s.id,
					Point:             pt,
					Position:          pos,
					Distance:          t * scale,
					HeightAboveGround: h,
				})
			}
		}
	}
	slices.SortStableFunc(out, func(a, b Intersection) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return out, nil
}
