package shape

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/geoshape/internal/geo"
	"github.com/inamate/geoshape/internal/render"
	"github.com/inamate/geoshape/internal/tess"
)

// ErrInvalidPath is returned for paths with fewer than two positions.
var ErrInvalidPath = errors.New("invalid path")

// DefaultNumSubsegments is the number of pieces each path segment is
// split into when it follows terrain or a great circle.
const DefaultNumSubsegments = 10

// Path is a polyline through positions, optionally extruded to the
// terrain as a curtain.
type Path struct {
	shapeBase

	positions      []geo.Position
	pathType       geo.PathType
	followTerrain  bool
	extrude        bool
	numSubsegments int
}

func NewPath(id string, positions []geo.Position) (*Path, error) {
	p := &Path{
		shapeBase:      newShapeBase(id, render.KindPath, geo.Absolute),
		pathType:       geo.GreatCircle,
		numSubsegments: DefaultNumSubsegments,
	}
	p.self = p
	p.build = p.buildGeometry
	if err := p.SetPositions(positions); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Path) Positions() []geo.Position { return slices.Clone(p.positions) }

// SetPositions replaces the path positions. On error the previous
// positions are kept.
func (p *Path) SetPositions(ps []geo.Position) error {
	if len(ps) < 2 {
		return fmt.Errorf("%w: %d positions, need at least 2", ErrInvalidPath, len(ps))
	}
	p.positions = slices.Clone(ps)
	p.reset()
	return nil
}

func (p *Path) PathType() geo.PathType { return p.pathType }

func (p *Path) SetPathType(pt geo.PathType) {
	p.pathType = pt
	p.reset()
}

func (p *Path) FollowTerrain() bool { return p.followTerrain }

// SetFollowTerrain makes segments hug the terrain between positions in
// terrain-relative altitude modes.
func (p *Path) SetFollowTerrain(on bool) {
	p.followTerrain = on
	p.reset()
}

func (p *Path) Extrude() bool { return p.extrude }

func (p *Path) SetExtrude(on bool) {
	p.extrude = on
	p.reset()
}

func (p *Path) InvalidateTerrain() {
	if p.altitudeMode.FollowsTerrain() || p.followTerrain || p.extrude {
		p.regen.Invalidate()
	}
}

func (p *Path) SetNumSubsegments(n int) {
	if n < 1 {
		n = 1
	}
	p.numSubsegments = n
	p.reset()
}

// subdivide returns the positions with interpolated positions inserted.
// Repeated positions are dropped and zero-length segments get no
// interpolated positions.
func (p *Path) subdivide() []geo.Position {
	split := p.pathType == geo.GreatCircle || (p.followTerrain && p.altitudeMode.FollowsTerrain())
	out := make([]geo.Position, 0, len(p.positions))
	for i, pos := range p.positions {
		if i == 0 {
			out = append(out, pos)
			continue
		}
		prev := p.positions[i-1]
		if prev == pos {
			continue
		}
		if split && p.pathType.Distance(prev, pos) > 0 {
			for k := 1; k < p.numSubsegments; k++ {
				out = append(out, p.pathType.Interpolate(float64(k)/float64(p.numSubsegments), prev, pos))
			}
		}
		out = append(out, pos)
	}
	return out
}

func (p *Path) buildGeometry(globe *geo.Globe, terrain geo.Terrain) (*geometry, error) {
	positions := p.subdivide()
	if len(positions) < 2 {
		return nil, nil
	}
	ref := positions[0]
	vb, err := NewVertexBuilder(globe, terrain, p.altitudeMode, ref, ref.Alt)
	if err != nil {
		return nil, err
	}
	top := make([]mgl64.Vec3, len(positions))
	for i, pos := range positions {
		v, err := vb.Point(pos, pos.Alt)
		if err != nil {
			return nil, err
		}
		top[i] = v.Sub(vb.Reference)
	}

	g := newGeometry(vb.Reference)
	n := len(top)
	if !p.extrude {
		g.add(mesh{
			role:     roleCap,
			points:   top,
			vertices: pack(top),
			outline:  []tess.Primitive{{Mode: tess.LineStrip, Indices: sequentialIndices.Get(n)}},
		})
		return g, nil
	}

	base, err := vb.GroundVertices(positions)
	if err != nil {
		return nil, err
	}
	// The curtain interleaves top and base points so it draws as one strip.
	pts := make([]mgl64.Vec3, 0, 2*n)
	normals := make([]float32, 0, 6*n)
	for i := range top {
		pts = append(pts, top[i], base[i])
		j, k := i, i+1
		if k == n {
			j, k = n-2, n-1
		}
		normal := top[k].Sub(top[j]).Cross(top[i].Sub(base[i]))
		if l := normal.Len(); l > 0 {
			normal = normal.Mul(1 / l)
		}
		for range 2 {
			normals = append(normals, float32(normal[0]), float32(normal[1]), float32(normal[2]))
		}
	}
	g.add(mesh{
		role:     roleCap,
		points:   pts,
		vertices: pack(pts),
		normals:  normals,
		fill:     []tess.Primitive{{Mode: tess.Strip, Indices: sequentialIndices.Get(2 * n)}},
		outline:  []tess.Primitive{{Mode: tess.LineStrip, Indices: evenIndices.Get(n)}},
	})
	return g, nil
}
