package shape

import (
	"fmt"

	"github.com/inamate/geoshape/internal/geo"
	"github.com/inamate/geoshape/internal/render"
	"github.com/inamate/geoshape/internal/tess"
)

// ExtrudedPolygon is a polygon cap joined to the terrain by vertical walls.
//
// The cap altitude of a location is its own altitude when non-zero and
// the shape height otherwise. ClampToGround extrudes height meters above
// the terrain. In Constant mode the whole cap lies in one plane height
// meters above the terrain at the reference location.
type ExtrudedPolygon struct {
	shapeBase
	boundaryShape

	height      float64
	enableCap   bool
	enableSides bool
}

func NewExtrudedPolygon(id string, height float64, rings ...[]geo.Position) (*ExtrudedPolygon, error) {
	e := &ExtrudedPolygon{
		shapeBase:   newShapeBase(id, render.KindExtrudedPolygon, geo.RelativeToGround),
		height:      height,
		enableCap:   true,
		enableSides: true,
	}
	e.self = e
	e.build = e.buildGeometry
	e.onFailure = e.clear
	e.changed = e.reset
	if len(rings) > 0 {
		if err := e.SetBoundaries(rings...); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *ExtrudedPolygon) Height() float64 { return e.height }

func (e *ExtrudedPolygon) SetHeight(h float64) {
	if h != e.height {
		e.height = h
		e.reset()
	}
}

func (e *ExtrudedPolygon) SetCapEnabled(on bool) {
	e.enableCap = on
	e.reset()
}

func (e *ExtrudedPolygon) SetSidesEnabled(on bool) {
	e.enableSides = on
	e.reset()
}

func (e *ExtrudedPolygon) SideAttributes() *Attributes { return e.sideAttrs }

// SetSideAttributes sets the wall attributes. Nil walls use the cap
// attributes.
func (e *ExtrudedPolygon) SetSideAttributes(a *Attributes) {
	e.sideAttrs = a
	e.regen.Invalidate()
}

func (e *ExtrudedPolygon) SetSideHighlightAttributes(a *Attributes) {
	e.sideHighlightAttrs = a
	e.regen.Invalidate()
}

// InvalidateTerrain marks the geometry stale in every altitude mode since
// the walls always reach down to the terrain.
func (e *ExtrudedPolygon) InvalidateTerrain() { e.regen.Invalidate() }

func (e *ExtrudedPolygon) capAltitude(p geo.Position) float64 {
	if p.Alt != 0 && e.altitudeMode != geo.ClampToGround && e.altitudeMode != geo.Constant {
		return p.Alt
	}
	return e.height
}

func (e *ExtrudedPolygon) buildGeometry(globe *geo.Globe, terrain geo.Terrain) (*geometry, error) {
	if len(e.boundaries) == 0 {
		return nil, nil
	}
	mode := e.altitudeMode
	if mode == geo.ClampToGround {
		mode = geo.RelativeToGround
	}
	ref := e.referencePosition()
	vb, err := NewVertexBuilder(globe, terrain, mode, ref, e.capAltitude(ref))
	if err != nil {
		return nil, err
	}
	rings, err := e.capRings(vb, e.capAltitude)
	if err != nil {
		return nil, err
	}

	g := newGeometry(vb.Reference)
	if e.enableCap {
		meshes, err := e.capMeshes(rings, vb.Reference)
		if err != nil {
			return nil, err
		}
		for _, m := range meshes {
			g.add(m)
		}
	}
	if e.enableSides {
		for i, boundary := range e.boundaries {
			base, err := vb.GroundVertices(boundary)
			if err != nil {
				return nil, fmt.Errorf("boundary %d base: %w", i, err)
			}
			sides := BuildSides(rings[i], base)
			n := len(boundary)
			g.add(mesh{
				role:      roleSide,
				points:    sides.Points,
				vertices:  sides.Vertices,
				normals:   sides.Normals,
				texCoords: sides.TexCoords,
				fill:      []tess.Primitive{{Mode: tess.Triangles, Indices: sideFillIndices.Get(n)}},
				outline:   []tess.Primitive{{Mode: tess.Lines, Indices: sideOutlineIndices.Get(n)}},
			})
		}
	}
	return g, nil
}
