package shape

import (
	"github.com/inamate/geoshape/internal/geo"
	"github.com/inamate/geoshape/internal/render"
)

// Polygon is a filled surface bounded by an outer ring and optional holes.
type Polygon struct {
	shapeBase
	boundaryShape
}

// NewPolygon creates a polygon from rings, outer boundary first.
func NewPolygon(id string, rings ...[]geo.Position) (*Polygon, error) {
	p := &Polygon{shapeBase: newShapeBase(id, render.KindPolygon, geo.Absolute)}
	p.self = p
	p.build = p.buildGeometry
	p.onFailure = p.clear
	p.changed = p.reset
	if len(rings) > 0 {
		if err := p.SetBoundaries(rings...); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Polygon) buildGeometry(globe *geo.Globe, terrain geo.Terrain) (*geometry, error) {
	if len(p.boundaries) == 0 {
		return nil, nil
	}
	ref := p.referencePosition()
	vb, err := NewVertexBuilder(globe, terrain, p.altitudeMode, ref, ref.Alt)
	if err != nil {
		return nil, err
	}
	rings, err := p.capRings(vb, nil)
	if err != nil {
		return nil, err
	}
	meshes, err := p.capMeshes(rings, vb.Reference)
	if err != nil {
		return nil, err
	}
	g := newGeometry(vb.Reference)
	for _, m := range meshes {
		g.add(m)
	}
	return g, nil
}
