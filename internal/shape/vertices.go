package shape

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/geoshape/internal/geo"
	"github.com/inamate/geoshape/internal/geom"
)

// VertexBuilder converts geographic positions to Cartesian points for one
// regeneration pass. All points share the same terrain snapshot so the
// output is stable for identical inputs.
type VertexBuilder struct {
	globe   *geo.Globe
	terrain geo.Terrain
	mode    geo.AltitudeMode
	ve      float64

	// Reference is the absolute point that vertex buffers are relative to.
	Reference mgl64.Vec3

	// Constant mode plane: dot(p, up) == planeD.
	up     mgl64.Vec3
	planeD float64
}

// NewVertexBuilder prepares a builder whose reference point is ref at
// altitude refAlt interpreted in mode. In Constant mode refAlt is the
// height of the shared plane above the terrain at ref.
func NewVertexBuilder(globe *geo.Globe, terrain geo.Terrain, mode geo.AltitudeMode, ref geo.Position, refAlt float64) (*VertexBuilder, error) {
	if terrain != nil {
		globe = terrain.Globe()
	}
	if globe == nil {
		return nil, fmt.Errorf("vertex builder: %w", geo.ErrTerrainUnavailable)
	}
	vb := &VertexBuilder{globe: globe, terrain: terrain, mode: mode, ve: 1}
	if terrain != nil {
		vb.ve = terrain.VerticalExaggeration()
	}
	if mode == geo.Constant {
		ground, err := vb.Ground(ref)
		if err != nil {
			return nil, err
		}
		vb.up = globe.SurfaceNormalAt(ref.Lat, ref.Lon)
		vb.planeD = ground.Dot(vb.up) + refAlt
	}
	p, err := vb.Point(ref, refAlt)
	if err != nil {
		return nil, err
	}
	vb.Reference = p
	return vb, nil
}

func (vb *VertexBuilder) Mode() geo.AltitudeMode { return vb.mode }

// Point returns the absolute point for p at altitude alt.
func (vb *VertexBuilder) Point(p geo.Position, alt float64) (mgl64.Vec3, error) {
	switch vb.mode {
	case geo.RelativeToGround:
		return vb.surface(p, alt)
	case geo.ClampToGround:
		return vb.surface(p, 0)
	case geo.Constant:
		// Vertices are pushed along the reference normal onto the plane
		// tangent at the reference location. Heights above terrain away
		// from the reference drift with distance and terrain relief.
		ground, err := vb.surface(p, 0)
		if err != nil {
			return mgl64.Vec3{}, err
		}
		return ground.Add(vb.up.Mul(vb.planeD - ground.Dot(vb.up))), nil
	default:
		return vb.globe.PointAt(p.Lat, p.Lon, alt*vb.ve), nil
	}
}

// Ground returns the terrain surface point beneath p.
func (vb *VertexBuilder) Ground(p geo.Position) (mgl64.Vec3, error) {
	return vb.surface(p, 0)
}

func (vb *VertexBuilder) surface(p geo.Position, offset float64) (mgl64.Vec3, error) {
	if vb.terrain == nil {
		return mgl64.Vec3{}, geo.ErrTerrainUnavailable
	}
	v, ok := vb.terrain.SurfacePoint(p.Lat, p.Lon, offset)
	if !ok {
		return mgl64.Vec3{}, fmt.Errorf("surface point at %s: %w", p, geo.ErrTerrainUnavailable)
	}
	return v, nil
}

// BoundaryVertices converts a closed boundary to points relative to the
// reference point. alt chooses each position's altitude; nil uses the
// position's own altitude. The result has one point per position, so the
// closing point repeats the first.
func (vb *VertexBuilder) BoundaryVertices(b geo.Boundary, alt func(geo.Position) float64) ([]mgl64.Vec3, error) {
	out := make([]mgl64.Vec3, len(b))
	for i, p := range b {
		a := p.Alt
		if alt != nil {
			a = alt(p)
		}
		v, err := vb.Point(p, a)
		if err != nil {
			return nil, err
		}
		out[i] = v.Sub(vb.Reference)
	}
	return out, nil
}

// GroundVertices converts positions to terrain surface points relative to
// the reference point.
func (vb *VertexBuilder) GroundVertices(ps []geo.Position) ([]mgl64.Vec3, error) {
	out := make([]mgl64.Vec3, len(ps))
	for i, p := range ps {
		v, err := vb.Ground(p)
		if err != nil {
			return nil, err
		}
		out[i] = v.Sub(vb.Reference)
	}
	return out, nil
}

// pack flattens points into a float32 xyz buffer.
func pack(pts []mgl64.Vec3) []float32 {
	buf := make([]float32, 0, len(pts)*3)
	for _, p := range pts {
		v := geom.Vec32(p)
		buf = append(buf, v[:]...)
	}
	return buf
}
