package geo

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/s1"
)

// ErrTerrainUnavailable is returned when a terrain has no data for a location.
var ErrTerrainUnavailable = errors.New("terrain unavailable")

// Terrain answers surface point queries for geometry generation. Results
// must be stable for identical inputs within one regeneration pass.
// Implementations are compared by identity, so they should be pointers.
type Terrain interface {
	Globe() *Globe
	VerticalExaggeration() float64
	// SurfacePoint returns the point offset meters above the exaggerated
	// terrain surface. ok is false when no elevation data is available.
	SurfacePoint(lat, lon s1.Angle, offset float64) (p mgl64.Vec3, ok bool)
}

// ElevationModel supplies terrain heights in meters.
type ElevationModel interface {
	Elevation(lat, lon s1.Angle) (float64, bool)
}

// ConstantElevation is a flat elevation model.
type ConstantElevation float64

func (c ConstantElevation) Elevation(_, _ s1.Angle) (float64, bool) {
	return float64(c), true
}

// ElevationFunc adapts a function to ElevationModel.
type ElevationFunc func(lat, lon s1.Angle) (float64, bool)

func (f ElevationFunc) Elevation(lat, lon s1.Angle) (float64, bool) {
	return f(lat, lon)
}

// ElevationTerrain is a Terrain backed by an ElevationModel. A nil model
// makes it the bare ellipsoid.
type ElevationTerrain struct {
	globe *Globe
	model ElevationModel
	ve    float64
}

// NewEllipsoidTerrain returns a terrain that follows the ellipsoid surface.
func NewEllipsoidTerrain(globe *Globe, verticalExaggeration float64) *ElevationTerrain {
	return NewElevationTerrain(globe, nil, verticalExaggeration)
}

func NewElevationTerrain(globe *Globe, model ElevationModel, verticalExaggeration float64) *ElevationTerrain {
	if verticalExaggeration <= 0 {
		verticalExaggeration = 1
	}
	return &ElevationTerrain{globe: globe, model: model, ve: verticalExaggeration}
}

func (t *ElevationTerrain) Globe() *Globe { return t.globe }

func (t *ElevationTerrain) VerticalExaggeration() float64 { return t.ve }

func (t *ElevationTerrain) SurfacePoint(lat, lon s1.Angle, offset float64) (mgl64.Vec3, bool) {
	elevation := 0.0
	if t.model != nil {
		e, ok := t.model.Elevation(lat, lon)
		if !ok {
			return mgl64.Vec3{}, false
		}
		elevation = e
	}
	return t.globe.PointAt(lat, lon, elevation*t.ve+offset), true
}

// HeightAboveGround returns the height of p above the terrain surface
// directly beneath it.
func HeightAboveGround(t Terrain, p mgl64.Vec3) (float64, error) {
	pos := t.Globe().PositionAt(p)
	ground, ok := t.SurfacePoint(pos.Lat, pos.Lon, 0)
	if !ok {
		return 0, ErrTerrainUnavailable
	}
	return pos.Alt - t.Globe().PositionAt(ground).Alt, nil
}
