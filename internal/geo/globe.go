package geo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/s1"
)

// Globe is an oblate ellipsoid in a Cartesian frame where +Y is the polar
// axis, +Z passes through (0°, 0°) and +X through (0°, 90°E).
type Globe struct {
	EquatorialRadius    float64
	PolarRadius         float64
	EccentricitySquared float64
}

// WGS84 returns the WGS84 reference ellipsoid.
func WGS84() *Globe {
	const a = 6378137.0
	const e2 = 0.00669437999013
	return &Globe{
		EquatorialRadius:    a,
		PolarRadius:         a * math.Sqrt(1-e2),
		EccentricitySquared: e2,
	}
}

// PointAt returns the Cartesian point at the given geodetic position.
func (g *Globe) PointAt(lat, lon s1.Angle, alt float64) mgl64.Vec3 {
	sinLat, cosLat := math.Sincos(lat.Radians())
	sinLon, cosLon := math.Sincos(lon.Radians())
	n := g.primeVerticalRadius(sinLat)
	return mgl64.Vec3{
		(n + alt) * cosLat * sinLon,
		(n*(1-g.EccentricitySquared) + alt) * sinLat,
		(n + alt) * cosLat * cosLon,
	}
}

// PositionAt converts a Cartesian point back to a geodetic position.
func (g *Globe) PositionAt(v mgl64.Vec3) Position {
	x, y, z := v[0], v[1], v[2]
	e2 := g.EccentricitySquared
	p := math.Hypot(x, z)
	lon := math.Atan2(x, z)

	if p < 1e-9 {
		lat := math.Pi / 2
		if y < 0 {
			lat = -lat
		}
		return Position{Lat: s1.Angle(lat), Lon: s1.Angle(lon), Alt: math.Abs(y) - g.PolarRadius}
	}

	lat := math.Atan2(y, p*(1-e2))
	var h float64
	for range 8 {
		sinLat, cosLat := math.Sincos(lat)
		n := g.primeVerticalRadius(sinLat)
		h = p/cosLat - n
		lat = math.Atan2(y, p*(1-e2*n/(n+h)))
	}
	return Position{Lat: s1.Angle(lat), Lon: s1.Angle(lon), Alt: h}
}

// SurfaceNormalAt returns the unit geodetic normal at the given location.
func (g *Globe) SurfaceNormalAt(lat, lon s1.Angle) mgl64.Vec3 {
	sinLat, cosLat := math.Sincos(lat.Radians())
	sinLon, cosLon := math.Sincos(lon.Radians())
	return mgl64.Vec3{cosLat * sinLon, sinLat, cosLat * cosLon}
}

func (g *Globe) primeVerticalRadius(sinLat float64) float64 {
	return g.EquatorialRadius / math.Sqrt(1-g.EccentricitySquared*sinLat*sinLat)
}
