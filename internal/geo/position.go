package geo

import (
	"fmt"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Position is a geographic location with an optional altitude in meters.
type Position struct {
	Lat s1.Angle
	Lon s1.Angle
	Alt float64
}

// PositionFromDegrees builds a Position from degree coordinates.
func PositionFromDegrees(lat, lon, alt float64) Position {
	return Position{Lat: s1.Angle(lat) * s1.Degree, Lon: s1.Angle(lon) * s1.Degree, Alt: alt}
}

// LatLng returns the location component as an s2.LatLng.
func (p Position) LatLng() s2.LatLng {
	return s2.LatLng{Lat: p.Lat, Lng: p.Lon}
}

// Point returns the location as a unit-sphere point.
func (p Position) Point() s2.Point {
	return s2.PointFromLatLng(p.LatLng())
}

// SameLocation reports whether p and o share latitude and longitude.
func (p Position) SameLocation(o Position) bool {
	return p.Lat == o.Lat && p.Lon == o.Lon
}

func (p Position) String() string {
	return fmt.Sprintf("(%.6f, %.6f, %.2f)", p.Lat.Degrees(), p.Lon.Degrees(), p.Alt)
}
