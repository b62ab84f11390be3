package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// PathType selects how positions between two path vertices are computed.
type PathType int

const (
	Linear PathType = iota
	GreatCircle
)

func (pt PathType) String() string {
	switch pt {
	case Linear:
		return "linear"
	case GreatCircle:
		return "greatCircle"
	}
	return fmt.Sprintf("PathType(%d)", int(pt))
}

// ParsePathType maps a document name to a PathType. The empty string maps
// to GreatCircle.
func ParsePathType(s string) (PathType, error) {
	switch s {
	case "", "greatCircle":
		return GreatCircle, nil
	case "linear":
		return Linear, nil
	}
	return Linear, fmt.Errorf("unknown path type %q", s)
}

// Interpolate returns the position a fraction t of the way from a to b.
// Altitude is always interpolated linearly.
func (pt PathType) Interpolate(t float64, a, b Position) Position {
	alt := a.Alt + t*(b.Alt-a.Alt)
	if pt == GreatCircle {
		ll := s2.LatLngFromPoint(s2.Interpolate(t, a.Point(), b.Point()))
		return Position{Lat: ll.Lat, Lon: ll.Lng, Alt: alt}
	}
	dLon := b.Lon - a.Lon
	if dLon > s1.Angle(180)*s1.Degree {
		dLon -= s1.Angle(360) * s1.Degree
	} else if dLon < -s1.Angle(180)*s1.Degree {
		dLon += s1.Angle(360) * s1.Degree
	}
	return Position{
		Lat: a.Lat + s1.Angle(t)*(b.Lat-a.Lat),
		Lon: (a.Lon + s1.Angle(t)*dLon).Normalized(),
		Alt: alt,
	}
}

// Distance returns the angular distance between a and b along this path type.
func (pt PathType) Distance(a, b Position) s1.Angle {
	if pt == GreatCircle {
		return a.Point().Distance(b.Point())
	}
	dLat := b.Lat - a.Lat
	dLon := (b.Lon - a.Lon).Normalized()
	return s1.Angle(math.Hypot(float64(dLat), float64(dLon)))
}
