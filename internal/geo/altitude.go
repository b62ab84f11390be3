package geo

import "fmt"

// AltitudeMode controls how a stored altitude is interpreted.
type AltitudeMode int

const (
	Absolute AltitudeMode = iota
	RelativeToGround
	ClampToGround
	// Constant places vertices in the plane tangent to the ellipsoid at the
	// reference location, a fixed height above the terrain there.
	Constant
)

var altitudeModeNames = map[AltitudeMode]string{
	Absolute:         "absolute",
	RelativeToGround: "relativeToGround",
	ClampToGround:    "clampToGround",
	Constant:         "constant",
}

func (m AltitudeMode) String() string {
	if name, ok := altitudeModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("AltitudeMode(%d)", int(m))
}

// FollowsTerrain reports whether geometry in this mode depends on terrain.
func (m AltitudeMode) FollowsTerrain() bool {
	return m != Absolute
}

// ParseAltitudeMode maps a document name to an AltitudeMode. The empty
// string maps to Absolute.
func ParseAltitudeMode(s string) (AltitudeMode, error) {
	if s == "" {
		return Absolute, nil
	}
	for mode, name := range altitudeModeNames {
		if name == s {
			return mode, nil
		}
	}
	return Absolute, fmt.Errorf("unknown altitude mode %q", s)
}
