package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Line is a ray with an origin and direction.
type Line struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// LineThrough returns the line starting at a and passing through b.
func LineThrough(a, b mgl64.Vec3) Line {
	return Line{Origin: a, Direction: b.Sub(a)}
}

// PointAt returns Origin + t*Direction.
func (l Line) PointAt(t float64) mgl64.Vec3 {
	return l.Origin.Add(l.Direction.Mul(t))
}

// Translate returns the line with its origin moved by v.
func (l Line) Translate(v mgl64.Vec3) Line {
	return Line{Origin: l.Origin.Add(v), Direction: l.Direction}
}

const triangleEpsilon = 1e-10

// IntersectTriangle returns the line parameter t at which the line hits
// triangle abc, using the Möller–Trumbore test. Hits behind the origin are
// ignored.
func IntersectTriangle(l Line, a, b, c mgl64.Vec3) (float64, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := l.Direction.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < triangleEpsilon*e1.Len()*e2.Len()*l.Direction.Len() {
		return 0, false
	}
	inv := 1 / det
	s := l.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < -triangleEpsilon || u > 1+triangleEpsilon {
		return 0, false
	}
	q := s.Cross(e1)
	v := l.Direction.Dot(q) * inv
	if v < -triangleEpsilon || u+v > 1+triangleEpsilon {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// TriangleArea returns the area of triangle abc.
func TriangleArea(a, b, c mgl64.Vec3) float64 {
	return b.Sub(a).Cross(c.Sub(a)).Len() / 2
}
