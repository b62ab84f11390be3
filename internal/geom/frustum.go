package geom

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Plane is the set of points p with Normal·p + D = 0. The positive side is
// inside a frustum.
type Plane struct {
	Normal mgl64.Vec3
	D      float64
}

func planeFromRow(v mgl64.Vec4) Plane {
	n := mgl64.Vec3{v[0], v[1], v[2]}
	l := n.Len()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Mul(1 / l), D: v[3] / l}
}

// Distance returns the signed distance from p to the plane.
func (p Plane) Distance(v mgl64.Vec3) float64 {
	return p.Normal.Dot(v) + p.D
}

// Frustum is bounded by six inward facing planes: left, right, bottom, top,
// near, far.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromMatrix extracts the clip planes of a combined
// projection*modelview matrix.
func FrustumFromMatrix(m mgl64.Mat4) Frustum {
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	return Frustum{Planes: [6]Plane{
		planeFromRow(r3.Add(r0)),
		planeFromRow(r3.Sub(r0)),
		planeFromRow(r3.Add(r1)),
		planeFromRow(r3.Sub(r1)),
		planeFromRow(r3.Add(r2)),
		planeFromRow(r3.Sub(r2)),
	}}
}

// IntersectsBox reports whether any part of b may lie inside the frustum.
// Each plane is tested against the box corner furthest along its normal.
func (f Frustum) IntersectsBox(b Box) bool {
	if b.IsEmpty() {
		return false
	}
	for _, p := range f.Planes {
		var pv mgl64.Vec3
		for i := range 3 {
			if p.Normal[i] >= 0 {
				pv[i] = b.Max[i]
			} else {
				pv[i] = b.Min[i]
			}
		}
		if p.Distance(pv) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether v is inside all six planes.
func (f Frustum) ContainsPoint(v mgl64.Vec3) bool {
	for _, p := range f.Planes {
		if p.Distance(v) < 0 {
			return false
		}
	}
	return true
}

// PickMatrix returns a projection adjustment that maps a square region of
// radius pixels around window point (x, y) onto the whole clip volume.
// Window coordinates have their origin at the bottom left of the viewport.
func PickMatrix(x, y, radius float64, viewport [4]float64) mgl64.Mat4 {
	if radius <= 0 {
		radius = 1
	}
	size := 2 * radius
	tx := (viewport[2] - 2*(x-viewport[0])) / size
	ty := (viewport[3] - 2*(y-viewport[1])) / size
	return mgl64.Translate3D(tx, ty, 0).Mul4(mgl64.Scale3D(viewport[2]/size, viewport[3]/size, 1))
}
