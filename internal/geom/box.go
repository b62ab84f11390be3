package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// EmptyBox returns a box that contains nothing and grows on Extend.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// BoxFromPoints returns the smallest box enclosing pts.
func BoxFromPoints(pts ...mgl64.Vec3) Box {
	b := EmptyBox()
	for _, p := range pts {
		b = b.Extend(p)
	}
	return b
}

// BoxFromVertices bounds a packed xyz float32 buffer.
func BoxFromVertices(buf []float32) Box {
	b := EmptyBox()
	for i := 0; i+2 < len(buf); i += 3 {
		b = b.Extend(mgl64.Vec3{float64(buf[i]), float64(buf[i+1]), float64(buf[i+2])})
	}
	return b
}

// IsEmpty reports whether the box encloses no points.
func (b Box) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Extend grows the box to include p.
func (b Box) Extend(p mgl64.Vec3) Box {
	for i := range 3 {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(o Box) Box {
	if b.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Translate returns the box moved by v.
func (b Box) Translate(v mgl64.Vec3) Box {
	if b.IsEmpty() {
		return b
	}
	return Box{Min: b.Min.Add(v), Max: b.Max.Add(v)}
}

func (b Box) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Diameter is the length of the box diagonal.
func (b Box) Diameter() float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.Max.Sub(b.Min).Len()
}

// Contains reports whether p lies inside or on the box.
func (b Box) Contains(p mgl64.Vec3) bool {
	for i := range 3 {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Vec32 narrows a double precision vector for vertex buffers.
func Vec32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}
