package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/geoshape/internal/geo"
	"github.com/inamate/geoshape/internal/geom"
)

// View is a perspective camera. Screen coordinates used by View methods
// have their origin at the top left of the viewport.
type View struct {
	Eye         mgl64.Vec3
	ModelView   mgl64.Mat4
	Projection  mgl64.Mat4
	Width       int
	Height      int
	FieldOfView float64 // vertical, radians
}

// NewView builds a view looking from eye at center.
func NewView(eye, center, up mgl64.Vec3, fovy float64, width, height int, near, far float64) View {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return View{
		Eye:         eye,
		ModelView:   mgl64.LookAtV(eye, center, up),
		Projection:  mgl64.Perspective(fovy, float64(width)/float64(height), near, far),
		Width:       width,
		Height:      height,
		FieldOfView: fovy,
	}
}

// LookAt builds a view on globe from an eye position toward a target
// position, with the local vertical at the eye as up.
func LookAt(globe *geo.Globe, eye, target geo.Position, fovy float64, width, height int) View {
	e := globe.PointAt(eye.Lat, eye.Lon, eye.Alt)
	c := globe.PointAt(target.Lat, target.Lon, target.Alt)
	up := globe.SurfaceNormalAt(eye.Lat, eye.Lon)
	dir := c.Sub(e)
	if d := dir.Len(); d > 0 && math.Abs(dir.Mul(1/d).Dot(up)) > 0.999 {
		// Looking straight down; use north as up.
		up = globe.PointAt(eye.Lat+1e-3, eye.Lon, eye.Alt).Sub(e).Normalize()
	}
	dist := dir.Len()
	near := math.Max(1, dist*1e-3)
	far := dist + 2*globe.EquatorialRadius
	return NewView(e, c, up, fovy, width, height, near, far)
}

func (v View) mvp() mgl64.Mat4 {
	return v.Projection.Mul4(v.ModelView)
}

func (v View) viewport() [4]float64 {
	return [4]float64{0, 0, float64(v.Width), float64(v.Height)}
}

// Frustum returns the view frustum in model coordinates.
func (v View) Frustum() geom.Frustum {
	return geom.FrustumFromMatrix(v.mvp())
}

// PickFrustum returns a frustum covering radius pixels around screen
// point (x, y).
func (v View) PickFrustum(x, y, radius float64) geom.Frustum {
	pick := geom.PickMatrix(x, float64(v.Height)-y, radius, v.viewport())
	return geom.FrustumFromMatrix(pick.Mul4(v.mvp()))
}

// PixelSizeAt returns the size in meters of one pixel at distance d.
func (v View) PixelSizeAt(d float64) float64 {
	return 2 * d * math.Tan(v.FieldOfView/2) / float64(v.Height)
}

// Project maps p to screen coordinates plus a depth in [0, 1]. ok is false
// when p is behind the eye.
func (v View) Project(p mgl64.Vec3) (mgl64.Vec3, bool) {
	clip := v.mvp().Mul4x1(p.Vec4(1))
	if clip[3] <= 0 {
		return mgl64.Vec3{}, false
	}
	ndc := clip.Vec3().Mul(1 / clip[3])
	return mgl64.Vec3{
		(ndc[0] + 1) / 2 * float64(v.Width),
		(1 - ndc[1]) / 2 * float64(v.Height),
		(ndc[2] + 1) / 2,
	}, true
}

// Ray returns the line from the eye through screen point (x, y).
func (v View) Ray(x, y float64) geom.Line {
	inv := v.mvp().Inv()
	nx := 2*x/float64(v.Width) - 1
	ny := 1 - 2*y/float64(v.Height)
	far := inv.Mul4x1(mgl64.Vec4{nx, ny, 1, 1})
	target := far.Vec3().Mul(1 / far[3])
	return geom.Line{Origin: v.Eye, Direction: target.Sub(v.Eye).Normalize()}
}
