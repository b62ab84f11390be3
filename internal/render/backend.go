package render

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/geoshape/internal/tess"
)

// DrawCall is one indexed draw. Vertices, normals and texture coordinates
// are packed float32 arrays relative to Origin.
type DrawCall struct {
	ObjectID  string
	Mode      tess.Mode
	Origin    mgl64.Vec3
	Vertices  []float32
	Normals   []float32
	TexCoords []float32
	Indices   []uint32
	LineWidth float64
}

// Backend rasterizes draw calls. State set between PushState and PopState
// is restored by PopState.
type Backend interface {
	BeginFrame(v View)
	PushState()
	PopState()
	SetColor(c Color)
	SetLighting(enabled bool)
	BindTexture(t *Texture)
	Draw(call DrawCall)
	// PickColorAt returns the color drawn at screen point (x, y).
	PickColorAt(x, y float64) (Color, bool)
}
