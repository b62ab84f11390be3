package render

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/geoshape/internal/geo"
	"github.com/inamate/geoshape/internal/geom"
)

// DefaultPickRadius is the half width in pixels of the pick frustum.
const DefaultPickRadius = 3

// DrawContext carries per-frame state between layers, shapes and the
// backend. It belongs to the render goroutine.
type DrawContext struct {
	Backend              Backend
	Globe                *geo.Globe
	Terrain              geo.Terrain
	VerticalExaggeration float64
	// RegenerationBudget caps geometry regenerations per frame; zero means
	// unlimited.
	RegenerationBudget int
	PickRadius         float64
	Diagnostics        chan<- Diagnostic
	TextureRequester   TextureRequester
	TextureHandoff     *TextureHandoff

	view         View
	frustum      geom.Frustum
	frame        uint64
	timestamp    time.Time
	picking      bool
	pickPoint    [2]float64
	pickFrustums []geom.Frustum
	queue        Queue
	regenerated  int
	currentLayer *Layer
	textures     map[string]*Texture
	requested    map[string]bool
	picks        pickSupport
}

func NewDrawContext(backend Backend, globe *geo.Globe) *DrawContext {
	return &DrawContext{
		Backend:              backend,
		Globe:                globe,
		VerticalExaggeration: 1,
		PickRadius:           DefaultPickRadius,
		textures:             make(map[string]*Texture),
		requested:            make(map[string]bool),
	}
}

// BeginFrame resets per-frame state for a display frame.
func (dc *DrawContext) BeginFrame(v View, ts time.Time) {
	dc.frame++
	dc.timestamp = ts
	dc.view = v
	dc.frustum = v.Frustum()
	dc.picking = false
	dc.pickFrustums = nil
	dc.queue.Clear()
	dc.regenerated = 0
	dc.currentLayer = nil
	dc.picks.reset()
	if dc.TextureHandoff != nil {
		for _, t := range dc.TextureHandoff.Drain() {
			dc.textures[t.ID] = t
			delete(dc.requested, t.ID)
		}
	}
	if dc.Backend != nil {
		dc.Backend.BeginFrame(v)
	}
}

// BeginPick resets per-frame state for a pick pass at screen point (x, y).
func (dc *DrawContext) BeginPick(v View, ts time.Time, x, y float64) {
	dc.BeginFrame(v, ts)
	dc.picking = true
	dc.pickPoint = [2]float64{x, y}
	r := dc.PickRadius
	if r <= 0 {
		r = DefaultPickRadius
	}
	dc.pickFrustums = []geom.Frustum{v.PickFrustum(x, y, r)}
}

func (dc *DrawContext) View() View                   { return dc.view }
func (dc *DrawContext) Frustum() geom.Frustum        { return dc.frustum }
func (dc *DrawContext) Frame() uint64                { return dc.frame }
func (dc *DrawContext) Timestamp() time.Time         { return dc.timestamp }
func (dc *DrawContext) Picking() bool                { return dc.picking }
func (dc *DrawContext) PickPoint() [2]float64        { return dc.pickPoint }
func (dc *DrawContext) CurrentLayer() *Layer         { return dc.currentLayer }
func (dc *DrawContext) Queue() *Queue                { return &dc.queue }
func (dc *DrawContext) PickFrustums() []geom.Frustum { return dc.pickFrustums }

// Enqueue defers r until the ordered pass, remembering the current layer.
func (dc *DrawContext) Enqueue(r OrderedRenderable, eyeDistance float64) {
	dc.queue.push(r, eyeDistance, dc.currentLayer)
}

// DrawOrdered drains the ordered queue completely. A panic in one
// renderable is reported and the drain continues with the next.
func (dc *DrawContext) DrawOrdered() {
	for {
		e, ok := dc.queue.poll()
		if !ok {
			break
		}
		dc.currentLayer = e.layer
		dc.safely(e.r, func() { e.r.RenderOrdered(dc) })
	}
	dc.currentLayer = nil
}

func (dc *DrawContext) renderSafely(r Renderable) {
	dc.safely(r, func() { r.Render(dc) })
}

func (dc *DrawContext) safely(obj any, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			dc.Report(objectID(obj), fmt.Errorf("panic: %v", p))
		}
	}()
	fn()
}

func objectID(obj any) string {
	if o, ok := obj.(interface{ ID() string }); ok {
		return o.ID()
	}
	return fmt.Sprintf("%T", obj)
}

// AllowRegeneration consumes one unit of this frame's regeneration budget.
func (dc *DrawContext) AllowRegeneration() bool {
	if dc.RegenerationBudget > 0 && dc.regenerated >= dc.RegenerationBudget {
		return false
	}
	dc.regenerated++
	return true
}

// Regenerations returns how many regenerations this frame has allowed.
func (dc *DrawContext) Regenerations() int { return dc.regenerated }

// IsVisible tests an absolute-frame box against the view frustum, or
// against the pick frustums while picking.
func (dc *DrawContext) IsVisible(b geom.Box) bool {
	if !dc.picking {
		return dc.frustum.IntersectsBox(b)
	}
	for _, f := range dc.pickFrustums {
		if f.IntersectsBox(b) {
			return true
		}
	}
	return false
}

// IsSmall reports whether b projects to fewer than numPixels pixels.
func (dc *DrawContext) IsSmall(b geom.Box, numPixels float64) bool {
	if b.IsEmpty() {
		return true
	}
	d := dc.EyeDistance(b.Center())
	size := dc.view.PixelSizeAt(math.Max(d-b.Diameter()/2, 0))
	if size == 0 {
		return false
	}
	return b.Diameter() < numPixels*size
}

// EyeDistance returns the distance from the eye to p.
func (dc *DrawContext) EyeDistance(p mgl64.Vec3) float64 {
	return p.Sub(dc.view.Eye).Len()
}

// Texture returns a loaded texture, asking the requester to load it on a
// miss. Requests are issued once until the texture arrives.
func (dc *DrawContext) Texture(id string) (*Texture, bool) {
	if id == "" {
		return nil, false
	}
	if t, ok := dc.textures[id]; ok {
		return t, true
	}
	if dc.TextureRequester != nil && !dc.requested[id] {
		dc.requested[id] = true
		dc.TextureRequester.RequestTexture(id)
	}
	return nil, false
}

// UniquePickColor allocates a color not yet used in this pick pass.
func (dc *DrawContext) UniquePickColor() Color {
	return dc.picks.uniqueColor()
}

// AddPickCandidate associates a pick color with the object drawn in it.
func (dc *DrawContext) AddPickCandidate(c Color, o PickedObject) {
	if o.LayerID == "" && dc.currentLayer != nil {
		o.LayerID = dc.currentLayer.ID
	}
	dc.picks.add(c, o)
}

// ResolvePick reads the color under the pick point and maps it back to
// the object drawn there.
func (dc *DrawContext) ResolvePick() (PickedObject, bool) {
	if !dc.picking || dc.Backend == nil {
		return PickedObject{}, false
	}
	c, ok := dc.Backend.PickColorAt(dc.pickPoint[0], dc.pickPoint[1])
	if !ok {
		return PickedObject{}, false
	}
	return dc.picks.resolve(c)
}
