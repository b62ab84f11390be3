// Package shape builds globe-anchored geometry for polygons, extruded
// polygons and paths and draws it through the deferred render queue.
package shape

import (
	"context"
	"errors"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/geoshape/internal/geo"
	"github.com/inamate/geoshape/internal/geom"
	"github.com/inamate/geoshape/internal/render"
	"github.com/inamate/geoshape/internal/tess"
)

// Shape is a renderable, pickable and intersectable globe shape.
type Shape interface {
	render.Renderable
	ID() string
	// Extent returns the absolute bounding box of the current geometry.
	// It is empty until the shape has been generated once.
	Extent() geom.Box
	Intersect(ctx context.Context, line geom.Line, terrain geo.Terrain) ([]Intersection, error)
	// InvalidateTerrain marks geometry that depends on the terrain stale.
	InvalidateTerrain()
}

type meshRole int

const (
	roleCap meshRole = iota
	roleSide
)

// mesh is one vertex buffer with the primitives drawn from it. Points and
// vertices are relative to the geometry's reference point.
type mesh struct {
	role      meshRole
	points    []mgl64.Vec3
	vertices  []float32
	normals   []float32
	texCoords []float32
	fill      []tess.Primitive
	outline   []tess.Primitive
}

// geometry is the generated, view-independent state of a shape.
type geometry struct {
	ref    mgl64.Vec3
	extent geom.Box
	meshes []mesh
}

func newGeometry(ref mgl64.Vec3) *geometry {
	return &geometry{ref: ref, extent: geom.EmptyBox()}
}

func (g *geometry) add(m mesh) {
	g.meshes = append(g.meshes, m)
	g.extent = g.extent.Union(geom.BoxFromPoints(m.points...))
}

func (g *geometry) absoluteExtent() geom.Box {
	if g == nil {
		return geom.EmptyBox()
	}
	return g.extent.Translate(g.ref)
}

// shapeBase holds the state and frame logic shared by every shape type.
// The concrete type supplies build, and optionally onFailure to discard
// authored data the tessellator rejected.
type shapeBase struct {
	id           string
	kind         render.Kind
	altitudeMode geo.AltitudeMode

	attrs, highlightAttrs         *Attributes
	sideAttrs, sideHighlightAttrs *Attributes
	active, activeSide            Attributes

	highlighted bool
	visible     bool
	batching    bool

	regen     Regenerator
	current   *geometry
	pickLayer *render.Layer
	pickColor render.Color
	intersect intersectionCache

	self      render.OrderedRenderable
	build     func(globe *geo.Globe, terrain geo.Terrain) (*geometry, error)
	onFailure func()
}

func newShapeBase(id string, kind render.Kind, mode geo.AltitudeMode) shapeBase {
	return shapeBase{
		id:             id,
		kind:           kind,
		altitudeMode:   mode,
		attrs:          DefaultAttributes(),
		highlightAttrs: DefaultHighlightAttributes(),
		visible:        true,
		batching:       true,
	}
}

func (s *shapeBase) ID() string { return s.id }

func (s *shapeBase) AltitudeMode() geo.AltitudeMode { return s.altitudeMode }

func (s *shapeBase) SetAltitudeMode(m geo.AltitudeMode) {
	if m != s.altitudeMode {
		s.altitudeMode = m
		s.reset()
	}
}

func (s *shapeBase) Attributes() *Attributes { return s.attrs }

func (s *shapeBase) SetAttributes(a *Attributes) {
	s.attrs = a
	s.regen.Invalidate()
}

func (s *shapeBase) HighlightAttributes() *Attributes { return s.highlightAttrs }

func (s *shapeBase) SetHighlightAttributes(a *Attributes) {
	s.highlightAttrs = a
	s.regen.Invalidate()
}

func (s *shapeBase) Highlighted() bool            { return s.highlighted }
func (s *shapeBase) SetHighlighted(h bool)        { s.highlighted = h }
func (s *shapeBase) Visible() bool                { return s.visible }
func (s *shapeBase) SetVisible(v bool)            { s.visible = v }
func (s *shapeBase) SetBatching(b bool)           { s.batching = b }
func (s *shapeBase) BatchingEnabled() bool        { return s.batching }
func (s *shapeBase) BatchKey() render.Kind        { return s.kind }
func (s *shapeBase) State() State                 { return s.regen.State() }
func (s *shapeBase) Extent() geom.Box             { return s.current.absoluteExtent() }
func (s *shapeBase) ActiveAttributes() Attributes { return s.active }

func (s *shapeBase) InvalidateTerrain() {
	if s.altitudeMode.FollowsTerrain() {
		s.regen.Invalidate()
	}
}

// SetRegenerationInterval sets how long terrain-following geometry is
// reused.
func (s *shapeBase) SetRegenerationInterval(d time.Duration) { s.regen.Interval = d }

// reset discards generated geometry after a change to authored data.
func (s *shapeBase) reset() {
	s.current = nil
	s.regen.Reset()
	s.intersect = intersectionCache{}
}

// Render resolves attributes, regenerates geometry when needed and
// enqueues the shape for the ordered pass if it is in view and at least
// one pixel across.
func (s *shapeBase) Render(dc *render.DrawContext) {
	if !s.visible {
		return
	}
	if err := s.resolveActive(); err != nil {
		dc.Report(s.id, err)
		return
	}

	if !s.prepare(dc) {
		return
	}
	ext := s.current.absoluteExtent()
	if !dc.IsVisible(ext) || dc.IsSmall(ext, 1) {
		return
	}
	s.pickLayer = dc.CurrentLayer()
	dc.Enqueue(s.self, dc.EyeDistance(ext.Center()))
}

func (s *shapeBase) resolveActive() error {
	if err := resolveAttributes(&s.active, s.attrs, s.highlightAttrs, s.highlighted); err != nil {
		return err
	}
	return resolveAttributes(&s.activeSide, coalesce(s.sideAttrs, s.attrs), coalesce(s.sideHighlightAttrs, s.highlightAttrs), s.highlighted)
}

func coalesce(a, b *Attributes) *Attributes {
	if a != nil {
		return a
	}
	return b
}

func exaggeration(dc *render.DrawContext) float64 {
	if dc.Terrain != nil {
		return dc.Terrain.VerticalExaggeration()
	}
	if dc.VerticalExaggeration > 0 {
		return dc.VerticalExaggeration
	}
	return 1
}

// prepare brings the geometry up to date for this frame and reports
// whether there is anything to draw.
func (s *shapeBase) prepare(dc *render.DrawContext) bool {
	ve := exaggeration(dc)
	needed := false
	switch s.regen.Check(dc.Timestamp(), ve, s.altitudeMode) {
	case StateEmpty:
		needed = true
	case StateStale:
		ext := s.current.absoluteExtent()
		needed = s.current == nil || (dc.IsVisible(ext) && !dc.IsSmall(ext, 1))
	}
	if needed && dc.AllowRegeneration() {
		s.regenerate(dc, ve)
	}
	return s.current != nil
}

func (s *shapeBase) regenerate(dc *render.DrawContext, ve float64) {
	g, err := s.build(dc.Globe, dc.Terrain)
	switch {
	case err == nil:
		s.current = g
		s.regen.Regenerated(dc.Timestamp(), ve)
	case errors.Is(err, geo.ErrTerrainUnavailable):
		// Keep drawing the last good geometry and retry next frame.
	case errors.Is(err, tess.ErrTessellationFailed):
		if s.onFailure != nil {
			s.onFailure()
		}
		s.reset()
		dc.Report(s.id, err)
	default:
		dc.Report(s.id, err)
	}
}

// RenderOrdered draws the shape and any compatible shapes queued behind it
// inside one backend state block.
func (s *shapeBase) RenderOrdered(dc *render.DrawContext) {
	be := dc.Backend
	be.PushState()
	defer be.PopState()
	s.DrawBatched(dc)
	dc.DrainBatch(s.self.(render.Batchable))
}

// DrawBatched draws the current geometry with the active attributes, or
// with a unique pick color while picking.
func (s *shapeBase) DrawBatched(dc *render.DrawContext) {
	g := s.current
	if g == nil {
		return
	}
	if dc.Picking() {
		s.pickColor = dc.UniquePickColor()
		o := render.PickedObject{ObjectID: s.id}
		if s.pickLayer != nil {
			o.LayerID = s.pickLayer.ID
		}
		dc.AddPickCandidate(s.pickColor, o)
	}
	opacity := 1.0
	if l := dc.CurrentLayer(); l != nil {
		opacity = l.Opacity
	}
	for i := range g.meshes {
		m := &g.meshes[i]
		attrs := &s.active
		if m.role == roleSide {
			attrs = &s.activeSide
		}
		s.drawMesh(dc, g.ref, m, attrs, opacity)
	}
}

func (s *shapeBase) drawMesh(dc *render.DrawContext, ref mgl64.Vec3, m *mesh, attrs *Attributes, opacity float64) {
	be := dc.Backend
	picking := dc.Picking()

	if attrs.DrawInterior && len(m.fill) > 0 {
		var texCoords []float32
		if picking {
			be.SetColor(s.pickColor)
			be.SetLighting(false)
			be.BindTexture(nil)
		} else {
			c := attrs.InteriorColor
			be.SetColor(c.WithAlpha(c.A * opacity))
			be.SetLighting(attrs.EnableLighting)
			tex, ok := dc.Texture(attrs.ImageSource)
			be.BindTexture(tex)
			if ok {
				texCoords = m.texCoords
			}
		}
		for _, p := range m.fill {
			be.Draw(render.DrawCall{
				ObjectID:  s.id,
				Mode:      p.Mode,
				Origin:    ref,
				Vertices:  m.vertices,
				Normals:   m.normals,
				TexCoords: texCoords,
				Indices:   p.Indices,
			})
		}
	}

	if attrs.DrawOutline && len(m.outline) > 0 {
		if picking {
			be.SetColor(s.pickColor)
		} else {
			c := attrs.OutlineColor
			be.SetColor(c.WithAlpha(c.A * opacity))
		}
		be.SetLighting(false)
		be.BindTexture(nil)
		for _, p := range m.outline {
			be.Draw(render.DrawCall{
				ObjectID:  s.id,
				Mode:      p.Mode,
				Origin:    ref,
				Vertices:  m.vertices,
				Indices:   p.Indices,
				LineWidth: attrs.OutlineWidth,
			})
		}
	}
}
