package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/jinzhu/copier"

	"github.com/inamate/geoshape/internal/document"
	"github.com/inamate/geoshape/internal/geo"
	"github.com/inamate/geoshape/internal/render"
	"github.com/inamate/geoshape/internal/shape"
)

// attributeOption copies set document attribute fields over shape
// attributes, parsing hex colors on the way.
var attributeOption = copier.Option{
	IgnoreEmpty: true,
	Converters: []copier.TypeConverter{{
		SrcType: copier.String,
		DstType: render.Color{},
		Fn: func(src interface{}) (interface{}, error) {
			return render.ParseColor(src.(string))
		},
	}},
}

// shapeControl is the setter surface shared by every shape type.
type shapeControl interface {
	shape.Shape
	SetAltitudeMode(m geo.AltitudeMode)
	SetAttributes(a *shape.Attributes)
	SetHighlightAttributes(a *shape.Attributes)
	SetHighlighted(h bool)
	SetVisible(v bool)
	SetBatching(b bool)
	SetRegenerationInterval(d time.Duration)
}

type boundaryControl interface {
	SetBoundaries(rings ...[]geo.Position) error
	SetReferencePosition(p geo.Position)
	SetTextureCoordinates(tc [][2]float32)
	SetVertexLimit(n int)
}

// BuildShape creates a shape from its document description.
func BuildShape(doc document.Shape, opts Options) (shape.Shape, error) {
	var s shapeControl
	var err error
	switch doc.Type {
	case document.ShapeTypePolygon:
		s, err = shape.NewPolygon(doc.ID)
	case document.ShapeTypeExtrudedPolygon:
		s, err = shape.NewExtrudedPolygon(doc.ID, doc.Height)
	case document.ShapeTypePath:
		s, err = shape.NewPath(doc.ID, positions(doc.Positions))
	default:
		return nil, fmt.Errorf("%w: shape %s has unknown type %q", document.ErrInvalidScene, doc.ID, doc.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("build shape %s: %w", doc.ID, err)
	}
	s.SetRegenerationInterval(opts.RegenerationInterval)
	if err := applyShape(s, nil, doc, opts); err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateShape applies the changes between prev and doc to s. Only fields
// that changed are pushed, so unchanged geometry stays cached. It reports
// false when s cannot represent doc and must be rebuilt.
func UpdateShape(s shape.Shape, prev, doc document.Shape, opts Options) (bool, error) {
	c, ok := s.(shapeControl)
	if !ok || prev.Type != doc.Type {
		return false, nil
	}
	// An unset altitude mode means the type default, which only a fresh
	// shape knows.
	if doc.AltitudeMode == "" && prev.AltitudeMode != "" {
		return false, nil
	}
	if doc.Type == document.ShapeTypeExtrudedPolygon && prev.Height != doc.Height {
		s.(*shape.ExtrudedPolygon).SetHeight(doc.Height)
	}
	return true, applyShape(c, &prev, doc, opts)
}

func applyShape(s shapeControl, prev *document.Shape, doc document.Shape, opts Options) error {
	changed := func(same func(a, b *document.Shape) bool) bool {
		return prev == nil || !same(prev, &doc)
	}

	if changed(func(a, b *document.Shape) bool { return a.AltitudeMode == b.AltitudeMode }) && doc.AltitudeMode != "" {
		mode, err := geo.ParseAltitudeMode(doc.AltitudeMode)
		if err != nil {
			return fmt.Errorf("shape %s: %w", doc.ID, err)
		}
		s.SetAltitudeMode(mode)
	}

	switch t := s.(type) {
	case boundaryControl:
		if err := applyBoundaries(t, prev, doc, opts); err != nil {
			return err
		}
	case *shape.Path:
		if err := applyPath(t, prev, doc); err != nil {
			return err
		}
	}

	if changed(func(a, b *document.Shape) bool { return sameAttributes(a.Attributes, b.Attributes) }) {
		a, err := toAttributes(shape.DefaultAttributes(), doc.Attributes)
		if err != nil {
			return fmt.Errorf("shape %s attributes: %w", doc.ID, err)
		}
		s.SetAttributes(a)
	}
	if changed(func(a, b *document.Shape) bool { return sameAttributes(a.HighlightAttributes, b.HighlightAttributes) }) {
		a, err := toAttributes(shape.DefaultHighlightAttributes(), doc.HighlightAttributes)
		if err != nil {
			return fmt.Errorf("shape %s highlight attributes: %w", doc.ID, err)
		}
		s.SetHighlightAttributes(a)
	}
	if e, ok := s.(*shape.ExtrudedPolygon); ok {
		if err := applySideAttributes(e, prev, doc); err != nil {
			return err
		}
	}

	s.SetHighlighted(doc.Highlighted)
	s.SetVisible(!doc.Hidden)
	s.SetBatching(!doc.DisableBatching)
	return nil
}

func applyBoundaries(b boundaryControl, prev *document.Shape, doc document.Shape, opts Options) error {
	b.SetVertexLimit(opts.VertexLimit)
	if prev == nil || !sameRings(prev.Boundaries, doc.Boundaries) {
		if len(doc.Boundaries) == 0 {
			return fmt.Errorf("shape %s: %w: no boundaries", doc.ID, geo.ErrInvalidBoundary)
		}
		rings := make([][]geo.Position, len(doc.Boundaries))
		for i, r := range doc.Boundaries {
			rings[i] = positions(r)
		}
		if err := b.SetBoundaries(rings...); err != nil {
			return fmt.Errorf("shape %s: %w", doc.ID, err)
		}
	}
	if doc.Reference != nil && (prev == nil || prev.Reference == nil || *prev.Reference != *doc.Reference) {
		b.SetReferencePosition(position(*doc.Reference))
	}
	if prev == nil || !slices.Equal(prev.TexCoords, doc.TexCoords) {
		if len(doc.TexCoords) > 0 || prev != nil {
			b.SetTextureCoordinates(doc.TexCoords)
		}
	}
	return nil
}

func applyPath(p *shape.Path, prev *document.Shape, doc document.Shape) error {
	if prev != nil && !slices.Equal(prev.Positions, doc.Positions) {
		if err := p.SetPositions(positions(doc.Positions)); err != nil {
			return fmt.Errorf("shape %s: %w", doc.ID, err)
		}
	}
	if prev == nil || prev.PathType != doc.PathType {
		pt, err := geo.ParsePathType(doc.PathType)
		if err != nil {
			return fmt.Errorf("shape %s: %w", doc.ID, err)
		}
		if pt != p.PathType() {
			p.SetPathType(pt)
		}
	}
	if doc.FollowTerrain != p.FollowTerrain() {
		p.SetFollowTerrain(doc.FollowTerrain)
	}
	if doc.Extrude != p.Extrude() {
		p.SetExtrude(doc.Extrude)
	}
	return nil
}

func applySideAttributes(e *shape.ExtrudedPolygon, prev *document.Shape, doc document.Shape) error {
	if prev == nil || !sameAttributes(prev.SideAttributes, doc.SideAttributes) {
		// Unset side attributes fall back to the cap attributes.
		var a *shape.Attributes
		if doc.SideAttributes != nil {
			var err error
			if a, err = toAttributes(shape.DefaultAttributes(), doc.SideAttributes); err != nil {
				return fmt.Errorf("shape %s side attributes: %w", doc.ID, err)
			}
		}
		e.SetSideAttributes(a)
	}
	if prev == nil || !sameAttributes(prev.SideHighlightAttributes, doc.SideHighlightAttributes) {
		var a *shape.Attributes
		if doc.SideHighlightAttributes != nil {
			var err error
			if a, err = toAttributes(shape.DefaultHighlightAttributes(), doc.SideHighlightAttributes); err != nil {
				return fmt.Errorf("shape %s side highlight attributes: %w", doc.ID, err)
			}
		}
		e.SetSideHighlightAttributes(a)
	}
	return nil
}

// toAttributes overlays the set fields of doc onto base.
func toAttributes(base *shape.Attributes, doc *document.Attributes) (*shape.Attributes, error) {
	if doc == nil {
		return base, nil
	}
	if err := copier.CopyWithOption(base, doc, attributeOption); err != nil {
		return nil, err
	}
	return base, nil
}

func sameAttributes(a, b *document.Attributes) bool {
	if a == nil || b == nil {
		return a == b
	}
	return sameBool(a.DrawInterior, b.DrawInterior) &&
		sameBool(a.DrawOutline, b.DrawOutline) &&
		sameBool(a.EnableLighting, b.EnableLighting) &&
		a.InteriorColor == b.InteriorColor &&
		a.OutlineColor == b.OutlineColor &&
		a.OutlineWidth == b.OutlineWidth &&
		a.ImageSource == b.ImageSource
}

func sameBool(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameRings(a, b [][]document.Location) bool {
	return slices.EqualFunc(a, b, slices.Equal[[]document.Location])
}

func position(l document.Location) geo.Position {
	return geo.PositionFromDegrees(l.Lat, l.Lon, l.Alt)
}

func positions(locs []document.Location) []geo.Position {
	out := make([]geo.Position, len(locs))
	for i, l := range locs {
		out[i] = position(l)
	}
	return out
}

// BuildLayer creates an empty render layer from its document description.
func BuildLayer(doc document.Layer) *render.Layer {
	l := render.NewLayer(doc.ID, doc.Name)
	l.Enabled = !doc.Disabled
	l.PickEnabled = !doc.PickDisabled
	l.Opacity = doc.Opacity
	return l
}

// BuildSceneGraph builds every layer and shape of scene. Shapes that fail
// to build are skipped and returned as errors keyed by shape ID.
func BuildSceneGraph(scene *document.Scene, opts Options) (*SceneGraph, map[string]error) {
	g := NewSceneGraph()
	failed := make(map[string]error)
	for _, ld := range scene.Layers {
		g.AddLayer(BuildLayer(ld))
		for _, sd := range ld.Shapes {
			s, err := BuildShape(sd, opts)
			if err != nil {
				failed[sd.ID] = err
				continue
			}
			if err := g.Put(ld.ID, &SceneNode{ID: sd.ID, Shape: s, Doc: sd}); err != nil {
				failed[sd.ID] = err
			}
		}
	}
	return g, failed
}
