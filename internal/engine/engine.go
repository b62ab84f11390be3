// Package engine owns a scene's layers, view and terrain and turns them
// into recorded frames, pick results and ray intersections.
package engine

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/geoshape/internal/document"
	"github.com/inamate/geoshape/internal/geo"
	"github.com/inamate/geoshape/internal/geom"
	"github.com/inamate/geoshape/internal/render"
	"github.com/inamate/geoshape/internal/shape"
)

var (
	ErrNoScene     = errors.New("no scene loaded")
	ErrInvalidView = errors.New("invalid view")
)

// Options configures an Engine.
type Options struct {
	// RegenerationInterval is how long terrain-following geometry is reused.
	RegenerationInterval time.Duration
	// RegenerationBudget caps geometry rebuilds per frame; zero is unlimited.
	RegenerationBudget int
	// VertexLimit bounds cap tessellation; zero means tess.DefaultVertexLimit.
	VertexLimit int
	PickRadius  float64

	TextureRequester render.TextureRequester
	TextureHandoff   *render.TextureHandoff
	Diagnostics      chan<- render.Diagnostic
}

func DefaultOptions() Options {
	return Options{
		RegenerationInterval: shape.DefaultRegenerationInterval,
		PickRadius:           render.DefaultPickRadius,
	}
}

// Engine is the frame engine for one scene. It is not safe for concurrent
// use; Loop serializes access from other goroutines.
type Engine struct {
	opts  Options
	globe *geo.Globe

	// Document state
	scene *document.Scene

	// Retained scene graph
	graph   *SceneGraph
	failed  map[string]error
	terrain *geo.ElevationTerrain
	view    render.View

	recorder *render.Recorder
	dc       *render.DrawContext
}

// NewEngine creates an engine with no scene loaded.
func NewEngine(opts Options) *Engine {
	globe := geo.WGS84()
	rec := render.NewRecorder()
	dc := render.NewDrawContext(rec, globe)
	dc.RegenerationBudget = opts.RegenerationBudget
	dc.PickRadius = opts.PickRadius
	dc.TextureRequester = opts.TextureRequester
	dc.TextureHandoff = opts.TextureHandoff
	dc.Diagnostics = opts.Diagnostics
	return &Engine{
		opts:     opts,
		globe:    globe,
		graph:    NewSceneGraph(),
		failed:   make(map[string]error),
		recorder: rec,
		dc:       dc,
	}
}

// --- Commands ---

// LoadScene replaces the scene with one decoded from JSON.
func (e *Engine) LoadScene(jsonData string) error {
	var scene document.Scene
	if err := json.Unmarshal([]byte(jsonData), &scene); err != nil {
		return fmt.Errorf("decode scene: %w", err)
	}
	return e.SetScene(&scene)
}

// LoadSampleScene loads the built-in sample scene.
func (e *Engine) LoadSampleScene(sceneID string) {
	// The sample scene is always valid.
	_ = e.SetScene(document.NewSampleScene(sceneID))
}

// SetScene replaces the scene and rebuilds every shape. Shapes that fail
// to build are logged and left out; see Failures.
func (e *Engine) SetScene(scene *document.Scene) error {
	if err := scene.Validate(); err != nil {
		return err
	}
	scene = scene.Clone()
	if err := validateView(scene.View); err != nil {
		return err
	}
	graph, failed := BuildSceneGraph(scene, e.opts)
	for id, err := range failed {
		slog.Warn("shape build failed", "scene", scene.ID, "shape", id, "error", err)
	}
	e.scene = scene
	e.graph = graph
	e.failed = failed
	e.applyTerrain(scene.Terrain)
	e.applyView(scene.View)
	return nil
}

// SetView moves the camera.
func (e *Engine) SetView(v document.View) error {
	if e.scene == nil {
		return ErrNoScene
	}
	if err := validateView(v); err != nil {
		return err
	}
	e.scene.View = v
	e.applyView(v)
	return nil
}

// SetTerrain replaces the terrain and marks every terrain-dependent shape
// stale, so it is rebuilt on the next frame it is visible.
func (e *Engine) SetTerrain(t document.Terrain) error {
	if e.scene == nil {
		return ErrNoScene
	}
	e.scene.Terrain = t
	e.applyTerrain(t)
	for _, n := range e.graph.NodesByID {
		n.Shape.InvalidateTerrain()
	}
	return nil
}

// Rename changes the scene name.
func (e *Engine) Rename(name string) error {
	if e.scene == nil {
		return ErrNoScene
	}
	e.scene.Name = name
	return nil
}

// UpsertShape adds a shape to a layer or updates it in place. Shapes that
// keep their type and layer keep their cached geometry where possible.
func (e *Engine) UpsertShape(layerID string, doc document.Shape) error {
	if e.scene == nil {
		return ErrNoScene
	}
	if _, ok := e.graph.Layer(layerID); !ok {
		return fmt.Errorf("%w: %s", document.ErrLayerNotFound, layerID)
	}

	var s shape.Shape
	if n, ok := e.graph.Node(doc.ID); ok {
		updated, err := UpdateShape(n.Shape, n.Doc, doc, e.opts)
		if err != nil {
			return err
		}
		if updated {
			s = n.Shape
		}
	}
	if s == nil {
		built, err := BuildShape(doc, e.opts)
		if err != nil {
			return err
		}
		s = built
	}

	if err := e.scene.UpsertShape(layerID, doc); err != nil {
		return err
	}
	delete(e.failed, doc.ID)
	return e.graph.Put(layerID, &SceneNode{ID: doc.ID, Shape: s, Doc: doc})
}

// RemoveShape deletes a shape from the scene.
func (e *Engine) RemoveShape(id string) error {
	if e.scene == nil {
		return ErrNoScene
	}
	removed := e.scene.RemoveShape(id)
	if !e.graph.Remove(id) && !removed {
		return fmt.Errorf("%w: %s", document.ErrShapeNotFound, id)
	}
	delete(e.failed, id)
	return nil
}

// SetHighlighted toggles highlight attributes on a shape.
func (e *Engine) SetHighlighted(id string, highlighted bool) error {
	n, ok := e.graph.Node(id)
	if !ok {
		return fmt.Errorf("%w: %s", document.ErrShapeNotFound, id)
	}
	doc := n.Doc
	doc.Highlighted = highlighted
	return e.UpsertShape(n.Layer.ID, doc)
}

func (e *Engine) applyTerrain(t document.Terrain) {
	ve := t.VerticalExaggeration
	if ve <= 0 {
		ve = 1
	}
	var model geo.ElevationModel
	if t.Elevation != 0 {
		model = geo.ConstantElevation(t.Elevation)
	}
	e.terrain = geo.NewElevationTerrain(e.globe, model, ve)
	e.dc.Terrain = e.terrain
	e.dc.VerticalExaggeration = ve
}

func (e *Engine) applyView(v document.View) {
	e.view = render.LookAt(e.globe, position(v.Eye), position(v.Target), mgl64.DegToRad(v.FieldOfView), v.Width, v.Height)
}

func validateView(v document.View) error {
	switch {
	case v.Width <= 0 || v.Height <= 0:
		return fmt.Errorf("%w: viewport %dx%d", ErrInvalidView, v.Width, v.Height)
	case v.FieldOfView <= 0 || v.FieldOfView >= 180:
		return fmt.Errorf("%w: field of view %g", ErrInvalidView, v.FieldOfView)
	case v.Eye == v.Target:
		return fmt.Errorf("%w: eye equals target", ErrInvalidView)
	}
	return nil
}

// --- Queries ---

// Scene returns a copy of the current scene document.
func (e *Engine) Scene() (*document.Scene, error) {
	if e.scene == nil {
		return nil, ErrNoScene
	}
	return e.scene.Clone(), nil
}

func (e *Engine) View() render.View { return e.view }

func (e *Engine) Globe() *geo.Globe { return e.globe }

// Failures returns the shapes that could not be built, keyed by ID.
func (e *Engine) Failures() map[string]error {
	return maps.Clone(e.failed)
}

// Render draws one display frame at time now.
func (e *Engine) Render(now time.Time) (*Frame, error) {
	if e.scene == nil {
		return nil, ErrNoScene
	}
	e.dc.BeginFrame(e.view, now)
	e.graph.Render(e.dc)
	e.dc.DrawOrdered()

	cmds := e.recorder.Commands()
	if cmds == nil {
		cmds = []render.DrawCommand{}
	}
	return &Frame{
		Frame:         e.dc.Frame(),
		Time:          now,
		Commands:      cmds,
		Regenerations: e.dc.Regenerations(),
	}, nil
}

// Pick runs a pick pass at screen point (x, y), origin top-left, and
// returns the shape drawn there with the geographic position hit on it.
func (e *Engine) Pick(ctx context.Context, now time.Time, x, y float64) (PickResult, bool, error) {
	if e.scene == nil {
		return PickResult{}, false, ErrNoScene
	}
	e.dc.BeginPick(e.view, now, x, y)
	e.graph.Render(e.dc)
	e.dc.DrawOrdered()

	picked, ok := e.dc.ResolvePick()
	if !ok {
		return PickResult{}, false, nil
	}
	res := PickResult{ObjectID: picked.ObjectID, LayerID: picked.LayerID}
	if n, ok := e.graph.Node(picked.ObjectID); ok {
		hits, err := n.Shape.Intersect(ctx, e.view.Ray(x, y), e.terrain)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return PickResult{}, false, ctxErr
		}
		if err == nil && len(hits) > 0 {
			loc := location(hits[0].Position)
			res.Position = &loc
		}
	}
	return res, true, nil
}

// Intersect returns every intersection of line with the shapes of enabled
// layers, nearest first.
func (e *Engine) Intersect(ctx context.Context, line geom.Line) ([]shape.Intersection, error) {
	if e.scene == nil {
		return nil, ErrNoScene
	}
	var out []shape.Intersection
	for _, s := range e.graph.Shapes() {
		hits, err := s.Intersect(ctx, line, e.terrain)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			slog.Debug("intersect skipped shape", "shape", s.ID(), "error", err)
			continue
		}
		out = append(out, hits...)
	}
	slices.SortStableFunc(out, func(a, b shape.Intersection) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return out, nil
}

// IntersectAt intersects the ray through screen point (x, y).
func (e *Engine) IntersectAt(ctx context.Context, x, y float64) ([]shape.Intersection, error) {
	return e.Intersect(ctx, e.view.Ray(x, y))
}

func location(p geo.Position) document.Location {
	return document.Location{Lat: p.Lat.Degrees(), Lon: p.Lon.Degrees(), Alt: p.Alt}
}
