package engine

import (
	"fmt"

	"github.com/inamate/geoshape/internal/document"
	"github.com/inamate/geoshape/internal/render"
	"github.com/inamate/geoshape/internal/shape"
)

// SceneGraph is the retained, render-ready state built from a scene
// document. Shapes persist between frames so their generated geometry is
// reused; document edits patch the graph in place.
type SceneGraph struct {
	Layers    []*render.Layer
	NodesByID map[string]*SceneNode

	layersByID map[string]*render.Layer
}

// SceneNode ties a built shape to its layer and the document it was
// built from.
type SceneNode struct {
	ID    string
	Shape shape.Shape
	Layer *render.Layer
	Doc   document.Shape
}

// NewSceneGraph creates an empty scene graph.
func NewSceneGraph() *SceneGraph {
	return &SceneGraph{
		NodesByID:  make(map[string]*SceneNode),
		layersByID: make(map[string]*render.Layer),
	}
}

// AddLayer appends a layer. Layers draw in insertion order.
func (g *SceneGraph) AddLayer(l *render.Layer) {
	g.Layers = append(g.Layers, l)
	g.layersByID[l.ID] = l
}

func (g *SceneGraph) Layer(id string) (*render.Layer, bool) {
	l, ok := g.layersByID[id]
	return l, ok
}

func (g *SceneGraph) Node(id string) (*SceneNode, bool) {
	n, ok := g.NodesByID[id]
	return n, ok
}

// Put adds n to the layer with layerID, replacing any node with the same
// ID. A replaced node keeps its draw position when it stays in its layer.
func (g *SceneGraph) Put(layerID string, n *SceneNode) error {
	layer, ok := g.layersByID[layerID]
	if !ok {
		return fmt.Errorf("%w: %s", document.ErrLayerNotFound, layerID)
	}
	n.Layer = layer
	if old, ok := g.NodesByID[n.ID]; ok {
		if old.Layer == layer {
			if old.Shape != n.Shape {
				layer.Replace(old.Shape, n.Shape)
			}
			g.NodesByID[n.ID] = n
			return nil
		}
		old.Layer.Remove(old.Shape)
	}
	layer.Add(n.Shape)
	g.NodesByID[n.ID] = n
	return nil
}

// Remove drops the node with the given ID and reports whether it existed.
func (g *SceneGraph) Remove(id string) bool {
	n, ok := g.NodesByID[id]
	if !ok {
		return false
	}
	n.Layer.Remove(n.Shape)
	delete(g.NodesByID, id)
	return true
}

// Render draws every layer in order.
func (g *SceneGraph) Render(dc *render.DrawContext) {
	for _, l := range g.Layers {
		l.Render(dc)
	}
}

// Shapes returns the shapes of enabled layers in draw order.
func (g *SceneGraph) Shapes() []shape.Shape {
	var out []shape.Shape
	for _, l := range g.Layers {
		if !l.Enabled {
			continue
		}
		for _, r := range l.Renderables() {
			if s, ok := r.(shape.Shape); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
