package render

// Layer groups renderables for enabling and picking.
type Layer struct {
	ID          string
	Name        string
	Enabled     bool
	PickEnabled bool
	Opacity     float64

	renderables []Renderable
}

// Renderable is anything a layer draws each frame.
type Renderable interface {
	Render(dc *DrawContext)
}

func NewLayer(id, name string) *Layer {
	return &Layer{ID: id, Name: name, Enabled: true, PickEnabled: true, Opacity: 1}
}

// Add appends r to the layer's draw list.
func (l *Layer) Add(r Renderable) {
	l.renderables = append(l.renderables, r)
}

// Remove drops the first occurrence of r and reports whether it was found.
func (l *Layer) Remove(r Renderable) bool {
	for i, x := range l.renderables {
		if x == r {
			l.renderables = append(l.renderables[:i], l.renderables[i+1:]...)
			return true
		}
	}
	return false
}

// Replace swaps old for r in place and reports whether old was found.
func (l *Layer) Replace(old, r Renderable) bool {
	for i, x := range l.renderables {
		if x == old {
			l.renderables[i] = r
			return true
		}
	}
	return false
}

func (l *Layer) Renderables() []Renderable {
	return l.renderables
}

// Render draws every renderable with the layer as the current layer.
func (l *Layer) Render(dc *DrawContext) {
	if !l.Enabled || (dc.Picking() && !l.PickEnabled) {
		return
	}
	prev := dc.currentLayer
	dc.currentLayer = l
	defer func() { dc.currentLayer = prev }()
	for _, r := range l.renderables {
		dc.renderSafely(r)
	}
}
