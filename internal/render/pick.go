package render

// PickedObject identifies what was drawn under the pick point.
type PickedObject struct {
	ObjectID string `json:"objectId"`
	LayerID  string `json:"layerId,omitempty"`
}

// pickSupport maps unique pick colors to the objects drawn with them.
type pickSupport struct {
	next       uint32
	candidates map[uint32]PickedObject
}

func (p *pickSupport) reset() {
	p.next = 0
	clear(p.candidates)
}

func (p *pickSupport) uniqueColor() Color {
	p.next++
	return pickColor(p.next)
}

func (p *pickSupport) add(c Color, o PickedObject) {
	if p.candidates == nil {
		p.candidates = make(map[uint32]PickedObject)
	}
	p.candidates[c.pickKey()] = o
}

func (p *pickSupport) resolve(c Color) (PickedObject, bool) {
	o, ok := p.candidates[c.pickKey()]
	return o, ok
}
