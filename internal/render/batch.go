package render

// Kind identifies a family of drawables that can share backend state.
type Kind int

const (
	KindPolygon Kind = iota + 1
	KindExtrudedPolygon
	KindPath
)

func (k Kind) String() string {
	switch k {
	case KindPolygon:
		return "polygon"
	case KindExtrudedPolygon:
		return "extrudedPolygon"
	case KindPath:
		return "path"
	}
	return "unknown"
}

// Batchable is an ordered renderable that can be drawn inside another
// renderable's state block.
type Batchable interface {
	OrderedRenderable
	BatchKey() Kind
	BatchingEnabled() bool
	// DrawBatched draws without setting up or tearing down backend state.
	DrawBatched(dc *DrawContext)
}

// DrainBatch draws consecutive queue entries compatible with head inside
// the caller's state block. While picking, only entries from head's layer
// are taken. It returns the number of entries drawn.
func (dc *DrawContext) DrainBatch(head Batchable) int {
	if !head.BatchingEnabled() {
		return 0
	}
	layer := dc.currentLayer
	n := 0
	for len(dc.queue.h) > 0 {
		next := dc.queue.h[0]
		b, ok := next.r.(Batchable)
		if !ok || b.BatchKey() != head.BatchKey() || !b.BatchingEnabled() {
			break
		}
		if dc.picking && next.layer != layer {
			break
		}
		dc.queue.poll()
		dc.currentLayer = next.layer
		dc.safely(b, func() { b.DrawBatched(dc) })
		n++
	}
	dc.currentLayer = layer
	return n
}
