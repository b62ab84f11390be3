package render

import "container/heap"

// OrderedRenderable is drawn after all layers have been traversed, in
// back to front order.
type OrderedRenderable interface {
	RenderOrdered(dc *DrawContext)
}

type queueEntry struct {
	r     OrderedRenderable
	dist  float64
	seq   uint64
	layer *Layer
}

type entryHeap []queueEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist > h[j].dist
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(queueEntry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = queueEntry{}
	*h = old[:n-1]
	return e
}

// Queue orders renderables farthest first. Entries at equal distance keep
// their insertion order.
type Queue struct {
	h   entryHeap
	seq uint64
}

// Enqueue adds r at the given eye distance.
func (q *Queue) Enqueue(r OrderedRenderable, eyeDistance float64) {
	q.push(r, eyeDistance, nil)
}

func (q *Queue) push(r OrderedRenderable, eyeDistance float64, layer *Layer) {
	heap.Push(&q.h, queueEntry{r: r, dist: eyeDistance, seq: q.seq, layer: layer})
	q.seq++
}

// Peek returns the next renderable without removing it, or nil.
func (q *Queue) Peek() OrderedRenderable {
	if len(q.h) == 0 {
		return nil
	}
	return q.h[0].r
}

// Poll removes and returns the next renderable, or nil.
func (q *Queue) Poll() OrderedRenderable {
	e, ok := q.poll()
	if !ok {
		return nil
	}
	return e.r
}

func (q *Queue) poll() (queueEntry, bool) {
	if len(q.h) == 0 {
		return queueEntry{}, false
	}
	return heap.Pop(&q.h).(queueEntry), true
}

func (q *Queue) Len() int { return len(q.h) }

// Clear drops every entry and restarts insertion numbering.
func (q *Queue) Clear() {
	clear(q.h)
	q.h = q.h[:0]
	q.seq = 0
}
