package render

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/geoshape/internal/geo"
)

type named struct {
	id    string
	log   *[]string
	panic bool
}

func (n *named) ID() string { return n.id }

func (n *named) RenderOrdered(dc *DrawContext) {
	if n.panic {
		panic("boom")
	}
	*n.log = append(*n.log, n.id)
}

type batched struct {
	named
	kind    Kind
	enabled bool
}

func (b *batched) BatchKey() Kind        { return b.kind }
func (b *batched) BatchingEnabled() bool { return b.enabled }

func (b *batched) RenderOrdered(dc *DrawContext) {
	*b.log = append(*b.log, "head:"+b.id)
	dc.DrainBatch(b)
}

func (b *batched) DrawBatched(dc *DrawContext) {
	*b.log = append(*b.log, "batch:"+b.id)
}

func TestQueueOrdersFarthestFirstStable(t *testing.T) {
	var log []string
	a := &named{id: "A", log: &log}
	b := &named{id: "B", log: &log}
	c := &named{id: "C", log: &log}

	var q Queue
	q.Enqueue(a, 10)
	q.Enqueue(b, 50)
	q.Enqueue(c, 10)
	require.Equal(t, 3, q.Len())
	assert.Same(t, b, q.Peek())

	var order []string
	for r := q.Poll(); r != nil; r = q.Poll() {
		order = append(order, r.(*named).id)
	}
	assert.Equal(t, []string{"B", "A", "C"}, order)
	assert.Nil(t, q.Peek())
}

func TestQueueClear(t *testing.T) {
	var log []string
	var q Queue
	q.Enqueue(&named{id: "x", log: &log}, 1)
	q.Clear()
	assert.Equal(t, 0, q.Len())
	assert.Nil(t, q.Poll())
}

func TestDrawOrderedDrainsPastPanics(t *testing.T) {
	var log []string
	diags := make(chan Diagnostic, 4)
	dc := NewDrawContext(NewRecorder(), geo.WGS84())
	dc.Diagnostics = diags
	dc.BeginFrame(testView(), time.Unix(0, 0))

	dc.Enqueue(&named{id: "far", log: &log}, 30)
	dc.Enqueue(&named{id: "bad", log: &log, panic: true}, 20)
	dc.Enqueue(&named{id: "near", log: &log}, 10)
	dc.DrawOrdered()

	assert.Equal(t, []string{"far", "near"}, log)
	assert.Equal(t, 0, dc.Queue().Len())
	require.Len(t, diags, 1)
	d := <-diags
	assert.Equal(t, "bad", d.ObjectID)
	assert.Error(t, d.Err)
}

func TestDrainBatchTakesCompatibleRun(t *testing.T) {
	var log []string
	dc := NewDrawContext(NewRecorder(), geo.WGS84())
	dc.BeginFrame(testView(), time.Unix(0, 0))

	mk := func(id string, kind Kind, enabled bool) *batched {
		return &batched{named: named{id: id, log: &log}, kind: kind, enabled: enabled}
	}
	dc.Enqueue(mk("p1", KindPolygon, true), 50)
	dc.Enqueue(mk("p2", KindPolygon, true), 40)
	dc.Enqueue(mk("p3", KindPolygon, true), 30)
	dc.Enqueue(mk("x1", KindPath, true), 20)
	dc.Enqueue(mk("p4", KindPolygon, false), 10)
	dc.Enqueue(mk("p5", KindPolygon, true), 5)
	dc.DrawOrdered()

	assert.Equal(t, []string{"head:p1", "batch:p2", "batch:p3", "head:x1", "head:p4", "head:p5"}, log)
}

func TestDrainBatchRespectsLayersWhilePicking(t *testing.T) {
	var log []string
	dc := NewDrawContext(NewRecorder(), geo.WGS84())
	dc.BeginPick(testView(), time.Unix(0, 0), 50, 50)

	l1, l2 := NewLayer("l1", "one"), NewLayer("l2", "two")
	mk := func(id string) *batched {
		return &batched{named: named{id: id, log: &log}, kind: KindPolygon, enabled: true}
	}
	dc.currentLayer = l1
	dc.Enqueue(mk("a"), 30)
	dc.currentLayer = l2
	dc.Enqueue(mk("b"), 20)
	dc.currentLayer = l1
	dc.Enqueue(mk("c"), 10)
	dc.currentLayer = nil
	dc.DrawOrdered()

	assert.Equal(t, []string{"head:a", "head:b", "head:c"}, log)
}

func TestRegenerationBudget(t *testing.T) {
	dc := NewDrawContext(nil, geo.WGS84())
	dc.RegenerationBudget = 2
	dc.BeginFrame(testView(), time.Unix(0, 0))
	assert.True(t, dc.AllowRegeneration())
	assert.True(t, dc.AllowRegeneration())
	assert.False(t, dc.AllowRegeneration())

	dc.BeginFrame(testView(), time.Unix(1, 0))
	assert.True(t, dc.AllowRegeneration())

	dc.RegenerationBudget = 0
	for range 100 {
		require.True(t, dc.AllowRegeneration())
	}
}

type requester struct{ ids []string }

func (r *requester) RequestTexture(id string) { r.ids = append(r.ids, id) }

func TestTextureHandoff(t *testing.T) {
	req := &requester{}
	handoff := &TextureHandoff{}
	dc := NewDrawContext(nil, geo.WGS84())
	dc.TextureRequester = req
	dc.TextureHandoff = handoff
	dc.BeginFrame(testView(), time.Unix(0, 0))

	_, ok := dc.Texture("asset_1")
	assert.False(t, ok)
	_, ok = dc.Texture("asset_1")
	assert.False(t, ok)
	assert.Equal(t, []string{"asset_1"}, req.ids)

	done := make(chan struct{})
	go func() {
		handoff.Publish(&Texture{ID: "asset_1", Width: 2, Height: 2})
		close(done)
	}()
	<-done

	// Published textures only become visible at the next frame.
	_, ok = dc.Texture("asset_1")
	assert.False(t, ok)
	dc.BeginFrame(testView(), time.Unix(1, 0))
	tex, ok := dc.Texture("asset_1")
	require.True(t, ok)
	assert.Equal(t, 2, tex.Width)
}

func TestReportWithoutChannel(t *testing.T) {
	dc := NewDrawContext(nil, geo.WGS84())
	assert.NotPanics(t, func() { dc.Report("x", errors.New("failed")) })
}

func testView() View {
	return NewView(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, mgl64.DegToRad(45), 100, 100, 1, 1000)
}
