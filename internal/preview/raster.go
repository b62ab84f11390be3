package preview

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/geoshape/internal/engine"
	"github.com/inamate/geoshape/internal/render"
	"github.com/inamate/geoshape/internal/tess"
)

var modes = func() map[string]tess.Mode {
	out := make(map[string]tess.Mode)
	for m := tess.Triangles; m <= tess.Lines; m++ {
		out[m.String()] = m
	}
	return out
}()

// rasterize draws the frame's draw commands into a w x h cell grid. view
// must be the view the frame was rendered with, sized in micro pixels.
func rasterize(f *engine.Frame, view render.View, w, h int) *brailleBuf {
	b := newBrailleBuf(w, h)
	if f == nil {
		return b
	}
	for _, cmd := range f.Commands {
		if cmd.Op != "draw" {
			continue
		}
		mode, ok := modes[cmd.Mode]
		if !ok {
			continue
		}
		pts := project(cmd, view)
		color := cmd.Color
		if len(color) > 7 {
			color = color[:7]
		}

		prim := tess.Primitive{Mode: mode, Indices: cmd.Indices}
		for _, tri := range prim.Triangles() {
			a, b0, c := pts[tri[0]], pts[tri[1]], pts[tri[2]]
			if !a.ok || !b0.ok || !c.ok {
				continue
			}
			b.fillTriangle([3][2]float64{a.xy, b0.xy, c.xy}, color)
		}
		for _, seg := range segments(mode, cmd.Indices) {
			p, q := pts[seg[0]], pts[seg[1]]
			if !p.ok || !q.ok || !onCanvas(p.xy, w, h) || !onCanvas(q.xy, w, h) {
				continue
			}
			b.drawLine(int(p.xy[0]), int(p.xy[1]), int(q.xy[0]), int(q.xy[1]), color)
		}
	}
	return b
}

type screenPoint struct {
	xy [2]float64
	ok bool
}

func project(cmd render.DrawCommand, view render.View) []screenPoint {
	var origin mgl64.Vec3
	if len(cmd.Origin) == 3 {
		origin = mgl64.Vec3{cmd.Origin[0], cmd.Origin[1], cmd.Origin[2]}
	}
	n := len(cmd.Vertices) / 3
	size := n
	for _, idx := range cmd.Indices {
		size = max(size, int(idx)+1)
	}
	// Indices past the vertex list stay !ok.
	out := make([]screenPoint, size)
	for i := range n {
		v := mgl64.Vec3{float64(cmd.Vertices[3*i]), float64(cmd.Vertices[3*i+1]), float64(cmd.Vertices[3*i+2])}
		s, ok := view.Project(origin.Add(v))
		out[i] = screenPoint{xy: [2]float64{s[0], s[1]}, ok: ok}
	}
	return out
}

// segments expands line primitives into index pairs.
func segments(mode tess.Mode, idx []uint32) [][2]uint32 {
	var out [][2]uint32
	switch mode {
	case tess.Lines:
		for i := 0; i+1 < len(idx); i += 2 {
			out = append(out, [2]uint32{idx[i], idx[i+1]})
		}
	case tess.LineStrip, tess.LineLoop:
		for i := 0; i+1 < len(idx); i++ {
			out = append(out, [2]uint32{idx[i], idx[i+1]})
		}
		if mode == tess.LineLoop && len(idx) > 2 {
			out = append(out, [2]uint32{idx[len(idx)-1], idx[0]})
		}
	}
	return out
}

// onCanvas reports whether p lies within one canvas size of the grid.
func onCanvas(p [2]float64, w, h int) bool {
	mw, mh := float64(w*2), float64(h*4)
	return p[0] >= -mw && p[0] <= 2*mw && p[1] >= -mh && p[1] <= 2*mh
}
