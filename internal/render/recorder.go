package render

import (
	"encoding/json"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/geoshape/internal/tess"
)

// DrawCommand is one recorded backend operation. A frame's command list
// can be replayed by any client that understands the ops "push", "pop"
// and "draw".
type DrawCommand struct {
	Op        string    `json:"op"`
	ObjectID  string    `json:"objectId,omitempty"`
	Mode      string    `json:"mode,omitempty"`
	Origin    []float64 `json:"origin,omitempty"`
	Vertices  []float32 `json:"vertices,omitempty"`
	Normals   []float32 `json:"normals,omitempty"`
	TexCoords []float32 `json:"texCoords,omitempty"`
	Indices   []uint32  `json:"indices,omitempty"`
	Color     string    `json:"color,omitempty"`
	Texture   string    `json:"texture,omitempty"`
	Lighting  bool      `json:"lighting,omitempty"`
	LineWidth float64   `json:"lineWidth,omitempty"`
}

type recorderState struct {
	color    Color
	lighting bool
	texture  string
}

type recordedDraw struct {
	call  DrawCall
	color Color
}

// Recorder is a Backend that keeps the frame as a list of draw commands
// and answers color reads by point sampling the recorded geometry.
type Recorder struct {
	view     View
	state    recorderState
	stack    []recorderState
	commands []DrawCommand
	draws    []recordedDraw
}

func NewRecorder() *Recorder {
	return &Recorder{state: recorderState{color: White}}
}

func (r *Recorder) BeginFrame(v View) {
	r.view = v
	r.state = recorderState{color: White}
	r.stack = r.stack[:0]
	r.commands = nil
	r.draws = r.draws[:0]
}

func (r *Recorder) PushState() {
	r.stack = append(r.stack, r.state)
	r.commands = append(r.commands, DrawCommand{Op: "push"})
}

func (r *Recorder) PopState() {
	if n := len(r.stack); n > 0 {
		r.state = r.stack[n-1]
		r.stack = r.stack[:n-1]
	}
	r.commands = append(r.commands, DrawCommand{Op: "pop"})
}

func (r *Recorder) SetColor(c Color) { r.state.color = c }

func (r *Recorder) SetLighting(enabled bool) { r.state.lighting = enabled }

func (r *Recorder) BindTexture(t *Texture) {
	if t == nil {
		r.state.texture = ""
		return
	}
	r.state.texture = t.ID
}

func (r *Recorder) Draw(call DrawCall) {
	r.commands = append(r.commands, DrawCommand{
		Op:        "draw",
		ObjectID:  call.ObjectID,
		Mode:      call.Mode.String(),
		Origin:    []float64{call.Origin[0], call.Origin[1], call.Origin[2]},
		Vertices:  call.Vertices,
		Normals:   call.Normals,
		TexCoords: call.TexCoords,
		Indices:   call.Indices,
		Color:     r.state.color.Hex(),
		Texture:   r.state.texture,
		Lighting:  r.state.lighting,
		LineWidth: call.LineWidth,
	})
	r.draws = append(r.draws, recordedDraw{call: call, color: r.state.color})
}

// Commands returns the commands recorded since BeginFrame.
func (r *Recorder) Commands() []DrawCommand {
	return r.commands
}

// MarshalJSON encodes the recorded command list.
func (r *Recorder) MarshalJSON() ([]byte, error) {
	if r.commands == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.commands)
}

// PickColorAt returns the color of the nearest recorded primitive covering
// screen point (x, y). Later draws win ties, as with a less-or-equal depth
// test.
func (r *Recorder) PickColorAt(x, y float64) (Color, bool) {
	best := math.Inf(1)
	var found Color
	hit := false
	for _, d := range r.draws {
		depth, ok := r.sample(d.call, x, y)
		if ok && depth <= best {
			best, found, hit = depth, d.color, true
		}
	}
	return found, hit
}

func (r *Recorder) sample(call DrawCall, x, y float64) (float64, bool) {
	screen := func(i uint32) (mgl64.Vec3, bool) {
		j := int(i) * 3
		if j+2 >= len(call.Vertices) {
			return mgl64.Vec3{}, false
		}
		p := mgl64.Vec3{float64(call.Vertices[j]), float64(call.Vertices[j+1]), float64(call.Vertices[j+2])}
		return r.view.Project(p.Add(call.Origin))
	}

	best := math.Inf(1)
	switch call.Mode {
	case tess.Triangles, tess.Fan, tess.Strip:
		for _, tri := range (tess.Primitive{Mode: call.Mode, Indices: call.Indices}).Triangles() {
			a, okA := screen(tri[0])
			b, okB := screen(tri[1])
			c, okC := screen(tri[2])
			if !okA || !okB || !okC {
				continue
			}
			if d, ok := triangleDepth(a, b, c, x, y); ok && d < best {
				best = d
			}
		}
	default:
		tolerance := math.Max(call.LineWidth/2, 1)
		for _, seg := range lineSegments(call.Mode, call.Indices) {
			a, okA := screen(seg[0])
			b, okB := screen(seg[1])
			if !okA || !okB {
				continue
			}
			if d, ok := segmentDepth(a, b, x, y, tolerance); ok && d < best {
				best = d
			}
		}
	}
	return best, !math.IsInf(best, 1)
}

func triangleDepth(a, b, c mgl64.Vec3, x, y float64) (float64, bool) {
	det := (b[1]-c[1])*(a[0]-c[0]) + (c[0]-b[0])*(a[1]-c[1])
	if det == 0 {
		return 0, false
	}
	l1 := ((b[1]-c[1])*(x-c[0]) + (c[0]-b[0])*(y-c[1])) / det
	l2 := ((c[1]-a[1])*(x-c[0]) + (a[0]-c[0])*(y-c[1])) / det
	l3 := 1 - l1 - l2
	const eps = -1e-9
	if l1 < eps || l2 < eps || l3 < eps {
		return 0, false
	}
	return l1*a[2] + l2*b[2] + l3*c[2], true
}

func segmentDepth(a, b mgl64.Vec3, x, y, tolerance float64) (float64, bool) {
	dx, dy := b[0]-a[0], b[1]-a[1]
	t := 0.0
	if l2 := dx*dx + dy*dy; l2 > 0 {
		t = math.Max(0, math.Min(1, ((x-a[0])*dx+(y-a[1])*dy)/l2))
	}
	px, py := a[0]+t*dx, a[1]+t*dy
	if math.Hypot(x-px, y-py) > tolerance {
		return 0, false
	}
	return a[2] + t*(b[2]-a[2]), true
}

func lineSegments(mode tess.Mode, idx []uint32) [][2]uint32 {
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
