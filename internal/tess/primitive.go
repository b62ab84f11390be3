package tess

import "fmt"

// Mode is the primitive topology of an index list.
type Mode int

const (
	Triangles Mode = iota
	Fan
	Strip
	LineLoop
	LineStrip
	Lines
)

func (m Mode) String() string {
	switch m {
	case Triangles:
		return "triangles"
	case Fan:
		return "fan"
	case Strip:
		return "strip"
	case LineLoop:
		return "lineLoop"
	case LineStrip:
		return "lineStrip"
	case Lines:
		return "lines"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Primitive is an index list into a shape's combined vertex buffer.
type Primitive struct {
	Mode    Mode
	Indices []uint32
}

// Triangles expands fill primitives into individual triangles. Line
// primitives contribute nothing.
func (p Primitive) Triangles() [][3]uint32 {
	idx := p.Indices
	var out [][3]uint32
	switch p.Mode {
	case Triangles:
		for i := 0; i+2 < len(idx); i += 3 {
			out = append(out, [3]uint32{idx[i], idx[i+1], idx[i+2]})
		}
	case Fan:
		for i := 1; i+1 < len(idx); i++ {
			out = append(out, [3]uint32{idx[0], idx[i], idx[i+1]})
		}
	case Strip:
		for i := 0; i+2 < len(idx); i++ {
			if i%2 == 0 {
				out = append(out, [3]uint32{idx[i], idx[i+1], idx[i+2]})
			} else {
				out = append(out, [3]uint32{idx[i+1], idx[i], idx[i+2]})
			}
		}
	}
	return out
}

// Tessellation is the fill of one boundary set.
type Tessellation struct {
	Primitives []Primitive
}

// Triangles expands every primitive.
func (t *Tessellation) Triangles() [][3]uint32 {
	if t == nil {
		return nil
	}
	var out [][3]uint32
	for _, p := range t.Primitives {
		out = append(out, p.Triangles()...)
	}
	return out
}
