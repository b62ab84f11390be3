package preview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// brailleBuf is a character grid where each cell holds a 2x4 block of
// micro pixels, drawn with the Unicode braille patterns.
type brailleBuf struct {
	w, h  int       // in cells
	m     [][]uint8 // per-cell dot mask
	color [][]string
}

func newBrailleBuf(w, h int) *brailleBuf {
	m := make([][]uint8, h)
	color := make([][]string, h)
	for i := range m {
		m[i] = make([]uint8, w)
		color[i] = make([]string, w)
	}
	return &brailleBuf{w: w, h: h, m: m, color: color}
}

var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// setPixel sets the micro pixel at (mx, my) and paints its cell.
func (b *brailleBuf) setPixel(mx, my int, color string) {
	if mx < 0 || my < 0 {
		return
	}
	cx, cy := mx/2, my/4
	if cx >= b.w || cy >= b.h {
		return
	}
	b.m[cy][cx] |= dotBits[mx%2][my%4]
	if color != "" {
		b.color[cy][cx] = color
	}
}

// drawLine draws a Bresenham line between two micro pixels.
func (b *brailleBuf) drawLine(x0, y0, x1, y1 int, color string) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		b.setPixel(x0, y0, color)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// fillTriangle sets every other micro pixel whose center lies inside the
// triangle, so fills stay lighter than outlines.
func (b *brailleBuf) fillTriangle(p [3][2]float64, color string) {
	minX, maxX := p[0][0], p[0][0]
	minY, maxY := p[0][1], p[0][1]
	for _, q := range p[1:] {
		minX, maxX = min(minX, q[0]), max(maxX, q[0])
		minY, maxY = min(minY, q[1]), max(maxY, q[1])
	}
	x0, x1 := max(0, int(minX)), min(b.w*2-1, int(maxX))
	y0, y1 := max(0, int(minY)), min(b.h*4-1, int(maxY))

	area := edge(p[0], p[1], p[2])
	if area == 0 {
		return
	}
	for my := y0; my <= y1; my++ {
		for mx := x0; mx <= x1; mx++ {
			if (mx+my)%2 != 0 {
				continue
			}
			c := [2]float64{float64(mx) + 0.5, float64(my) + 0.5}
			w0 := edge(p[1], p[2], c) / area
			w1 := edge(p[2], p[0], c) / area
			w2 := edge(p[0], p[1], c) / area
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				b.setPixel(mx, my, color)
			}
		}
	}
}

func edge(a, b, c [2]float64) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// runes returns the grid without colors.
func (b *brailleBuf) runes() []string {
	out := make([]string, b.h)
	for y := 0; y < b.h; y++ {
		row := make([]rune, b.w)
		for x := 0; x < b.w; x++ {
			row[x] = cellRune(b.m[y][x])
		}
		out[y] = string(row)
	}
	return out
}

// toLines renders the grid with each run of equally colored cells in one
// lipgloss style.
func (b *brailleBuf) toLines() []string {
	out := make([]string, b.h)
	for y := 0; y < b.h; y++ {
		var sb strings.Builder
		var run []rune
		runColor := ""
		flush := func() {
			if len(run) == 0 {
				return
			}
			if runColor == "" {
				sb.WriteString(string(run))
			} else {
				sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(runColor)).Render(string(run)))
			}
			run = run[:0]
		}
		for x := 0; x < b.w; x++ {
			mask := b.m[y][x]
			color := ""
			if mask != 0 {
				color = b.color[y][x]
			}
			if color != runColor {
				flush()
				runColor = color
			}
			run = append(run, cellRune(mask))
		}
		flush()
		out[y] = sb.String()
	}
	return out
}

func cellRune(mask uint8) rune {
	if mask == 0 {
		return ' '
	}
	return rune(0x2800 + int(mask))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
