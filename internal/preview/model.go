// Package preview is a terminal viewer for scenes. It renders engine frames
// to braille and picks shapes under the mouse.
package preview

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/inamate/geoshape/internal/document"
	"github.com/inamate/geoshape/internal/engine"
)

// chromeRows is the number of rows below the map.
const chromeRows = 2

type Model struct {
	eng  *engine.Engine
	name string

	width  int
	height int

	view  document.View
	lines []string

	status string
	err    error

	hoverID    string
	hoverLayer string
	hoverPos   *document.Location
}

// New returns a model showing the engine's current scene.
func New(eng *engine.Engine) Model {
	m := Model{eng: eng, status: "geoshape preview"}
	scene, err := eng.Scene()
	if err != nil {
		m.err = err
		return m
	}
	m.name = scene.Name
	m.view = scene.View
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.redraw()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "+", "=":
			m.zoom(0.8)
		case "-", "_":
			m.zoom(1.25)
		case "up":
			m.pan(1, 0)
		case "down":
			m.pan(-1, 0)
		case "left":
			m.pan(0, -1)
		case "right":
			m.pan(0, 1)
		case "h":
			m.toggleHighlight()
		}
	case tea.MouseMsg:
		switch {
		case msg.Action == tea.MouseActionMotion:
			m.hover(msg.X, msg.Y)
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
			m.hover(msg.X, msg.Y)
			m.toggleHighlight()
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(titleStyle.Render(m.name) + "  " + m.statusLine() + "\n")
	b.WriteString(dimStyle.Render("q quit · arrows pan · +/- zoom · h or click highlight"))
	return b.String()
}

func (m Model) statusLine() string {
	if m.err != nil {
		return errorStyle.Render(m.err.Error())
	}
	if m.hoverID == "" {
		return dimStyle.Render(m.status)
	}
	s := fmt.Sprintf("%s (layer %s)", m.hoverID, m.hoverLayer)
	if p := m.hoverPos; p != nil {
		s += fmt.Sprintf(" at %.5f, %.5f, %.1f m", p.Lat, p.Lon, p.Alt)
	}
	return s
}

func (m *Model) mapSize() (int, int) {
	return m.width, max(1, m.height-chromeRows)
}

// redraw sizes the view to the map area in micro pixels and renders a
// frame into it.
func (m *Model) redraw() {
	if m.width <= 0 {
		return
	}
	w, h := m.mapSize()
	v := m.view
	v.Width, v.Height = w*2, h*4
	if err := m.eng.SetView(v); err != nil {
		m.err = err
		return
	}
	m.view = v

	frame, err := m.eng.Render(time.Now())
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.lines = rasterize(frame, m.eng.View(), w, h).toLines()
}

// zoom moves the eye toward the target by factor.
func (m *Model) zoom(factor float64) {
	eye, target := m.view.Eye, m.view.Target
	next := document.Location{
		Lat: target.Lat + (eye.Lat-target.Lat)*factor,
		Lon: target.Lon + (eye.Lon-target.Lon)*factor,
		Alt: target.Alt + (eye.Alt-target.Alt)*factor,
	}
	if next.Alt-target.Alt < 10 {
		m.status = "zoom limit"
		return
	}
	m.view.Eye = next
	m.status = fmt.Sprintf("eye altitude %.0f m", next.Alt)
	m.redraw()
}

// pan moves eye and target together by a tenth of the eye altitude.
func (m *Model) pan(dLat, dLon float64) {
	step := (m.view.Eye.Alt - m.view.Target.Alt) / 10 / 111_320
	m.view.Eye.Lat += dLat * step
	m.view.Eye.Lon += dLon * step
	m.view.Target.Lat += dLat * step
	m.view.Target.Lon += dLon * step
	m.status = fmt.Sprintf("target %.4f, %.4f", m.view.Target.Lat, m.view.Target.Lon)
	m.redraw()
}

// hover picks the shape under cell (x, y).
func (m *Model) hover(x, y int) {
	m.hoverID, m.hoverLayer, m.hoverPos = "", "", nil
	if _, h := m.mapSize(); y >= h || m.err != nil {
		return
	}
	res, hit, err := m.eng.Pick(context.Background(), time.Now(), float64(x*2+1), float64(y*4+2))
	if err != nil {
		m.err = err
		return
	}
	if hit {
		m.hoverID, m.hoverLayer, m.hoverPos = res.ObjectID, res.LayerID, res.Position
	}
}

func (m *Model) toggleHighlight() {
	if m.hoverID == "" {
		return
	}
	highlighted := false
	if scene, err := m.eng.Scene(); err == nil {
		if s, _, err := scene.FindShape(m.hoverID); err == nil {
			highlighted = s.Highlighted
		}
	}
	if err := m.eng.SetHighlighted(m.hoverID, !highlighted); err != nil {
		m.err = err
		return
	}
	m.status = fmt.Sprintf("highlighted %s: %v", m.hoverID, !highlighted)
	m.redraw()
}
