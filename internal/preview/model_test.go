package preview

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/geoshape/internal/document"
	"github.com/inamate/geoshape/internal/engine"
	"github.com/inamate/geoshape/internal/typeid"
)

func square(lat, lon, size float64) []document.Location {
	h := size / 2
	return []document.Location{
		{Lat: lat - h, Lon: lon - h},
		{Lat: lat - h, Lon: lon + h},
		{Lat: lat + h, Lon: lon + h},
		{Lat: lat + h, Lon: lon - h},
		{Lat: lat - h, Lon: lon - h},
	}
}

// newTestEngine loads a scene looking straight down on one polygon.
func newTestEngine(t *testing.T) (*engine.Engine, string) {
	t.Helper()
	scene := document.NewEmptyScene(typeid.NewSceneID(), "preview", typeid.NewLayerID())
	scene.View = document.View{
		Eye:         document.Location{Lat: 45, Lon: 7, Alt: 20000},
		Target:      document.Location{Lat: 45, Lon: 7},
		FieldOfView: 45,
		Width:       200,
		Height:      100,
	}
	shapeID := typeid.NewShapeID()
	scene.Layers[0].Shapes = []document.Shape{{
		ID:         shapeID,
		Type:       document.ShapeTypePolygon,
		Boundaries: [][]document.Location{square(45, 7, 0.02)},
	}}

	eng := engine.NewEngine(engine.DefaultOptions())
	require.NoError(t, eng.SetScene(scene))
	return eng, shapeID
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestRasterizeFrame(t *testing.T) {
	eng, _ := newTestEngine(t)
	require.NoError(t, eng.SetView(document.View{
		Eye:         document.Location{Lat: 45, Lon: 7, Alt: 20000},
		Target:      document.Location{Lat: 45, Lon: 7},
		FieldOfView: 45,
		Width:       80,
		Height:      100,
	}))
	frame, err := eng.Render(time.Now())
	require.NoError(t, err)

	lines := rasterize(frame, eng.View(), 40, 25).runes()
	require.Len(t, lines, 25)
	center := []rune(lines[12])
	assert.NotEqual(t, ' ', center[20])
	assert.Equal(t, strings.Repeat(" ", 40), lines[0])
	assert.Equal(t, strings.Repeat(" ", 40), lines[24])
}

func TestRasterizeNilFrame(t *testing.T) {
	eng, _ := newTestEngine(t)
	lines := rasterize(nil, eng.View(), 3, 2).runes()
	assert.Equal(t, []string{"   ", "   "}, lines)
}

func TestModelResizesView(t *testing.T) {
	eng, _ := newTestEngine(t)
	m, _ := update(t, New(eng), tea.WindowSizeMsg{Width: 40, Height: 27})

	require.NoError(t, m.err)
	assert.Len(t, m.lines, 25)
	v := eng.View()
	assert.Equal(t, 80, v.Width)
	assert.Equal(t, 100, v.Height)
	assert.Contains(t, m.View(), "preview")
}

func TestModelHoverAndHighlight(t *testing.T) {
	eng, shapeID := newTestEngine(t)
	m, _ := update(t, New(eng), tea.WindowSizeMsg{Width: 40, Height: 27})

	m, _ = update(t, m, tea.MouseMsg{X: 20, Y: 12, Action: tea.MouseActionMotion})
	require.Equal(t, shapeID, m.hoverID)
	require.NotNil(t, m.hoverPos)
	assert.InDelta(t, 45, m.hoverPos.Lat, 0.01)
	assert.Contains(t, m.View(), shapeID)

	m, _ = update(t, m, tea.MouseMsg{X: 20, Y: 12, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	scene, err := eng.Scene()
	require.NoError(t, err)
	s, _, err := scene.FindShape(shapeID)
	require.NoError(t, err)
	assert.True(t, s.Highlighted)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'h'}})
	scene, err = eng.Scene()
	require.NoError(t, err)
	s, _, err = scene.FindShape(shapeID)
	require.NoError(t, err)
	assert.False(t, s.Highlighted)

	m, _ = update(t, m, tea.MouseMsg{X: 1, Y: 1, Action: tea.MouseActionMotion})
	assert.Empty(t, m.hoverID)

	// Rows below the map never pick.
	m, _ = update(t, m, tea.MouseMsg{X: 20, Y: 26, Action: tea.MouseActionMotion})
	assert.Empty(t, m.hoverID)
}

func TestModelZoomAndPan(t *testing.T) {
	eng, _ := newTestEngine(t)
	m, _ := update(t, New(eng), tea.WindowSizeMsg{Width: 40, Height: 27})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	assert.InDelta(t, 16000, m.view.Eye.Alt, 1e-6)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}})
	assert.InDelta(t, 20000, m.view.Eye.Alt, 1e-6)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Greater(t, m.view.Target.Lat, 45.0)
	assert.Equal(t, m.view.Eye.Lat, m.view.Target.Lat)
	require.NoError(t, m.err)
}

func TestModelQuit(t *testing.T) {
	eng, _ := newTestEngine(t)
	_, cmd := update(t, New(eng), tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModelWithoutScene(t *testing.T) {
	m := New(engine.NewEngine(engine.DefaultOptions()))
	assert.ErrorIs(t, m.err, engine.ErrNoScene)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 20, Height: 10})
	assert.Contains(t, m.View(), engine.ErrNoScene.Error())
}
