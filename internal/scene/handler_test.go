package scene

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/geoshape/internal/collab"
	"github.com/inamate/geoshape/internal/document"
	"github.com/inamate/geoshape/internal/engine"
	"github.com/inamate/geoshape/internal/store"
	"github.com/inamate/geoshape/internal/typeid"
)

// memStore keeps every saved version in memory.
type memStore struct {
	mu       sync.Mutex
	versions map[string][]*document.Scene
}

func newMemStore() *memStore {
	return &memStore{versions: make(map[string][]*document.Scene)}
}

func (s *memStore) Latest(_ context.Context, sceneID string) (*document.Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs := s.versions[sceneID]
	if len(vs) == 0 {
		return nil, store.ErrNotFound
	}
	return vs[len(vs)-1].Clone(), nil
}

func (s *memStore) Save(_ context.Context, scene *document.Scene) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	scene.Version = len(s.versions[scene.ID]) + 1
	s.versions[scene.ID] = append(s.versions[scene.ID], scene.Clone())
	return scene.Version, nil
}

func (s *memStore) Version(_ context.Context, sceneID string, version int) (*document.Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs := s.versions[sceneID]
	if version < 1 || version > len(vs) {
		return nil, fmt.Errorf("%w: %s version %d", store.ErrNotFound, sceneID, version)
	}
	return vs[version-1].Clone(), nil
}

func (s *memStore) Delete(_ context.Context, sceneID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.versions[sceneID]) == 0 {
		return store.ErrNotFound
	}
	delete(s.versions, sceneID)
	return nil
}

func newTestRouter(t *testing.T, st *memStore) *mux.Router {
	t.Helper()
	hub := collab.NewHub(context.Background(), st, collab.Options{
		Engine:    engine.DefaultOptions(),
		FPS:       50,
		SaveDelay: time.Hour,
	})
	t.Cleanup(func() { _ = hub.Stop() })

	r := mux.NewRouter()
	NewHandler(NewService(hub, st)).Register(r.PathPrefix("/api").Subrouter())
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

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

func TestSceneLifecycle(t *testing.T) {
	r := newTestRouter(t, newMemStore())
	sceneID := typeid.NewSceneID()
	base := "/api/scenes/" + sceneID

	rec := do(t, r, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[SceneResponse](t, rec)
	require.Len(t, got.Scene.Layers, 1)
	layerID := got.Scene.Layers[0].ID

	view := document.View{
		Eye:         document.Location{Lat: 45, Lon: 7, Alt: 20000},
		Target:      document.Location{Lat: 45, Lon: 7},
		FieldOfView: 45,
		Width:       200,
		Height:      100,
	}
	rec = do(t, r, http.MethodPut, base+"/view", view)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(1), decode[OperationResult](t, rec).Seq)

	shapeID := typeid.NewShapeID()
	rec = do(t, r, http.MethodPost, base+"/shapes", upsertShapeRequest{
		LayerID: layerID,
		Shape: document.Shape{
			ID:         shapeID,
			Type:       document.ShapeTypePolygon,
			Boundaries: [][]document.Location{square(45, 7, 0.02)},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, r, http.MethodGet, base+"/frame", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[engine.Frame](t, rec).Commands)

	rec = do(t, r, http.MethodPost, base+"/pick", pointRequest{X: 100, Y: 50})
	require.Equal(t, http.StatusOK, rec.Code)
	pick := decode[PickResponse](t, rec)
	require.True(t, pick.Hit)
	assert.Equal(t, shapeID, pick.Result.ObjectID)
	assert.Equal(t, layerID, pick.Result.LayerID)
	require.NotNil(t, pick.Result.Position)
	assert.InDelta(t, 45, pick.Result.Position.Lat, 0.01)

	rec = do(t, r, http.MethodPost, base+"/intersect", pointRequest{X: 100, Y: 50})
	require.Equal(t, http.StatusOK, rec.Code)
	hits := decode[map[string][]collab.IntersectionPayload](t, rec)["intersections"]
	require.NotEmpty(t, hits)
	assert.InDelta(t, 20000, hits[0].Distance, 50)

	rec = do(t, r, http.MethodDelete, base+"/shapes/"+shapeID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, r, http.MethodDelete, base+"/shapes/"+shapeID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPost, base+"/pick", pointRequest{X: 100, Y: 50})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[PickResponse](t, rec).Hit)
}

func TestReplaceScene(t *testing.T) {
	r := newTestRouter(t, newMemStore())
	sceneID := typeid.NewSceneID()

	scene := document.NewSampleScene("")
	rec := do(t, r, http.MethodPut, "/api/scenes/"+sceneID, scene)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[SceneResponse](t, rec)
	assert.Equal(t, sceneID, got.Scene.ID)
	assert.Len(t, got.Scene.Layers, 3)
	assert.Empty(t, got.Failures)

	scene.ID = typeid.NewSceneID()
	rec = do(t, r, http.MethodPut, "/api/scenes/"+sceneID, scene)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOperationsEndpoint(t *testing.T) {
	r := newTestRouter(t, newMemStore())
	base := "/api/scenes/" + typeid.NewSceneID()

	rec := do(t, r, http.MethodPost, base+"/operations", collab.Operation{Type: collab.OpSceneRename, Name: "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, r, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", decode[SceneResponse](t, rec).Scene.Name)

	rec = do(t, r, http.MethodPost, base+"/operations", collab.Operation{Type: "scene.explode"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBadRequests(t *testing.T) {
	r := newTestRouter(t, newMemStore())
	sceneID := typeid.NewSceneID()
	base := "/api/scenes/" + sceneID

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"invalid scene id", http.MethodGet, "/api/scenes/project_1", nil, http.StatusBadRequest},
		{"invalid view", http.MethodPut, base + "/view", document.View{Width: 10, Height: 10}, http.StatusBadRequest},
		{"shape without layer", http.MethodPost, base + "/shapes", upsertShapeRequest{Shape: document.Shape{ID: "shape_x"}}, http.StatusBadRequest},
		{"missing layer", http.MethodPost, base + "/shapes", upsertShapeRequest{
			LayerID: "layer_missing",
			Shape:   document.Shape{ID: "shape_x", Type: document.ShapeTypePolygon, Boundaries: [][]document.Location{square(0, 0, 1)}},
		}, http.StatusNotFound},
		{"bad version", http.MethodGet, base + "/snapshots/zero", nil, http.StatusBadRequest},
		{"missing version", http.MethodGet, base + "/snapshots/7", nil, http.StatusNotFound},
		{"no history", http.MethodDelete, "/api/scenes/" + typeid.NewSceneID() + "/snapshots", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestSnapshots(t *testing.T) {
	st := newMemStore()
	sceneID := typeid.NewSceneID()
	_, err := st.Save(context.Background(), document.NewEmptyScene(sceneID, "first", typeid.NewLayerID()))
	require.NoError(t, err)
	r := newTestRouter(t, st)

	rec := do(t, r, http.MethodGet, "/api/scenes/"+sceneID+"/snapshots/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "first", decode[document.Scene](t, rec).Name)

	rec = do(t, r, http.MethodDelete, "/api/scenes/"+sceneID+"/snapshots", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, r, http.MethodGet, "/api/scenes/"+sceneID+"/snapshots/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
