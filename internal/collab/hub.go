// Package collab serves open scenes to websocket viewers. Each scene runs
// in a room with its own render loop; viewers receive frames, submit
// operations and pick shapes, and changes are saved as snapshots.
package collab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/inamate/geoshape/internal/document"
	"github.com/inamate/geoshape/internal/engine"
	"github.com/inamate/geoshape/internal/render"
	"github.com/inamate/geoshape/internal/store"
	"github.com/inamate/geoshape/internal/typeid"
)

var (
	ErrInvalidSceneID = errors.New("invalid scene id")
	ErrHubStopped     = errors.New("hub stopped")
)

const (
	DefaultSaveDelay = 2 * time.Second
	stopSaveTimeout  = 10 * time.Second
)

// SceneStore loads and saves scene snapshots.
type SceneStore interface {
	Latest(ctx context.Context, sceneID string) (*document.Scene, error)
	Save(ctx context.Context, scene *document.Scene) (int, error)
}

// TextureSource hands out texture requesters that deliver into one
// engine's handoff.
type TextureSource interface {
	Requester(handoff *render.TextureHandoff) render.TextureRequester
}

type Options struct {
	Engine    engine.Options
	FPS       int
	SaveDelay time.Duration
	// SeedSample fills scenes that have never been saved with the sample
	// scene instead of an empty one.
	SeedSample bool
	// VerticalExaggeration applies to seeded scenes when positive.
	VerticalExaggeration float64
	Textures             TextureSource
}

// Hub owns the open rooms.
type Hub struct {
	store SceneStore
	opts  Options

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group

	mu      sync.Mutex
	rooms   map[string]*Room // sceneID -> room
	stopped bool
}

func NewHub(ctx context.Context, store SceneStore, opts Options) *Hub {
	if opts.SaveDelay <= 0 {
		opts.SaveDelay = DefaultSaveDelay
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Hub{
		store:  store,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		rooms:  make(map[string]*Room),
	}
}

// Room returns the open room for sceneID, opening it if needed.
func (h *Hub) Room(ctx context.Context, sceneID string) (*Room, error) {
	if err := typeid.Validate(sceneID, typeid.PrefixScene); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSceneID, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return nil, ErrHubStopped
	}
	if room, ok := h.rooms[sceneID]; ok {
		return room, nil
	}

	scene, seeded, err := h.loadScene(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	room, err := newRoom(scene, h.store, h.opts)
	if err != nil {
		return nil, err
	}
	if seeded {
		room.markDirty(scene)
	}
	h.rooms[sceneID] = room
	room.run(h.ctx, &h.group)

	slog.Info("scene opened", "scene", sceneID, "seeded", seeded)
	return room, nil
}

func (h *Hub) loadScene(ctx context.Context, sceneID string) (*document.Scene, bool, error) {
	scene, err := h.store.Latest(ctx, sceneID)
	if err == nil {
		return scene, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("load scene %s: %w", sceneID, err)
	}

	if h.opts.SeedSample {
		scene = document.NewSampleScene(sceneID)
	} else {
		scene = document.NewEmptyScene(sceneID, "Untitled scene", typeid.NewLayerID())
	}
	if h.opts.VerticalExaggeration > 0 {
		scene.Terrain.VerticalExaggeration = h.opts.VerticalExaggeration
	}
	return scene, true, nil
}

// Stop closes every room and saves any unsaved changes.
func (h *Hub) Stop() error {
	h.mu.Lock()
	h.stopped = true
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.Unlock()

	h.cancel()
	err := h.group.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), stopSaveTimeout)
	defer cancel()
	for _, r := range rooms {
		if ferr := r.flush(ctx); ferr != nil {
			slog.Error("save scene on stop", "scene", r.sceneID, "error", ferr)
			err = errors.Join(err, ferr)
		}
	}
	return err
}
