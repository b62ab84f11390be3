package asset

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/inamate/geoshape/internal/render"
	"github.com/inamate/geoshape/internal/typeid"
)

const DefaultWorkers = 4

type textureJob struct {
	id      string
	handoff *render.TextureHandoff
}

// Loader decodes stored textures on worker goroutines and publishes them
// to the handoff of the engine that asked. Decoded textures are cached and
// shared between engines.
type Loader struct {
	dir     string
	workers int

	mu    sync.Mutex
	queue []textureJob
	cache map[string]*render.Texture
	wake  chan struct{}
}

func NewLoader(dir string, workers int) *Loader {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Loader{
		dir:     dir,
		workers: workers,
		cache:   make(map[string]*render.Texture),
		wake:    make(chan struct{}, 1),
	}
}

// Requester returns a texture requester that delivers into handoff.
func (l *Loader) Requester(handoff *render.TextureHandoff) render.TextureRequester {
	return requester{loader: l, handoff: handoff}
}

type requester struct {
	loader  *Loader
	handoff *render.TextureHandoff
}

// RequestTexture never blocks the caller.
func (r requester) RequestTexture(id string) {
	r.loader.enqueue(textureJob{id: id, handoff: r.handoff})
}

func (l *Loader) enqueue(job textureJob) {
	l.mu.Lock()
	if t, ok := l.cache[job.id]; ok {
		l.mu.Unlock()
		job.handoff.Publish(t)
		return
	}
	l.queue = append(l.queue, job)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loader) next() (textureJob, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return textureJob{}, false
	}
	job := l.queue[0]
	l.queue = l.queue[1:]
	return job, true
}

// Run processes requests until ctx is done.
func (l *Loader) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for range l.workers {
		g.Go(func() error {
			l.work(ctx)
			return nil
		})
	}
	return g.Wait()
}

func (l *Loader) work(ctx context.Context) {
	for {
		for job, ok := l.next(); ok; job, ok = l.next() {
			t, err := l.load(job.id)
			if err != nil {
				slog.Warn("texture load failed", "asset", job.id, "error", err)
				continue
			}
			job.handoff.Publish(t)
		}
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
	}
}

func (l *Loader) load(id string) (*render.Texture, error) {
	l.mu.Lock()
	t, ok := l.cache[id]
	l.mu.Unlock()
	if ok {
		return t, nil
	}

	if err := typeid.Validate(id, typeid.PrefixAsset); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(l.dir, id+".png"))
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture: %w", err)
	}

	b := img.Bounds()
	t = &render.Texture{ID: id, Width: b.Dx(), Height: b.Dy(), Image: img}
	l.mu.Lock()
	l.cache[id] = t
	l.mu.Unlock()
	return t, nil
}
