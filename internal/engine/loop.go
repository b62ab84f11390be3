package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultFPS is the frame rate of a Loop when none is configured.
const DefaultFPS = 10

var ErrLoopStopped = errors.New("render loop stopped")

type call struct {
	fn   func(e *Engine)
	done chan struct{}
}

// Loop runs an Engine on a single render goroutine. Other goroutines
// reach the engine through Do; rendered frames fan out to subscribers.
type Loop struct {
	engine   *Engine
	interval time.Duration
	calls    chan call
	stopped  chan struct{}
	now      func() time.Time

	mu     sync.Mutex
	nextID int
	subs   map[int]chan *Frame
}

func NewLoop(e *Engine, fps int) *Loop {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Loop{
		engine:   e,
		interval: time.Second / time.Duration(fps),
		calls:    make(chan call),
		stopped:  make(chan struct{}),
		now:      time.Now,
		subs:     make(map[int]chan *Frame),
	}
}

// Run renders a frame per tick while anyone is subscribed and executes
// submitted calls between frames. It returns when ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-l.calls:
			c.fn(l.engine)
			close(c.done)
		case <-ticker.C:
			if l.subscribers() == 0 {
				continue
			}
			frame, err := l.engine.Render(l.now())
			if err != nil {
				if !errors.Is(err, ErrNoScene) {
					slog.Error("render failed", "error", err)
				}
				continue
			}
			l.publish(frame)
		}
	}
}

// Do runs fn on the render goroutine and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func(e *Engine) error) error {
	var err error
	c := call{fn: func(e *Engine) { err = fn(e) }, done: make(chan struct{})}
	select {
	case l.calls <- c:
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-c.done:
		return err
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel receiving the latest frames. A slow
// subscriber skips frames rather than stalling the loop. cancel must be
// called to release the subscription.
func (l *Loop) Subscribe() (frames <-chan *Frame, cancel func()) {
	ch := make(chan *Frame, 1)
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = ch
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
		})
	}
}

func (l *Loop) subscribers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

func (l *Loop) publish(f *Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ch := range l.subs {
		select {
		case ch <- f:
		default:
			// Replace the unread frame with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- f:
			default:
			}
		}
	}
}
