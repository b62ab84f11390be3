package shape

import (
	"time"

	"github.com/inamate/geoshape/internal/geo"
)

// DefaultRegenerationInterval is how long terrain-following geometry is
// reused before it is rebuilt against possibly refined terrain.
const DefaultRegenerationInterval = 2 * time.Second

// State is the geometry cache state of a shape.
type State int

const (
	StateEmpty State = iota
	StateValid
	StateStale
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateValid:
		return "valid"
	case StateStale:
		return "stale"
	}
	return "unknown"
}

// Regenerator decides when a shape's cached geometry must be rebuilt.
type Regenerator struct {
	Interval time.Duration

	state  State
	expiry time.Time
	ve     float64
}

func (r *Regenerator) State() State { return r.state }

// Invalidate marks valid geometry stale.
func (r *Regenerator) Invalidate() {
	if r.state == StateValid {
		r.state = StateStale
	}
}

// Reset discards the cached geometry state entirely.
func (r *Regenerator) Reset() {
	r.state = StateEmpty
	r.expiry = time.Time{}
	r.ve = 0
}

// Check applies the time and exaggeration transitions for a frame and
// returns the resulting state.
func (r *Regenerator) Check(now time.Time, ve float64, mode geo.AltitudeMode) State {
	if r.state != StateValid {
		return r.state
	}
	if ve != r.ve {
		r.state = StateStale
	} else if mode.FollowsTerrain() && !now.Before(r.expiry) {
		r.state = StateStale
	}
	return r.state
}

// Regenerated records a successful rebuild.
func (r *Regenerator) Regenerated(now time.Time, ve float64) {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultRegenerationInterval
	}
	r.state = StateValid
	r.expiry = now.Add(interval)
	r.ve = ve
}
