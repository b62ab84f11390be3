package geo

import (
	"errors"
	"fmt"
	"slices"

	"github.com/golang/geo/s2"
)

// ErrInvalidBoundary is returned when a ring has fewer than three distinct
// locations or a boundary list is empty.
var ErrInvalidBoundary = errors.New("invalid boundary")

// Boundary is a closed ring of positions: the first and last entries are
// the same location.
type Boundary []Position

// NewBoundary copies locs into a closed Boundary, appending the first
// location when the ring is open.
func NewBoundary(locs []Position) (Boundary, error) {
	if n := distinctLocations(locs); n < 3 {
		return nil, fmt.Errorf("%w: %d distinct locations, need at least 3", ErrInvalidBoundary, n)
	}
	b := make(Boundary, len(locs), len(locs)+1)
	copy(b, locs)
	if !b[0].SameLocation(b[len(b)-1]) {
		b = append(b, b[0])
	}
	return b, nil
}

// Closed reports whether the ring ends where it starts.
func (b Boundary) Closed() bool {
	return len(b) > 1 && b[0].SameLocation(b[len(b)-1])
}

// CounterClockwise reports whether the ring winds counter-clockwise when
// viewed from outside the globe.
func (b Boundary) CounterClockwise() bool {
	pts := make([]s2.Point, 0, len(b))
	for i, p := range b {
		if i > 0 && p.SameLocation(b[i-1]) {
			continue
		}
		pts = append(pts, p.Point())
	}
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return true
	}
	return s2.LoopFromPoints(pts).IsNormalized()
}

// Reversed returns a copy of b in the opposite order.
func (b Boundary) Reversed() Boundary {
	r := slices.Clone(b)
	slices.Reverse(r)
	return r
}

func distinctLocations(locs []Position) int {
	seen := make(map[[2]float64]struct{}, len(locs))
	for _, p := range locs {
		seen[[2]float64{float64(p.Lat), float64(p.Lon)}] = struct{}{}
	}
	return len(seen)
}

// BoundarySet holds an outer boundary at index 0 followed by holes.
type BoundarySet []Boundary

// NewBoundarySet validates and closes each ring, then normalizes winding.
func NewBoundarySet(rings ...[]Position) (BoundarySet, error) {
	if len(rings) == 0 {
		return nil, fmt.Errorf("%w: empty boundary list", ErrInvalidBoundary)
	}
	set := make(BoundarySet, 0, len(rings))
	for i, ring := range rings {
		b, err := NewBoundary(ring)
		if err != nil {
			return nil, fmt.Errorf("ring %d: %w", i, err)
		}
		set = append(set, b)
	}
	return set.Normalize(), nil
}

// Normalize returns a copy with the outer ring counter-clockwise and every
// hole clockwise.
func (s BoundarySet) Normalize() BoundarySet {
	out := make(BoundarySet, len(s))
	for i, b := range s {
		wantCCW := i == 0
		if b.CounterClockwise() != wantCCW {
			out[i] = b.Reversed()
		} else {
			out[i] = slices.Clone(b)
		}
	}
	return out
}

// Outer returns the outer boundary, or nil for an empty set.
func (s BoundarySet) Outer() Boundary {
	if len(s) == 0 {
		return nil
	}
	return s[0]
}

// Len returns the total number of positions across every ring.
func (s BoundarySet) Len() int {
	n := 0
	for _, b := range s {
		n += len(b)
	}
	return n
}
