package tess

import (
	"fmt"
	"math"
	"slices"
)

type vertexKind int

const (
	kindRegular vertexKind = iota
	kindStart
	kindSplit
	kindEnd
	kindMerge
)

func (s *polygon) kind(id int) vertexKind {
	v := s.verts[id]
	prevBelow := s.above(id, v.prev)
	nextBelow := s.above(id, v.next)
	convex := s.area2(v.prev, id, v.next) > 0
	switch {
	case prevBelow && nextBelow && convex:
		return kindStart
	case prevBelow && nextBelow:
		return kindSplit
	case !prevBelow && !nextBelow && convex:
		return kindEnd
	case !prevBelow && !nextBelow:
		return kindMerge
	}
	return kindRegular
}

// decompose inserts diagonals that split the polygon into y-monotone
// pieces. An edge is named by its origin vertex.
func (s *polygon) decompose() error {
	n := len(s.verts)
	kinds := make([]vertexKind, n)
	order := make([]int, n)
	for i := range n {
		kinds[i] = s.kind(i)
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		switch {
		case s.above(a, b):
			return -1
		case s.above(b, a):
			return 1
		}
		return 0
	})

	helper := make([]int, n)
	var status []int
	remove := func(e int) {
		if i := slices.Index(status, e); i >= 0 {
			status = slices.Delete(status, i, i+1)
		}
	}
	connectMerge := func(v, e int) {
		if h := helper[e]; kinds[h] == kindMerge {
			s.diagonals = append(s.diagonals, [2]int{v, h})
		}
	}

	for _, v := range order {
		prevEdge := s.verts[v].prev
		switch kinds[v] {
		case kindStart:
			status = append(status, v)
			helper[v] = v
		case kindEnd:
			connectMerge(v, prevEdge)
			remove(prevEdge)
		case kindSplit:
			left := s.leftEdge(status, v)
			if left < 0 {
				return fmt.Errorf("%w: no edge left of split vertex", ErrTessellationFailed)
			}
			s.diagonals = append(s.diagonals, [2]int{v, helper[left]})
			helper[left] = v
			status = append(status, v)
			helper[v] = v
		case kindMerge:
			connectMerge(v, prevEdge)
			remove(prevEdge)
			left := s.leftEdge(status, v)
			if left < 0 {
				return fmt.Errorf("%w: no edge left of merge vertex", ErrTessellationFailed)
			}
			connectMerge(v, left)
			helper[left] = v
		default:
			if s.above(prevEdge, v) {
				// Interior lies to the right of v.
				connectMerge(v, prevEdge)
				remove(prevEdge)
				status = append(status, v)
				helper[v] = v
			} else {
				left := s.leftEdge(status, v)
				if left < 0 {
					return fmt.Errorf("%w: no edge left of regular vertex", ErrTessellationFailed)
				}
				connectMerge(v, left)
				helper[left] = v
			}
		}
	}
	return nil
}

// leftEdge returns the status edge directly left of v, or -1.
func (s *polygon) leftEdge(status []int, v int) int {
	p := s.verts[v]
	best, bestX := -1, math.Inf(-1)
	for _, e := range status {
		a, b := s.verts[e], s.verts[s.verts[e].next]
		if a.y == b.y {
			continue
		}
		x := a.x + (p.y-a.y)*(b.x-a.x)/(b.y-a.y)
		if x <= p.x && x > bestX {
			best, bestX = e, x
		}
	}
	return best
}

// faces walks the planar graph made of polygon edges and diagonals and
// returns each bounded face as a counter-clockwise vertex list.
func (s *polygon) faces() ([][]int, error) {
	n := len(s.verts)
	out := make([][]int, n)
	for i := range n {
		out[i] = append(out[i], s.verts[i].next)
	}
	for _, d := range s.diagonals {
		a, b := d[0], d[1]
		if a == b || slices.Contains(out[a], b) {
			continue
		}
		out[a] = append(out[a], b)
		out[b] = append(out[b], a)
	}

	edges := 0
	visited := make([][]bool, n)
	for i := range n {
		visited[i] = make([]bool, len(out[i]))
		edges += len(out[i])
	}

	var faces [][]int
	for start := range n {
		for k := range out[start] {
			if visited[start][k] {
				continue
			}
			var face []int
			a, ka := start, k
			for steps := 0; ; steps++ {
				if steps > edges {
					return nil, fmt.Errorf("%w: face walk did not close", ErrTessellationFailed)
				}
				visited[a][ka] = true
				face = append(face, a)
				b := out[a][ka]
				kb := s.nextOut(out[b], b, a)
				if kb < 0 {
					return nil, fmt.Errorf("%w: dangling edge", ErrTessellationFailed)
				}
				a, ka = b, kb
				if a == start && ka == k {
					break
				}
				if visited[a][ka] {
					return nil, fmt.Errorf("%w: faces overlap", ErrTessellationFailed)
				}
			}
			faces = append(faces, face)
		}
	}
	return faces, nil
}

// nextOut picks, among the edges leaving b, the first one clockwise from
// the direction back to a. That keeps the current face on the left.
func (s *polygon) nextOut(targets []int, b, a int) int {
	pb := s.verts[b]
	back := math.Atan2(s.verts[a].y-pb.y, s.verts[a].x-pb.x)
	best, bestTurn := -1, math.Inf(1)
	for k, t := range targets {
		if t == a {
			continue
		}
		d := back - math.Atan2(s.verts[t].y-pb.y, s.verts[t].x-pb.x)
		for d <= 0 {
			d += 2 * math.Pi
		}
		if d < bestTurn {
			best, bestTurn = k, d
		}
	}
	return best
}
