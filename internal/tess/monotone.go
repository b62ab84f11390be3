package tess

import "slices"

// triangulateMonotone emits the triangles of a y-monotone face given in
// counter-clockwise order.
func (s *polygon) triangulateMonotone(face []int, emit func(a, b, c int)) {
	n := len(face)
	if n < 3 {
		return
	}
	if n == 3 {
		emit(face[0], face[1], face[2])
		return
	}

	top, bottom := 0, 0
	for i := range face {
		if s.above(face[i], face[top]) {
			top = i
		}
		if s.above(face[bottom], face[i]) {
			bottom = i
		}
	}
	// Walking counter-clockwise from the top descends the left chain.
	onLeft := make(map[int]bool, n)
	for i := top; i != bottom; i = (i + 1) % n {
		onLeft[face[i]] = true
	}

	sorted := slices.Clone(face)
	slices.SortFunc(sorted, func(a, b int) int {
		switch {
		case s.above(a, b):
			return -1
		case s.above(b, a):
			return 1
		}
		return 0
	})

	stack := []int{sorted[0], sorted[1]}
	for j := 2; j < n-1; j++ {
		u := sorted[j]
		if onLeft[u] != onLeft[stack[len(stack)-1]] {
			for k := len(stack) - 1; k > 0; k-- {
				emit(u, stack[k], stack[k-1])
			}
			stack = append(stack[:0], sorted[j-1], u)
			continue
		}
		last := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for len(stack) > 0 && s.chainConvex(u, last, stack[len(stack)-1], onLeft[u]) {
			emit(u, last, stack[len(stack)-1])
			last = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, last, u)
	}

	u := sorted[n-1]
	for k := len(stack) - 1; k > 0; k-- {
		emit(u, stack[k], stack[k-1])
	}
}

// chainConvex reports whether the chain turns toward the interior at last,
// so the segment from u to top stays inside the face.
func (s *polygon) chainConvex(u, last, top int, left bool) bool {
	if left {
		return s.area2(top, last, u) > 0
	}
	return s.area2(u, last, top) > 0
}
