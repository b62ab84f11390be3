package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(lat0, lon0, lat1, lon1 float64) []Position {
	return []Position{
		PositionFromDegrees(lat0, lon0, 0),
		PositionFromDegrees(lat0, lon1, 0),
		PositionFromDegrees(lat1, lon1, 0),
		PositionFromDegrees(lat1, lon0, 0),
	}
}

func TestNewBoundaryCloses(t *testing.T) {
	b, err := NewBoundary(square(0, 0, 1, 1))
	require.NoError(t, err)
	assert.Len(t, b, 5)
	assert.True(t, b.Closed())
	assert.Equal(t, b[0], b[4])

	closed := append(square(0, 0, 1, 1), PositionFromDegrees(0, 0, 0))
	b, err = NewBoundary(closed)
	require.NoError(t, err)
	assert.Len(t, b, 5)
}

func TestNewBoundaryRejectsTooFewLocations(t *testing.T) {
	_, err := NewBoundary([]Position{PositionFromDegrees(0, 0, 0), PositionFromDegrees(1, 1, 0)})
	assert.ErrorIs(t, err, ErrInvalidBoundary)

	_, err = NewBoundary([]Position{
		PositionFromDegrees(0, 0, 0),
		PositionFromDegrees(1, 1, 0),
		PositionFromDegrees(0, 0, 0),
		PositionFromDegrees(1, 1, 10),
	})
	assert.ErrorIs(t, err, ErrInvalidBoundary)

	_, err = NewBoundarySet()
	assert.ErrorIs(t, err, ErrInvalidBoundary)
}

func TestBoundarySetNormalizesWinding(t *testing.T) {
	outerCW := square(0, 0, 1, 1)
	// lat/lon order above runs east then north, which is counter-clockwise.
	// Reverse it so normalization has work to do.
	for i, j := 0, len(outerCW)-1; i < j; i, j = i+1, j-1 {
		outerCW[i], outerCW[j] = outerCW[j], outerCW[i]
	}
	hole := square(0.25, 0.25, 0.75, 0.75)

	set, err := NewBoundarySet(outerCW, hole)
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.True(t, set.Outer().CounterClockwise())
	assert.False(t, set[1].CounterClockwise())
	assert.True(t, set[0].Closed())
	assert.True(t, set[1].Closed())
	assert.Equal(t, 10, set.Len())
}

func TestPathTypeInterpolate(t *testing.T) {
	a := PositionFromDegrees(0, 0, 0)
	b := PositionFromDegrees(0, 10, 100)

	mid := GreatCircle.Interpolate(0.5, a, b)
	assert.InDelta(t, 0, mid.Lat.Degrees(), 1e-9)
	assert.InDelta(t, 5, mid.Lon.Degrees(), 1e-9)
	assert.InDelta(t, 50, mid.Alt, 1e-9)

	lin := Linear.Interpolate(0.25, a, b)
	assert.InDelta(t, 2.5, lin.Lon.Degrees(), 1e-9)

	wrap := Linear.Interpolate(0.5, PositionFromDegrees(0, 179, 0), PositionFromDegrees(0, -179, 0))
	assert.InDelta(t, 180, wrap.Lon.Abs().Degrees(), 1e-9)
}
