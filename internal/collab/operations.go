package collab

import (
	"errors"
	"fmt"
	"time"

	"github.com/inamate/geoshape/internal/engine"
)

var ErrInvalidOperation = errors.New("invalid operation")

// applyOperation applies op to the engine's scene. It runs on the render
// goroutine.
func applyOperation(e *engine.Engine, op Operation) error {
	switch op.Type {
	case OpShapeUpsert:
		if op.Shape == nil {
			return fmt.Errorf("%w: %s without shape", ErrInvalidOperation, op.Type)
		}
		return e.UpsertShape(op.LayerID, *op.Shape)
	case OpShapeDelete:
		return e.RemoveShape(op.ShapeID)
	case OpShapeHighlight:
		if op.Highlighted == nil {
			return fmt.Errorf("%w: %s without highlighted", ErrInvalidOperation, op.Type)
		}
		return e.SetHighlighted(op.ShapeID, *op.Highlighted)
	case OpViewUpdate:
		if op.View == nil {
			return fmt.Errorf("%w: %s without view", ErrInvalidOperation, op.Type)
		}
		return e.SetView(*op.View)
	case OpTerrainUpdate:
		if op.Terrain == nil {
			return fmt.Errorf("%w: %s without terrain", ErrInvalidOperation, op.Type)
		}
		return e.SetTerrain(*op.Terrain)
	case OpSceneRename:
		if op.Name == "" {
			return fmt.Errorf("%w: empty name", ErrInvalidOperation)
		}
		return e.Rename(op.Name)
	default:
		return fmt.Errorf("%w: unknown operation type %q", ErrInvalidOperation, op.Type)
	}
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
