package engine

import (
	"encoding/json"
	"time"

	"github.com/inamate/geoshape/internal/document"
	"github.com/inamate/geoshape/internal/render"
)

// Frame is the output of one display pass: the backend commands in
// painter's order (farthest first).
type Frame struct {
	Frame    uint64               `json:"frame"`
	Time     time.Time            `json:"time"`
	Commands []render.DrawCommand `json:"commands"`
	// Regenerations counts shapes whose geometry was rebuilt this frame.
	Regenerations int `json:"regenerations"`
}

// PickResult identifies the shape under a screen point.
type PickResult struct {
	ObjectID string             `json:"objectId"`
	LayerID  string             `json:"layerId,omitempty"`
	Position *document.Location `json:"position,omitempty"`
}

// ToJSON encodes the frame. Frames contain only plain values, so the
// error path returns an empty command list.
func (f *Frame) ToJSON() string {
	data, err := json.Marshal(f)
	if err != nil {
		return `{"commands":[]}`
	}
	return string(data)
}

func (p PickResult) ToJSON() string {
	data, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(data)
}
