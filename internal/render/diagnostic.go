package render

import (
	"log/slog"
	"time"
)

// Diagnostic reports a non-fatal failure contained to one object.
type Diagnostic struct {
	ObjectID string
	LayerID  string
	Frame    uint64
	Time     time.Time
	Err      error
}

// Report logs a contained failure and forwards it to the diagnostics
// channel if one is attached. It never blocks.
func (dc *DrawContext) Report(objectID string, err error) {
	d := Diagnostic{ObjectID: objectID, Frame: dc.frame, Time: dc.timestamp, Err: err}
	if dc.currentLayer != nil {
		d.LayerID = dc.currentLayer.ID
	}
	slog.Warn("render diagnostic", "object", objectID, "layer", d.LayerID, "frame", d.Frame, "error", err)
	if dc.Diagnostics == nil {
		return
	}
	select {
	case dc.Diagnostics <- d:
	default:
	}
}
