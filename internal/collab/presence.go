package collab

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
)

// maxSelection caps the shape IDs one client may advertise as selected.
const maxSelection = 256

// presenceTable holds what every client in a room is pointing at: a
// screen cursor, an optional point on the globe and the shapes it has
// selected. Entries are keyed by client ID and stored by value, so
// callers never share them.
type presenceTable struct {
	mu      sync.RWMutex
	entries map[string]PresencePayload
}

func newPresenceTable() *presenceTable {
	return &presenceTable{entries: make(map[string]PresencePayload)}
}

// set normalizes p and records it for clientID. The selection is
// sorted, deduplicated and truncated; a globe position off the globe
// is dropped. The stored entry is returned for broadcasting.
func (t *presenceTable) set(clientID, displayName string, p PresencePayload) PresencePayload {
	p.DisplayName = displayName
	p.Selection = slices.Compact(slices.Sorted(slices.Values(p.Selection)))
	if len(p.Selection) > maxSelection {
		p.Selection = p.Selection[:maxSelection]
	}
	if g := p.Globe; g != nil && (g.Lat < -90 || g.Lat > 90 || g.Lon < -180 || g.Lon > 180) {
		p.Globe = nil
	}

	t.mu.Lock()
	t.entries[clientID] = p
	t.mu.Unlock()
	return p
}

func (t *presenceTable) drop(clientID string) {
	t.mu.Lock()
	delete(t.entries, clientID)
	t.mu.Unlock()
}

// deselect removes shapeID from every selection and reports whether any
// entry changed.
func (t *presenceTable) deselect(shapeID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	changed := false
	for id, p := range t.entries {
		i, found := slices.BinarySearch(p.Selection, shapeID)
		if !found {
			continue
		}
		p.Selection = slices.Delete(slices.Clone(p.Selection), i, i+1)
		t.entries[id] = p
		changed = true
	}
	return changed
}

func (t *presenceTable) snapshot() map[string]*PresencePayload {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]*PresencePayload, len(t.entries))
	for id, p := range t.entries {
		p.Selection = slices.Clone(p.Selection)
		out[id] = &p
	}
	return out
}

// stateMessage is the full table as sent to a joining client, or nil if
// it could not be encoded.
func (t *presenceTable) stateMessage() *Message {
	payload, err := json.Marshal(PresenceStatePayload{Presences: t.snapshot()})
	if err != nil {
		slog.Error("encode presence state", "error", err)
		return nil
	}
	return &Message{Type: TypePresenceState, Payload: payload}
}
