package collab

import (
	"encoding/json"

	"github.com/inamate/geoshape/internal/document"
	"github.com/inamate/geoshape/internal/engine"
	"github.com/inamate/geoshape/internal/shape"
)

type Message struct {
	Type      string          `json:"type"`
	SceneID   string          `json:"sceneId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	ViewerID  string          `json:"viewerId,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor      *CursorPos         `json:"cursor,omitempty"`
	Globe       *document.Location `json:"globe,omitempty"`
	Selection   []string           `json:"selection,omitempty"`
	DisplayName string             `json:"displayName,omitempty"`
}

// CursorPos is a screen position, origin top-left.
type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ViewerID    string `json:"viewerId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	ViewerID string `json:"viewerId"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Scene sync
	TypeSceneSync = "scene.sync"
	TypeFrame     = "frame"

	// Queries
	TypePick            = "pick"
	TypePickResult      = "pick.result"
	TypeIntersect       = "intersect"
	TypeIntersectResult = "intersect.result"

	TypeDiagnostic = "diagnostic"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	ViewerID string `json:"viewerId"`
	Seq      int64  `json:"seq"`
}

type SceneSyncPayload struct {
	Scene    *document.Scene   `json:"scene"`
	Failures map[string]string `json:"failures,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// PointPayload is the payload of pick and intersect requests.
type PointPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PickResultPayload struct {
	Hit    bool               `json:"hit"`
	Result *engine.PickResult `json:"result,omitempty"`
}

type IntersectResultPayload struct {
	Intersections []IntersectionPayload `json:"intersections"`
}

type IntersectionPayload struct {
	shape.Intersection
	Position document.Location `json:"position"`
}

type DiagnosticPayload struct {
	ObjectID string `json:"objectId"`
	LayerID  string `json:"layerId,omitempty"`
	Frame    uint64 `json:"frame"`
	Message  string `json:"message"`
}

// --- Operation Types ---

const (
	OpShapeUpsert    = "shape.upsert"
	OpShapeDelete    = "shape.delete"
	OpShapeHighlight = "shape.highlight"
	OpViewUpdate     = "view.update"
	OpTerrainUpdate  = "terrain.update"
	OpSceneRename    = "scene.rename"
)

// Operation is one scene mutation.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ClientSeq int64  `json:"clientSeq"`

	// For shape.upsert
	LayerID string          `json:"layerId,omitempty"`
	Shape   *document.Shape `json:"shape,omitempty"`

	// For shape.delete / shape.highlight
	ShapeID     string `json:"shapeId,omitempty"`
	Highlighted *bool  `json:"highlighted,omitempty"`

	View    *document.View    `json:"view,omitempty"`
	Terrain *document.Terrain `json:"terrain,omitempty"`

	// For scene.rename
	Name string `json:"name,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages
type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages
type OperationBroadcastPayload struct {
	Operation Operation `json:"operation"`
	ViewerID  string    `json:"viewerId"`
	ServerSeq int64     `json:"serverSeq"`
}
