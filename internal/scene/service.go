package scene

import (
	"context"
	"errors"
	"fmt"

	"github.com/inamate/geoshape/internal/collab"
	"github.com/inamate/geoshape/internal/document"
	"github.com/inamate/geoshape/internal/engine"
	"github.com/inamate/geoshape/internal/typeid"
)

var ErrBadRequest = errors.New("bad request")

// Rooms opens scenes on demand.
type Rooms interface {
	Room(ctx context.Context, sceneID string) (*collab.Room, error)
}

// Snapshots reads and drops saved scene history.
type Snapshots interface {
	Version(ctx context.Context, sceneID string, version int) (*document.Scene, error)
	Delete(ctx context.Context, sceneID string) error
}

type Service struct {
	rooms     Rooms
	snapshots Snapshots
}

func NewService(rooms Rooms, snapshots Snapshots) *Service {
	return &Service{rooms: rooms, snapshots: snapshots}
}

// SceneResponse is a scene with the shapes that could not be built.
type SceneResponse struct {
	Scene    *document.Scene   `json:"scene"`
	Failures map[string]string `json:"failures,omitempty"`
}

// OperationResult reports the server sequence number of an applied
// operation.
type OperationResult struct {
	Seq int64 `json:"seq"`
}

type PickResponse struct {
	Hit    bool               `json:"hit"`
	Result *engine.PickResult `json:"result,omitempty"`
}

func (s *Service) Get(ctx context.Context, sceneID string) (*SceneResponse, error) {
	room, err := s.rooms.Room(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	scene, failures, err := room.Scene(ctx)
	if err != nil {
		return nil, fmt.Errorf("get scene: %w", err)
	}
	return newSceneResponse(scene, failures), nil
}

// Replace swaps in a whole scene document. A document without an ID takes
// the ID from the path.
func (s *Service) Replace(ctx context.Context, sceneID string, scene *document.Scene) (*SceneResponse, error) {
	if scene.ID == "" {
		scene.ID = sceneID
	}
	room, err := s.rooms.Room(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	current, err := room.ReplaceScene(ctx, scene)
	if err != nil {
		return nil, err
	}
	_, failures, err := room.Scene(ctx)
	if err != nil {
		return nil, fmt.Errorf("get scene: %w", err)
	}
	return newSceneResponse(current, failures), nil
}

// Snapshot returns a saved version of a scene.
func (s *Service) Snapshot(ctx context.Context, sceneID string, version int) (*document.Scene, error) {
	if err := typeid.Validate(sceneID, typeid.PrefixScene); err != nil {
		return nil, fmt.Errorf("%w: %v", collab.ErrInvalidSceneID, err)
	}
	if version < 1 {
		return nil, fmt.Errorf("%w: version must be positive", ErrBadRequest)
	}
	return s.snapshots.Version(ctx, sceneID, version)
}

// DeleteHistory drops every saved snapshot of a scene. An open scene is
// saved again on its next change.
func (s *Service) DeleteHistory(ctx context.Context, sceneID string) error {
	if err := typeid.Validate(sceneID, typeid.PrefixScene); err != nil {
		return fmt.Errorf("%w: %v", collab.ErrInvalidSceneID, err)
	}
	return s.snapshots.Delete(ctx, sceneID)
}

// Apply applies one operation as viewerID.
func (s *Service) Apply(ctx context.Context, sceneID, viewerID string, op collab.Operation) (*OperationResult, error) {
	room, err := s.rooms.Room(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	if op.ID == "" {
		op.ID = typeid.NewOpID()
	}
	if op.Timestamp == 0 {
		op.Timestamp = collab.GetServerTimestamp()
	}
	seq, err := room.Apply(ctx, viewerID, op)
	if err != nil {
		return nil, err
	}
	return &OperationResult{Seq: seq}, nil
}

func (s *Service) Frame(ctx context.Context, sceneID string) (*engine.Frame, error) {
	room, err := s.rooms.Room(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	return room.Frame(ctx)
}

func (s *Service) Pick(ctx context.Context, sceneID string, x, y float64) (*PickResponse, error) {
	room, err := s.rooms.Room(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	res, hit, err := room.Pick(ctx, x, y)
	if err != nil {
		return nil, err
	}
	out := &PickResponse{Hit: hit}
	if hit {
		out.Result = &res
	}
	return out, nil
}

func (s *Service) Intersect(ctx context.Context, sceneID string, x, y float64) ([]collab.IntersectionPayload, error) {
	room, err := s.rooms.Room(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	return room.IntersectAt(ctx, x, y)
}

func newSceneResponse(scene *document.Scene, failures map[string]error) *SceneResponse {
	resp := &SceneResponse{Scene: scene}
	if len(failures) > 0 {
		resp.Failures = make(map[string]string, len(failures))
		for id, err := range failures {
			resp.Failures[id] = err.Error()
		}
	}
	return resp
}
