package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/inamate/geoshape/internal/document"
	"github.com/inamate/geoshape/internal/engine"
	"github.com/inamate/geoshape/internal/render"
	"github.com/inamate/geoshape/internal/shape"
)

const diagnosticsBuffer = 16

// Room is one open scene: its engine running on a render loop, the
// clients watching it and the pending snapshot waiting to be saved.
type Room struct {
	sceneID   string
	loop      *engine.Loop
	handoff   render.TextureHandoff
	diags     chan render.Diagnostic
	presence  *presenceTable
	store     SceneStore
	saveDelay time.Duration

	mu        sync.RWMutex
	clients   map[string]*Client // clientID -> client
	seq       int64
	occupancy chan struct{}

	saveMu  sync.Mutex
	pending *document.Scene
	dirty   chan struct{}
}

func newRoom(scene *document.Scene, store SceneStore, opts Options) (*Room, error) {
	r := &Room{
		sceneID:   scene.ID,
		diags:     make(chan render.Diagnostic, diagnosticsBuffer),
		presence:  newPresenceTable(),
		store:     store,
		saveDelay: opts.SaveDelay,
		clients:   make(map[string]*Client),
		occupancy: make(chan struct{}, 1),
		dirty:     make(chan struct{}, 1),
	}

	eo := opts.Engine
	eo.Diagnostics = r.diags
	if opts.Textures != nil {
		eo.TextureRequester = opts.Textures.Requester(&r.handoff)
		eo.TextureHandoff = &r.handoff
	}
	e := engine.NewEngine(eo)
	if err := e.SetScene(scene); err != nil {
		return nil, fmt.Errorf("open scene %s: %w", scene.ID, err)
	}
	r.loop = engine.NewLoop(e, opts.FPS)
	return r, nil
}

func (r *Room) SceneID() string { return r.sceneID }

// run starts the room's goroutines on g. They stop when ctx is done.
func (r *Room) run(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error {
		if err := r.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error { return r.pumpFrames(ctx) })
	g.Go(func() error { return r.forwardDiagnostics(ctx) })
	g.Go(func() error { return r.saveLoop(ctx) })
}

// --- Scene access ---

// Scene returns the current scene and the shapes that failed to build.
func (r *Room) Scene(ctx context.Context) (*document.Scene, map[string]error, error) {
	var (
		scene    *document.Scene
		failures map[string]error
	)
	err := r.loop.Do(ctx, func(e *engine.Engine) error {
		s, err := e.Scene()
		scene, failures = s, e.Failures()
		return err
	})
	return scene, failures, err
}

// ReplaceScene swaps in a whole new scene document and pushes it to every
// client.
func (r *Room) ReplaceScene(ctx context.Context, scene *document.Scene) (*document.Scene, error) {
	if scene.ID != r.sceneID {
		return nil, fmt.Errorf("%w: scene id %q does not match %q", document.ErrInvalidScene, scene.ID, r.sceneID)
	}
	var (
		current  *document.Scene
		failures map[string]error
	)
	err := r.loop.Do(ctx, func(e *engine.Engine) error {
		if err := e.SetScene(scene); err != nil {
			return err
		}
		s, err := e.Scene()
		current, failures = s, e.Failures()
		return err
	})
	if err != nil {
		return nil, err
	}
	r.markDirty(current)

	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()
	r.broadcast(&Message{Type: TypeSceneSync, Seq: seq, Payload: mustMarshal(syncPayload(current, failures))}, "")
	return current, nil
}

// Apply applies op on behalf of viewerID and broadcasts it to every
// client. It returns the server sequence number of the operation.
func (r *Room) Apply(ctx context.Context, viewerID string, op Operation) (int64, error) {
	return r.apply(ctx, viewerID, op, "")
}

func (r *Room) apply(ctx context.Context, viewerID string, op Operation, excludeClientID string) (int64, error) {
	var scene *document.Scene
	err := r.loop.Do(ctx, func(e *engine.Engine) error {
		if err := applyOperation(e, op); err != nil {
			return err
		}
		s, err := e.Scene()
		scene = s
		return err
	})
	if err != nil {
		return 0, err
	}
	r.markDirty(scene)

	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	payload := mustMarshal(OperationBroadcastPayload{Operation: op, ViewerID: viewerID, ServerSeq: seq})
	r.broadcast(&Message{Type: TypeOpBroadcast, ViewerID: viewerID, Seq: seq, Payload: payload}, excludeClientID)
	if op.Type == OpShapeDelete && r.presence.deselect(op.ShapeID) {
		if state := r.presence.stateMessage(); state != nil {
			r.broadcast(state, "")
		}
	}
	return seq, nil
}

// Frame renders one frame immediately.
func (r *Room) Frame(ctx context.Context) (*engine.Frame, error) {
	var frame *engine.Frame
	err := r.loop.Do(ctx, func(e *engine.Engine) error {
		f, err := e.Render(time.Now())
		frame = f
		return err
	})
	return frame, err
}

// Pick returns the shape at screen point (x, y), origin top-left.
func (r *Room) Pick(ctx context.Context, x, y float64) (engine.PickResult, bool, error) {
	var (
		res engine.PickResult
		hit bool
	)
	err := r.loop.Do(ctx, func(e *engine.Engine) error {
		var err error
		res, hit, err = e.Pick(ctx, time.Now(), x, y)
		return err
	})
	return res, hit, err
}

// IntersectAt intersects the ray through screen point (x, y) with the
// scene, nearest first.
func (r *Room) IntersectAt(ctx context.Context, x, y float64) ([]IntersectionPayload, error) {
	var hits []shape.Intersection
	err := r.loop.Do(ctx, func(e *engine.Engine) error {
		var err error
		hits, err = e.IntersectAt(ctx, x, y)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]IntersectionPayload, len(hits))
	for i, h := range hits {
		out[i] = IntersectionPayload{
			Intersection: h,
			Position: document.Location{
				Lat: h.Position.Lat.Degrees(),
				Lon: h.Position.Lon.Degrees(),
				Alt: h.Position.Alt,
			},
		}
	}
	return out, nil
}

// --- Clients ---

// Join adds c to the room and sends it the current scene.
func (r *Room) Join(ctx context.Context, c *Client) error {
	scene, failures, err := r.Scene(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.clients[c.ClientID] = c
	seq := r.seq
	c.Send(&Message{
		Type:    TypeWelcome,
		SceneID: r.sceneID,
		Payload: mustMarshal(WelcomePayload{ClientID: c.ClientID, ViewerID: c.ViewerID, Seq: seq}),
	})
	c.Send(&Message{Type: TypeSceneSync, SceneID: r.sceneID, Seq: seq, Payload: mustMarshal(syncPayload(scene, failures))})
	if stateMsg := r.presence.stateMessage(); stateMsg != nil {
		c.Send(stateMsg)
	}
	r.mu.Unlock()
	r.signalOccupancy()

	joinPayload := mustMarshal(PresenceJoinPayload{ViewerID: c.ViewerID, DisplayName: c.DisplayName})
	r.broadcast(&Message{Type: TypePresenceJoin, ViewerID: c.ViewerID, Payload: joinPayload}, c.ClientID)

	slog.Info("client joined", "viewer", c.ViewerID, "scene", r.sceneID)
	return nil
}

func (r *Room) leave(c *Client) {
	r.mu.Lock()
	if _, ok := r.clients[c.ClientID]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.clients, c.ClientID)
	close(c.send)
	r.mu.Unlock()
	r.presence.drop(c.ClientID)
	r.signalOccupancy()

	leavePayload := mustMarshal(PresenceLeavePayload{ViewerID: c.ViewerID})
	r.broadcast(&Message{Type: TypePresenceLeave, ViewerID: c.ViewerID, Payload: leavePayload}, "")

	slog.Info("client left", "viewer", c.ViewerID, "scene", r.sceneID)
}

func (r *Room) clientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Room) signalOccupancy() {
	select {
	case r.occupancy <- struct{}{}:
	default:
	}
}

func (r *Room) handleMessage(ctx context.Context, sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		r.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		r.handleOpSubmit(ctx, sender, msg)
	case TypePick:
		r.handlePick(ctx, sender, msg)
	case TypeIntersect:
		r.handleIntersect(ctx, sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "viewer", sender.ViewerID)
		r.replyError(sender, msg, fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (r *Room) handlePresenceUpdate(sender *Client, msg *Message) {
	var update PresencePayload
	if err := json.Unmarshal(msg.Payload, &update); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}
	presence := r.presence.set(sender.ClientID, sender.DisplayName, update)

	outMsg := &Message{
		Type:     TypePresenceUpdate,
		ViewerID: sender.ViewerID,
		ClientID: sender.ClientID,
		Payload:  mustMarshal(presence),
	}
	r.broadcast(outMsg, sender.ClientID)
}

func (r *Room) handleOpSubmit(ctx context.Context, sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		r.replyError(sender, msg, "invalid operation payload")
		return
	}
	op := submit.Operation

	seq, err := r.apply(ctx, sender.ViewerID, op, sender.ClientID)
	if err != nil {
		slog.Debug("operation rejected", "op", op.ID, "type", op.Type, "error", err)
		r.reply(sender, &Message{
			Type:      TypeOpNack,
			RequestID: msg.RequestID,
			Payload:   mustMarshal(OperationNackPayload{OperationID: op.ID, Reason: err.Error()}),
		})
		return
	}
	r.reply(sender, &Message{
		Type:      TypeOpAck,
		RequestID: msg.RequestID,
		Seq:       seq,
		Payload: mustMarshal(OperationAckPayload{
			OperationID:     op.ID,
			ServerSeq:       seq,
			ServerTimestamp: GetServerTimestamp(),
		}),
	})
}

func (r *Room) handlePick(ctx context.Context, sender *Client, msg *Message) {
	var pt PointPayload
	if err := json.Unmarshal(msg.Payload, &pt); err != nil {
		r.replyError(sender, msg, "invalid pick payload")
		return
	}
	res, hit, err := r.Pick(ctx, pt.X, pt.Y)
	if err != nil {
		r.replyError(sender, msg, err.Error())
		return
	}
	out := PickResultPayload{Hit: hit}
	if hit {
		out.Result = &res
	}
	r.reply(sender, &Message{Type: TypePickResult, RequestID: msg.RequestID, Payload: mustMarshal(out)})
}

func (r *Room) handleIntersect(ctx context.Context, sender *Client, msg *Message) {
	var pt PointPayload
	if err := json.Unmarshal(msg.Payload, &pt); err != nil {
		r.replyError(sender, msg, "invalid intersect payload")
		return
	}
	hits, err := r.IntersectAt(ctx, pt.X, pt.Y)
	if err != nil {
		r.replyError(sender, msg, err.Error())
		return
	}
	r.reply(sender, &Message{
		Type:      TypeIntersectResult,
		RequestID: msg.RequestID,
		Payload:   mustMarshal(IntersectResultPayload{Intersections: hits}),
	})
}

func (r *Room) replyError(c *Client, req *Message, text string) {
	r.reply(c, &Message{Type: TypeError, RequestID: req.RequestID, Payload: mustMarshal(ErrorPayload{Message: text})})
}

// reply sends msg to c if it is still in the room.
func (r *Room) reply(c *Client, msg *Message) {
	msg.SceneID = r.sceneID
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.clients[c.ClientID]; ok {
		c.Send(msg)
	}
}

func (r *Room) broadcast(msg *Message, excludeClientID string) {
	msg.SceneID = r.sceneID
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, c := range r.clients {
		if id != excludeClientID {
			c.Send(msg)
		}
	}
}

// --- Background work ---

// pumpFrames streams rendered frames to the room's clients. The loop only
// renders while the room is subscribed, which is while anyone is watching.
func (r *Room) pumpFrames(ctx context.Context) error {
	var (
		frames <-chan *engine.Frame
		cancel func()
	)
	defer func() {
		if cancel != nil {
			cancel()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.occupancy:
			active := r.clientCount() > 0
			switch {
			case active && cancel == nil:
				frames, cancel = r.loop.Subscribe()
			case !active && cancel != nil:
				cancel()
				frames, cancel = nil, nil
			}
		case f := <-frames:
			payload, err := json.Marshal(f)
			if err != nil {
				slog.Error("marshal frame", "error", err)
				continue
			}
			data := mustMarshal(Message{Type: TypeFrame, SceneID: r.sceneID, Payload: payload})
			r.mu.RLock()
			for _, c := range r.clients {
				// Slow clients skip frames.
				c.trySend(data)
			}
			r.mu.RUnlock()
		}
	}
}

func (r *Room) forwardDiagnostics(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-r.diags:
			payload := mustMarshal(DiagnosticPayload{
				ObjectID: d.ObjectID,
				LayerID:  d.LayerID,
				Frame:    d.Frame,
				Message:  d.Err.Error(),
			})
			r.broadcast(&Message{Type: TypeDiagnostic, Payload: payload}, "")
		}
	}
}

// markDirty records scene as the next snapshot to save.
func (r *Room) markDirty(scene *document.Scene) {
	r.saveMu.Lock()
	r.pending = scene
	r.saveMu.Unlock()
	select {
	case r.dirty <- struct{}{}:
	default:
	}
}

// saveLoop saves the pending snapshot saveDelay after the first change,
// coalescing changes made in between.
func (r *Room) saveLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.dirty:
		}
		timer := time.NewTimer(r.saveDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		if err := r.flush(ctx); err != nil {
			slog.Error("save scene", "scene", r.sceneID, "error", err)
		}
	}
}

// flush saves the pending snapshot, if any.
func (r *Room) flush(ctx context.Context) error {
	r.saveMu.Lock()
	scene := r.pending
	r.pending = nil
	r.saveMu.Unlock()
	if scene == nil {
		return nil
	}

	version, err := r.store.Save(ctx, scene)
	if err != nil {
		r.saveMu.Lock()
		if r.pending == nil {
			r.pending = scene
		}
		r.saveMu.Unlock()
		return err
	}
	slog.Debug("scene saved", "scene", r.sceneID, "version", version)
	return nil
}

func syncPayload(scene *document.Scene, failures map[string]error) SceneSyncPayload {
	p := SceneSyncPayload{Scene: scene}
	if len(failures) > 0 {
		p.Failures = make(map[string]string, len(failures))
		for id, err := range failures {
			p.Failures[id] = err.Error()
		}
	}
	return p
}

// mustMarshal encodes protocol values, which contain only plain data.
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal %T: %v", v, err))
	}
	return data
}
