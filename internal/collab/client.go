package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"
)

const (
	writeTimeout  = 10 * time.Second
	keepalive     = 30 * time.Second
	maxInbound    = 64 * 1024
	outboundQueue = 256
)

// Client is one websocket connection watching a scene. Its identity is
// stamped onto every message it sends, whatever the payload claims.
type Client struct {
	room        *Room
	conn        *websocket.Conn
	send        chan []byte
	ViewerID    string
	DisplayName string
	ClientID    string
}

func NewClient(room *Room, conn *websocket.Conn, viewerID, displayName, clientID string) *Client {
	return &Client{
		room:        room,
		conn:        conn,
		send:        make(chan []byte, outboundQueue),
		ViewerID:    viewerID,
		DisplayName: displayName,
		ClientID:    clientID,
	}
}

// Serve pumps messages in both directions until the peer hangs up, a
// write fails or ctx is done. The client has left the room and the
// connection is closed when Serve returns.
func (c *Client) Serve(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.readLoop(ctx) })
	g.Go(func() error { return c.writeLoop(ctx) })
	err := g.Wait()

	c.room.leave(c)
	c.conn.Close(websocket.StatusNormalClosure, "")
	if err != nil && !peerClosed(err) && !errors.Is(err, context.Canceled) {
		slog.Debug("connection ended", "viewer", c.ViewerID, "client", c.ClientID, "error", err)
	}
}

func (c *Client) readLoop(ctx context.Context) error {
	c.conn.SetReadLimit(maxInbound)
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return err
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "viewer", c.ViewerID)
			continue
		}
		msg.ViewerID, msg.ClientID, msg.SceneID = c.ViewerID, c.ClientID, c.room.sceneID
		c.room.handleMessage(ctx, c, &msg)
	}
}

// writeLoop drains the outbound queue and pings the peer when idle. A
// closed queue means the room dropped the client.
func (c *Client) writeLoop(ctx context.Context) error {
	ping := time.NewTicker(keepalive)
	defer ping.Stop()
	for {
		var write func(context.Context) error
		select {
		case data, ok := <-c.send:
			if !ok {
				return errors.New("removed from room")
			}
			write = func(ctx context.Context) error { return c.conn.Write(ctx, websocket.MessageText, data) }
		case <-ping.C:
			write = c.conn.Ping
		case <-ctx.Done():
			return ctx.Err()
		}
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := write(wctx)
		cancel()
		if err != nil {
			return err
		}
	}
}

func peerClosed(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}

// Send queues msg for the client, dropping it if the queue is full. It
// must be called with the room's lock held so it cannot race with the
// queue being closed on leave.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}
	if !c.trySend(data) {
		slog.Warn("outbound queue full, dropping message", "viewer", c.ViewerID, "type", msg.Type)
	}
}

func (c *Client) trySend(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}
