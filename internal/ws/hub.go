// Package ws streams simulation events to connected clients over
// WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/arthshield/fraudlabs/internal/audio"
	"github.com/arthshield/fraudlabs/internal/engine"
	"github.com/coder/websocket"
)

// sendQueueSize bounds the per-connection outbound queue. Events beyond
// it are dropped rather than blocking a timer goroutine on a slow
// client.
const sendQueueSize = 64

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc
}

// Hub manages active WebSocket connections per user and fans simulation
// events out to them. It implements engine.Sink.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[string]*client
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[string]*client)}
}

// Register adds a connection for a user/tab, replacing any previous
// connection for the same tab.
func (h *Hub) Register(userID, sessionID string, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &client{
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	h.mu.Lock()
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[string]*client)
	}
	if existing, ok := h.clients[userID][sessionID]; ok && existing.conn != conn {
		existing.cancel()
		_ = existing.conn.Close(websocket.StatusNormalClosure, "session replaced")
	}
	h.clients[userID][sessionID] = c
	h.mu.Unlock()

	go c.writeLoop()
	slog.Info("Event stream registered", "user_id", userID, "session_id", sessionID)
}

// Unregister removes a connection for a user/tab if it is still the
// current one.
func (h *Hub) Unregister(userID, sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.clients[userID]
	if !ok {
		return
	}
	current, ok := sessions[sessionID]
	if !ok || current.conn != conn {
		return
	}

	current.cancel()
	delete(sessions, sessionID)
	if len(sessions) == 0 {
		delete(h.clients, userID)
	}
	slog.Info("Event stream unregistered", "user_id", userID, "session_id", sessionID)
}

// CloseUser forcefully closes every connection for a user. Called when
// the TTL worker disposes an abandoned session.
func (h *Hub) CloseUser(userID string) {
	h.mu.Lock()
	sessions := h.clients[userID]
	delete(h.clients, userID)
	h.mu.Unlock()

	for sid, c := range sessions {
		c.cancel()
		_ = c.conn.Close(websocket.StatusNormalClosure, "session closed")
		slog.Info("Event stream closed", "user_id", userID, "session_id", sid)
	}
}

// Publish implements engine.Sink: it marshals the event once and queues
// it for every connection of the user. Publish never blocks; a full
// queue drops the event for that connection.
func (h *Hub) Publish(userID string, ev engine.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to marshal event", "error", err, "type", string(ev.Type))
		return
	}
	h.broadcast(userID, payload)
}

func (h *Hub) broadcast(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sid, c := range h.clients[userID] {
		select {
		case c.send <- payload:
		case <-c.ctx.Done():
		default:
			slog.Warn("Event queue full, dropping event",
				"user_id", userID,
				"session_id", sid,
				"queue_len", len(c.send))
		}
	}
}

func (c *client) writeLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case payload := <-c.send:
			if err := c.conn.Write(c.ctx, websocket.MessageText, payload); err != nil {
				if c.ctx.Err() == nil {
					slog.Debug("Event stream write error", "error", err)
				}
				c.cancel()
				return
			}
		}
	}
}

// audioMessage is the wire form of an audio cue request.
type audioMessage struct {
	Type     string `json:"type"`
	Cue      int    `json:"cue"`
	Language string `json:"language,omitempty"`
}

// cuePlayer delivers audio cue requests to a user's clients. The actual
// playback happens on the device; the server only says which clip.
type cuePlayer struct {
	hub    *Hub
	userID string
}

// PlayerFor returns an audio.Player that forwards cue requests to the
// user's connected clients.
func (h *Hub) PlayerFor(userID string) audio.Player {
	return &cuePlayer{hub: h, userID: userID}
}

// PlayCue implements audio.Player.
func (p *cuePlayer) PlayCue(cueIndex int, language string) {
	payload, err := json.Marshal(audioMessage{Type: "audio_play", Cue: cueIndex, Language: language})
	if err != nil {
		return
	}
	p.hub.broadcast(p.userID, payload)
}

// StopCue implements audio.Player.
func (p *cuePlayer) StopCue() {
	payload, _ := json.Marshal(audioMessage{Type: "audio_stop"})
	p.hub.broadcast(p.userID, payload)
}
