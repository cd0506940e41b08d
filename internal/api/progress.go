package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"podsumgo/pkg/model"
)

var upgrader = websocket.Upgrader{
	// The server binds to localhost; cross-origin checks add nothing.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ProgressEvent is one pipeline progress update on the wire, tagged with
// the episode it belongs to.
type ProgressEvent struct {
	EpisodeID       string      `json:"episodeId"`
	Stage           model.Stage `json:"stage"`
	Message         string      `json:"message"`
	Percent         int         `json:"progress"`
	EstimatedTimeMs int64       `json:"estimatedTimeMs,omitempty"`
}

type progressClient struct {
	conn *websocket.Conn
	// episodeID filters events; empty subscribes to every episode.
	episodeID string
	send      chan []byte
}

// ProgressHub fans pipeline progress events out to websocket subscribers.
// Slow consumers drop events rather than stalling the pipeline.
type ProgressHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*progressClient
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{clients: make(map[*websocket.Conn]*progressClient)}
}

// HandleWS handles GET /ws/progress. An optional episode_id query
// parameter narrows the feed to one episode.
func (h *ProgressHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &progressClient{
		conn:      conn,
		episodeID: r.URL.Query().Get("episode_id"),
		send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	h.clients[conn] = c
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(c)
}

// Publish sends a progress event to every subscriber of the episode.
func (h *ProgressHub) Publish(episodeID string, p model.Progress) {
	data, err := json.Marshal(ProgressEvent{
		EpisodeID:       episodeID,
		Stage:           p.Stage,
		Message:         p.Message,
		Percent:         p.Percent,
		EstimatedTimeMs: p.EstimatedTime.Milliseconds(),
	})
	if err != nil {
		slog.Error("failed to marshal progress event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.episodeID != "" && c.episodeID != episodeID {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Drop rather than block the pipeline.
		}
	}
}

// SubscriberCount reports the number of connected clients.
func (h *ProgressHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump discards inbound messages and detects disconnects.
func (h *ProgressHub) readPump(c *progressClient) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *ProgressHub) writePump(c *progressClient) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (h *ProgressHub) unregister(c *progressClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.conn]; ok {
		close(c.send)
		delete(h.clients, c.conn)
	}
}
