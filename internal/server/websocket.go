package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan wsMessage
}

// wsHub fans player-state snapshots out to connected websocket clients.
// Slow clients drop messages rather than blocking the broadcaster; the
// latest snapshot always follows.
type wsHub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
}

func newWSHub() *wsHub {
	return &wsHub{clients: make(map[*wsClient]struct{})}
}

func (h *wsHub) add(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *wsHub) remove(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// sendTo queues a message for one client if it is still registered.
// Going through the hub lock keeps the send from racing a concurrent
// close of the client's channel.
func (h *wsHub) sendTo(c *wsClient, msg wsMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *wsHub) broadcast(msgType string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("ws: encoding broadcast: %v", err)
		return
	}
	msg := wsMessage{Type: msgType, Payload: payload}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (h *wsHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade: %v", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan wsMessage, 16)}
	if !s.hub.add(client) {
		conn.Close()
		return
	}
	defer func() {
		s.hub.remove(client)
		conn.Close()
	}()

	// Current player state immediately, so the client never renders
	// stale before the first transition.
	if s.player != nil {
		if payload, err := json.Marshal(s.player.Status()); err == nil {
			s.hub.sendTo(client, wsMessage{Type: "player", Payload: payload})
		}
	}

	// Read loop only detects disconnect; clients send nothing.
	// Removing the client closes the send channel and ends the write
	// loop below.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.remove(client)
				return
			}
		}
	}()

	for msg := range client.send {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	conn.WriteMessage(websocket.CloseMessage, []byte{})
}
