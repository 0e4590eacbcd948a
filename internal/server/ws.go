package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/speller"
)

const (
	// sendBuffer is the number of snapshots queued per client before
	// further updates to it are dropped.
	sendBuffer = 8
	writeWait  = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// DisplayHub pushes recognition snapshots to websocket clients. It
// implements speller.Display; Show never blocks on a slow client. A client
// receives the latest snapshot as soon as it connects.
type DisplayHub struct {
	logger logrus.FieldLogger

	mu      sync.Mutex
	last    []byte
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewDisplayHub creates a hub with no clients.
func NewDisplayHub(logger logrus.FieldLogger) *DisplayHub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DisplayHub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// Show broadcasts s to every connected client.
func (h *DisplayHub) Show(s speller.Snapshot) {
	msg, err := json.Marshal(s)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode snapshot")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Debug("Display client is slow, dropping update")
		}
	}
}

// Clients returns the number of connected clients.
func (h *DisplayHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *DisplayHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade error")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.last != nil {
		c.send <- h.last
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	go h.writeLoop(c, done)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()

	close(done)
	conn.Close()
}

// writeLoop is the only writer on c.conn.
func (h *DisplayHub) writeLoop(c *client, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.WithError(err).Debug("Display client write failed")
				return
			}
		}
	}
}
