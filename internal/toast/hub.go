package toast

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Logger defines minimal logging interface required by the hub.
type Logger interface {
	Infof(string, ...interface{})
	Errorf(string, ...interface{})
}

// Resolver extracts the user a websocket request belongs to.
type Resolver func(r *http.Request) (string, error)

type client struct {
	userID string
	conn   *websocket.Conn
	mu     sync.Mutex
	done   chan struct{}
}

// entry is a user's Center plus the forwarding subscription that runs
// while at least one of the user's dashboards is connected.
type entry struct {
	center  *Center
	clients int
	cancel  func()
}

// Hub keeps one Center per user and streams its events to every open
// dashboard of that user. A Center is dropped once it has no toasts and
// no connected dashboards.
type Hub struct {
	logger   Logger
	resolve  Resolver
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	centers map[string]*entry
	clients map[string]*client
}

// NewHub constructs a Hub.
func NewHub(resolve Resolver, logger Logger) *Hub {
	return &Hub{
		logger:  logger,
		resolve: resolve,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		centers: make(map[string]*entry),
		clients: make(map[string]*client),
	}
}

// Center returns the user's Center, creating it on first use.
func (h *Hub) Center(userID string) *Center {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entryLocked(userID).center
}

func (h *Hub) entryLocked(userID string) *entry {
	e, ok := h.centers[userID]
	if !ok {
		c := NewCenter()
		c.onEmpty = func() { h.evictIfIdle(userID, c) }
		e = &entry{center: c}
		h.centers[userID] = e
	}
	return e
}

// attach registers a dashboard of userID and starts forwarding the user's
// events when it is the first one.
func (h *Hub) attach(userID string) *Center {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := h.entryLocked(userID)
	e.clients++
	if e.clients == 1 {
		events, cancel := e.center.Subscribe()
		e.cancel = cancel
		go h.forward(userID, events)
	}
	return e.center
}

// detach undoes attach. The last dashboard stops forwarding and, with no
// toasts left, drops the Center.
func (h *Hub) detach(userID string) {
	h.mu.Lock()
	e, ok := h.centers[userID]
	if !ok || e.clients == 0 {
		h.mu.Unlock()
		return
	}
	e.clients--
	var cancel func()
	if e.clients == 0 {
		cancel, e.cancel = e.cancel, nil
		if e.center.Len() == 0 {
			delete(h.centers, userID)
		}
	}
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (h *Hub) evictIfIdle(userID string, c *Center) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e, ok := h.centers[userID]; ok && e.center == c && e.clients == 0 && c.Len() == 0 {
		delete(h.centers, userID)
	}
}

func (h *Hub) forward(userID string, events <-chan Event) {
	for ev := range events {
		h.push(userID, ev)
	}
}

// ServeWS upgrades the request and replays the user's active toasts.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := h.resolve(r)
	if err != nil || strings.TrimSpace(userID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("toast ws upgrade failed: %v", err)
		return
	}

	id := uuid.NewString()
	cl := &client{userID: userID, conn: conn, done: make(chan struct{})}
	center := h.attach(userID)
	h.mu.Lock()
	h.clients[id] = cl
	h.mu.Unlock()
	h.logger.Infof("toast ws %s connected for user %s", id, userID)

	for _, t := range center.Active() {
		h.write(id, cl, Event{Type: EventAdded, Toast: t})
	}

	go h.pingLoop(id, cl)
	go h.readLoop(id, cl)
}

func (h *Hub) pingLoop(id string, cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
		}
		if !h.alive(id, cl) {
			return
		}
		cl.mu.Lock()
		err := cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		cl.mu.Unlock()
		if err != nil {
			h.closeClient(id, cl)
			return
		}
	}
}

// readLoop accepts {"dismiss": "<id>"} frames from the dashboard.
func (h *Hub) readLoop(id string, cl *client) {
	defer h.closeClient(id, cl)

	cl.conn.SetReadLimit(4 << 10)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, message, err := cl.conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if !errors.As(err, &ce) {
				h.logger.Infof("toast ws %s read: %v", id, err)
			}
			return
		}
		_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
		if mt != websocket.TextMessage {
			continue
		}
		var cmd struct {
			Dismiss string `json:"dismiss"`
		}
		if err := gojson.Unmarshal(message, &cmd); err != nil || cmd.Dismiss == "" {
			continue
		}
		h.Center(cl.userID).Dismiss(cmd.Dismiss)
	}
}

func (h *Hub) alive(id string, cl *client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[id] == cl
}

func (h *Hub) closeClient(id string, cl *client) {
	_ = cl.conn.Close()
	h.mu.Lock()
	cur, ok := h.clients[id]
	removed := ok && cur == cl
	if removed {
		delete(h.clients, id)
		close(cl.done)
	}
	h.mu.Unlock()
	if removed {
		h.detach(cl.userID)
	}
}

func (h *Hub) push(userID string, ev Event) {
	h.mu.RLock()
	targets := make(map[string]*client)
	for id, cl := range h.clients {
		if cl.userID == userID {
			targets[id] = cl
		}
	}
	h.mu.RUnlock()
	for id, cl := range targets {
		h.write(id, cl, ev)
	}
}

func (h *Hub) write(id string, cl *client, ev Event) {
	data, err := gojson.Marshal(ev)
	if err != nil {
		h.logger.Errorf("toast marshal failed: %v", err)
		return
	}
	cl.mu.Lock()
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = cl.conn.WriteMessage(websocket.TextMessage, data)
	cl.mu.Unlock()
	if err != nil {
		h.logger.Errorf("toast ws %s write failed: %v", id, err)
		h.closeClient(id, cl)
	}
}

// Connections returns the number of open websocket clients.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
