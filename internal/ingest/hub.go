package ingest

import (
	"log/slog"
	"sync"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/session"
)

// clientBuffer is the per-client outbound frame buffer. A client that cannot
// drain this many frames is considered stuck and is disconnected rather than
// allowed to stall the broadcast.
const clientBuffer = 64

// client is one connected WebSocket peer. frames is closed when the client
// is dropped; the write pump exits on the closed channel. send and close are
// serialised so a late send never hits a closed channel.
type client struct {
	mu     sync.Mutex
	closed bool
	frames chan ServerFrame
}

func newClient() *client {
	return &client{frames: make(chan ServerFrame, clientBuffer)}
}

// send queues frame without blocking. It reports false when the client is
// closed or its buffer is full.
func (c *client) send(frame ServerFrame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.frames <- frame:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.frames)
}

// roomEntry tracks the clients of one room and the event subscription that
// feeds them. The subscription exists exactly while the room has clients.
type roomEntry struct {
	clients     map[*client]struct{}
	unsubscribe func()
}

// Hub fans session events out to the WebSocket clients of each room. Safe
// for concurrent use.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*roomEntry
	log   *slog.Logger
}

// NewHub builds an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms: make(map[string]*roomEntry),
		log:   logger.With("component", "ingest.hub"),
	}
}

// Add registers c as a listener of roomID. The first client of a room
// subscribes the hub to the controller's events; later clients share that
// subscription.
func (h *Hub) Add(roomID string, c *client, ctrl *session.Controller) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.rooms[roomID]
	if !ok {
		entry = &roomEntry{clients: make(map[*client]struct{})}
		entry.unsubscribe = ctrl.Subscribe(func(ev session.Event) {
			h.Broadcast(roomID, eventFrame(ev))
		})
		h.rooms[roomID] = entry
	}
	entry.clients[c] = struct{}{}
}

// Remove drops c from roomID. The last client leaving tears the event
// subscription down.
func (h *Hub) Remove(roomID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := entry.clients[c]; !ok {
		return
	}
	delete(entry.clients, c)
	c.close()

	if len(entry.clients) == 0 {
		entry.unsubscribe()
		delete(h.rooms, roomID)
	}
}

// Broadcast queues frame for every client of roomID. A client whose buffer
// is full is dropped: its frame channel closes, which terminates its write
// pump and in turn its connection.
func (h *Hub) Broadcast(roomID string, frame ServerFrame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.rooms[roomID]
	if !ok {
		return
	}
	for c := range entry.clients {
		if !c.send(frame) {
			h.log.Warn("dropping stalled client", "room_id", roomID)
			delete(entry.clients, c)
			c.close()
		}
	}
	if len(entry.clients) == 0 {
		entry.unsubscribe()
		delete(h.rooms, roomID)
	}
}

// ClientCount reports the number of connected clients in roomID.
func (h *Hub) ClientCount(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if entry, ok := h.rooms[roomID]; ok {
		return len(entry.clients)
	}
	return 0
}
