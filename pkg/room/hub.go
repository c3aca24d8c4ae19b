package room

import (
	"sync"

	"github.com/balai/budget-middleware/internal/metrics"
)

// Subscription is one subscriber's bounded view of a room's broadcasts.
// Events arrive on C; when the subscriber falls behind, new events are
// dropped rather than buffered without bound.
type Subscription struct {
	C chan Event

	room *Room
	once sync.Once
}

// Close removes the subscription from its room. In-flight turns are not
// affected; their remaining broadcasts simply no longer reach this
// subscriber.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.room.unsubscribe(s)
	})
}

// Room is the broadcast group for one conversation.
// It also carries the mutex that serializes turns within the conversation.
type Room struct {
	conversationID string
	hub            *Hub

	turnMu sync.Mutex

	mu          sync.Mutex
	subscribers map[*Subscription]struct{}
}

func (r *Room) unsubscribe(sub *Subscription) {
	r.mu.Lock()
	delete(r.subscribers, sub)
	empty := len(r.subscribers) == 0
	r.mu.Unlock()

	close(sub.C)
	metrics.RoomSubscribers.Dec()

	if empty {
		r.hub.release(r.conversationID)
	}
}

// Broadcast delivers an event to every subscriber without blocking.
// Subscribers whose queue is full miss the event; the drop is counted.
func (r *Room) Broadcast(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for sub := range r.subscribers {
		select {
		case sub.C <- event:
		default:
			metrics.RoomEventsDroppedTotal.Inc()
		}
	}
}

// lockTurn serializes turn pipelines within the conversation
func (r *Room) lockTurn() {
	r.turnMu.Lock()
}

func (r *Room) unlockTurn() {
	r.turnMu.Unlock()
}

// Hub holds the live rooms, keyed by conversation id.
// Rooms are created on first use and dropped when their last subscriber
// leaves, so an idle conversation costs nothing.
type Hub struct {
	mu        sync.Mutex
	rooms     map[string]*Room
	queueSize int
}

// NewHub creates a new hub. queueSize bounds each subscriber's queue.
func NewHub(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = 32
	}
	return &Hub{
		rooms:     make(map[string]*Room),
		queueSize: queueSize,
	}
}

// Get returns the room for a conversation, creating it if needed
func (h *Hub) Get(conversationID string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.getLocked(conversationID)
}

func (h *Hub) getLocked(conversationID string) *Room {
	room, ok := h.rooms[conversationID]
	if !ok {
		room = &Room{
			conversationID: conversationID,
			hub:            h,
			subscribers:    make(map[*Subscription]struct{}),
		}
		h.rooms[conversationID] = room
	}
	return room
}

// Subscribe registers a new subscriber with a bounded event queue on the
// conversation's room, creating the room if needed. Room resolution and
// registration happen under the hub lock, so a concurrent disconnect of
// the room's last subscriber cannot release the room in between and
// strand the new subscription on a dropped room.
func (h *Hub) Subscribe(conversationID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.getLocked(conversationID)
	sub := &Subscription{
		C:    make(chan Event, h.queueSize),
		room: room,
	}

	room.mu.Lock()
	room.subscribers[sub] = struct{}{}
	room.mu.Unlock()

	metrics.RoomSubscribers.Inc()
	return sub
}

func (h *Hub) release(conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[conversationID]
	if !ok {
		return
	}

	room.mu.Lock()
	empty := len(room.subscribers) == 0
	room.mu.Unlock()

	if empty {
		delete(h.rooms, conversationID)
	}
}
