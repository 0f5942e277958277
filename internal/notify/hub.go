// Package notify delivers room-scoped events to connected clients over
// websockets. The core services only depend on the Publisher contract;
// the hub is the in-process implementation.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Event kinds the core publishes.
const (
	KindMatch          = "match"
	KindPartnerJoined  = "partner_joined"
	KindPartnerLeft    = "partner_left"
	KindRoomDissolved  = "room_dissolved"
	KindFiltersUpdated = "filters_updated"
)

// Publisher is the "publish event E to room R" capability the core needs.
type Publisher interface {
	Publish(roomID uint64, kind string, payload any)
}

// Event is the wire shape delivered to subscribed clients.
type Event struct {
	Kind      string    `json:"kind"`
	RoomID    uint64    `json:"room_id"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MembershipChecker guards subscriptions: only active room members may
// listen on a room's channel.
type MembershipChecker func(ctx context.Context, roomID, userID uint64) (bool, error)

// Hub fans events out to websocket clients grouped by room. All state is
// owned by the Run goroutine; everything else communicates over channels.
type Hub struct {
	log        *slog.Logger
	isMember   MembershipChecker
	register   chan *Client
	deregister chan *Client
	subscribe  chan subscription
	events     chan *Event
	clients    map[*Client]struct{}
	rooms      map[uint64]map[*Client]struct{}
	stop       chan struct{}
	done       chan struct{}
}

type subscription struct {
	client *Client
	roomID uint64
	leave  bool
}

func NewHub(log *slog.Logger, isMember MembershipChecker) *Hub {
	return &Hub{
		log:        log,
		isMember:   isMember,
		register:   make(chan *Client),
		deregister: make(chan *Client),
		subscribe:  make(chan subscription, 64),
		events:     make(chan *Event, 256),
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[uint64]map[*Client]struct{}),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.log.Debug("client connected", "client", c.id, "user", c.userID)
		case c := <-h.deregister:
			h.removeClient(c)
		case sub := <-h.subscribe:
			h.handleSubscription(sub)
		case ev := <-h.events:
			h.dispatch(ev)
		case <-h.stop:
			for c := range h.clients {
				h.removeClient(c)
			}
			close(h.done)
			return
		}
	}
}

// Publish queues an event for every client subscribed to the room.
// Never blocks the caller: if the hub is saturated the event is dropped
// and logged, the persisted state is already authoritative.
func (h *Hub) Publish(roomID uint64, kind string, payload any) {
	ev := &Event{
		Kind:      kind,
		RoomID:    roomID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	select {
	case h.events <- ev:
	default:
		h.log.Warn("event queue full, dropping", "kind", kind, "room", roomID)
	}
}

func (h *Hub) Shutdown() {
	close(h.stop)
	<-h.done
}

func (h *Hub) handleSubscription(sub subscription) {
	if sub.leave {
		if members, ok := h.rooms[sub.roomID]; ok {
			delete(members, sub.client)
			if len(members) == 0 {
				delete(h.rooms, sub.roomID)
			}
		}
		sub.client.rooms.remove(sub.roomID)
		return
	}

	if h.rooms[sub.roomID] == nil {
		h.rooms[sub.roomID] = make(map[*Client]struct{})
	}
	h.rooms[sub.roomID][sub.client] = struct{}{}
	sub.client.rooms.add(sub.roomID)
	h.log.Debug("client subscribed", "client", sub.client.id, "room", sub.roomID)
}

func (h *Hub) dispatch(ev *Event) {
	members, ok := h.rooms[ev.RoomID]
	if !ok {
		return
	}
	for c := range members {
		if !c.queue(ev) {
			// slow client, drop it rather than stall the hub
			h.log.Warn("dropping slow client", "client", c.id)
			h.removeClient(c)
		}
	}
}

func (h *Hub) removeClient(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for _, roomID := range c.rooms.ids() {
		if members, ok := h.rooms[roomID]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	c.close()
}
