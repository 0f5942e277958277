package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// clientRequest is what a connected client sends to manage its
// room subscriptions.
type clientRequest struct {
	Action string `json:"action"` // subscribe or unsubscribe
	RoomID uint64 `json:"room_id"`
}

// Client is one websocket session for one authenticated user.
type Client struct {
	id     string
	userID uint64
	hub    *Hub
	conn   *websocket.Conn
	send   chan *Event
	rooms  roomSet
	once   sync.Once
}

// NewClient wires a fresh websocket connection into the hub and starts
// its read/write pumps.
func NewClient(hub *Hub, conn *websocket.Conn, userID uint64) *Client {
	c := &Client{
		id:     uuid.NewString(),
		userID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan *Event, sendBuffer),
		rooms:  roomSet{m: make(map[uint64]struct{})},
	}
	hub.register <- c

	go c.writePump()
	go c.readPump()

	return c
}

// queue hands an event to the client's writer. Returns false when the
// buffer is full, signalling the hub to drop this client.
func (c *Client) queue(ev *Event) bool {
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.deregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var req clientRequest
		if err := json.Unmarshal(data, &req); err != nil {
			c.hub.log.Debug("bad client request", "client", c.id, "err", err)
			continue
		}

		switch req.Action {
		case "subscribe":
			ok, err := c.hub.isMember(context.Background(), req.RoomID, c.userID)
			if err != nil || !ok {
				c.hub.log.Debug("subscribe refused", "client", c.id, "room", req.RoomID)
				continue
			}
			c.hub.subscribe <- subscription{client: c, roomID: req.RoomID}
		case "unsubscribe":
			c.hub.subscribe <- subscription{client: c, roomID: req.RoomID, leave: true}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// roomSet tracks which rooms a client listens on. Guarded by its own
// mutex because the hub goroutine and pumps both touch it.
type roomSet struct {
	mu sync.Mutex
	m  map[uint64]struct{}
}

func (s *roomSet) add(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = struct{}{}
}

func (s *roomSet) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
}

func (s *roomSet) ids() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint64, 0, len(s.m))
	for id := range s.m {
		out = append(out, id)
	}
	return out
}
