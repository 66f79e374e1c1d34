// Package realtime pushes server events to connected websocket clients.
//
// Every authenticated session joins exactly one room, named after the user id
// carried by its token. Publishing to a room reaches every session of that
// user on this node; NATSPublisher and NATSBridge extend that across nodes.
package realtime

import (
	"context"
	"errors"

	"github.com/theleywin/talent-nest-network/src/logging"
	"github.com/theleywin/talent-nest-network/src/metrics"
)

// Event names
const (
	EventNewNotification = "newNotification"
	EventPing            = "ping"
	EventPong            = "pong"
)

var (
	ErrHubBusy   = errors.New("realtime: hub queue full")
	ErrHubClosed = errors.New("realtime: hub stopped")
)

// Message is the frame written to clients.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type delivery struct {
	room string
	msg  Message
}

// Hub owns the room table. Only the Run goroutine mutates it.
type Hub struct {
	rooms      map[string]map[*Client]struct{}
	broadcast  chan delivery
	Register   chan *Client
	Unregister chan *Client

	// count and size answer queries from other goroutines.
	count chan chan int
	size  chan roomQuery

	done chan struct{}
}

type roomQuery struct {
	room  string
	reply chan int
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		broadcast:  make(chan delivery, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		count:      make(chan chan int),
		size:       make(chan roomQuery),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until ctx is cancelled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			n := h.closeAll()
			logging.Info().
				Str("component", "realtime-hub").
				Int("clients_closed", n).
				Msg("realtime hub stopped")
			return nil

		case c := <-h.Register:
			room, ok := h.rooms[c.userID]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[c.userID] = room
			}
			room[c] = struct{}{}
			metrics.RealtimeClients.Inc()
			logging.Debug().Str("userId", c.userID).Str("session", c.id).Msg("realtime client joined")

		case c := <-h.Unregister:
			h.remove(c)

		case d := <-h.broadcast:
			h.deliver(d)

		case reply := <-h.count:
			n := 0
			for _, room := range h.rooms {
				n += len(room)
			}
			reply <- n

		case q := <-h.size:
			q.reply <- len(h.rooms[q.room])
		}
	}
}

func (h *Hub) remove(c *Client) {
	room, ok := h.rooms[c.userID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.userID)
	}
	close(c.send)
	metrics.RealtimeClients.Dec()
	logging.Debug().Str("userId", c.userID).Str("session", c.id).Msg("realtime client left")
}

// deliver writes to the addressed room only. A client whose queue is full
// misses the frame and stays connected.
func (h *Hub) deliver(d delivery) {
	for c := range h.rooms[d.room] {
		select {
		case c.send <- d.msg:
		default:
			metrics.RealtimeDroppedFrames.Inc()
			logging.Warn().Str("userId", d.room).Str("session", c.id).Str("event", d.msg.Event).Msg("client queue full, dropping frame")
		}
	}
}

func (h *Hub) closeAll() int {
	n := 0
	for id, room := range h.rooms {
		for c := range room {
			close(c.send)
			n++
		}
		delete(h.rooms, id)
	}
	metrics.RealtimeClients.Sub(float64(n))
	return n
}

// Publish queues event for every session in room. It never blocks.
func (h *Hub) Publish(ctx context.Context, room, event string, data any) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}

	select {
	case h.broadcast <- delivery{room: room, msg: Message{Event: event, Data: data}}:
		metrics.RealtimePublishes.WithLabelValues("hub", "ok").Inc()
		return nil
	default:
		metrics.RealtimePublishes.WithLabelValues("hub", "error").Inc()
		return ErrHubBusy
	}
}

// join hands c to the Run loop. It reports false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected sessions, or 0 once stopped.
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// RoomSize returns the number of sessions joined to room.
func (h *Hub) RoomSize(room string) int {
	reply := make(chan int, 1)
	select {
	case h.size <- roomQuery{room: room, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Done is closed when Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
