package realtime

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/theleywin/talent-nest-network/src/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendQueueSize  = 64

	// inbound frames per second a client may send, with a small burst
	inboundRate  = 5
	inboundBurst = 10
)

// Client is one websocket session bound to a user room.
type Client struct {
	id      string
	userID  string
	hub     *Hub
	conn    *websocket.Conn
	send    chan Message
	inbound *rate.Limiter

	// pongs is never closed so the read pump can always signal the writer.
	pongs chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		id:      uuid.NewString(),
		userID:  userID,
		hub:     hub,
		conn:    conn,
		send:    make(chan Message, sendQueueSize),
		inbound: rate.NewLimiter(inboundRate, inboundBurst),
		pongs:   make(chan struct{}, 1),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) UserID() string { return c.userID }

// readPump answers application pings and detects disconnects. Clients cannot
// change rooms, anything other than a ping is ignored. Frames over the
// inbound rate are discarded unread.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Str("session", c.id).Msg("unexpected websocket close")
			}
			return
		}

		if !c.inbound.Allow() {
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Event == EventPing {
			select {
			case c.pongs <- struct{}{}:
			default:
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// hub closed the queue
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.write(msg); err != nil {
				logging.Warn().Err(err).Str("session", c.id).Msg("failed to write frame")
				return
			}

		case <-c.pongs:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.write(Message{Event: EventPong}); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Start runs both pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
