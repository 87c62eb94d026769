package handlers

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/BanhTuanKiet/ProjectManagement-sub001/models"
	"github.com/BanhTuanKiet/ProjectManagement-sub001/utils"
)

const maxMessageSize = 4096

// Client owns one WebSocket connection: a buffered outbound queue, a
// write pump draining it, and a read pump dispatching inbound messages.
// Send never blocks; when the buffer is full the event is dropped, which
// is the delivery guarantee the rest of the service is built on.
type Client struct {
	id       string
	identity models.ConnectionIdentity
	conn     *websocket.Conn
	send     chan models.Event
	done     chan struct{}
	once     sync.Once
	logger   *utils.Logger

	writeTimeout time.Duration
	pongTimeout  time.Duration
}

func newClient(conn *websocket.Conn, bufferSize int, writeTimeout, pongTimeout time.Duration, logger *utils.Logger) *Client {
	return &Client{
		id:           uuid.NewString(),
		conn:         conn,
		send:         make(chan models.Event, bufferSize),
		done:         make(chan struct{}),
		logger:       logger,
		writeTimeout: writeTimeout,
		pongTimeout:  pongTimeout,
	}
}

// ID returns the transport-level connection id.
func (c *Client) ID() string {
	return c.id
}

// Send queues an event for delivery. It reports false when the client is
// closed or its buffer is full; the event is then lost, by contract.
func (c *Client) Send(event models.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// Close shuts the client down. Safe to call multiple times and from any
// goroutine; the pumps unwind on their own.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// writePump serializes all writes to the connection: queued events,
// pings, and the final close frame.
func (c *Client) writePump() {
	pingInterval := c.pongTimeout * 9 / 10
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteJSON(event); err != nil {
				c.logger.Debug("write failed", "connection_id", c.id, "error", err)
				c.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump reads inbound messages until the connection dies, for any
// reason, then runs cleanup exactly once. Client-initiated close and
// network failure take the same path.
func (c *Client) readPump(handle func(*Client, models.ClientMessage), cleanup func()) {
	defer func() {
		c.Close()
		cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
		return nil
	})

	for {
		var msg models.ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("connection closed unexpectedly", "connection_id", c.id, "error", err)
			}
			return
		}
		handle(c, msg)
	}
}

func (c *Client) sendError(code, message string) {
	c.Send(models.NewEvent(models.EventError, models.ErrorPayload{
		Code:    code,
		Message: message,
	}))
}
