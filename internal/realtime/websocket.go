package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dcastillo/friendhub/internal/logging"
	"github.com/dcastillo/friendhub/internal/models"
)

const (
	// sendQueueSize bounds how far a client may fall behind before events are
	// dropped for it.
	sendQueueSize = 16

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// WebsocketChannel adapts a gorilla/websocket connection to the hub's Channel
// interface. Events are queued on a buffered channel consumed by a single
// write pump, so Deliver never blocks a publisher and concurrent publishes
// never interleave writes on the conn.
type WebsocketChannel struct {
	conn *websocket.Conn
	send chan models.Event

	closeOnce sync.Once
	done      chan struct{}
}

func NewWebsocketChannel(conn *websocket.Conn) *WebsocketChannel {
	return &WebsocketChannel{
		conn: conn,
		send: make(chan models.Event, sendQueueSize),
		done: make(chan struct{}),
	}
}

// Deliver queues event for the write pump. If the queue is full the event is
// dropped; delivery is best effort and durable state is the source of truth.
func (c *WebsocketChannel) Deliver(event models.Event) {
	select {
	case c.send <- event:
	default:
		logging.Warn("Dropping event for slow websocket client", map[string]interface{}{
			"event_type": string(event.Type),
		})
	}
}

// WritePump drains the send queue onto the connection and keeps it alive with
// pings. It owns all writes; it exits when the channel is closed or a write
// fails, closing the conn either way.
func (c *WebsocketChannel) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// ReadPump consumes inbound frames until the peer disconnects or times out.
// Clients don't send application data; the loop exists to notice closure and
// answer pings.
func (c *WebsocketChannel) ReadPump() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Close stops the write pump. Safe to call more than once.
func (c *WebsocketChannel) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
