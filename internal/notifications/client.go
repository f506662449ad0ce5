package notifications

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"tipa/internal/middleware"
	"tipa/internal/observability"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var droppedNotice = []byte(`{"type":"messages_dropped","payload":{"reason":"buffer_full"}}`)

// Client sits between one websocket connection and the hub. Clients only
// receive; inbound frames are read to service pings and detect closes.
type Client struct {
	hub      *Hub
	Conn     *websocket.Conn
	MemberID uint

	send      chan []byte
	closeOnce sync.Once
	sendMu    sync.RWMutex
	closed    bool
}

func newClient(hub *Hub, conn *websocket.Conn, memberID uint) *Client {
	return &Client{
		hub:      hub,
		Conn:     conn,
		MemberID: memberID,
		send:     make(chan []byte, sendBuffer),
	}
}

// ReadPump blocks until the peer goes away, then unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				middleware.Logger.Warn("Websocket read failed", "member_id", c.MemberID, "error", err)
			}
			return
		}
	}
}

// WritePump writes queued messages and keepalive pings until the send
// channel is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "connection closed"))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues message without blocking. When the buffer is full the
// message is dropped and the client is told so it can re-fetch.
func (c *Client) TrySend(message []byte) bool {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.closed {
		observability.WebSocketBackpressureDrops.WithLabelValues("closed").Inc()
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
	}

	observability.WebSocketBackpressureDrops.WithLabelValues("full").Inc()
	middleware.Logger.Warn("Websocket buffer full, dropped message", "member_id", c.MemberID)
	select {
	case c.send <- droppedNotice:
	default:
	}
	return false
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		c.sendMu.Lock()
		c.closed = true
		close(c.send)
		c.sendMu.Unlock()
	})
}
