package notifications

import (
	"context"
	"errors"
	"sync"

	"github.com/gofiber/websocket/v2"

	"tipa/internal/middleware"
	"tipa/internal/observability"
)

const (
	maxConnsPerMember = 12
	maxTotalConns     = 10000
)

var (
	ErrServerConnLimit = errors.New("server connection limit reached")
	ErrMemberConnLimit = errors.New("member connection limit reached")
	ErrHubClosed       = errors.New("notification hub is shut down")
)

// Hub maps memberID to that member's open websocket clients.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Register adds a connection for memberID. conn may be nil in tests.
func (h *Hub) Register(memberID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalConns >= maxTotalConns {
		return nil, ErrServerConnLimit
	}
	m, ok := h.conns[memberID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[memberID] = m
	}
	if len(m) >= maxConnsPerMember {
		return nil, ErrMemberConnLimit
	}

	client := newClient(h, conn, memberID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// Unregister removes client; repeated calls are harmless.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.conns[client.MemberID]
	if !ok {
		return
	}
	if _, exists := m[client]; exists {
		delete(m, client)
		h.totalConns--
		observability.WebSocketConnectionsTotal.Dec()
		client.closeSend()
	}
	if len(m) == 0 {
		delete(h.conns, client.MemberID)
	}
}

// Connections returns the number of open clients.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// SendMember queues message for every connection of memberID.
func (h *Hub) SendMember(memberID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[memberID] {
		c.TrySend(message)
	}
}

// BroadcastAll queues message for every connection.
func (h *Hub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(message)
		}
	}
}

// StartWiring subscribes the hub to the notifier's channels.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartSubscriber(ctx, h.dispatch)
}

func (h *Hub) dispatch(channel, payload string) {
	if channel == broadcastChannel {
		h.BroadcastAll([]byte(payload))
		return
	}
	memberID, ok := parseMemberChannel(channel)
	if !ok {
		middleware.Logger.Warn("Invalid notification channel", "channel", channel)
		return
	}
	h.SendMember(memberID, []byte(payload))
}

// Shutdown closes every client's send queue; each WritePump then sends a
// going-away close frame and closes its connection.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	for _, clients := range h.conns {
		for client := range clients {
			client.closeSend()
		}
	}
	observability.WebSocketConnectionsTotal.Sub(float64(h.totalConns))
	h.totalConns = 0
	h.conns = make(map[uint]map[*Client]struct{})
	return nil
}
