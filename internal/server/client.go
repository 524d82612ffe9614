package server

import (
	"bytes"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"classpoll/internal/events"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
)

// Rate limits per minute
type RateLimits struct {
	MaxChatMessages  int
	MaxRosterQueries int
}

var DefaultRateLimits = RateLimits{
	MaxChatMessages:  30,
	MaxRosterQueries: 60,
}

// ClientRateLimiter throttles chatty command types per client. Poll commands
// are never throttled: the controller's own preconditions bound them.
type ClientRateLimiter struct {
	chatTokens  int
	queryTokens int
	lastRefill  time.Time
	mu          sync.Mutex
}

func NewClientRateLimiter() *ClientRateLimiter {
	return &ClientRateLimiter{
		chatTokens:  DefaultRateLimits.MaxChatMessages,
		queryTokens: DefaultRateLimits.MaxRosterQueries,
		lastRefill:  time.Now(),
	}
}

func (rl *ClientRateLimiter) Allow(msgType string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastRefill) >= time.Minute {
		rl.chatTokens = DefaultRateLimits.MaxChatMessages
		rl.queryTokens = DefaultRateLimits.MaxRosterQueries
		rl.lastRefill = now
	}

	switch msgType {
	case events.CmdSendMessage:
		if rl.chatTokens > 0 {
			rl.chatTokens--
			return true
		}
		return false
	case events.CmdGetMessages, events.CmdGetParticipants:
		if rl.queryTokens > 0 {
			rl.queryTokens--
			return true
		}
		return false
	default:
		return true
	}
}

// Client represents a single WebSocket connection.
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	id           string
	registered   bool // owned by the hub's run loop
	rateLimiter  *ClientRateLimiter
	connectedAt  time.Time
	lastActivity time.Time
	logger       *WebSocketLogger
}

func NewClient(hub *Hub, conn *websocket.Conn, id string, logger *WebSocketLogger) *Client {
	now := time.Now()
	return &Client{
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, 256),
		id:           id,
		rateLimiter:  NewClientRateLimiter(),
		connectedAt:  now,
		lastActivity: now,
		logger:       logger,
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.lastActivity = time.Now()
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket unexpected close", c.id, err)
			}
			break
		}
		c.lastActivity = time.Now()

		env, err := events.Decode(bytes.TrimSpace(message))
		if err != nil || env.Type == "" {
			c.logger.Warn("malformed frame", c.id, zap.Error(err))
			continue
		}
		if !c.rateLimiter.Allow(env.Type) {
			c.logger.Warn("rate limit exceeded", c.id, zap.String("command", env.Type))
			continue
		}

		c.hub.inbound <- inboundCommand{client: c, env: env}
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
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			if time.Since(c.lastActivity) > pongWait*2 {
				c.logger.Info("client idle timeout", c.id)
				return
			}
		}
	}
}
