package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/muizather/pokemon/internal/constants"
	"github.com/muizather/pokemon/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// envelope is the wire shape of every websocket message in both
// directions: an event name plus an event-specific payload.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outEnvelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Client is one connected websocket session. It implements
// registry.Session so the match core can address it by id.
type Client struct {
	id      string
	handler *Handler
	conn    *websocket.Conn

	send chan []byte

	mu       sync.Mutex
	username string
	closed   bool
}

// ID returns the session identifier assigned at connect time.
func (c *Client) ID() string { return c.id }

// Username returns the display name, defaulting to Anonymous until
// setUsername arrives.
func (c *Client) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.username == "" {
		return "Anonymous"
	}
	return c.username
}

func (c *Client) setUsername(name string) {
	c.mu.Lock()
	c.username = name
	c.mu.Unlock()
}

// Send marshals an event envelope and queues it for delivery. A slow
// session drops messages rather than blocking the match core.
func (c *Client) Send(event string, payload interface{}) {
	data, err := json.Marshal(outEnvelope{Type: event, Payload: payload})
	if err != nil {
		logging.Error("failed to marshal outbound event", err, logging.Fields{
			constants.LogFieldEvent: event,
		})
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		logging.Warn("send buffer full, dropping event", logging.Fields{
			constants.LogFieldSessionID: c.id,
			constants.LogFieldEvent:     event,
		})
	}
}

func (c *Client) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
	c.conn.Close()
}

// HandleWebSocket upgrades the HTTP request and starts the session pumps.
func (h *Handler) HandleWebSocket(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", err, nil)
		return
	}

	client := &Client{
		id:      uuid.NewString(),
		handler: h,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
	}
	logging.Info("session connected", logging.Fields{
		constants.LogFieldSessionID: client.id,
		constants.LogFieldAddr:      conn.RemoteAddr().String(),
	})

	go client.writePump()
	go client.readPump()
}

// readPump reads inbound events and dispatches them in order. Exiting the
// loop tears the session down: the registry treats it as a disconnect.
func (c *Client) readPump() {
	defer func() {
		c.handler.registry.HandleDisconnect(c)
		c.close()
		logging.Info("session disconnected", logging.Fields{
			constants.LogFieldSessionID: c.id,
		})
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logging.Error("websocket read failed", err, logging.Fields{
					constants.LogFieldSessionID: c.id,
				})
			}
			return
		}
		c.handler.dispatch(c, data)
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
		}
	}
}
