package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"businessconnect_backend/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// IncomingWSMessage is a frame sent by the browser.
type IncomingWSMessage struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Client is one browser connection. Send is never closed; done is closed
// once when the client is dropped or the hub stops.
type Client struct {
	UserID  string
	Conn    *websocket.Conn
	Send    chan interface{}
	Manager *WebSocketManager

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(manager *WebSocketManager, conn *websocket.Conn, userID string) *Client {
	return &Client{
		UserID:  userID,
		Conn:    conn,
		Send:    make(chan interface{}, sendBuffer),
		Manager: manager,
		done:    make(chan struct{}),
	}
}

// close marks the client done and closes the socket so readPump returns.
// It reports whether this call did the closing.
func (c *Client) close() bool {
	closed := false
	c.closeOnce.Do(func() {
		close(c.done)
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
		closed = true
	})
	return closed
}

// trySend queues payload without blocking. It fails on a full buffer or a
// closed client.
func (c *Client) trySend(payload interface{}) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// readPump only keeps the connection alive; notifications flow server to client.
func (c *Client) readPump() {
	defer func() {
		c.Manager.unregisterClient(c)
		c.close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msgBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket read error", "user_id", c.UserID, "error", err.Error())
			}
			return
		}

		var msg IncomingWSMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			logger.Debug("Ignoring malformed websocket frame", "user_id", c.UserID)
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteJSON(msg); err != nil {
				logger.Warn("WebSocket write error", "user_id", c.UserID, "error", err.Error())
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

func (c *Client) handleMessage(msg IncomingWSMessage) {
	switch msg.Action {
	case "ping":
		c.trySend(map[string]string{"event": "pong"})
	default:
		logger.Debug("Unhandled websocket action", "user_id", c.UserID, "action", msg.Action)
	}
}
