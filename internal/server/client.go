package server

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"arena-server/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufSize    = 256

	msgRate  = 60  // sustained messages per second per connection
	msgBurst = 120 // short bursts (movement intents cluster on input)
)

// Client represents one WebSocket connection. Its playerID doubles as
// the room player id.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	playerID   string
	remoteAddr string
	limiter    *rate.Limiter

	// Identity, if a valid token accompanied the upgrade.
	userID      int64
	displayName string
}

// NewClient creates a client for an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, playerID, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		playerID:   playerID,
		remoteAddr: remoteAddr,
		limiter:    rate.NewLimiter(rate.Limit(msgRate), msgBurst),
	}
}

// ReadPump reads events from the WebSocket connection until it drops.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		if !c.limiter.Allow() {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes queued events and keepalive pings.
func (c *Client) WritePump() {
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
			// 0xFF marks a pre-marshaled msgpack binary frame
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
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

// SendJSON implements game.Broadcaster.
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw queues pre-marshaled bytes as a text message.
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
		ObserveMessageSent()
	default:
		// Client too slow, drop message
	}
}

// SendBinary queues pre-marshaled bytes as a binary WebSocket message.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
		ObserveMessageSent()
	default:
	}
}

// handleMessage routes incoming events (single-pass decode via
// InEnvelope). Malformed payloads and out-of-precondition events are
// dropped without a reply; the room enforces role and phase guards.
func (c *Client) handleMessage(raw []byte) {
	var env protocol.InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case protocol.EvMoveIntent:
		var mv protocol.MoveIntent
		if err := json.Unmarshal(env.D, &mv); err != nil {
			return
		}
		c.hub.room.HandleMove(c.playerID, mv)

	case protocol.EvSetDifficulty:
		var difficulty string
		if err := json.Unmarshal(env.D, &difficulty); err != nil {
			return
		}
		c.hub.room.HandleSetDifficulty(c.playerID, difficulty)

	case protocol.EvSetMode:
		var mode string
		if err := json.Unmarshal(env.D, &mode); err != nil {
			return
		}
		c.hub.room.HandleSetMode(c.playerID, mode)

	case protocol.EvSwatIntent:
		c.hub.room.HandleSwat(c.playerID)

	case protocol.EvFireIntent:
		var fi protocol.FireIntent
		if err := json.Unmarshal(env.D, &fi); err != nil {
			return
		}
		c.hub.room.HandleFire(c.playerID, fi)

	case protocol.EvHitClaim:
		var targetID string
		if err := json.Unmarshal(env.D, &targetID); err != nil {
			return
		}
		c.hub.room.HandleHit(c.playerID, targetID)

	case protocol.EvCollectClaim:
		var entityID string
		if err := json.Unmarshal(env.D, &entityID); err != nil {
			return
		}
		c.hub.room.HandleCollect(c.playerID, entityID)
	}
}
