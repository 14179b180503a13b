package main

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
	maxShipsPerOrder  = 64
)

// Client represents a WebSocket connection. Every client is a viewer;
// a client that presents the commander passphrase or token may also
// issue orders.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
	commander  bool
	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
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
				Logger.Warn().Err(err).Str("remote", c.remoteAddr).Msg("ws error")
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			Logger.Warn().Str("remote", c.remoteAddr).Msg("rate limit exceeded, disconnecting")
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
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
			// Check for binary marker (0xFF prefix from SendBinary)
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

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		Logger.Error().Err(err).Msg("marshal error")
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message
// Prefixes with 0xFF marker byte so WritePump can distinguish from text
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		Logger.Debug().Err(err).Str("remote", c.remoteAddr).Msg("unmarshal error")
		return
	}

	switch env.T {
	case MsgLogin:
		c.handleLogin(env.D)
		return
	case MsgAuth:
		c.handleAuth(env.D)
		return
	}

	if !c.commander {
		c.sendError("not authorized")
		return
	}
	var err error
	switch env.T {
	case MsgDest:
		var msg DestMsg
		if err = json.Unmarshal(env.D, &msg); err == nil && c.orderSize(msg.IDs) {
			err = c.hub.game.SetDestination(msg.IDs, Point{X: msg.X, Y: msg.Y})
		}
	case MsgTarget:
		var msg TargetMsg
		if err = json.Unmarshal(env.D, &msg); err == nil && c.orderSize(msg.IDs) {
			err = c.hub.game.SetTarget(msg.IDs, msg.Target)
		}
	case MsgSelect:
		var msg SelectMsg
		if err = json.Unmarshal(env.D, &msg); err == nil && c.orderSize(msg.IDs) {
			err = c.hub.game.Select(msg.IDs, msg.On)
		}
	case MsgStop:
		var msg StopMsg
		if err = json.Unmarshal(env.D, &msg); err == nil && c.orderSize(msg.IDs) {
			err = c.hub.game.ClearOrders(msg.IDs)
		}
	case MsgPause:
		var msg PauseMsg
		if err = json.Unmarshal(env.D, &msg); err == nil {
			c.hub.game.SetPaused(msg.On)
		}
	default:
		c.sendError("unknown message type")
		return
	}
	if err != nil {
		c.sendError(err.Error())
	}
}

func (c *Client) orderSize(ids []Handle) bool {
	if len(ids) > maxShipsPerOrder {
		c.sendError("too many ships in one order")
		return false
	}
	return true
}

func (c *Client) handleLogin(data json.RawMessage) {
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	token, err := c.hub.auth.Login(msg.Password, c.remoteAddr)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.commander = true
	Logger.Info().Str("remote", c.remoteAddr).Msg("Commander logged in")
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: token}})
}

func (c *Client) handleAuth(data json.RawMessage) {
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if err := c.hub.auth.ValidateToken(msg.Token); err != nil {
		c.sendError("invalid token")
		return
	}
	c.commander = true
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: msg.Token}})
}
