// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// InboundMessage is the wire envelope for client-to-server events. The
// data part stays raw until the event's schema has accepted it.
type InboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client is one authenticated websocket connection.
type Client struct {
	hub      *Hub
	gateway  *Gateway
	conn     *websocket.Conn
	send     chan *OutboundMessage
	socketID string
	userID   string
	elo      int
}

func newClient(hub *Hub, gateway *Gateway, conn *websocket.Conn, socketID, userID string, elo int) *Client {
	return &Client{
		hub:      hub,
		gateway:  gateway,
		conn:     conn,
		send:     make(chan *OutboundMessage, 64),
		socketID: socketID,
		userID:   userID,
		elo:      elo,
	}
}

// readPump reads inbound events until the connection dies, then runs
// the disconnect hook.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.gateway.onDisconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("socketID", c.socketID).Errorf("websocket read error: %v", err)
			}
			break
		}

		var message InboundMessage
		if err := json.Unmarshal(raw, &message); err != nil {
			c.gateway.emitError(c, "malformed message envelope", err.Error())
			continue
		}

		c.gateway.dispatch(c, &message)
	}
}

// writePump drains the send channel onto the wire and keeps the
// connection alive with pings.
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

			data, err := json.Marshal(message)
			if err != nil {
				logrus.WithField("socketID", c.socketID).Errorf("failed to marshal message: %v", err)
				continue
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logrus.WithField("socketID", c.socketID).Errorf("failed to write message: %v", err)
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
