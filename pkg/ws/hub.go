// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

// Package ws is the websocket gateway: connection lifecycle, auth,
// inbound payload validation and outbound event delivery.
package ws

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// OutboundMessage is the wire envelope for server-to-client events.
type OutboundMessage struct {
	// SocketID routes the message; empty means broadcast. Never
	// serialized.
	SocketID string      `json:"-"`
	Event    string      `json:"event"`
	Data     interface{} `json:"data"`
}

// Hub tracks connected clients by socket ID and fans events out to
// them. It implements notifier.Notifier for the matchmaking core.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex

	outbound chan *OutboundMessage

	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		outbound:   make(chan *OutboundMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run owns the registry. Intended to run in its own goroutine for the
// process lifetime.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.outbound:
			h.deliver(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.socketID] = client
	logrus.WithField("socketID", client.socketID).
		WithField("userID", client.userID).
		WithField("totalClients", len(h.clients)).
		Info("websocket client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[client.socketID]; exists {
		delete(h.clients, client.socketID)
		close(client.send)
		logrus.WithField("socketID", client.socketID).
			WithField("totalClients", len(h.clients)).
			Info("websocket client unregistered")
	}
}

func (h *Hub) deliver(message *OutboundMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if message.SocketID == "" {
		for _, client := range h.clients {
			h.push(client, message)
		}
		return
	}

	if client, exists := h.clients[message.SocketID]; exists {
		h.push(client, message)
	}
}

func (h *Hub) push(client *Client, message *OutboundMessage) {
	select {
	case client.send <- message:
	default:
		logrus.WithField("socketID", client.socketID).
			Warn("client send channel full, dropping connection")
		go func(c *Client) {
			h.unregister <- c
		}(client)
	}
}

// Emit sends an event to a single socket.
func (h *Hub) Emit(socketID string, event string, payload interface{}) {
	h.outbound <- &OutboundMessage{
		SocketID: socketID,
		Event:    event,
		Data:     payload,
	}
}

// Broadcast sends an event to every connected socket.
func (h *Hub) Broadcast(event string, payload interface{}) {
	h.outbound <- &OutboundMessage{
		Event: event,
		Data:  payload,
	}
}
