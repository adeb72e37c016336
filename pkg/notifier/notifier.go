// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

// Package notifier defines the outbound event contract between the
// matchmaking core and the websocket layer.
package notifier

// Notifier delivers events to connected clients. Implementations must
// not block the caller; delivery is best effort.
type Notifier interface {
	// Emit sends an event to a single socket.
	Emit(socketID string, event string, payload interface{})

	// Broadcast sends an event to every connected socket.
	Broadcast(event string, payload interface{})
}

// Nop discards every event. Useful while the websocket hub is not up
// yet during bootstrap.
type Nop struct{}

func (Nop) Emit(string, string, interface{}) {}

func (Nop) Broadcast(string, interface{}) {}
