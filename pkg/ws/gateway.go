// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"github.com/thetranscendence/matchmaking/pkg/clients"
	"github.com/thetranscendence/matchmaking/pkg/constants"
	"github.com/thetranscendence/matchmaking/pkg/envelope"
	"github.com/thetranscendence/matchmaking/pkg/matchmaking"
	"github.com/thetranscendence/matchmaking/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Gateway translates websocket traffic into matchmaking operations.
type Gateway struct {
	hub      *Hub
	service  *matchmaking.Service
	users    *clients.UsersClient
	verifier *TokenVerifier
	schemas  *schemaRegistry
}

func NewGateway(hub *Hub, service *matchmaking.Service, users *clients.UsersClient, verifier *TokenVerifier) *Gateway {
	return &Gateway{
		hub:      hub,
		service:  service,
		users:    users,
		verifier: verifier,
		schemas:  newSchemaRegistry(),
	}
}

// ServeWS authenticates the handshake, snapshots the player's rating
// and starts the connection pumps. Auth failures close the connection
// before the upgrade.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	scope := envelope.ChildScopeFromRemoteScope(r.Context(), "ws.connect")
	defer scope.Finish()

	token := r.URL.Query().Get("token")
	userID, err := g.verifier.Verify(token)
	if err != nil {
		scope.Log.Warnf("websocket auth rejected: %v", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	elo := g.users.GetUserElo(scope, userID)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		scope.Log.Errorf("failed to upgrade websocket connection: %v", err)
		return
	}

	socketID, err := gonanoid.New()
	if err != nil {
		scope.Log.Errorf("failed to generate socket id: %v", err)
		conn.Close()
		return
	}

	client := newClient(g.hub, g, conn, socketID, userID, elo)
	g.hub.register <- client

	scope.SetAttributes(envelope.UserIDTag, userID)
	scope.SetAttributes(envelope.SocketIDTag, socketID)

	go client.writePump()
	go client.readPump()
}

// onDisconnect drops the player from the waiting queue. A pending
// match is deliberately left alone; its timer keeps governing.
func (g *Gateway) onDisconnect(c *Client) {
	scope := envelope.NewRootScope(context.Background(), "ws.disconnect", "")
	defer scope.Finish()

	g.service.RemovePlayer(scope, c.userID)
	logrus.WithField("userID", c.userID).WithField("socketID", c.socketID).
		Debug("websocket client disconnected")
}

// dispatch validates and routes one inbound event.
func (g *Gateway) dispatch(c *Client, message *InboundMessage) {
	scope := envelope.NewRootScope(context.Background(), "ws."+message.Event, "")
	defer scope.Finish()
	scope.SetAttributes(envelope.UserIDTag, c.userID)

	if err := g.schemas.validate(message.Event, message.Data); err != nil {
		g.emitError(c, "invalid payload", err.Error())
		return
	}

	switch message.Event {
	case constants.EventJoinQueue:
		g.handleJoinQueue(scope, c, message.Data)
	case constants.EventLeaveQueue:
		g.handleLeaveQueue(scope, c)
	case constants.EventAcceptMatch:
		g.handleMatchReply(scope, c, message.Data, g.service.AcceptMatch)
	case constants.EventDeclineMatch:
		g.handleMatchReply(scope, c, message.Data, g.service.DeclineMatch)
	}
}

func (g *Gateway) handleJoinQueue(scope *envelope.Scope, c *Client, data json.RawMessage) {
	var payload struct {
		Elo *int `json:"elo"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			g.emitError(c, "invalid payload", err.Error())
			return
		}
	}

	elo := c.elo
	if payload.Elo != nil {
		elo = *payload.Elo
	}

	player, err := g.service.AddPlayer(scope, c.userID, c.socketID, elo, false)
	if err != nil {
		g.emitError(c, "failed to join queue", err.Error())
		return
	}

	g.hub.Emit(c.socketID, constants.EventQueueJoined, models.QueueJoinedPayload{
		UserID:    player.UserID,
		Elo:       player.Elo,
		Timestamp: player.JoinTime.UnixMilli(),
	})
}

func (g *Gateway) handleLeaveQueue(scope *envelope.Scope, c *Client) {
	g.service.RemovePlayer(scope, c.userID)
	g.hub.Emit(c.socketID, constants.EventQueueLeft, models.QueueLeftPayload{
		UserID:    c.userID,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (g *Gateway) handleMatchReply(scope *envelope.Scope, c *Client, data json.RawMessage,
	reply func(*envelope.Scope, string, string) error,
) {
	var payload struct {
		MatchID string `json:"matchId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		g.emitError(c, "invalid payload", err.Error())
		return
	}

	if err := reply(scope, c.userID, payload.MatchID); err != nil {
		g.emitError(c, "match reply rejected", err.Error())
	}
}

// emitError reports a failure back to the offending socket only.
func (g *Gateway) emitError(c *Client, message, details string) {
	g.hub.Emit(c.socketID, constants.EventError, models.ErrorPayload{
		Message: message,
		Details: details,
	})
}
