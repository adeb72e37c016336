// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

// Package queue keeps the in-memory matchmaking indices: waiting
// players by user and by socket, and pending matches by match ID.
//
// State carries no lock of its own. The owning service serializes all
// access behind a single mutex so that the queue invariants hold
// between operations.
package queue

import (
	"time"

	"github.com/thetranscendence/matchmaking/pkg/models"
)

type State struct {
	waitingByUser   map[string]*models.QueuedPlayer
	waitingBySocket map[string]string // socketID -> userID
	pendingMatches  map[string]*models.PendingMatch
}

func NewState() *State {
	return &State{
		waitingByUser:   make(map[string]*models.QueuedPlayer),
		waitingBySocket: make(map[string]string),
		pendingMatches:  make(map[string]*models.PendingMatch),
	}
}

// Insert adds a fresh QueuedPlayer to both waiting indices. Callers
// have already ruled out duplicates via IsUserWaiting/IsSocketBusy.
func (s *State) Insert(userID, socketID string, elo int, priority bool, now time.Time) *models.QueuedPlayer {
	player := &models.QueuedPlayer{
		UserID:      userID,
		SocketID:    socketID,
		Elo:         elo,
		JoinTime:    now,
		RangeFactor: 1.0,
		Priority:    priority,
	}
	s.waitingByUser[userID] = player
	s.waitingBySocket[socketID] = userID

	return player
}

// Remove resolves identifier as a userID first, then as a socketID,
// and removes the owning player from both waiting indices. It returns
// the removed player, or nil when the identifier matched nothing.
// Pending matches are untouched: a player in a pending match is no
// longer waiting.
func (s *State) Remove(identifier string) *models.QueuedPlayer {
	player, ok := s.waitingByUser[identifier]
	if !ok {
		userID, found := s.waitingBySocket[identifier]
		if !found {
			return nil
		}
		player = s.waitingByUser[userID]
	}
	if player == nil {
		return nil
	}

	delete(s.waitingByUser, player.UserID)
	delete(s.waitingBySocket, player.SocketID)

	return player
}

func (s *State) IsUserWaiting(userID string) bool {
	_, ok := s.waitingByUser[userID]
	return ok
}

func (s *State) IsSocketBusy(socketID string) bool {
	_, ok := s.waitingBySocket[socketID]
	return ok
}

// IsUserInPendingMatch scans the pending index. Cardinality is low,
// bounded by half the queue size.
func (s *State) IsUserInPendingMatch(userID string) bool {
	for _, match := range s.pendingMatches {
		if match.Player1.UserID == userID || match.Player2.UserID == userID {
			return true
		}
	}
	return false
}

// Waiting snapshots the waiting players. The returned slice is owned
// by the caller; the pointed-to players are shared.
func (s *State) Waiting() []*models.QueuedPlayer {
	players := make([]*models.QueuedPlayer, 0, len(s.waitingByUser))
	for _, player := range s.waitingByUser {
		players = append(players, player)
	}
	return players
}

func (s *State) InsertPending(match *models.PendingMatch) {
	s.pendingMatches[match.MatchID] = match
}

func (s *State) Pending(matchID string) (*models.PendingMatch, bool) {
	match, ok := s.pendingMatches[matchID]
	return match, ok
}

// RemovePending deletes the pending entry and returns it. The caller
// is responsible for stopping the expiration timer.
func (s *State) RemovePending(matchID string) (*models.PendingMatch, bool) {
	match, ok := s.pendingMatches[matchID]
	if ok {
		delete(s.pendingMatches, matchID)
	}
	return match, ok
}

func (s *State) WaitingCount() int {
	return len(s.waitingByUser)
}

func (s *State) PendingCount() int {
	return len(s.pendingMatches)
}

func (s *State) Stats() models.QueueStats {
	return models.QueueStats{
		Size:    len(s.waitingByUser),
		Pending: len(s.pendingMatches),
	}
}
