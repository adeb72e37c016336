// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

// Package matchmaking implements the pairing engine: the waiting
// queue, the periodic matcher and the ready check state machine.
package matchmaking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/thetranscendence/matchmaking/pkg/config"
	"github.com/thetranscendence/matchmaking/pkg/constants"
	"github.com/thetranscendence/matchmaking/pkg/envelope"
	"github.com/thetranscendence/matchmaking/pkg/metrics"
	"github.com/thetranscendence/matchmaking/pkg/models"
	"github.com/thetranscendence/matchmaking/pkg/notifier"
	"github.com/thetranscendence/matchmaking/pkg/queue"
)

// PenaltyStore is the ban record storage consulted on every join and
// written when a ready check is abused.
type PenaltyStore interface {
	GetActivePenalty(ctx context.Context, userID string) (*models.Penalty, error)
	AddPenalty(ctx context.Context, userID string, duration time.Duration, reason string) error
}

// SessionLog records started matches. Failures are tolerated.
type SessionLog interface {
	RecordStarted(ctx context.Context, entry models.SessionEntry) error
}

// GameService creates the game instance for a confirmed match. The
// implementation must return a typed outcome and never a transport
// error.
type GameService interface {
	CreateGame(scope *envelope.Scope, request models.CreateGameRequest) models.CreateGameResult
}

// Service owns the queue state. A single mutex serializes the matcher
// tick, timer callbacks and gateway handlers, so the queue invariants
// hold between any two operations. Remote calls happen outside the
// lock.
type Service struct {
	cfg       *config.Config
	penalties PenaltyStore
	sessions  SessionLog
	game      GameService
	notify    notifier.Notifier
	metrics   metrics.MatchmakingMetrics

	mu    sync.Mutex
	state *queue.State

	// now is swapped out by tests to drive range expansion.
	now func() time.Time

	runMu    sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewService(
	cfg *config.Config,
	penalties PenaltyStore,
	sessions SessionLog,
	game GameService,
	notify notifier.Notifier,
	mmMetrics metrics.MatchmakingMetrics,
) *Service {
	return &Service{
		cfg:       cfg,
		penalties: penalties,
		sessions:  sessions,
		game:      game,
		notify:    notify,
		metrics:   mmMetrics,
		state:     queue.NewState(),
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
}

// SetNotifier swaps the outbound sink. Called once during bootstrap
// after the websocket hub is constructed.
func (s *Service) SetNotifier(notify notifier.Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = notify
}

// Start launches the tick loop.
func (s *Service) Start() {
	s.runMu.Lock()
	if s.running {
		s.runMu.Unlock()
		return
	}
	s.running = true
	s.runMu.Unlock()

	logrus.WithField("tickRate", s.cfg.TickRate()).Info("starting matchmaking loop")

	s.wg.Add(1)
	go s.tickLoop()
}

// Stop terminates the tick loop and waits for it to exit. Pending
// match timers keep running; their callbacks remain safe.
func (s *Service) Stop() {
	s.runMu.Lock()
	if !s.running {
		s.runMu.Unlock()
		return
	}
	s.running = false
	s.runMu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
	logrus.Info("matchmaking loop stopped")
}

func (s *Service) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.TickRate())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.safeTick()
		case <-s.stopChan:
			return
		}
	}
}

// safeTick shields the loop from a panicking tick; the next tick
// proceeds from current state.
func (s *Service) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("matchmaking tick panicked: %v", r)
		}
	}()

	scope := envelope.NewRootScope(context.Background(), "matchmaking.tick", "")
	defer scope.Finish()

	s.Tick(scope)
}

// AddPlayer deposits a waiting player into the queue.
//
// It fails with models.ErrBanned when the user has an active penalty,
// models.ErrAlreadyQueued when the user is waiting or in a pending
// match, and models.ErrSocketBusy when the socket already carries a
// queued player. On success the queue stats broadcast is triggered.
func (s *Service) AddPlayer(scope *envelope.Scope, userID, socketID string, elo int, priority bool) (*models.QueuedPlayer, error) {
	penalty, err := s.penalties.GetActivePenalty(scope.Ctx, userID)
	if err != nil {
		scope.Log.WithField("userID", userID).Errorf("penalty lookup failed: %v", err)
		return nil, fmt.Errorf("penalty lookup: %w", err)
	}
	if penalty != nil {
		return nil, fmt.Errorf("%w (expires %s)", models.ErrBanned, penalty.ExpiresAt.Format(time.RFC3339))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsUserWaiting(userID) || s.state.IsUserInPendingMatch(userID) {
		return nil, models.ErrAlreadyQueued
	}
	if s.state.IsSocketBusy(socketID) {
		return nil, models.ErrSocketBusy
	}

	player := s.state.Insert(userID, socketID, elo, priority, s.now())
	scope.Log.WithField("userID", userID).WithField("elo", elo).WithField("priority", priority).
		Info("player queued")
	scope.SetAttributes(envelope.UserIDTag, userID)

	s.broadcastStatsLocked()

	return player, nil
}

// RemovePlayer removes a waiting player by userID or socketID. It is
// idempotent and never touches pending matches.
func (s *Service) RemovePlayer(scope *envelope.Scope, identifier string) *models.QueuedPlayer {
	s.mu.Lock()
	defer s.mu.Unlock()

	player := s.state.Remove(identifier)
	if player == nil {
		return nil
	}

	scope.Log.WithField("userID", player.UserID).Info("player left queue")
	s.broadcastStatsLocked()

	return player
}

// QueueStats snapshots the queue for the admin endpoint and the
// broadcast event.
func (s *Service) QueueStats() models.QueueStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Stats()
}

// broadcastStatsLocked emits queue_stats and refreshes the gauges.
// Callers hold s.mu.
func (s *Service) broadcastStatsLocked() {
	stats := s.state.Stats()
	s.metrics.SetQueueSize(stats.Size)
	s.metrics.SetPendingMatches(stats.Pending)
	s.notify.Broadcast(constants.EventQueueStats, stats)
}

func (s *Service) timestamp() int64 {
	return s.now().UnixMilli()
}
