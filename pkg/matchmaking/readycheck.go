// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaking

import (
	"context"
	"time"

	"github.com/thetranscendence/matchmaking/pkg/common"
	"github.com/thetranscendence/matchmaking/pkg/constants"
	"github.com/thetranscendence/matchmaking/pkg/envelope"
	"github.com/thetranscendence/matchmaking/pkg/models"
)

// createPendingMatchLocked moves a freshly found pair into the ready
// check. Callers hold s.mu.
func (s *Service) createPendingMatchLocked(scope *envelope.Scope, player1, player2 *models.QueuedPlayer) {
	matchID := common.GenerateUUID()
	expiresAt := s.now().Add(s.cfg.MatchAcceptTimeout())

	match := &models.PendingMatch{
		MatchID:   matchID,
		ExpiresAt: expiresAt,
		Player1: models.Participant{
			UserID:   player1.UserID,
			SocketID: player1.SocketID,
			Elo:      player1.Elo,
			Status:   models.StatusPending,
		},
		Player2: models.Participant{
			UserID:   player2.UserID,
			SocketID: player2.SocketID,
			Elo:      player2.Elo,
			Status:   models.StatusPending,
		},
	}
	match.TimerHandle = time.AfterFunc(s.cfg.MatchAcceptTimeout(), func() {
		s.handleMatchTimeout(matchID)
	})
	s.state.InsertPending(match)

	scope.Log.WithField("matchID", matchID).
		WithField("player1", player1.UserID).
		WithField("player2", player2.UserID).
		Info("match proposed")
	scope.SetAttributes(envelope.MatchIDTag, matchID)
	s.metrics.AddMatchProposed()

	expiresMs := expiresAt.UnixMilli()
	s.notify.Emit(match.Player1.SocketID, constants.EventMatchProposal, models.MatchProposalPayload{
		MatchID:     matchID,
		ExpiresAt:   expiresMs,
		OpponentElo: match.Player2.Elo,
	})
	s.notify.Emit(match.Player2.SocketID, constants.EventMatchProposal, models.MatchProposalPayload{
		MatchID:     matchID,
		ExpiresAt:   expiresMs,
		OpponentElo: match.Player1.Elo,
	})
}

// AcceptMatch records a participant's accept. A duplicate accept is a
// no-op. When both sides have accepted, exactly the invocation that
// observes the mutual predicate drives finalization.
func (s *Service) AcceptMatch(scope *envelope.Scope, userID, matchID string) error {
	s.mu.Lock()

	match, ok := s.state.Pending(matchID)
	if !ok {
		s.mu.Unlock()
		return models.ErrMatchNotFound
	}
	participant := match.ParticipantByUser(userID)
	if participant == nil {
		s.mu.Unlock()
		return models.ErrNotParticipant
	}

	if participant.Status != models.StatusPending {
		s.mu.Unlock()
		scope.Log.WithField("matchID", matchID).WithField("userID", userID).
			Debug("duplicate accept ignored")
		return nil
	}

	participant.Status = models.StatusAccepted
	scope.Log.WithField("matchID", matchID).WithField("userID", userID).Info("match accepted")

	if !match.BothAccepted() {
		s.mu.Unlock()
		return nil
	}

	// Removing the pending entry before any remote call makes a late
	// accept or decline observe MatchNotFound instead of racing the
	// finalization.
	s.state.RemovePending(matchID)
	match.TimerHandle.Stop()
	s.mu.Unlock()

	s.finalizeMatch(scope, match)

	return nil
}

// DeclineMatch cancels the pending match with the decliner as the
// faulty side.
func (s *Service) DeclineMatch(scope *envelope.Scope, userID, matchID string) error {
	s.mu.Lock()

	match, ok := s.state.Pending(matchID)
	if !ok {
		s.mu.Unlock()
		return models.ErrMatchNotFound
	}
	participant := match.ParticipantByUser(userID)
	if participant == nil {
		s.mu.Unlock()
		return models.ErrNotParticipant
	}

	participant.Status = models.StatusDeclined
	s.state.RemovePending(matchID)
	match.TimerHandle.Stop()
	s.mu.Unlock()

	scope.Log.WithField("matchID", matchID).WithField("userID", userID).Info("match declined")
	s.cancelMatch(scope, match, map[string]bool{userID: true}, constants.CancelReasonDeclined)

	return nil
}

// handleMatchTimeout fires from the expiration timer. Participants
// still pending at the deadline are the faulty set.
func (s *Service) handleMatchTimeout(matchID string) {
	scope := envelope.NewRootScope(context.Background(), "matchmaking.readyCheckTimeout", "")
	defer scope.Finish()

	s.mu.Lock()
	match, ok := s.state.RemovePending(matchID)
	s.mu.Unlock()
	if !ok {
		// resolved by accept or decline before the alarm
		return
	}

	faulty := make(map[string]bool, 2)
	if match.Player1.Status == models.StatusPending {
		faulty[match.Player1.UserID] = true
	}
	if match.Player2.Status == models.StatusPending {
		faulty[match.Player2.UserID] = true
	}

	scope.Log.WithField("matchID", matchID).WithField("faulty", len(faulty)).
		Info("ready check timed out")
	s.cancelMatch(scope, match, faulty, constants.CancelReasonTimeout)
}

// cancelMatch applies the cancel policy: faulty participants are
// penalized, innocent ones are re-queued with priority. A penalty
// store failure on one participant never blocks the other.
func (s *Service) cancelMatch(scope *envelope.Scope, match *models.PendingMatch, faulty map[string]bool, reason string) {
	s.metrics.AddMatchCancelled(reason)

	for _, participant := range []models.Participant{match.Player1, match.Player2} {
		if faulty[participant.UserID] {
			err := s.penalties.AddPenalty(scope.Ctx, participant.UserID,
				s.cfg.PenaltyDuration(), constants.PenaltyReasonPrefix+reason)
			if err != nil {
				scope.Log.WithField("userID", participant.UserID).
					Errorf("failed to record penalty: %v", err)
			}
			s.notify.Emit(participant.SocketID, constants.EventMatchCancelled, models.MatchCancelledPayload{
				MatchID: match.MatchID,
				Reason:  constants.CancelledReasonPenaltyApplied,
			})
			continue
		}

		s.requeueWithPriority(scope, participant)
		s.notify.Emit(participant.SocketID, constants.EventMatchCancelled, models.MatchCancelledPayload{
			MatchID: match.MatchID,
			Reason:  constants.CancelledReasonOpponentDeclined,
		})
	}

	s.mu.Lock()
	s.broadcastStatsLocked()
	s.mu.Unlock()
}

// finalizeMatch bridges a mutually accepted match to the game service.
// The pending entry is already removed and its timer stopped.
func (s *Service) finalizeMatch(scope *envelope.Scope, match *models.PendingMatch) {
	entry := models.SessionEntry{
		ID:        match.MatchID,
		Player1ID: match.Player1.UserID,
		Player2ID: match.Player2.UserID,
		Status:    constants.SessionStatusStarted,
		StartedAt: s.now(),
	}
	if err := s.sessions.RecordStarted(scope.Ctx, entry); err != nil {
		scope.Log.WithField("matchID", match.MatchID).
			Errorf("failed to record session, continuing: %v", err)
	}

	result := s.game.CreateGame(scope, models.CreateGameRequest{
		GameID:    match.MatchID,
		Player1ID: match.Player1.UserID,
		Player2ID: match.Player2.UserID,
	})

	if result.Success {
		scope.Log.WithField("gameID", result.GameID).Info("match confirmed")
		s.metrics.AddMatchConfirmed()

		payload := models.MatchConfirmedPayload{
			GameID:    result.GameID,
			Player1ID: match.Player1.UserID,
			Player2ID: match.Player2.UserID,
		}
		s.notify.Emit(match.Player1.SocketID, constants.EventMatchConfirmed, payload)
		s.notify.Emit(match.Player2.SocketID, constants.EventMatchConfirmed, payload)

		s.mu.Lock()
		s.broadcastStatsLocked()
		s.mu.Unlock()
		return
	}

	scope.Log.WithField("matchID", match.MatchID).WithField("error", result.Error).
		Warn("game creation failed, re-queueing both players")

	payload := models.MatchFailedPayload{
		MatchID:   match.MatchID,
		Reason:    constants.FailedReasonGameCreation,
		ErrorCode: result.Error,
		Message:   result.Message,
	}
	s.notify.Emit(match.Player1.SocketID, constants.EventMatchFailed, payload)
	s.notify.Emit(match.Player2.SocketID, constants.EventMatchFailed, payload)

	// best effort per player; one failure must not block the other
	s.requeueWithPriority(scope, match.Player1)
	s.requeueWithPriority(scope, match.Player2)
}

// requeueWithPriority puts an innocent participant back into the queue
// with the priority flag, emitting queue_joined on success.
func (s *Service) requeueWithPriority(scope *envelope.Scope, participant models.Participant) {
	player, err := s.AddPlayer(scope, participant.UserID, participant.SocketID, participant.Elo, true)
	if err != nil {
		scope.Log.WithField("userID", participant.UserID).
			Errorf("failed to re-queue player: %v", err)
		return
	}

	s.notify.Emit(participant.SocketID, constants.EventQueueJoined, models.QueueJoinedPayload{
		UserID:    player.UserID,
		Elo:       player.Elo,
		Timestamp: s.timestamp(),
		Priority:  true,
	})
}
