// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaking

import (
	"time"

	pie "github.com/elliotchance/pie/v2"

	"github.com/thetranscendence/matchmaking/pkg/envelope"
	"github.com/thetranscendence/matchmaking/pkg/mathutil"
	"github.com/thetranscendence/matchmaking/pkg/models"
)

// Tick runs one pairing pass over the waiting queue.
//
// Candidates are sorted priority first, then ascending elo, with the
// userID as tiebreak so a tick is reproducible. The active side of a
// pairing attempt gets its tolerance doubled when it holds the
// priority flag; the passive side does not. A pair forms only when the
// elo distance fits inside both tolerances.
func (s *Service) Tick(scope *envelope.Scope) {
	started := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.WaitingCount() < 2 {
		return
	}

	candidates := pie.SortStableUsing(s.state.Waiting(), func(a, b *models.QueuedPlayer) bool {
		if a.Priority != b.Priority {
			return a.Priority
		}
		if a.Elo != b.Elo {
			return a.Elo < b.Elo
		}
		return a.UserID < b.UserID
	})

	now := s.now()
	matched := make(map[string]bool, len(candidates))
	paired := 0

	for i, active := range candidates {
		if matched[active.UserID] {
			continue
		}

		s.expandRange(active, now)

		toleranceA := float64(s.cfg.BaseTolerance) * active.RangeFactor
		if active.Priority {
			toleranceA *= 2
		}

		for _, passive := range candidates[i+1:] {
			if matched[passive.UserID] {
				continue
			}

			eloDiff := float64(mathutil.Abs(active.Elo - passive.Elo))
			toleranceB := float64(s.cfg.BaseTolerance) * passive.RangeFactor

			if eloDiff <= mathutil.Min(toleranceA, toleranceB) {
				matched[active.UserID] = true
				matched[passive.UserID] = true
				s.state.Remove(active.UserID)
				s.state.Remove(passive.UserID)
				s.createPendingMatchLocked(scope, active, passive)
				paired++
				break
			}
		}
	}

	if paired > 0 {
		scope.Log.WithField("pairs", paired).
			WithField("users", pie.Map(candidates, func(p *models.QueuedPlayer) string { return p.UserID })).
			Debug("tick paired players")
		s.broadcastStatsLocked()
	}

	s.metrics.ObserveTickElapsed(time.Since(started))
}

// expandRange grows the player's tolerance window once the current
// window has been outwaited. The factor sticks to the player for the
// rest of their time in queue.
func (s *Service) expandRange(player *models.QueuedPlayer, now time.Time) {
	waited := now.Sub(player.JoinTime)
	threshold := time.Duration(float64(s.cfg.ExpansionInterval()) * player.RangeFactor)
	if waited > threshold {
		player.RangeFactor += s.cfg.ExpansionStep
	}
}
