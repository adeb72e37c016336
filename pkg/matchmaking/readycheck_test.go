// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaking

import (
	"errors"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/thetranscendence/matchmaking/pkg/config"
	"github.com/thetranscendence/matchmaking/pkg/constants"
	"github.com/thetranscendence/matchmaking/pkg/models"
	"github.com/thetranscendence/matchmaking/pkg/testsetup"
)

// proposeMatch queues A/B, runs one tick and returns the proposed
// match ID.
func proposeMatch(g testsetup.GomegaWithScope, f *serviceFixture) string {
	mustQueuePair(g, f)
	f.service.Tick(g.TestScope)

	proposals := f.notifier.ForSocket("sA")
	g.Expect(proposals).ToNot(BeEmpty())
	return proposals[0].Payload.(models.MatchProposalPayload).MatchID
}

func TestReadyCheck_HappyPath(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(nil)

	matchID := proposeMatch(g, f)

	g.Expect(f.service.AcceptMatch(g.TestScope, "A", matchID)).To(Succeed())
	g.Expect(f.service.AcceptMatch(g.TestScope, "B", matchID)).To(Succeed())

	g.Expect(f.game.CallCount()).To(Equal(1))
	g.Expect(f.game.Requests[0]).To(Equal(models.CreateGameRequest{
		GameID:    matchID,
		Player1ID: "A",
		Player2ID: "B",
	}))

	g.Expect(f.sessions.Entries).To(HaveLen(1))
	g.Expect(f.sessions.Entries[0].ID).To(Equal(matchID))
	g.Expect(f.sessions.Entries[0].Status).To(Equal(constants.SessionStatusStarted))

	g.Expect(f.notifier.CountForSocket("sA", constants.EventMatchConfirmed)).To(Equal(1))
	g.Expect(f.notifier.CountForSocket("sB", constants.EventMatchConfirmed)).To(Equal(1))

	confirmed := f.notifier.ForSocket("sA")[1].Payload.(models.MatchConfirmedPayload)
	g.Expect(confirmed).To(Equal(models.MatchConfirmedPayload{
		GameID:    matchID,
		Player1ID: "A",
		Player2ID: "B",
	}))

	g.Expect(f.service.QueueStats()).To(Equal(models.QueueStats{Size: 0, Pending: 0}))
}

func TestReadyCheck_DeclineAppliesPenaltyAndRequeuesOpponent(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(nil)

	matchID := proposeMatch(g, f)

	g.Expect(f.service.DeclineMatch(g.TestScope, "B", matchID)).To(Succeed())

	g.Expect(f.game.CallCount()).To(Equal(0))

	g.Expect(f.penalties.Recorded).To(HaveLen(1))
	g.Expect(f.penalties.Recorded[0]).To(Equal(testsetup.RecordedPenalty{
		UserID:   "B",
		Duration: 300 * time.Second,
		Reason:   "Matchmaking abuse: declined",
	}))

	cancelledB := lastEvent(f.notifier.ForSocket("sB"), constants.EventMatchCancelled)
	g.Expect(cancelledB.Payload.(models.MatchCancelledPayload).Reason).
		To(Equal(constants.CancelledReasonPenaltyApplied))

	cancelledA := lastEvent(f.notifier.ForSocket("sA"), constants.EventMatchCancelled)
	g.Expect(cancelledA.Payload.(models.MatchCancelledPayload).Reason).
		To(Equal(constants.CancelledReasonOpponentDeclined))

	rejoined := lastEvent(f.notifier.ForSocket("sA"), constants.EventQueueJoined)
	g.Expect(rejoined.Payload.(models.QueueJoinedPayload).Priority).To(BeTrue())

	a := f.waiting("A")
	g.Expect(a).ToNot(BeNil())
	g.Expect(a.Priority).To(BeTrue())
	g.Expect(f.waiting("B")).To(BeNil())
}

func TestReadyCheck_TimeoutPenalizesSilentParticipants(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(func(cfg *config.Config) {
		cfg.MatchAcceptTimeoutMs = 40
	})

	proposeMatch(g, f)

	g.Eventually(func() int {
		return len(f.penalties.RecordedCalls())
	}).Should(Equal(2))

	g.Eventually(func() models.QueueStats {
		return f.service.QueueStats()
	}).Should(Equal(models.QueueStats{Size: 0, Pending: 0}))

	g.Eventually(func() int {
		return f.notifier.CountForSocket("sA", constants.EventMatchCancelled)
	}).Should(Equal(1))
	g.Expect(f.notifier.CountForSocket("sB", constants.EventMatchCancelled)).To(Equal(1))
}

func TestReadyCheck_TimeoutSparesTheAcceptedSide(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(func(cfg *config.Config) {
		cfg.MatchAcceptTimeoutMs = 40
	})

	matchID := proposeMatch(g, f)
	g.Expect(f.service.AcceptMatch(g.TestScope, "A", matchID)).To(Succeed())

	g.Eventually(func() int { return len(f.penalties.RecordedCalls()) }).Should(Equal(1))
	g.Expect(f.penalties.RecordedCalls()[0].UserID).To(Equal("B"))

	// the accepting side is re-queued with priority
	g.Eventually(func() *models.QueuedPlayer { return f.waiting("A") }).ShouldNot(BeNil())
	g.Expect(f.waiting("A").Priority).To(BeTrue())
}

func TestReadyCheck_GameCreationFailureRequeuesBoth(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(nil)
	f.game.Result = models.CreateGameResult{
		Success: false,
		Error:   models.GameErrAlreadyExists,
		Message: "game creation fallback: game service unreachable",
	}

	matchID := proposeMatch(g, f)

	g.Expect(f.service.AcceptMatch(g.TestScope, "A", matchID)).To(Succeed())
	g.Expect(f.service.AcceptMatch(g.TestScope, "B", matchID)).To(Succeed())

	for _, socketID := range []string{"sA", "sB"} {
		failed := lastEvent(f.notifier.ForSocket(socketID), constants.EventMatchFailed)
		g.Expect(failed).ToNot(BeNil())
		payload := failed.Payload.(models.MatchFailedPayload)
		g.Expect(payload.Reason).To(Equal(constants.FailedReasonGameCreation))
		g.Expect(payload.ErrorCode).To(Equal(models.GameErrAlreadyExists))

		rejoined := lastEvent(f.notifier.ForSocket(socketID), constants.EventQueueJoined)
		g.Expect(rejoined.Payload.(models.QueueJoinedPayload).Priority).To(BeTrue())
	}

	g.Expect(f.waiting("A").Priority).To(BeTrue())
	g.Expect(f.waiting("B").Priority).To(BeTrue())
	g.Expect(f.service.QueueStats()).To(Equal(models.QueueStats{Size: 2, Pending: 0}))
}

func TestReadyCheck_DuplicateAcceptsAreIdempotent(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(nil)

	matchID := proposeMatch(g, f)

	for i := 0; i < 3; i++ {
		g.Expect(f.service.AcceptMatch(g.TestScope, "A", matchID)).To(Succeed())
	}
	g.Expect(f.service.AcceptMatch(g.TestScope, "B", matchID)).To(Succeed())

	g.Expect(f.game.CallCount()).To(Equal(1))
	g.Expect(f.sessions.Entries).To(HaveLen(1))
	g.Expect(f.notifier.CountForSocket("sA", constants.EventMatchConfirmed)).To(Equal(1))
	g.Expect(f.notifier.CountForSocket("sB", constants.EventMatchConfirmed)).To(Equal(1))
}

func TestReadyCheck_RepliesOnUnknownMatch(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(nil)

	err := f.service.AcceptMatch(g.TestScope, "A", "b8e5cdef-93f9-4f8c-8d8a-000000000000")
	g.Expect(err).To(MatchError(models.ErrMatchNotFound))

	err = f.service.DeclineMatch(g.TestScope, "A", "b8e5cdef-93f9-4f8c-8d8a-000000000000")
	g.Expect(err).To(MatchError(models.ErrMatchNotFound))
}

func TestReadyCheck_RejectsNonParticipant(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(nil)

	matchID := proposeMatch(g, f)

	g.Expect(f.service.AcceptMatch(g.TestScope, "C", matchID)).To(MatchError(models.ErrNotParticipant))
	g.Expect(f.service.DeclineMatch(g.TestScope, "C", matchID)).To(MatchError(models.ErrNotParticipant))
}

func TestReadyCheck_DeclineAfterFinalizeIsMatchNotFound(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(nil)

	matchID := proposeMatch(g, f)

	g.Expect(f.service.AcceptMatch(g.TestScope, "A", matchID)).To(Succeed())
	g.Expect(f.service.AcceptMatch(g.TestScope, "B", matchID)).To(Succeed())

	// the pending entry is gone; a straggling decline cannot penalize
	err := f.service.DeclineMatch(g.TestScope, "B", matchID)
	g.Expect(err).To(MatchError(models.ErrMatchNotFound))
	g.Expect(f.penalties.Recorded).To(BeEmpty())
}

func TestReadyCheck_PenaltyFailureDoesNotBlockOtherParticipant(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(nil)
	f.penalties.InsertErr = errors.New("db locked")

	matchID := proposeMatch(g, f)

	g.Expect(f.service.DeclineMatch(g.TestScope, "B", matchID)).To(Succeed())

	// opponent still gets re-queued and notified
	g.Expect(f.waiting("A")).ToNot(BeNil())
	g.Expect(f.notifier.CountForSocket("sA", constants.EventMatchCancelled)).To(Equal(1))
	g.Expect(f.notifier.CountForSocket("sB", constants.EventMatchCancelled)).To(Equal(1))
}

func TestReadyCheck_SessionLogFailureIsNotFatal(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(nil)
	f.sessions.InsertErr = errors.New("disk full")

	matchID := proposeMatch(g, f)

	g.Expect(f.service.AcceptMatch(g.TestScope, "A", matchID)).To(Succeed())
	g.Expect(f.service.AcceptMatch(g.TestScope, "B", matchID)).To(Succeed())

	g.Expect(f.game.CallCount()).To(Equal(1))
	g.Expect(f.notifier.CountForSocket("sA", constants.EventMatchConfirmed)).To(Equal(1))
}

// lastEvent returns the most recent emission of event, or nil.
func lastEvent(events []testsetup.RecordedEvent, event string) *testsetup.RecordedEvent {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Event == event {
			return &events[i]
		}
	}
	return nil
}
