// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"context"
	"sync"
	"time"

	"github.com/thetranscendence/matchmaking/pkg/envelope"
	"github.com/thetranscendence/matchmaking/pkg/models"
)

// RecordedEvent is one captured notifier emission.
type RecordedEvent struct {
	SocketID string // empty for broadcasts
	Event    string
	Payload  interface{}
}

// StubNotifier records emissions for assertions.
type StubNotifier struct {
	mu     sync.Mutex
	Events []RecordedEvent
}

func (n *StubNotifier) Emit(socketID string, event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, RecordedEvent{SocketID: socketID, Event: event, Payload: payload})
}

func (n *StubNotifier) Broadcast(event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, RecordedEvent{Event: event, Payload: payload})
}

// ForSocket returns the events emitted to one socket, in order.
func (n *StubNotifier) ForSocket(socketID string) []RecordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()

	var events []RecordedEvent
	for _, event := range n.Events {
		if event.SocketID == socketID {
			events = append(events, event)
		}
	}
	return events
}

// CountForSocket counts emissions of one event name to one socket.
func (n *StubNotifier) CountForSocket(socketID, event string) int {
	count := 0
	for _, recorded := range n.ForSocket(socketID) {
		if recorded.Event == event {
			count++
		}
	}
	return count
}

// RecordedPenalty is one captured AddPenalty call.
type RecordedPenalty struct {
	UserID   string
	Duration time.Duration
	Reason   string
}

// StubPenaltyStore keeps bans in memory.
type StubPenaltyStore struct {
	mu        sync.Mutex
	Active    map[string]*models.Penalty
	Recorded  []RecordedPenalty
	LookupErr error
	InsertErr error
}

func NewStubPenaltyStore() *StubPenaltyStore {
	return &StubPenaltyStore{Active: make(map[string]*models.Penalty)}
}

func (s *StubPenaltyStore) GetActivePenalty(_ context.Context, userID string) (*models.Penalty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LookupErr != nil {
		return nil, s.LookupErr
	}
	return s.Active[userID], nil
}

func (s *StubPenaltyStore) AddPenalty(_ context.Context, userID string, duration time.Duration, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertErr != nil {
		return s.InsertErr
	}
	s.Recorded = append(s.Recorded, RecordedPenalty{UserID: userID, Duration: duration, Reason: reason})
	s.Active[userID] = &models.Penalty{
		UserID:    userID,
		Reason:    reason,
		ExpiresAt: time.Now().Add(duration),
		CreatedAt: time.Now(),
	}
	return nil
}

// RecordedCalls snapshots the penalty writes seen so far.
func (s *StubPenaltyStore) RecordedCalls() []RecordedPenalty {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedPenalty(nil), s.Recorded...)
}

// StubSessionLog records started sessions.
type StubSessionLog struct {
	mu        sync.Mutex
	Entries   []models.SessionEntry
	InsertErr error
}

func (s *StubSessionLog) RecordStarted(_ context.Context, entry models.SessionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertErr != nil {
		return s.InsertErr
	}
	s.Entries = append(s.Entries, entry)
	return nil
}

// StubGameService returns a canned result and counts invocations.
type StubGameService struct {
	mu       sync.Mutex
	Result   models.CreateGameResult
	Requests []models.CreateGameRequest
}

func (s *StubGameService) CreateGame(_ *envelope.Scope, request models.CreateGameRequest) models.CreateGameResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, request)

	result := s.Result
	if result.Success && result.GameID == "" {
		result.GameID = request.GameID
	}
	return result
}

func (s *StubGameService) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}

// StubMetrics satisfies metrics.MatchmakingMetrics with no-ops.
type StubMetrics struct{}

func (StubMetrics) SetQueueSize(int)                 {}
func (StubMetrics) SetPendingMatches(int)            {}
func (StubMetrics) AddMatchProposed()                {}
func (StubMetrics) AddMatchConfirmed()               {}
func (StubMetrics) AddMatchCancelled(string)         {}
func (StubMetrics) AddGameClientFallback()           {}
func (StubMetrics) ObserveTickElapsed(time.Duration) {}
