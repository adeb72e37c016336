// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package models

// Outbound event payloads. Field names mirror the wire contract, so
// they are fixed by the json tags below.

type QueueJoinedPayload struct {
	UserID    string `json:"userId"`
	Elo       int    `json:"elo"`
	Timestamp int64  `json:"timestamp"`
	Priority  bool   `json:"priority,omitempty"`
}

type QueueLeftPayload struct {
	UserID    string `json:"userId"`
	Timestamp int64  `json:"timestamp"`
}

type MatchProposalPayload struct {
	MatchID     string `json:"matchId"`
	ExpiresAt   int64  `json:"expiresAt"`
	OpponentElo int    `json:"opponentElo"`
}

type MatchConfirmedPayload struct {
	GameID    string `json:"gameId"`
	Player1ID string `json:"player1Id"`
	Player2ID string `json:"player2Id"`
}

type MatchFailedPayload struct {
	MatchID   string `json:"matchId"`
	Reason    string `json:"reason"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

type MatchCancelledPayload struct {
	MatchID string `json:"matchId"`
	Reason  string `json:"reason"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
