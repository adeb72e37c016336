// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"errors"
)

var (
	ErrBanned         = errors.New("user has an active matchmaking penalty")
	ErrAlreadyQueued  = errors.New("user is already queued or in a pending match")
	ErrSocketBusy     = errors.New("socket already has a queued player")
	ErrMatchNotFound  = errors.New("pending match not found")
	ErrNotParticipant = errors.New("user is not a participant of this match")
	ErrInvalidPayload = errors.New("payload failed schema validation")
)

var errorCodeMap = map[error]int{
	ErrBanned:         420101,
	ErrAlreadyQueued:  420102,
	ErrSocketBusy:     420103,
	ErrMatchNotFound:  420104,
	ErrNotParticipant: 420105,
	ErrInvalidPayload: 420106,
}

// ErrorCode returns a code for the error.
// It returns 20002 if the error is not registered in the map.
func ErrorCode(err error) int {
	for registered, code := range errorCodeMap {
		if errors.Is(err, registered) {
			return code
		}
	}
	return 20002
}
