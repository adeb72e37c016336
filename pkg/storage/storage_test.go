// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thetranscendence/matchmaking/pkg/constants"
	"github.com/thetranscendence/matchmaking/pkg/models"
)

func openTestDB(t *testing.T) (*Penalties, *Sessions) {
	t.Helper()

	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPenalties(db), NewSessions(db)
}

func TestPenalties_AddAndLookup(t *testing.T) {
	penalties, _ := openTestDB(t)
	ctx := context.Background()

	active, err := penalties.GetActivePenalty(ctx, "A")
	require.NoError(t, err)
	require.Nil(t, active)

	require.NoError(t, penalties.AddPenalty(ctx, "A", 5*time.Minute, "Matchmaking abuse: declined"))

	active, err = penalties.GetActivePenalty(ctx, "A")
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, "A", active.UserID)
	require.Equal(t, "Matchmaking abuse: declined", active.Reason)
	require.True(t, active.ExpiresAt.After(time.Now()))
}

func TestPenalties_ExpiredBanIsInvisible(t *testing.T) {
	penalties, _ := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, penalties.AddPenalty(ctx, "A", -time.Minute, "Matchmaking abuse: timeout"))

	active, err := penalties.GetActivePenalty(ctx, "A")
	require.NoError(t, err)
	require.Nil(t, active)
}

func TestPenalties_CachedLookupSurvivesRepeatedCalls(t *testing.T) {
	penalties, _ := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, penalties.AddPenalty(ctx, "A", 5*time.Minute, "Matchmaking abuse: declined"))

	first, err := penalties.GetActivePenalty(ctx, "A")
	require.NoError(t, err)
	second, err := penalties.GetActivePenalty(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestSessions_RecordAndList(t *testing.T) {
	_, sessions := openTestDB(t)
	ctx := context.Background()

	entry := models.SessionEntry{
		ID:        "b8e5cdef-93f9-4f8c-8d8a-1f2e3d4c5b6a",
		Player1ID: "A",
		Player2ID: "B",
		Status:    constants.SessionStatusStarted,
		StartedAt: time.Now(),
	}
	require.NoError(t, sessions.RecordStarted(ctx, entry))

	recent, err := sessions.RecentSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, entry.ID, recent[0].ID)
	require.Equal(t, constants.SessionStatusStarted, recent[0].Status)
	require.Nil(t, recent[0].EndedAt)
}

func TestSessions_MarkEnded(t *testing.T) {
	_, sessions := openTestDB(t)
	ctx := context.Background()

	entry := models.SessionEntry{
		ID:        "b8e5cdef-93f9-4f8c-8d8a-1f2e3d4c5b6b",
		Player1ID: "A",
		Player2ID: "B",
		Status:    constants.SessionStatusStarted,
		StartedAt: time.Now(),
	}
	require.NoError(t, sessions.RecordStarted(ctx, entry))
	require.NoError(t, sessions.MarkEnded(ctx, entry.ID, constants.SessionStatusEnded))

	recent, err := sessions.RecentSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, constants.SessionStatusEnded, recent[0].Status)
	require.NotNil(t, recent[0].EndedAt)
}
