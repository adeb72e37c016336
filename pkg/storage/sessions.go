// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/thetranscendence/matchmaking/pkg/models"
)

// Sessions is the append-mostly history of started matches.
type Sessions struct {
	db *sql.DB
}

func NewSessions(db *sql.DB) *Sessions {
	return &Sessions{db: db}
}

func (s *Sessions) RecordStarted(ctx context.Context, entry models.SessionEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matchmaking_sessions (id, player_1_id, player_2_id, status, started_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Player1ID, entry.Player2ID, entry.Status, entry.StartedAt, entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *Sessions) MarkEnded(ctx context.Context, id string, status string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE matchmaking_sessions SET status = ?, ended_at = ? WHERE id = ?`,
		status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark session ended: %w", err)
	}
	return nil
}

func (s *Sessions) RecentSessions(ctx context.Context, limit int) ([]models.SessionEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, player_1_id, player_2_id, status, started_at, ended_at, metadata
		FROM matchmaking_sessions
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var entries []models.SessionEntry
	for rows.Next() {
		var entry models.SessionEntry
		var endedAt sql.NullTime
		if err := rows.Scan(&entry.ID, &entry.Player1ID, &entry.Player2ID, &entry.Status,
			&entry.StartedAt, &endedAt, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		if endedAt.Valid {
			entry.EndedAt = &endedAt.Time
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
