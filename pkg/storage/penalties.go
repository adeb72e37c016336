// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/thetranscendence/matchmaking/pkg/constants"
	"github.com/thetranscendence/matchmaking/pkg/models"
)

// Penalties reads and writes queue bans. Active lookups go through a
// small read cache so the hot addPlayer path does not hit sqlite on
// every join attempt.
type Penalties struct {
	db      *sql.DB
	cache   *gocache.Cache
	entropy *rand.Rand
}

func NewPenalties(db *sql.DB) *Penalties {
	return &Penalties{
		db:      db,
		cache:   gocache.New(constants.PenaltyCacheTTL, 2*constants.PenaltyCacheTTL),
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GetActivePenalty returns the latest penalty for userID whose
// expires_at lies in the future, or nil when the user is clean.
func (p *Penalties) GetActivePenalty(ctx context.Context, userID string) (*models.Penalty, error) {
	if cached, found := p.cache.Get(userID); found {
		penalty := cached.(*models.Penalty)
		if penalty.ExpiresAt.After(time.Now()) {
			return penalty, nil
		}
		p.cache.Delete(userID)
	}

	row := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, reason, expires_at, created_at
		FROM penalties
		WHERE user_id = ? AND expires_at > ?
		ORDER BY expires_at DESC
		LIMIT 1`,
		userID, time.Now())

	var penalty models.Penalty
	err := row.Scan(&penalty.ID, &penalty.UserID, &penalty.Reason, &penalty.ExpiresAt, &penalty.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active penalty: %w", err)
	}

	p.cache.Set(userID, &penalty, cacheTTLUntil(penalty.ExpiresAt))

	return &penalty, nil
}

// AddPenalty inserts a ban lasting duration from now.
func (p *Penalties) AddPenalty(ctx context.Context, userID string, duration time.Duration, reason string) error {
	now := time.Now()
	id := ulid.MustNew(ulid.Timestamp(now), p.entropy).String()

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO penalties (id, user_id, reason, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, userID, reason, now.Add(duration), now)
	if err != nil {
		return fmt.Errorf("failed to insert penalty: %w", err)
	}

	// drop any stale cached verdict for this user
	p.cache.Delete(userID)

	logrus.WithFields(logrus.Fields{
		"userID":   userID,
		"reason":   reason,
		"duration": duration,
	}).Info("penalty recorded")

	return nil
}

// cacheTTLUntil clamps the cache TTL so a cached penalty never
// outlives its expiry.
func cacheTTLUntil(expiresAt time.Time) time.Duration {
	remaining := time.Until(expiresAt)
	if remaining < constants.PenaltyCacheTTL {
		return remaining
	}
	return constants.PenaltyCacheTTL
}
