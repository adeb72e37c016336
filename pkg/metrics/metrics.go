// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type MatchmakingMetrics interface {
	SetQueueSize(size int)
	SetPendingMatches(count int)
	AddMatchProposed()
	AddMatchConfirmed()
	AddMatchCancelled(reason string)
	AddGameClientFallback()
	ObserveTickElapsed(elapsed time.Duration)
}

func NewMetrics(registry *prometheus.Registry) MatchmakingMetrics {
	return setupPrometheusMetrics(registry)
}
