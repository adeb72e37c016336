// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type prometheusMetrics struct {
	queueSize           prometheus.Gauge
	pendingMatches      prometheus.Gauge
	matchesProposed     prometheus.Counter
	matchesConfirmed    prometheus.Counter
	matchesCancelled    prometheus.CounterVec
	gameClientFallbacks prometheus.Counter
	tickElapsedTime     prometheus.Histogram
}

func setupPrometheusMetrics(registry *prometheus.Registry) prometheusMetrics {
	factory := promauto.With(registry)

	queueSize := factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "mm_queue_size",
			Help: "Number of players currently waiting in the matchmaking queue",
		})

	pendingMatches := factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "mm_pending_matches",
			Help: "Number of matches currently waiting for the ready check",
		})

	matchesProposed := factory.NewCounter(
		prometheus.CounterOpts{
			Name: "mm_matches_proposed_total",
			Help: "Total number of match proposals emitted by the matcher",
		})

	matchesConfirmed := factory.NewCounter(
		prometheus.CounterOpts{
			Name: "mm_matches_confirmed_total",
			Help: "Total number of matches confirmed after mutual accept",
		})

	matchesCancelled := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mm_matches_cancelled_total",
			Help: "Total number of cancelled pending matches by reason",
		}, []string{"reason"})

	gameClientFallbacks := factory.NewCounter(
		prometheus.CounterOpts{
			Name: "mm_game_client_fallbacks_total",
			Help: "Total number of game service calls that resolved to the fallback result",
		})

	//nolint:promlinter
	tickElapsedTime := factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mm_tick_elapsed_time_ms",
			Help:    "A histogram of matcher tick elapsed time in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		})

	return prometheusMetrics{
		queueSize:           queueSize,
		pendingMatches:      pendingMatches,
		matchesProposed:     matchesProposed,
		matchesConfirmed:    matchesConfirmed,
		matchesCancelled:    *matchesCancelled,
		gameClientFallbacks: gameClientFallbacks,
		tickElapsedTime:     tickElapsedTime,
	}
}

func (metrics prometheusMetrics) SetQueueSize(size int) {
	metrics.queueSize.Set(float64(size))
}

func (metrics prometheusMetrics) SetPendingMatches(count int) {
	metrics.pendingMatches.Set(float64(count))
}

func (metrics prometheusMetrics) AddMatchProposed() {
	metrics.matchesProposed.Inc()
}

func (metrics prometheusMetrics) AddMatchConfirmed() {
	metrics.matchesConfirmed.Inc()
}

func (metrics prometheusMetrics) AddMatchCancelled(reason string) {
	metrics.matchesCancelled.With(prometheus.Labels{"reason": reason}).Inc()
}

func (metrics prometheusMetrics) AddGameClientFallback() {
	metrics.gameClientFallbacks.Inc()
}

func (metrics prometheusMetrics) ObserveTickElapsed(elapsed time.Duration) {
	metrics.tickElapsedTime.Observe(float64(elapsed.Milliseconds()))
}
