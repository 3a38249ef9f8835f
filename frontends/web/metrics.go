/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatops_chat_requests_total",
			Help: "Chat submissions handled, by outcome",
		},
		[]string{"outcome"},
	)

	chatDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatops_chat_request_duration_seconds",
			Help:    "Time from a chat submission to its final reply",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatops_sessions",
			Help: "Chat sessions held in memory",
		},
	)
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)
