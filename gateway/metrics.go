// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	promChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatwindows_gateway_chat_requests_total",
			Help: "Total number of chat requests by outcome",
		},
		[]string{"status"},
	)
	promStreamDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatwindows_gateway_stream_duration_milliseconds",
			Help:    "Duration of relayed chat streams in milliseconds",
			Buckets: []float64{100, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000},
		},
	)
	promQuotaRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatwindows_gateway_quota_rejections_total",
			Help: "Total number of requests rejected because the daily quota and credits were exhausted",
		},
	)
	promWebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatwindows_gateway_webhook_events_total",
			Help: "Total number of billing webhook events by type and outcome",
		},
		[]string{"event_type", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(promChatRequestsTotal)
	prometheus.MustRegister(promStreamDuration)
	prometheus.MustRegister(promQuotaRejections)
	prometheus.MustRegister(promWebhookEvents)
}
