package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RateLimitWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "krakenkit_ratelimit_wait_seconds",
		Help:    "Time spent waiting for rate limit admission",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"category"})

	RateLimitUsage = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "krakenkit_ratelimit_usage",
		Help: "Decay bucket usage after the last admitted call",
	}, []string{"category"})

	RateLimitCancelled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "krakenkit_ratelimit_cancelled_total",
		Help: "Acquire calls abandoned because their context ended",
	}, []string{"category"})

	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "krakenkit_rest_requests_total",
		Help: "REST requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	RequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "krakenkit_rest_request_duration_seconds",
		Help:    "REST round trip latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	FramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "krakenkit_ws_frames_total",
		Help: "Inbound WebSocket frames by protocol version and classification result",
	}, []string{"version", "kind"})
)
