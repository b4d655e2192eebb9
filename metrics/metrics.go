package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riseandserve_events_created_total",
		Help: "Events created.",
	})

	EventsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riseandserve_events_deleted_total",
		Help: "Events deleted by their creator.",
	})

	JoinAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riseandserve_join_attempts_total",
		Help: "Join attempts by outcome.",
	}, []string{"outcome"})

	PassesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riseandserve_passes_issued_total",
		Help: "Digital passes issued by rendering format.",
	}, []string{"format"})

	ChatMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riseandserve_chat_messages_total",
		Help: "Discussion messages posted.",
	})

	ChatSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "riseandserve_chat_subscribers",
		Help: "Open discussion stream connections on this instance.",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "riseandserve_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
