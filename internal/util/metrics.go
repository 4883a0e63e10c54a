package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StockUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_updates_total",
		Help: "Total number of stock updates by reason",
	}, []string{"reason"})

	StockUpdateFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_update_failures_total",
		Help: "Total number of failed stock updates",
	}, []string{"reason"})

	StockAlertsRaisedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_alerts_raised_total",
		Help: "Total number of stock alerts raised",
	}, []string{"alert_type"})

	StockSweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_sweeps_total",
		Help: "Total number of stock sweep ticks",
	})

	StockSweepFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_sweep_failures_total",
		Help: "Total number of failed stock sweep ticks",
	})

	StockSweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_sweep_duration_seconds",
		Help:    "Duration of stock sweep ticks",
		Buckets: prometheus.DefBuckets,
	})

	ChatSessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_sessions_created_total",
		Help: "Total number of chat sessions created",
	})

	ChatSessionsClosedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_sessions_closed_total",
		Help: "Total number of chat sessions closed",
	}, []string{"reason"})

	ChatMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Total number of chat messages appended",
	}, []string{"sender_type"})

	ChatSessionsPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_sessions_purged_total",
		Help: "Total number of closed chat sessions purged from the registry",
	})

	ChatSweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_sweeps_total",
		Help: "Total number of chat sweep ticks",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
