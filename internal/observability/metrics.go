package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScenesEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "homewatch",
		Name:      "scenes_evaluated_total",
		Help:      "Total number of scenes run through the rule evaluator",
	})

	AlertsFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homewatch",
		Name:      "alerts_fired_total",
		Help:      "Total number of alerts fired, by rule and severity",
	}, []string{"rule_id", "severity"})

	AlertsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homewatch",
		Name:      "alerts_suppressed_total",
		Help:      "Total number of rule matches suppressed by cooldown",
	}, []string{"rule_id"})

	MessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homewatch",
		Name:      "messages_processed_total",
		Help:      "Total number of inbound messages dispatched, by intent",
	}, []string{"intent"})

	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homewatch",
		Name:      "messages_sent_total",
		Help:      "Total number of outbound messages, by transport and result",
	}, []string{"transport", "result"})

	RedactionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "homewatch",
		Name:      "redactions_total",
		Help:      "Total number of phrases redacted from outgoing messages",
	})

	ScenesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "homewatch",
		Name:      "scenes_ingested_total",
		Help:      "Total number of scene reports bridged from cameras",
	}, []string{"camera_id"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "homewatch",
		Name:      "llm_request_duration_seconds",
		Help:      "Duration of LLM collaborator calls",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"op"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "homewatch",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "homewatch",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "homewatch",
		Name:      "scene_queue_depth",
		Help:      "Number of scene tasks pending in the SCENES stream",
	})
)
