package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Loop message outcomes.
const (
	OutcomeDecoded   = "decoded"
	OutcomeMalformed = "malformed"
)

var (
	registerOnce sync.Once

	loopMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "framelink",
			Subsystem: "loop",
			Name:      "messages_total",
			Help:      "Messages received by a poll loop, by decode outcome.",
		},
		[]string{"node", "loop", "outcome"},
	)
	loopIdlePolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "framelink",
			Subsystem: "loop",
			Name:      "idle_polls_total",
			Help:      "Non-blocking polls that found no message.",
		},
		[]string{"node", "loop"},
	)
	loopDecodeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "framelink",
			Subsystem: "loop",
			Name:      "decode_duration_seconds",
			Help:      "Decode and consume duration per message.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"node", "loop"},
	)
	commandsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "framelink",
			Subsystem: "commander",
			Name:      "commands_sent_total",
			Help:      "Commands broadcast, by command type.",
		},
		[]string{"command", "defaulted"},
	)
	jobsPushed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "framelink",
			Subsystem: "pusher",
			Name:      "jobs_pushed_total",
			Help:      "Jobs pushed to the queue channel.",
		},
		[]string{"version", "success"},
	)
	adminRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "framelink",
			Subsystem: "admin",
			Name:      "requests_total",
			Help:      "Admin HTTP requests by route template and status.",
		},
		[]string{"node", "route", "status"},
	)
	adminLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "framelink",
			Subsystem: "admin",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request latency by route template.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"node", "route"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			loopMessages,
			loopIdlePolls,
			loopDecodeDuration,
			commandsSent,
			jobsPushed,
			adminRequests,
			adminLatency,
		)
	})
}

func RecordLoopMessage(node, loop, outcome string, duration time.Duration) {
	RegisterMetrics()
	loopMessages.WithLabelValues(node, loop, outcome).Inc()
	loopDecodeDuration.WithLabelValues(node, loop).Observe(duration.Seconds())
}

func RecordIdlePoll(node, loop string) {
	RegisterMetrics()
	loopIdlePolls.WithLabelValues(node, loop).Inc()
}

func RecordCommandSent(command string, defaulted bool) {
	RegisterMetrics()
	commandsSent.WithLabelValues(command, strconv.FormatBool(defaulted)).Inc()
}

func RecordJobPushed(version string, success bool) {
	RegisterMetrics()
	jobsPushed.WithLabelValues(version, strconv.FormatBool(success)).Inc()
}

// RecordAdminRequest counts one admin request and observes its latency.
// route must be a registered route template, never a raw request path.
func RecordAdminRequest(node, route string, status int, latency time.Duration) {
	RegisterMetrics()
	adminRequests.WithLabelValues(node, route, strconv.Itoa(status)).Inc()
	adminLatency.WithLabelValues(node, route).Observe(latency.Seconds())
}
