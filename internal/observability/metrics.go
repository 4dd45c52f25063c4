// internal/observability/metrics.go

// Package observability holds the logger and prometheus metrics.
package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	bytesRead = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ifsmurd",
			Subsystem: "serial",
			Name:      "bytes_read_total",
			Help:      "Bytes read from the serial link.",
		},
	)
	readErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ifsmurd",
			Subsystem: "serial",
			Name:      "read_errors_total",
			Help:      "Failed reads from the serial link.",
		},
	)
	commandWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ifsmurd",
			Subsystem: "serial",
			Name:      "command_writes_total",
			Help:      "Out-of-band command writes to the serial link.",
		},
		[]string{"success"},
	)
	candidates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ifsmurd",
			Subsystem: "frames",
			Name:      "candidates_total",
			Help:      "Frames delimited by the synchronizer, by verdict.",
		},
		[]string{"verdict"},
	)
	syncDiscards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ifsmurd",
			Subsystem: "frames",
			Name:      "sync_discards_total",
			Help:      "Captures dropped by the synchronizer before validation.",
		},
		[]string{"reason"},
	)
	recordsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ifsmurd",
			Subsystem: "records",
			Name:      "published_total",
			Help:      "Records published on the fan-out channel.",
		},
	)
	recordsLagged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ifsmurd",
			Subsystem: "records",
			Name:      "lagged_total",
			Help:      "Records skipped by slow subscribers.",
		},
		[]string{"consumer"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ifsmurd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ifsmurd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	gateRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ifsmurd",
			Subsystem: "ingest",
			Name:      "gate_running",
			Help:      "1 while the control gate is at run.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			bytesRead,
			readErrors,
			commandWrites,
			candidates,
			syncDiscards,
			recordsPublished,
			recordsLagged,
			httpRequests,
			httpDuration,
			gateRunning,
		)
	})
}

func RecordRead(n int) {
	RegisterMetrics()
	bytesRead.Add(float64(n))
}

func RecordReadError() {
	RegisterMetrics()
	readErrors.Inc()
}

func RecordCommandWrite(success bool) {
	RegisterMetrics()
	if success {
		commandWrites.WithLabelValues("true").Inc()
		return
	}
	commandWrites.WithLabelValues("false").Inc()
}

func RecordCandidate(verdict string) {
	RegisterMetrics()
	candidates.WithLabelValues(verdict).Inc()
}

func RecordSyncDiscards(short, overruns uint64) {
	RegisterMetrics()
	if short > 0 {
		syncDiscards.WithLabelValues("short").Add(float64(short))
	}
	if overruns > 0 {
		syncDiscards.WithLabelValues("overrun").Add(float64(overruns))
	}
}

func RecordPublished() {
	RegisterMetrics()
	recordsPublished.Inc()
}

func RecordLagged(consumer string, skipped uint64) {
	RegisterMetrics()
	recordsLagged.WithLabelValues(consumer).Add(float64(skipped))
}

func SetGateRunning(run bool) {
	RegisterMetrics()
	if run {
		gateRunning.Set(1)
		return
	}
	gateRunning.Set(0)
}

func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	RegisterMetrics()
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
