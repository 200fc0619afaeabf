package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesDecoded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "domesctl",
			Subsystem: "frame",
			Name:      "decoded_total",
			Help:      "Frames decoded successfully from the transport.",
		},
	)
	frameErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "domesctl",
			Subsystem: "frame",
			Name:      "errors_total",
			Help:      "Frame decode failures by reason.",
		},
		[]string{"reason"},
	)
	commandTimeouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "domesctl",
			Subsystem: "protocol",
			Name:      "timeouts_total",
			Help:      "Commands that expired waiting for a reply frame.",
		},
	)
	dumpChunks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "domesctl",
			Subsystem: "trace",
			Name:      "dump_chunks_total",
			Help:      "DATA chunks received during trace dumps.",
		},
	)
	dumpDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "domesctl",
			Subsystem: "trace",
			Name:      "dump_duration_seconds",
			Help:      "Wall time of complete dump transactions.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesDecoded, frameErrors, commandTimeouts, dumpChunks, dumpDuration)
	})
}

func RecordFrameDecoded() {
	RegisterMetrics()
	framesDecoded.Inc()
}

func RecordFrameError(reason string) {
	RegisterMetrics()
	frameErrors.WithLabelValues(reason).Inc()
}

func RecordCommandTimeout() {
	RegisterMetrics()
	commandTimeouts.Inc()
}

func RecordDumpChunk() {
	RegisterMetrics()
	dumpChunks.Inc()
}

func RecordDump(duration time.Duration) {
	RegisterMetrics()
	dumpDuration.Observe(duration.Seconds())
}
