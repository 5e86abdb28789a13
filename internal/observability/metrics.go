package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ndefsync"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	monitorPolls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "polls_total",
			Help:      "Terminal detection cycles run by the monitor.",
		},
	)
	terminalChanges = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "terminal_changes_total",
			Help:      "Active terminal switches, including to and from none.",
		},
	)
	enumerationErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "enumeration_errors_total",
			Help:      "Reader enumeration failures swallowed by the poll loop.",
		},
	)
	tagStatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tag",
			Name:      "status_transitions_total",
			Help:      "Tag status transitions reported to observers.",
		},
		[]string{"status"},
	)
	arbiterOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "arbiter",
			Name:      "operations_total",
			Help:      "Tag reads and writes performed on tag-available events.",
		},
		[]string{"operation", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			monitorPolls,
			terminalChanges,
			enumerationErrors,
			tagStatusTransitions,
			arbiterOperations,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordPoll(enumerationFailed bool) {
	RegisterMetrics()
	monitorPolls.Inc()
	if enumerationFailed {
		enumerationErrors.Inc()
	}
}

func RecordTerminalChange() {
	RegisterMetrics()
	terminalChanges.Inc()
}

func RecordTagStatus(status string) {
	RegisterMetrics()
	tagStatusTransitions.WithLabelValues(status).Inc()
}

// RecordArbiterOperation counts one read, write or open-view step.
func RecordArbiterOperation(operation string, success bool) {
	RegisterMetrics()
	outcome := "ok"
	if !success {
		outcome = "failed"
	}
	arbiterOperations.WithLabelValues(operation, outcome).Inc()
}
