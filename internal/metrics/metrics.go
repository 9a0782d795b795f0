// Package metrics provides Prometheus counters for the annotation engine's
// optimistic operations.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels.
const (
	ResultCommitted  = "committed"
	ResultRolledBack = "rolled_back"
	ResultIgnored    = "ignored"
	ResultSuccess    = "success"
	ResultFailure    = "failure"
)

// Metrics contains all counters recorded by the engine. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	CreatesTotal       *prometheus.CounterVec
	StatusChangesTotal *prometheus.CounterVec
	RepliesTotal       *prometheus.CounterVec
	UploadsTotal       *prometheus.CounterVec
	RecordingsTotal    *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the counters and registers them on registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register viu metrics: %w", err)
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.CreatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viu_feedback_creates_total",
			Help: "Optimistic feedback creates partitioned by outcome.",
		},
		[]string{"kind", "result"},
	)
	m.StatusChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viu_status_changes_total",
			Help: "Optimistic resolve/reopen operations partitioned by outcome.",
		},
		[]string{"status", "result"},
	)
	m.RepliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viu_replies_total",
			Help: "Optimistic thread replies partitioned by outcome.",
		},
		[]string{"result"},
	)
	m.UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viu_audio_uploads_total",
			Help: "Audio asset uploads partitioned by outcome.",
		},
		[]string{"result"},
	)
	m.RecordingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viu_recordings_total",
			Help: "Microphone recording attempts partitioned by outcome.",
		},
		[]string{"result"},
	)
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.CreatesTotal.Describe(ch)
	m.StatusChangesTotal.Describe(ch)
	m.RepliesTotal.Describe(ch)
	m.UploadsTotal.Describe(ch)
	m.RecordingsTotal.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.CreatesTotal.Collect(ch)
	m.StatusChangesTotal.Collect(ch)
	m.RepliesTotal.Collect(ch)
	m.UploadsTotal.Collect(ch)
	m.RecordingsTotal.Collect(ch)
}

// Registry returns the registry the metrics were registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordCreate counts a settled optimistic create.
func (m *Metrics) RecordCreate(kind, result string) {
	if m == nil {
		return
	}
	m.CreatesTotal.WithLabelValues(kind, result).Inc()
}

// RecordStatusChange counts a settled resolve/reopen.
func (m *Metrics) RecordStatusChange(status, result string) {
	if m == nil {
		return
	}
	m.StatusChangesTotal.WithLabelValues(status, result).Inc()
}

// RecordReply counts a settled reply.
func (m *Metrics) RecordReply(result string) {
	if m == nil {
		return
	}
	m.RepliesTotal.WithLabelValues(result).Inc()
}

// RecordUpload counts an upload attempt result.
func (m *Metrics) RecordUpload(result string) {
	if m == nil {
		return
	}
	m.UploadsTotal.WithLabelValues(result).Inc()
}

// RecordRecording counts a microphone start attempt.
func (m *Metrics) RecordRecording(result string) {
	if m == nil {
		return
	}
	m.RecordingsTotal.WithLabelValues(result).Inc()
}
