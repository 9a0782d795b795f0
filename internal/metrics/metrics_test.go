package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCreate(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := New(registry)
	require.NoError(t, err)

	m.RecordCreate("TEXT", ResultCommitted)
	m.RecordCreate("TEXT", ResultCommitted)
	m.RecordCreate("AUDIO", ResultRolledBack)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CreatesTotal.WithLabelValues("TEXT", ResultCommitted)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CreatesTotal.WithLabelValues("AUDIO", ResultRolledBack)))
	assert.Same(t, registry, m.Registry())
}

func TestDoubleRegistrationFails(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := New(registry)
	require.NoError(t, err)

	_, err = New(registry)
	assert.Error(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCreate("TEXT", ResultCommitted)
		m.RecordStatusChange("RESOLVED", ResultRolledBack)
		m.RecordReply(ResultCommitted)
		m.RecordUpload(ResultFailure)
		m.RecordRecording(ResultSuccess)
	})
	assert.Nil(t, m.Registry())
}
