package metric

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()

	require.NotNil(t, registry.PrometheusRegistry())
	require.NotNil(t, registry.Metrics())
}

func TestCountersRecord(t *testing.T) {
	m := NewRegistry().Metrics()

	m.RecordMessageReceived()
	m.RecordMessageReceived()
	m.RecordParseError()
	m.RecordDeadLettered()
	m.RecordRowsExtracted(3)
	m.RecordRowsWritten(3)
	m.RecordSinkError()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesReceived))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeadLettered))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RowsExtracted))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RowsWritten))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkErrors))
}

func TestGaugesRecord(t *testing.T) {
	m := NewRegistry().Metrics()

	m.RecordPipelineState(1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PipelineState))

	m.RecordPipelineState(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PipelineState))

	m.RecordNATSStatus(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NATSConnected))

	m.RecordNATSStatus(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.NATSConnected))
}

func TestProcessingDurationObserves(t *testing.T) {
	registry := NewRegistry()
	m := registry.Metrics()

	m.RecordProcessingDuration(25 * time.Millisecond)
	m.RecordProcessingDuration(50 * time.Millisecond)

	count := testutil.CollectAndCount(m.ProcessingDuration)
	assert.Equal(t, 1, count)
}

func TestServerDefaults(t *testing.T) {
	server := NewServer(0, "", NewRegistry())

	assert.Equal(t, "http://localhost:9090/metrics", server.Address())
	assert.NoError(t, server.Stop())
}
