package metrics_test

import (
	"testing"

	"github.com/benmeehan/trailprint/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObservePushes(t *testing.T) {
	m := metrics.New(metrics.HostConfig{}, zerolog.Nop())

	m.ObservePushes(4, 6)
	m.ObservePushes(1, 1)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.TraccarPushes.WithLabelValues("accepted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TraccarPushes.WithLabelValues("failed")))
}

func TestMetrics_RegistryGathers(t *testing.T) {
	m := metrics.New(metrics.HostConfig{}, zerolog.Nop())
	m.Reports.WithLabelValues("/location/", "success").Inc()
	m.DocumentsPrinted.Inc()

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["trailprint_reports_total"])
	assert.True(t, names["trailprint_documents_printed_total"])
	assert.False(t, names["trailprint_host_memory_percent"])
}

func TestHostConfig_Enabled(t *testing.T) {
	assert.False(t, metrics.HostConfig{DiskPath: "/data"}.Enabled())
	assert.True(t, metrics.HostConfig{MonitorDisk: true}.Enabled())
}

func TestHostCollector_Collect(t *testing.T) {
	collector := metrics.NewHostCollector(metrics.HostConfig{
		MonitorMemory: true,
		MonitorDisk:   true,
		DiskPath:      t.TempDir(),
	}, zerolog.Nop())

	assert.Equal(t, 2, testutil.CollectAndCount(collector))
}

func TestHostCollector_Disabled(t *testing.T) {
	collector := metrics.NewHostCollector(metrics.HostConfig{}, zerolog.Nop())

	assert.Equal(t, 0, testutil.CollectAndCount(collector))
}
