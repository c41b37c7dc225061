package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestNewRPCMetricsNilWhenDisabled(t *testing.T) {
	mu.Lock()
	registry, enabled = nil, false
	mu.Unlock()

	require.Nil(t, NewRPCMetrics())
}

func TestRPCMetricsRecordsObservations(t *testing.T) {
	InitRegistry()
	defer func() {
		mu.Lock()
		registry, enabled = nil, false
		mu.Unlock()
	}()

	m := NewRPCMetrics()
	require.NotNil(t, m)

	m.ObserveBind("DCE", true)
	m.ObserveCall("3", true, 12.5)
	m.ObserveFault("1753")
	m.ObserveEpmapLookup(true)

	families, err := GetRegistry().Gather()
	require.NoError(t, err)
	require.True(t, hasMetricFamily(families, "ndr_rpc_binds_total"))
	require.True(t, hasMetricFamily(families, "ndr_rpc_calls_total"))
	require.True(t, hasMetricFamily(families, "ndr_rpc_faults_total"))
	require.True(t, hasMetricFamily(families, "ndr_rpc_epmap_lookups_total"))
}

func hasMetricFamily(families []*dto.MetricFamily, name string) bool {
	for _, f := range families {
		if f.GetName() == name {
			return true
		}
	}
	return false
}
