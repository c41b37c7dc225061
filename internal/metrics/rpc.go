package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RPCMetrics is the Prometheus instrumentation for the binding and call
// layers of internal/rpc.
type RPCMetrics struct {
	bindsTotal   *prometheus.CounterVec
	callsTotal   *prometheus.CounterVec
	faultsTotal  *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	epmapLookups *prometheus.CounterVec
}

// NewRPCMetrics creates the Prometheus-backed RPC metrics instance.
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewRPCMetrics() *RPCMetrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()

	return &RPCMetrics{
		bindsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ndr_rpc_binds_total",
				Help: "Total number of bind attempts by transfer syntax and outcome",
			},
			[]string{"syntax", "outcome"},
		),
		callsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ndr_rpc_calls_total",
				Help: "Total number of calls by procedure and outcome",
			},
			[]string{"procnum", "outcome"},
		),
		faultsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ndr_rpc_faults_total",
				Help: "Total number of fault replies by RPC status",
			},
			[]string{"rpc_status"},
		),
		callDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ndr_rpc_call_duration_milliseconds",
				Help:    "Duration of a bound call's send-wait-receive exchange",
				Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
			},
			[]string{"procnum"},
		),
		epmapLookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ndr_rpc_epmap_lookups_total",
				Help: "Total number of endpoint-mapper lookups by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveBind records a bind attempt's outcome.
func (m *RPCMetrics) ObserveBind(syntax string, ok bool) {
	if m == nil {
		return
	}
	m.bindsTotal.WithLabelValues(syntax, outcomeLabel(ok)).Inc()
}

// ObserveCall records a call's outcome and duration.
func (m *RPCMetrics) ObserveCall(procnum string, ok bool, durationMillis float64) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(procnum, outcomeLabel(ok)).Inc()
	m.callDuration.WithLabelValues(procnum).Observe(durationMillis)
}

// ObserveFault records a fault reply's RPC status.
func (m *RPCMetrics) ObserveFault(rpcStatus string) {
	if m == nil {
		return
	}
	m.faultsTotal.WithLabelValues(rpcStatus).Inc()
}

// ObserveEpmapLookup records an endpoint-mapper lookup's outcome.
func (m *RPCMetrics) ObserveEpmapLookup(ok bool) {
	if m == nil {
		return
	}
	m.epmapLookups.WithLabelValues(outcomeLabel(ok)).Inc()
}

func outcomeLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
