package rpc

import (
	"fmt"
	"time"

	"github.com/marmos91/ndrctl/internal/metrics"
)

// activeMetrics is the process-wide RPC metrics sink. Nil until
// SetMetrics is called, at which point Bind/BindNegotiated/Call/
// LookupAndBind begin recording observations.
var activeMetrics *metrics.RPCMetrics

// SetMetrics installs m as the process-wide metrics sink; every
// observation made after this call, on any binding, goes to m. Pass nil
// to disable.
func SetMetrics(m *metrics.RPCMetrics) {
	activeMetrics = m
}

func observeBind(syn string, ok bool) {
	if activeMetrics != nil {
		activeMetrics.ObserveBind(syn, ok)
	}
}

func observeCall(procnum uint32, ok bool, since time.Time) {
	if activeMetrics != nil {
		activeMetrics.ObserveCall(fmt.Sprintf("%d", procnum), ok, float64(time.Since(since).Milliseconds()))
	}
}

func observeFault(rpcStatus uint32) {
	if activeMetrics != nil {
		activeMetrics.ObserveFault(fmt.Sprintf("%d", rpcStatus))
	}
}

func observeEpmapLookup(ok bool) {
	if activeMetrics != nil {
		activeMetrics.ObserveEpmapLookup(ok)
	}
}
