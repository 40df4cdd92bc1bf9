package manager

import "sync/atomic"

// KernelMetrics is a point-in-time snapshot of kernel-wide counters (see
// DESIGN.md's SUPPLEMENTED FEATURES).
type KernelMetrics struct {
	PluginsLoaded       uint64
	CapabilitiesGranted uint64
	ChecksPerformed     uint64
	ChecksDenied        uint64
	MessagesDelivered   uint64
}

// metricsCounters holds the live atomic counters a Manager updates as it
// runs; Snapshot produces the immutable KernelMetrics value callers see.
type metricsCounters struct {
	pluginsLoaded       atomic.Uint64
	capabilitiesGranted atomic.Uint64
	checksPerformed     atomic.Uint64
	checksDenied        atomic.Uint64
	messagesDelivered   atomic.Uint64
}

// RecordCheck implements checker.MetricsSink: every terminal check outcome,
// from any plugin, is counted here regardless of who triggered it (the
// manager itself on Send, or a host function on a guest's behalf).
func (m *metricsCounters) RecordCheck(allowed bool) {
	m.checksPerformed.Add(1)
	if !allowed {
		m.checksDenied.Add(1)
	}
}

func (m *metricsCounters) snapshot() KernelMetrics {
	return KernelMetrics{
		PluginsLoaded:       m.pluginsLoaded.Load(),
		CapabilitiesGranted: m.capabilitiesGranted.Load(),
		ChecksPerformed:     m.checksPerformed.Load(),
		ChecksDenied:        m.checksDenied.Load(),
		MessagesDelivered:   m.messagesDelivered.Load(),
	}
}
