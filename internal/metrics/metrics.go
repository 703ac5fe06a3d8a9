// Package metrics exposes the Prometheus counters the drone and endpoint
// runtimes increment on every terminal packet outcome, grounded on
// postalsys-Muti-Metroo's internal/rpc.metrics.go use of
// prometheus/client_golang for agent-level counters.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles the counters a fleet exposes on its /metrics endpoint.
// A nil *Registry is valid everywhere it's used: every method degrades to
// a no-op so unit tests don't need a prometheus registry wired up.
type Registry struct {
	PacketsTotal     *prometheus.CounterVec
	SendDropsTotal   prometheus.Counter
	FloodsInitiated  prometheus.Counter
	FloodsForwarded  prometheus.Counter
}

// NewRegistry creates and registers a fresh Registry against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		PacketsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netsim",
			Subsystem: "drone",
			Name:      "packets_total",
			Help:      "Packets handled by drones, partitioned by terminal outcome.",
		}, []string{"outcome"}),
		SendDropsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netsim",
			Name:      "send_drops_total",
			Help:      "Packets lost because a neighbor's inbound channel was full.",
		}),
		FloodsInitiated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netsim",
			Subsystem: "flood",
			Name:      "initiated_total",
			Help:      "Floods initiated by clients or servers.",
		}),
		FloodsForwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netsim",
			Subsystem: "flood",
			Name:      "forwarded_total",
			Help:      "FloodRequests re-broadcast by drones.",
		}),
	}
	reg.MustRegister(r.PacketsTotal, r.SendDropsTotal, r.FloodsInitiated, r.FloodsForwarded)
	return r
}

// ObservePacket increments the packets-by-outcome counter. Safe to call on
// a nil Registry.
func (r *Registry) ObservePacket(outcome string) {
	if r == nil {
		return
	}
	r.PacketsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSendDrop increments the send-drop counter. Safe to call on a nil
// Registry.
func (r *Registry) ObserveSendDrop() {
	if r == nil {
		return
	}
	r.SendDropsTotal.Inc()
}

// ObserveFloodInitiated increments the flood-initiated counter. Safe to
// call on a nil Registry.
func (r *Registry) ObserveFloodInitiated() {
	if r == nil {
		return
	}
	r.FloodsInitiated.Inc()
}

// ObserveFloodForwarded increments the flood-forwarded counter. Safe to
// call on a nil Registry.
func (r *Registry) ObserveFloodForwarded() {
	if r == nil {
		return
	}
	r.FloodsForwarded.Inc()
}
