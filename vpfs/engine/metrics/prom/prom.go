package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/engine/metrics"
)

// Adapter implements metrics.Metrics and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits      *prometheus.CounterVec
	misses    prometheus.Counter
	evicts    *prometheus.CounterVec
	promotes  prometheus.Counter
	decodes   *prometheus.CounterVec
	sizeEnt   *prometheus.GaugeVec
	sizeCost  *prometheus.GaugeVec
	pressures *prometheus.CounterVec
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Cache hits by tier",
			ConstLabels: constLabels,
		}, []string{"tier"}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Cache misses",
			ConstLabels: constLabels,
		}),
		evicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "evictions_total",
			Help:        "Cache evictions by tier and reason",
			ConstLabels: constLabels,
		}, []string{"tier", "reason"}),
		promotes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "promotions_total",
			Help:        "Entries promoted from the LRU tier back to primary",
			ConstLabels: constLabels,
		}),
		decodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "decodes_total",
			Help:        "Decode attempts by outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		sizeEnt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_entries",
			Help:        "Number of resident entries by tier",
			ConstLabels: constLabels,
		}, []string{"tier"}),
		sizeCost: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_cost_bytes",
			Help:        "Total resident cost in bytes by tier",
			ConstLabels: constLabels,
		}, []string{"tier"}),
		pressures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "pressure_transitions_total",
			Help:        "Memory pressure state transitions",
			ConstLabels: constLabels,
		}, []string{"state"}),
	}
	reg.MustRegister(a.hits, a.misses, a.evicts, a.promotes, a.decodes, a.sizeEnt, a.sizeCost, a.pressures)
	return a
}

// Hit increments the hit counter for a tier.
func (a *Adapter) Hit(tier string) { a.hits.WithLabelValues(tier).Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Evict increments the eviction counter with tier and reason labels.
func (a *Adapter) Evict(tier, reason string) { a.evicts.WithLabelValues(tier, reason).Inc() }

// Promote increments the LRU-to-primary promotion counter.
func (a *Adapter) Promote() { a.promotes.Inc() }

// Decode increments the decode counter with an outcome label.
func (a *Adapter) Decode(outcome string) { a.decodes.WithLabelValues(outcome).Inc() }

// Size updates gauges for the number of entries and total cost of a tier.
func (a *Adapter) Size(tier string, entries int, cost int64) {
	a.sizeEnt.WithLabelValues(tier).Set(float64(entries))
	a.sizeCost.WithLabelValues(tier).Set(float64(cost))
}

// Pressure counts a transition into the given pressure state.
func (a *Adapter) Pressure(state string) { a.pressures.WithLabelValues(state).Inc() }

// Compile-time check: ensure Adapter implements metrics.Metrics.
var _ metrics.Metrics = (*Adapter)(nil)
