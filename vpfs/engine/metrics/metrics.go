// Package metrics exposes engine observability hooks. A NoopMetrics
// implementation is provided and used by default; a Prometheus adapter
// lives in the prom subpackage.
package metrics

// Tier labels used for cache-level observations.
const (
	TierPrimary = "primary"
	TierLRU     = "lru"
)

// Eviction reasons.
const (
	EvictCapacity = "capacity" // removed to satisfy the cost budget
	EvictWindow   = "window"   // removed by a pressure pass outside the window
	EvictOverflow = "overflow" // within-window eviction under a misconfigured budget
	EvictRecency  = "recency"  // strict LRU removal
)

// Decode outcomes.
const (
	DecodeCompleted = "completed"
	DecodeFailed    = "failed"
	DecodeCancelled = "cancelled"
	DecodeTimeout   = "timeout"
)

// Metrics receives engine and cache events. Implementations must be safe
// for concurrent use.
type Metrics interface {
	Hit(tier string)
	Miss()
	Evict(tier, reason string)
	Promote()
	Decode(outcome string)
	Size(tier string, entries int, cost int64)
	Pressure(state string)
}

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is safe for concurrent use and intended as the default when
// no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit(string)              {}
func (NoopMetrics) Miss()                   {}
func (NoopMetrics) Evict(string, string)    {}
func (NoopMetrics) Promote()                {}
func (NoopMetrics) Decode(string)           {}
func (NoopMetrics) Size(string, int, int64) {}
func (NoopMetrics) Pressure(string)         {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}
