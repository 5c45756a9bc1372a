// Package cache implements the two-tier payload store: a cost-bounded
// primary tier protecting the window, and a strict-recency LRU tier that
// absorbs primary evictions. Both tiers are owner-confined: they are plain
// structs mutated only on the loader goroutine and carry no locking.
package cache

import (
	"errors"
	"log/slog"

	roaring "github.com/RoaringBitmap/roaring"
	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/engine/metrics"
)

// ErrCacheOverflow reports a budget misconfigured smaller than one window's
// worth of content. Surfaced once; the cache then degrades by evicting
// within-window entries rather than violating the budget invariant.
var ErrCacheOverflow = errors.New("cache budget smaller than window footprint")

// Primary is the cost-based cache tier. Invariant: TotalCost() <= budget
// after every mutating call.
type Primary struct {
	budget    int64
	entries   map[uuid.UUID]*Entry
	resident  *roaring.Bitmap // ordinals of resident entries
	totalCost int64

	// overflowWarned keeps the misconfiguration warning to a single report.
	overflowWarned bool

	metrics metrics.Metrics
}

// NewPrimary constructs the primary tier with the given cost budget.
func NewPrimary(budgetBytes int64, m metrics.Metrics) *Primary {
	if m == nil {
		m = metrics.NoopMetrics{}
	}
	return &Primary{
		budget:   budgetBytes,
		entries:  make(map[uuid.UUID]*Entry),
		resident: roaring.New(),
		metrics:  m,
	}
}

// Get returns the entry for id, refreshing its access time.
func (p *Primary) Get(id uuid.UUID) *Entry {
	e, ok := p.entries[id]
	if !ok {
		return nil
	}
	e.LastAccess = now()
	p.metrics.Hit(metrics.TierPrimary)
	return e
}

// Has reports residency without refreshing access time.
func (p *Primary) Has(id uuid.UUID) bool {
	_, ok := p.entries[id]
	return ok
}

// Insert adds an entry and enforces the budget, returning any evicted
// entries so the caller can offer them to the LRU tier. The returned error
// is ErrCacheOverflow exactly once when the budget cannot hold the window.
func (p *Primary) Insert(e *Entry, view View) ([]*Entry, error) {
	if old, ok := p.entries[e.Ref.ID]; ok {
		p.totalCost -= old.Cost
	} else {
		p.resident.Add(uint32(e.Ref.Ordinal))
	}
	p.entries[e.Ref.ID] = e
	p.totalCost += e.Cost

	evicted, overflowed := p.enforceBudget(e, view)
	p.publishSize()

	if overflowed && !p.overflowWarned {
		p.overflowWarned = true
		slog.Warn("Cache budget smaller than window footprint, evicting within window",
			"budget_bytes", p.budget,
			"entry_cost", e.Cost)
		return evicted, ErrCacheOverflow
	}
	return evicted, nil
}

// enforceBudget evicts until the cost invariant holds. Victims are chosen
// outside the window first, farthest from the current index; within-window
// eviction (oldest access first) only happens when the window itself
// exceeds the budget.
func (p *Primary) enforceBudget(justInserted *Entry, view View) ([]*Entry, bool) {
	var evicted []*Entry
	overflowed := false

	for p.totalCost > p.budget {
		victim := p.pickOutsideWindow(view)
		reason := metrics.EvictCapacity
		if victim == nil {
			victim = p.pickOldestInWindow(justInserted)
			reason = metrics.EvictOverflow
			overflowed = true
		}
		if victim == nil {
			// Only the just-inserted entry remains and it alone exceeds the
			// budget. Drop it rather than violate the invariant.
			victim = justInserted
			reason = metrics.EvictOverflow
			overflowed = true
		}
		p.delete(victim)
		p.metrics.Evict(metrics.TierPrimary, reason)
		evicted = append(evicted, victim)
	}
	return evicted, overflowed
}

// pickOutsideWindow returns the resident entry outside the window with the
// largest distance from the current index, or nil if every entry is inside.
func (p *Primary) pickOutsideWindow(view View) *Entry {
	var victim *Entry
	victimDist := -1
	for _, e := range p.entries {
		if view.InWindow(e.Ref.Ordinal) {
			continue
		}
		if d := view.Distance(e.Ref.Ordinal); d > victimDist {
			victim = e
			victimDist = d
		}
	}
	return victim
}

// pickOldestInWindow returns the least-recently-accessed entry, excluding
// the entry just inserted so a single insert cannot evict itself while
// older entries remain.
func (p *Primary) pickOldestInWindow(exclude *Entry) *Entry {
	var victim *Entry
	for _, e := range p.entries {
		if e == exclude {
			continue
		}
		if victim == nil || e.LastAccess.Before(victim.LastAccess) {
			victim = e
		}
	}
	return victim
}

// Remove deletes and returns the entry for id, or nil if absent.
func (p *Primary) Remove(id uuid.UUID) *Entry {
	e, ok := p.entries[id]
	if !ok {
		return nil
	}
	p.delete(e)
	p.publishSize()
	return e
}

// TrimOutside evicts outside-window entries farthest-first until the total
// cost drops to targetCost (or no exterior entries remain). Used by the
// pressure monitor's normal cleanup pass.
func (p *Primary) TrimOutside(view View, targetCost int64) []*Entry {
	var evicted []*Entry
	for p.totalCost > targetCost {
		victim := p.pickOutsideWindow(view)
		if victim == nil {
			break
		}
		p.delete(victim)
		p.metrics.Evict(metrics.TierPrimary, metrics.EvictWindow)
		evicted = append(evicted, victim)
	}
	if len(evicted) > 0 {
		p.publishSize()
	}
	return evicted
}

// EvictAllOutside removes every entry outside the window. Used by the
// pressure monitor's aggressive cleanup after a tier shrink.
func (p *Primary) EvictAllOutside(view View) []*Entry {
	var evicted []*Entry
	for _, e := range p.entries {
		if !view.InWindow(e.Ref.Ordinal) {
			evicted = append(evicted, e)
		}
	}
	for _, e := range evicted {
		p.delete(e)
		p.metrics.Evict(metrics.TierPrimary, metrics.EvictWindow)
	}
	if len(evicted) > 0 {
		p.publishSize()
	}
	return evicted
}

// Resident returns the bitmap of resident ordinals. The caller must not
// mutate it.
func (p *Primary) Resident() *roaring.Bitmap { return p.resident }

// TotalCost returns the summed cost of resident entries.
func (p *Primary) TotalCost() int64 { return p.totalCost }

// Len returns the number of resident entries.
func (p *Primary) Len() int { return len(p.entries) }

// Budget returns the configured cost budget.
func (p *Primary) Budget() int64 { return p.budget }

// SetBudget applies a new budget without evicting; the caller is expected
// to follow up with an eviction pass against the current view.
func (p *Primary) SetBudget(budgetBytes int64) {
	p.budget = budgetBytes
	p.overflowWarned = false
}

// MarkMiss records a lookup that found nothing in either tier.
func (p *Primary) MarkMiss() { p.metrics.Miss() }

func (p *Primary) delete(e *Entry) {
	delete(p.entries, e.Ref.ID)
	p.resident.Remove(uint32(e.Ref.Ordinal))
	p.totalCost -= e.Cost
}

func (p *Primary) publishSize() {
	p.metrics.Size(metrics.TierPrimary, len(p.entries), p.totalCost)
}
