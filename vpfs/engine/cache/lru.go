package cache

import (
	"container/list"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/engine/metrics"
)

// LRU is the strict least-recently-used second-chance tier. It absorbs
// payloads evicted from the primary tier so back-and-forth navigation near
// the window edge avoids redundant decode work. Bounded by entry count and
// byte budget; whichever limit is hit first wins.
type LRU struct {
	maxEntries int
	maxBytes   int64

	ll         *list.List // front = most recently used
	items      map[uuid.UUID]*list.Element
	totalBytes int64

	metrics metrics.Metrics
}

// NewLRU constructs the LRU tier. A zero limit disables that bound; with
// both limits zero the tier is effectively disabled and inserts fall
// straight through as evictions.
func NewLRU(maxEntries int, maxBytes int64, m metrics.Metrics) *LRU {
	if m == nil {
		m = metrics.NoopMetrics{}
	}
	return &LRU{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		ll:         list.New(),
		items:      make(map[uuid.UUID]*list.Element),
		metrics:    m,
	}
}

// Insert adds an entry at MRU and returns entries discarded to satisfy the
// limits. Entries discarded from this tier are gone for good.
func (l *LRU) Insert(e *Entry) []*Entry {
	if l.maxEntries == 0 && l.maxBytes == 0 {
		return []*Entry{e}
	}
	if el, ok := l.items[e.Ref.ID]; ok {
		l.totalBytes -= el.Value.(*Entry).Cost
		el.Value = e
		l.ll.MoveToFront(el)
	} else {
		l.items[e.Ref.ID] = l.ll.PushFront(e)
	}
	l.totalBytes += e.Cost

	evicted := l.enforceLimits()
	l.publishSize()
	return evicted
}

// Get returns the entry for id and promotes it to MRU.
func (l *LRU) Get(id uuid.UUID) *Entry {
	el, ok := l.items[id]
	if !ok {
		return nil
	}
	l.ll.MoveToFront(el)
	e := el.Value.(*Entry)
	e.LastAccess = now()
	l.metrics.Hit(metrics.TierLRU)
	return e
}

// Remove deletes and returns the entry for id, or nil if absent.
func (l *LRU) Remove(id uuid.UUID) *Entry {
	el, ok := l.items[id]
	if !ok {
		return nil
	}
	e := l.delete(el)
	l.publishSize()
	return e
}

// TrimTo discards least-recent entries until at most maxEntries remain.
// Used by the pressure monitor's normal pass (trim to half capacity).
func (l *LRU) TrimTo(maxEntries int) {
	trimmed := false
	for l.ll.Len() > maxEntries {
		l.evictOldest()
		trimmed = true
	}
	if trimmed {
		l.publishSize()
	}
}

// Clear discards every entry. Used by aggressive pressure cleanup.
func (l *LRU) Clear() {
	for l.ll.Len() > 0 {
		l.evictOldest()
	}
	l.publishSize()
}

// Has reports residency without promoting.
func (l *LRU) Has(id uuid.UUID) bool {
	_, ok := l.items[id]
	return ok
}

// Len returns the number of resident entries.
func (l *LRU) Len() int { return l.ll.Len() }

// TotalBytes returns the summed cost of resident entries.
func (l *LRU) TotalBytes() int64 { return l.totalBytes }

// MaxEntries returns the configured entry bound.
func (l *LRU) MaxEntries() int { return l.maxEntries }

// SetLimits applies reconfigured bounds, discarding least-recent entries
// immediately if the tier now exceeds them.
func (l *LRU) SetLimits(maxEntries int, maxBytes int64) {
	l.maxEntries = maxEntries
	l.maxBytes = maxBytes
	if l.ll.Len() == 0 {
		return
	}
	if maxEntries == 0 && maxBytes == 0 {
		l.Clear()
		return
	}
	l.enforceLimits()
	l.publishSize()
}

func (l *LRU) enforceLimits() []*Entry {
	var evicted []*Entry
	for (l.maxEntries > 0 && l.ll.Len() > l.maxEntries) ||
		(l.maxBytes > 0 && l.totalBytes > l.maxBytes) {
		if e := l.evictOldest(); e != nil {
			evicted = append(evicted, e)
		} else {
			break
		}
	}
	return evicted
}

func (l *LRU) evictOldest() *Entry {
	el := l.ll.Back()
	if el == nil {
		return nil
	}
	e := l.delete(el)
	l.metrics.Evict(metrics.TierLRU, metrics.EvictRecency)
	return e
}

func (l *LRU) delete(el *list.Element) *Entry {
	e := el.Value.(*Entry)
	l.ll.Remove(el)
	delete(l.items, e.Ref.ID)
	l.totalBytes -= e.Cost
	return e
}

func (l *LRU) publishSize() {
	l.metrics.Size(metrics.TierLRU, l.ll.Len(), l.totalBytes)
}
