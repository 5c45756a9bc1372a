// Package engine implements the windowed image loading and caching engine:
// a single-writer scheduler that decides, for the current position in an
// ordered collection, which items are resident, issues and cancels decode
// work, and enforces memory budgets across two cache tiers.
//
// All mutations to load states, the window and the cache tiers happen on
// one run-loop goroutine; decode workers communicate results back through
// a channel and never touch shared state. Public operations enqueue work
// and return immediately, so UI-thread callers never stall on scheduling
// decisions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	roaring "github.com/RoaringBitmap/roaring"
	"github.com/ZanzyTHEbar/assert-lib"

	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/collection"
	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/config"
	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/decode"
	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/engine/cache"
	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/engine/metrics"
	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/engine/preload"
	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/engine/pressure"
	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/engine/window"
)

// Stats is a diagnostic snapshot of the engine.
type Stats struct {
	HitRate       float64
	TotalCost     int64
	ResidentCount int
	LRUCount      int
	LRUBytes      int64
	Tier          string
	PressureState string
	InFlight      int
	Queued        int
}

// Options carries optional collaborators for New.
type Options struct {
	// Metrics receives engine observations; nil means no-op.
	Metrics metrics.Metrics

	// Signals is an externally supplied pressure feed; nil disables it.
	Signals <-chan pressure.Level

	// EventBuffer sizes the notification stream (default 64). A slow
	// consumer loses the oldest events, never blocks the engine.
	EventBuffer int
}

// Engine is the virtual loader. Construct with New, call Start once, and
// Close when done. All exported methods are safe for concurrent use.
type Engine struct {
	cfg     config.EngineConfig
	decoder decode.Decoder
	metrics metrics.Metrics

	// Owner-confined state, touched only on the run loop.
	refs     []collection.PhotoRef
	circular bool
	tier     window.Tier
	win      *roaring.Bitmap
	current  int
	states   map[int]*loadState
	queue    *preload.Queue
	inFlight map[int]*preload.Task
	primary  *cache.Primary
	lru      *cache.LRU
	monitor  *pressure.Monitor

	overflowReported bool
	lookups          uint64
	lookupHits       uint64

	pool     *preload.Pool
	poolSize int
	signals  <-chan pressure.Level
	events   chan Event
	cmds     chan func()

	asserts *assert.AssertHandler

	runCtx    context.Context
	cancelRun context.CancelFunc
	done      chan struct{}

	startMu sync.Mutex
	started bool
	closeMu sync.Mutex
	closed  bool
}

// New constructs an engine from a validated configuration and an injected
// decode capability.
func New(cfg config.EngineConfig, decoder decode.Decoder, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine configuration rejected: %w", err)
	}
	if decoder == nil {
		return nil, errors.New("engine requires a decoder")
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.NoopMetrics{}
	}
	eventBuffer := opts.EventBuffer
	if eventBuffer <= 0 {
		eventBuffer = 64
	}

	e := &Engine{
		cfg:      cfg,
		decoder:  decoder,
		metrics:  m,
		tier:     window.SelectTier(0, cfg),
		win:      roaring.New(),
		states:   make(map[int]*loadState),
		queue:    preload.NewQueue(),
		inFlight: make(map[int]*preload.Task),
		primary:  cache.NewPrimary(cfg.MemoryBudgetBytes, m),
		lru:      cache.NewLRU(cfg.LRU.MaxEntries, cfg.LRU.MaxBytes, m),
		monitor:  pressure.NewMonitor(cfg.MemoryBudgetBytes, cfg.Pressure.SoftMarginBytes, m),
		signals:  opts.Signals,
		events:   make(chan Event, eventBuffer),
		cmds:     make(chan func(), 256),
		asserts:  assert.NewAssertHandler(),
		done:     make(chan struct{}),
	}
	// The worker pool is sized by the configured cap; the active tier's
	// concurrency bounds in-flight work below that.
	e.poolSize = cfg.MaxConcurrentDecodes
	e.pool = preload.NewPool(decoder, e.poolSize,
		time.Duration(cfg.DecodeTimeoutSeconds)*time.Second)
	return e, nil
}

// Start launches the run loop and decode workers. Only the first call
// succeeds.
func (e *Engine) Start(ctx context.Context) error {
	e.closeMu.Lock()
	closed := e.closed
	e.closeMu.Unlock()
	if closed {
		return errors.New("engine closed")
	}

	e.startMu.Lock()
	defer e.startMu.Unlock()
	if e.started {
		return errors.New("engine already started")
	}
	e.started = true

	e.runCtx, e.cancelRun = context.WithCancel(ctx)
	e.pool.Start(e.runCtx)
	go e.run()
	return nil
}

// Close stops the engine, cancels in-flight decodes and closes the event
// stream. Idempotent.
func (e *Engine) Close() {
	e.closeMu.Lock()
	defer e.closeMu.Unlock()
	if e.closed {
		return
	}
	e.closed = true

	e.startMu.Lock()
	started := e.started
	e.startMu.Unlock()
	if !started {
		close(e.done)
		close(e.events)
		return
	}

	e.cancelRun()
	<-e.done
}

// Events returns the notification stream. Closed by Close.
func (e *Engine) Events() <-chan Event { return e.events }

// LoadCollection lists the provider and replaces the engine's collection.
// The (possibly slow) enumeration runs on the caller, not the run loop.
func (e *Engine) LoadCollection(ctx context.Context, provider collection.Provider) error {
	refs, err := provider.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collection: %w", err)
	}
	e.ReplaceCollection(refs, provider.Circular())
	return nil
}

// ReplaceCollection swaps in a new ordered collection. Outstanding work for
// the previous ordering is cancelled and both cache tiers are dropped,
// since identities do not carry across orderings. The tier is re-selected
// for the new size.
func (e *Engine) ReplaceCollection(refs []collection.PhotoRef, circular bool) {
	e.post(func() { e.replaceCollection(refs, circular) })
}

// SetCurrentIndex reports a navigation change. The desired window is
// recomputed, decodes that fell out of it are cancelled, and newly needed
// items are scheduled closest-first. Returns immediately.
func (e *Engine) SetCurrentIndex(index int) {
	e.post(func() { e.setCurrentIndex(index) })
}

// RequestImmediate asks for one item ahead of all background preloads,
// guaranteeing the visible photo is never starved by speculative work.
func (e *Engine) RequestImmediate(index int) {
	e.post(func() { e.requestImmediate(index) })
}

// Reconfigure applies a new engine configuration at runtime. The worker
// pool keeps its original size; a raised concurrency cap takes effect for
// scheduling up to that size.
func (e *Engine) Reconfigure(cfg config.EngineConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("engine configuration rejected: %w", err)
	}
	e.post(func() { e.reconfigure(cfg) })
	return nil
}

// Payload returns the cached payload for index, or nil. It never waits for
// a decode; an LRU-tier hit is promoted back to primary when the budget
// allows.
func (e *Engine) Payload(index int) *decode.Payload {
	reply := make(chan *decode.Payload, 1)
	if !e.post(func() { reply <- e.lookup(index) }) {
		return nil
	}
	select {
	case p := <-reply:
		return p
	case <-e.done:
		return nil
	}
}

// Metadata returns the decode metadata for index when its payload is
// resident in either tier, or nil. Like Payload it never waits for a
// decode.
func (e *Engine) Metadata(index int) *decode.Metadata {
	reply := make(chan *decode.Metadata, 1)
	if !e.post(func() { reply <- e.lookupMeta(index) }) {
		return nil
	}
	select {
	case m := <-reply:
		return m
	case <-e.done:
		return nil
	}
}

// Stats returns a diagnostic snapshot.
func (e *Engine) Stats() Stats {
	reply := make(chan Stats, 1)
	if !e.post(func() { reply <- e.snapshot() }) {
		return Stats{}
	}
	select {
	case s := <-reply:
		return s
	case <-e.done:
		return Stats{}
	}
}

// post hands a closure to the run loop; false means the engine is closed.
func (e *Engine) post(fn func()) bool {
	select {
	case e.cmds <- fn:
		return true
	case <-e.done:
		return false
	}
}

// run is the single-writer owner loop.
func (e *Engine) run() {
	defer func() {
		e.shutdown()
		close(e.events)
		close(e.done)
	}()

	ticker := time.NewTicker(time.Duration(e.cfg.Pressure.PollIntervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-e.runCtx.Done():
			return
		case fn := <-e.cmds:
			fn()
		case r := <-e.pool.Results():
			e.onResult(r)
		case lvl, ok := <-e.signals:
			if !ok {
				e.signals = nil
				continue
			}
			e.applyAction(e.monitor.OnSignal(lvl))
		case <-ticker.C:
			e.applyAction(e.monitor.OnTick(e.usage()))
		}
	}
}

func (e *Engine) shutdown() {
	for _, t := range e.inFlight {
		t.Token.Cancel()
	}
	for _, t := range e.queue.Clear() {
		t.Token.Cancel()
	}
	e.pool.Close()
}

// ---- owner-loop internals ----

func (e *Engine) view() cache.View {
	return cache.View{
		Window:       e.win,
		CurrentIndex: e.current,
		Size:         len(e.refs),
		Circular:     e.circular,
	}
}

func (e *Engine) usage() int64 {
	return e.primary.TotalCost() + e.lru.TotalBytes()
}

func (e *Engine) replaceCollection(refs []collection.PhotoRef, circular bool) {
	for _, t := range e.inFlight {
		t.Token.Cancel()
	}
	for _, t := range e.queue.Clear() {
		t.Token.Cancel()
	}
	e.states = make(map[int]*loadState)
	e.primary = cache.NewPrimary(e.cfg.MemoryBudgetBytes, e.metrics)
	e.lru = cache.NewLRU(e.cfg.LRU.MaxEntries, e.cfg.LRU.MaxBytes, e.metrics)
	e.overflowReported = false

	e.refs = refs
	e.circular = circular
	e.win = roaring.New()
	e.tier = window.SelectTier(len(refs), e.cfg)
	e.current = window.Clamp(e.current, len(refs))

	slog.Info("Collection replaced",
		"size", len(refs),
		"tier", e.tier.Class.String(),
		"radius", e.tier.Radius,
		"circular", circular)

	e.reconcile()
}

func (e *Engine) setCurrentIndex(index int) {
	if len(e.refs) == 0 {
		return
	}
	e.current = window.Clamp(index, len(e.refs))
	e.reconcile()
}

// reconcile recomputes the window and diffs it against scheduled work:
// cancel what fell out, schedule what came in, leave Loaded items to cache
// policy.
func (e *Engine) reconcile() {
	newWin := window.Compute(e.current, len(e.refs), e.tier.Radius, e.circular)

	// Cancel queued work that fell out of the window. Queued ordinals are
	// checked directly since an immediate request may sit outside it.
	for _, ord := range e.queue.Ordinals() {
		if newWin.Contains(uint32(ord)) {
			continue
		}
		t := e.queue.Remove(ord)
		t.Token.Cancel()
		e.toNotLoaded(ord)
		e.metrics.Decode(metrics.DecodeCancelled)
	}

	// Ordinals that left the window: cooperatively cancel their in-flight
	// decodes (the state transition lands when the worker reports back) and
	// arm the one automatic retry for failed items.
	stale := roaring.AndNot(e.win, newWin)
	it := stale.Iterator()
	for it.HasNext() {
		ord := int(it.Next())
		if t, ok := e.inFlight[ord]; ok && !t.Token.Cancelled() {
			t.Token.Cancel()
		}
		if st, ok := e.states[ord]; ok && st.phase == PhaseFailed {
			st.exitedWindow = true
		}
	}

	e.win = newWin

	// Schedule window entries that need work, closest-first by priority.
	it = newWin.Iterator()
	for it.HasNext() {
		ord := int(it.Next())
		st := e.state(ord)
		switch st.phase {
		case PhaseLoaded:
			// Cache policy decides residency from here.
		case PhaseLoading:
			if e.queue.Contains(ord) {
				// Still queued: refresh its priority for the new position.
				e.enqueue(ord, e.distance(ord))
			}
		case PhaseFailed:
			if st.retryable() {
				e.enqueue(ord, e.distance(ord))
			}
		default: // PhaseNotLoaded
			if e.cacheResident(ord) {
				st.phase = PhaseLoaded
				continue
			}
			e.enqueue(ord, e.distance(ord))
		}
	}

	e.dispatch()
}

// cacheResident checks both tiers for an already-decoded payload,
// promoting an LRU hit back into primary when the budget allows.
func (e *Engine) cacheResident(ord int) bool {
	if ord < 0 || ord >= len(e.refs) {
		return false
	}
	id := e.refs[ord].ID
	if e.primary.Has(id) {
		return true
	}
	entry := e.lru.Get(id)
	if entry == nil {
		return false
	}
	e.promote(entry)
	return true
}

// promote moves an LRU entry back into primary if there is headroom,
// otherwise leaves it where it is.
func (e *Engine) promote(entry *cache.Entry) {
	if e.primary.TotalCost()+entry.Cost > e.primary.Budget() {
		return
	}
	e.lru.Remove(entry.Ref.ID)
	evicted, err := e.primary.Insert(entry, e.view())
	e.reportOverflow(err)
	e.offerToLRU(evicted)
	e.metrics.Promote()
}

func (e *Engine) requestImmediate(index int) {
	if len(e.refs) == 0 {
		return
	}
	ord := window.Clamp(index, len(e.refs))
	st := e.state(ord)

	if st.phase == PhaseLoaded || e.cacheResident(ord) {
		st.phase = PhaseLoaded
		e.emit(Event{Kind: EventLoaded, Index: ord, Phase: PhaseLoaded})
		return
	}
	if st.phase == PhaseLoading && !e.queue.Contains(ord) {
		// Already in flight; completion will notify.
		return
	}
	// Queued or unscheduled: jump the queue.
	e.enqueue(ord, preload.ImmediatePriority)
	e.dispatch()
}

// enqueue replaces any queued task for ord with a fresh one at the given
// priority and marks the state Loading.
func (e *Engine) enqueue(ord, priority int) {
	st := e.state(ord)
	// Release the superseded task's token; the in-flight case keeps its
	// token so the worker can still be cancelled cooperatively.
	if st.task != nil && e.queue.Contains(ord) {
		st.task.Token.Cancel()
	}
	t := &preload.Task{
		Ref:      e.refs[ord],
		Priority: priority,
		Forward:  e.isForward(ord),
		Token:    preload.NewToken(e.runCtx),
	}
	e.queue.Push(t)
	st.phase = PhaseLoading
	st.task = t
}

// dispatch feeds workers while the active tier's concurrency allows.
func (e *Engine) dispatch() {
	for len(e.inFlight) < e.tier.MaxConcurrentDecodes {
		t := e.queue.Pop()
		if t == nil {
			return
		}
		if t.Token.Cancelled() {
			if st := e.states[t.Ref.Ordinal]; st != nil && st.task == t {
				st.phase = PhaseNotLoaded
				st.task = nil
			}
			continue
		}
		e.inFlight[t.Ref.Ordinal] = t
		e.pool.Submit(t)
	}
}

func (e *Engine) onResult(r preload.Result) {
	ord := r.Task.Ref.Ordinal
	if e.inFlight[ord] == r.Task {
		delete(e.inFlight, ord)
	}

	st := e.states[ord]
	if st == nil || st.task != r.Task {
		// Result from a superseded attempt (collection replaced or task
		// re-issued); never applied.
		e.metrics.Decode(metrics.DecodeCancelled)
		e.dispatch()
		return
	}
	st.task = nil

	switch {
	case r.Cancelled || r.Task.Token.Cancelled():
		// A late-arriving payload for a cancelled id is dropped, not cached.
		st.phase = PhaseNotLoaded
		e.metrics.Decode(metrics.DecodeCancelled)
		// The ordinal may have re-entered the window while the cancelled
		// decode was still outstanding; reconcile skipped it then because it
		// looked in flight, so reschedule it here.
		if e.win.Contains(uint32(ord)) {
			if e.cacheResident(ord) {
				st.phase = PhaseLoaded
			} else {
				e.enqueue(ord, e.distance(ord))
			}
		}

	case r.Err != nil:
		st.phase = PhaseFailed
		st.err = r.Err
		st.attempts++
		st.exitedWindow = false
		if errors.Is(r.Err, decode.ErrTimeout) {
			e.metrics.Decode(metrics.DecodeTimeout)
		} else {
			e.metrics.Decode(metrics.DecodeFailed)
		}
		slog.Warn("Decode failed",
			"locator", r.Task.Ref.Locator,
			"ordinal", ord,
			"attempts", st.attempts,
			"error", r.Err)
		e.emit(Event{Kind: EventFailed, Index: ord, Phase: PhaseFailed, Err: r.Err})

	default:
		e.applyDecoded(r)
	}

	e.dispatch()
}

// applyDecoded inserts a successful decode into the primary tier and
// notifies the collaborator if it is the current item; preloaded neighbors
// complete silently.
func (e *Engine) applyDecoded(r preload.Result) {
	ord := r.Task.Ref.Ordinal
	st := e.states[ord]
	id := r.Task.Ref.ID

	// An id never lives in both tiers; a stale LRU copy loses to the fresh
	// decode.
	e.lru.Remove(id)

	entry := cache.NewEntry(r.Task.Ref, r.Payload, r.Meta)
	evicted, err := e.primary.Insert(entry, e.view())
	e.reportOverflow(err)
	e.offerToLRU(evicted)
	e.metrics.Decode(metrics.DecodeCompleted)

	e.asserts.Assert(e.runCtx, !(e.primary.Has(id) && e.lru.Has(id)),
		"payload resident in both cache tiers")
	e.asserts.Assert(e.runCtx, e.primary.TotalCost() <= e.primary.Budget(),
		"primary cache exceeded its budget")

	// The fresh entry can itself be the eviction victim (cost beyond the
	// budget, or an out-of-window immediate with a full window) and the LRU
	// may discard it too. The state must say where the payload actually is:
	// a Loaded phase with the payload gone from both tiers would be
	// unrecoverable, since reconcile leaves Loaded items alone.
	if !e.primary.Has(id) && !e.lru.Has(id) {
		st.phase = PhaseFailed
		st.err = fmt.Errorf("payload for %s not retained: %w", r.Task.Ref.Locator, cache.ErrCacheOverflow)
		st.attempts++
		st.exitedWindow = false
		slog.Warn("Decoded payload dropped by cache",
			"locator", r.Task.Ref.Locator,
			"ordinal", ord,
			"cost", entry.Cost)
		e.emit(Event{Kind: EventFailed, Index: ord, Phase: PhaseFailed, Err: st.err})
		return
	}

	st.phase = PhaseLoaded
	st.err = nil
	st.attempts = 0

	if ord == e.current {
		e.emit(Event{Kind: EventLoaded, Index: ord, Phase: PhaseLoaded})
	}
}

// offerToLRU hands primary evictions to the second-chance tier and resets
// load states for anything that fell out of cache entirely.
func (e *Engine) offerToLRU(evicted []*cache.Entry) {
	for _, entry := range evicted {
		e.toNotLoaded(entry.Ref.Ordinal)
		for _, gone := range e.lru.Insert(entry) {
			e.toNotLoaded(gone.Ref.Ordinal)
		}
	}
}

// toNotLoaded resets an ordinal whose payload or task went away, unless a
// fresher attempt or payload exists.
func (e *Engine) toNotLoaded(ord int) {
	st := e.states[ord]
	if st == nil {
		return
	}
	if st.phase == PhaseLoaded && e.cachePayload(ord) != nil {
		return
	}
	if st.phase == PhaseLoading || st.phase == PhaseLoaded {
		st.phase = PhaseNotLoaded
		st.task = nil
	}
}

// cachePayload reads both tiers without promoting.
func (e *Engine) cachePayload(ord int) *decode.Payload {
	if ord < 0 || ord >= len(e.refs) {
		return nil
	}
	id := e.refs[ord].ID
	if e.primary.Has(id) {
		return e.primary.Get(id).Payload
	}
	return nil
}

func (e *Engine) lookup(index int) *decode.Payload {
	e.lookups++
	if index < 0 || index >= len(e.refs) {
		e.primary.MarkMiss()
		return nil
	}
	id := e.refs[index].ID

	if entry := e.primary.Get(id); entry != nil {
		e.lookupHits++
		return entry.Payload
	}
	if entry := e.lru.Get(id); entry != nil {
		e.lookupHits++
		e.promote(entry)
		return entry.Payload
	}
	e.primary.MarkMiss()
	return nil
}

func (e *Engine) lookupMeta(index int) *decode.Metadata {
	if index < 0 || index >= len(e.refs) {
		return nil
	}
	id := e.refs[index].ID
	if entry := e.primary.Get(id); entry != nil {
		return entry.Meta
	}
	if entry := e.lru.Get(id); entry != nil {
		return entry.Meta
	}
	return nil
}

func (e *Engine) reconfigure(cfg config.EngineConfig) {
	// The worker pool is fixed at construction; a raised cap cannot exceed
	// it or dispatch could block the run loop.
	if cfg.MaxConcurrentDecodes > e.poolSize {
		cfg.MaxConcurrentDecodes = e.poolSize
	}
	e.cfg = cfg
	e.primary.SetBudget(cfg.MemoryBudgetBytes)
	e.lru.SetLimits(cfg.LRU.MaxEntries, cfg.LRU.MaxBytes)
	e.monitor.SetBudget(cfg.MemoryBudgetBytes, cfg.Pressure.SoftMarginBytes)
	e.overflowReported = false
	e.tier = window.SelectTier(len(e.refs), cfg)

	slog.Info("Engine reconfigured",
		"budget_bytes", cfg.MemoryBudgetBytes,
		"radius", e.tier.Radius,
		"concurrency", e.tier.MaxConcurrentDecodes)

	e.reconcile()
	// Enforce a possibly smaller budget right away.
	e.offerToLRU(e.primary.TrimOutside(e.view(), cfg.MemoryBudgetBytes))
}

// applyAction runs the cleanup the pressure monitor demanded.
func (e *Engine) applyAction(a pressure.Action) {
	switch a {
	case pressure.ActionTrim:
		e.lru.TrimTo(e.lru.MaxEntries() / 2)
		target := e.primary.Budget() - e.cfg.Pressure.SoftMarginBytes
		for _, entry := range e.primary.TrimOutside(e.view(), target) {
			e.toNotLoaded(entry.Ref.Ordinal)
		}

	case pressure.ActionAggressive:
		e.lru.Clear()
		e.tier = window.Shrink(e.tier, len(e.refs), e.cfg)
		slog.Warn("Aggressive memory cleanup",
			"tier", e.tier.Class.String(),
			"radius", e.tier.Radius)
		e.reconcile()
		for _, entry := range e.primary.EvictAllOutside(e.view()) {
			e.toNotLoaded(entry.Ref.Ordinal)
		}
	}
}

func (e *Engine) reportOverflow(err error) {
	if err == nil || !errors.Is(err, cache.ErrCacheOverflow) || e.overflowReported {
		return
	}
	e.overflowReported = true
	e.emit(Event{Kind: EventOverflow, Index: -1, Err: err})
}

func (e *Engine) snapshot() Stats {
	hitRate := 0.0
	if e.lookups > 0 {
		hitRate = float64(e.lookupHits) / float64(e.lookups)
	}
	return Stats{
		HitRate:       hitRate,
		TotalCost:     e.primary.TotalCost(),
		ResidentCount: e.primary.Len(),
		LRUCount:      e.lru.Len(),
		LRUBytes:      e.lru.TotalBytes(),
		Tier:          e.tier.Class.String(),
		PressureState: e.monitor.State().String(),
		InFlight:      len(e.inFlight),
		Queued:        e.queue.Len(),
	}
}

// emit delivers an event without ever blocking the run loop; when the
// consumer lags, the oldest event is dropped.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
		return
	default:
	}
	select {
	case <-e.events:
	default:
	}
	select {
	case e.events <- ev:
	default:
	}
}

func (e *Engine) state(ord int) *loadState {
	st, ok := e.states[ord]
	if !ok {
		st = &loadState{}
		e.states[ord] = st
	}
	return st
}

func (e *Engine) distance(ord int) int {
	return window.Distance(ord, e.current, len(e.refs), e.circular)
}

// isForward reports whether ord lies in the reading direction from the
// current index.
func (e *Engine) isForward(ord int) bool {
	if !e.circular {
		return ord >= e.current
	}
	size := len(e.refs)
	if size == 0 {
		return true
	}
	ahead := ((ord-e.current)%size + size) % size
	return ahead <= size/2
}
