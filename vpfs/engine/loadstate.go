package engine

import (
	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/engine/preload"
)

// Phase is the lifecycle position of one collection item. Transitions are
// owned exclusively by the engine's run loop: Loading is entered only from
// NotLoaded or Failed, and leaves exactly once per attempt to Loaded,
// Failed, or back to NotLoaded on cancellation. A Loaded item returns to
// NotLoaded only by cache eviction.
type Phase int

const (
	PhaseNotLoaded Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNotLoaded:
		return "not_loaded"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// loadState is the authoritative per-ordinal record, owner-confined.
type loadState struct {
	phase Phase

	// task is the scheduled or in-flight decode while phase == PhaseLoading.
	task *preload.Task

	// err holds the last decode failure while phase == PhaseFailed.
	err error

	// attempts counts failed decodes; two failures are terminal.
	attempts int

	// exitedWindow is set when a failed item leaves the window, arming the
	// single automatic retry on re-entry.
	exitedWindow bool
}

// retryable reports whether a failed item may be scheduled again.
func (s *loadState) retryable() bool {
	return s.attempts < 2 && s.exitedWindow
}

// EventKind distinguishes state transitions from one-shot warnings.
type EventKind int

const (
	// EventLoaded reports the current item's payload became available.
	EventLoaded EventKind = iota
	// EventFailed reports a terminal or retryable decode failure.
	EventFailed
	// EventOverflow warns once that the budget cannot hold the window.
	EventOverflow
)

// Event is one entry in the engine's notification stream. Preloaded
// neighbors complete silently; only the current index, failures and the
// overflow warning are surfaced.
type Event struct {
	Kind  EventKind
	Index int
	Phase Phase
	Err   error
}
