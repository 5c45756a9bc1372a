// Package pressure tracks host memory pressure and decides when the engine
// must trim or aggressively shed cached payloads and shrink its window tier.
package pressure

import (
	"log/slog"

	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/engine/metrics"
)

// Level is an externally supplied pressure signal.
type Level int

const (
	LevelNormal Level = iota
	LevelWarning
	LevelCritical
)

// String returns the signal level name.
func (l Level) String() string {
	switch l {
	case LevelNormal:
		return "normal"
	case LevelWarning:
		return "warning"
	case LevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// State is the monitor's position in its recovery cycle.
type State int

const (
	StateNormal State = iota
	StateUnderPressure
	StateRecovering
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateUnderPressure:
		return "under_pressure"
	case StateRecovering:
		return "recovering"
	default:
		return "unknown"
	}
}

// Action is the cleanup the engine must run after an evaluation.
type Action int

const (
	// ActionNone requires no cleanup.
	ActionNone Action = iota
	// ActionTrim is the normal pass: LRU to half capacity, primary exterior
	// beyond the soft margin.
	ActionTrim
	// ActionAggressive clears the LRU, shrinks the tier one step and evicts
	// everything outside the recomputed window.
	ActionAggressive
)

// Monitor implements the {Normal, UnderPressure, Recovering} state machine.
// Owner-confined: evaluated only on the loader goroutine.
type Monitor struct {
	state      State
	budget     int64
	softMargin int64

	metrics metrics.Metrics
}

// NewMonitor constructs a monitor against the engine's memory budget.
func NewMonitor(budgetBytes, softMarginBytes int64, m metrics.Metrics) *Monitor {
	if m == nil {
		m = metrics.NoopMetrics{}
	}
	return &Monitor{
		budget:     budgetBytes,
		softMargin: softMarginBytes,
		metrics:    m,
	}
}

// State returns the current pressure state.
func (m *Monitor) State() State { return m.state }

// SetBudget applies a reconfigured budget.
func (m *Monitor) SetBudget(budgetBytes, softMarginBytes int64) {
	m.budget = budgetBytes
	m.softMargin = softMarginBytes
}

// OnSignal consumes a pushed pressure signal. A Warning enters
// UnderPressure with a normal trim; a Critical demands aggressive cleanup.
func (m *Monitor) OnSignal(level Level) Action {
	switch level {
	case LevelCritical:
		m.transition(StateUnderPressure)
		return ActionAggressive
	case LevelWarning:
		m.transition(StateUnderPressure)
		return ActionTrim
	default:
		return ActionNone
	}
}

// OnTick consumes a periodic usage sample (primary + LRU cost) and returns
// the cleanup the engine must run.
func (m *Monitor) OnTick(usage int64) Action {
	switch m.state {
	case StateNormal:
		if usage > m.budget {
			m.transition(StateUnderPressure)
			return ActionAggressive
		}
		if usage > m.budget-m.softMargin {
			return ActionTrim
		}
		return ActionNone

	case StateUnderPressure:
		if usage <= m.budget {
			// Aggressive cleanup completed and usage dropped below budget.
			m.transition(StateRecovering)
			return ActionNone
		}
		return ActionAggressive

	default: // StateRecovering
		if usage > m.budget {
			m.transition(StateUnderPressure)
			return ActionAggressive
		}
		// One full cycle with usage stable below budget.
		m.transition(StateNormal)
		return ActionNone
	}
}

func (m *Monitor) transition(next State) {
	if m.state == next {
		return
	}
	slog.Debug("Memory pressure state changed",
		"from", m.state.String(),
		"to", next.String())
	m.state = next
	m.metrics.Pressure(next.String())
}
