package pressure

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
)

// HostSignalSource derives pressure signals from host memory statistics,
// for hosts without a platform pressure facility of their own. Levels are
// pushed on a channel the engine consumes; a slow consumer only misses
// intermediate samples.
type HostSignalSource struct {
	interval    time.Duration
	warnPct     float64
	criticalPct float64

	levels chan Level
	cancel context.CancelFunc
}

// NewHostSignalSource samples host memory every interval and maps
// used-percent thresholds onto Warning/Critical signals.
func NewHostSignalSource(interval time.Duration, warnPct, criticalPct float64) *HostSignalSource {
	return &HostSignalSource{
		interval:    interval,
		warnPct:     warnPct,
		criticalPct: criticalPct,
		levels:      make(chan Level, 1),
	}
}

// Levels is the signal channel to hand to the engine.
func (s *HostSignalSource) Levels() <-chan Level { return s.levels }

// Start begins sampling until ctx is cancelled or Stop is called.
func (s *HostSignalSource) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
}

// Stop halts sampling.
func (s *HostSignalSource) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *HostSignalSource) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	last := LevelNormal
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			vm, err := mem.VirtualMemory()
			if err != nil {
				slog.Warn("Failed to read host memory statistics", "error", err)
				continue
			}

			level := LevelNormal
			switch {
			case vm.UsedPercent >= s.criticalPct:
				level = LevelCritical
			case vm.UsedPercent >= s.warnPct:
				level = LevelWarning
			}
			if level == last {
				continue
			}
			last = level

			select {
			case s.levels <- level:
			default:
				// Consumer busy; the next changed sample will get through.
			}
		}
	}
}
