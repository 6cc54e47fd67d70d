package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the engine run.
const (
	PhaseFieldBuild  = "field_build"
	PhaseCounterPass = "counter_pass"
	PhaseSpawnPlan   = "spawn_plan"
	PhaseReturnPass  = "return_pass"
	PhaseAssembly    = "assembly"
)

// PerfCollector records wall-clock durations per engine phase, in order.
type PerfCollector struct {
	names     []string
	durations map[string]time.Duration
}

// NewPerfCollector creates an empty perf collector.
func NewPerfCollector() *PerfCollector {
	return &PerfCollector{durations: make(map[string]time.Duration)}
}

// Time starts timing a phase and returns a func that stops it.
// Usage: defer perf.Time(telemetry.PhaseCounterPass)()
func (p *PerfCollector) Time(phase string) func() {
	if p == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		if _, seen := p.durations[phase]; !seen {
			p.names = append(p.names, phase)
		}
		p.durations[phase] += time.Since(start)
	}
}

// Total returns the summed duration across phases.
func (p *PerfCollector) Total() time.Duration {
	var total time.Duration
	for _, d := range p.durations {
		total += d
	}
	return total
}

// Log emits one structured record per phase plus the total.
func (p *PerfCollector) Log(month string) {
	if p == nil {
		return
	}
	total := p.Total()
	for _, name := range p.names {
		d := p.durations[name]
		pct := float64(0)
		if total > 0 {
			pct = float64(d) / float64(total) * 100
		}
		slog.Info("phase_timing",
			"month", month,
			"phase", name,
			"duration", d.Round(time.Microsecond).String(),
			"pct", pct,
		)
	}
	slog.Info("run_timing", "month", month, "total", total.Round(time.Microsecond).String())
}
