// Package telemetry provides anomaly collection, opt-in frame capture,
// per-phase timing and structured output for engine runs.
package telemetry

import "github.com/pthm-cable/gyre/components"

// DiagKind identifies an anomaly class.
type DiagKind uint8

const (
	DiagInfantDeath DiagKind = iota
	DiagStagnation
)

func (k DiagKind) String() string {
	switch k {
	case DiagInfantDeath:
		return "infant_death"
	case DiagStagnation:
		return "stagnation"
	}
	return "unknown"
}

// Diagnostic is one anomaly record.
type Diagnostic struct {
	Kind DiagKind
	X, Y float64
	Age  int32
	Msg  string
}

// Collector accumulates event counters and anomaly records across both
// simulation passes. Single-writer; the engine owns it for one run.
type Collector struct {
	impacts     int
	slides      int
	recoveries  int
	prunes      int
	stagnations int
	arrivals    int
	polarExits  int

	diags []Diagnostic
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordImpact counts a head-on wall hit.
func (c *Collector) RecordImpact() { c.impacts++ }

// RecordSlide counts a glancing hit resolved by tangential projection.
func (c *Collector) RecordSlide() { c.slides++ }

// RecordRecovery counts a stale-overlap depenetration.
func (c *Collector) RecordRecovery() { c.recoveries++ }

// RecordPrune counts an agent suppressed by the direction cache.
func (c *Collector) RecordPrune() { c.prunes++ }

// RecordArrival counts a return agent reaching a west-facing coast.
func (c *Collector) RecordArrival() { c.arrivals++ }

// RecordPolarExit counts a return agent leaving past the polar latitude limit.
func (c *Collector) RecordPolarExit() { c.polarExits++ }

// RecordStagnation logs a stagnation-forced termination.
func (c *Collector) RecordStagnation(x, y float64, age int32, kind components.Kind) {
	c.stagnations++
	c.diags = append(c.diags, Diagnostic{
		Kind: DiagStagnation,
		X:    x,
		Y:    y,
		Age:  age,
		Msg:  "net displacement below threshold for " + kind.String(),
	})
}

// RecordInfantDeath logs an arrival younger than the configured age,
// which usually means a miscalibrated spawn offset or latitude gap.
func (c *Collector) RecordInfantDeath(x, y float64, age int32, kind components.Kind) {
	c.diags = append(c.diags, Diagnostic{
		Kind: DiagInfantDeath,
		X:    x,
		Y:    y,
		Age:  age,
		Msg:  "arrival shortly after spawn for " + kind.String(),
	})
}

// Diagnostics returns the accumulated anomaly records.
func (c *Collector) Diagnostics() []Diagnostic {
	return c.diags
}

// Impacts returns the head-on hit count.
func (c *Collector) Impacts() int { return c.impacts }

// Slides returns the glancing hit count.
func (c *Collector) Slides() int { return c.slides }

// Recoveries returns the depenetration count.
func (c *Collector) Recoveries() int { return c.recoveries }

// Prunes returns the pruned agent count.
func (c *Collector) Prunes() int { return c.prunes }

// Stagnations returns the stagnation-forced termination count.
func (c *Collector) Stagnations() int { return c.stagnations }

// Arrivals returns the arrival count.
func (c *Collector) Arrivals() int { return c.arrivals }

// PolarExits returns the polar exit count.
func (c *Collector) PolarExits() int { return c.polarExits }
