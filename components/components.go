// Package components defines the ECS components carried by current agents.
package components

import "math"

// Kind tags which current an agent belongs to.
type Kind uint8

const (
	KindECC     Kind = iota // eastward counter-current (phase 1)
	KindECNorth             // westward return current, north branch
	KindECSouth             // westward return current, south branch
)

// String returns the kind tag used in output files.
func (k Kind) String() string {
	switch k {
	case KindECC:
		return "ecc"
	case KindECNorth:
		return "ec_n"
	case KindECSouth:
		return "ec_s"
	}
	return "unknown"
}

// State is the agent lifecycle state.
type State uint8

const (
	StateActive   State = iota // free drift
	StateCrawling              // hugging a wall, moving tangentially
	StateImpact                // terminal: hit a wall head-on
	StateStuck                 // terminal: stagnated
	StateDead                  // terminal: every other exit
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCrawling:
		return "crawling"
	case StateImpact:
		return "impact"
	case StateStuck:
		return "stuck"
	case StateDead:
		return "dead"
	}
	return "unknown"
}

// Terminal reports whether the state ends the agent.
func (s State) Terminal() bool {
	return s == StateImpact || s == StateStuck || s == StateDead
}

// Cause enumerates why an agent terminated. Every termination carries one.
type Cause uint8

const (
	CauseNone Cause = iota
	CauseImpact
	CauseStagnation
	CauseSpeedFloor
	CauseDeflection
	CausePolarExit
	CauseArrival
	CausePruned
	CauseExpired
)

func (c Cause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CauseImpact:
		return "impact"
	case CauseStagnation:
		return "stagnation"
	case CauseSpeedFloor:
		return "speed_floor"
	case CauseDeflection:
		return "deflection"
	case CausePolarExit:
		return "polar_exit"
	case CauseArrival:
		return "arrival"
	case CausePruned:
		return "pruned"
	case CauseExpired:
		return "expired"
	}
	return "unknown"
}

// Position is an agent's fractional grid position.
type Position struct {
	X, Y float64
}

// Velocity is an agent's velocity in cells per outer step.
type Velocity struct {
	X, Y float64
}

// Drift holds the steering identity of an agent: which current it belongs to
// and, for return agents, the sign of the latitude gap.
type Drift struct {
	Kind Kind
}

// Life holds the agent's FSM state, age in outer steps and termination cause.
type Life struct {
	State State
	Age   int32
	Cause Cause
}

// TrailLen is the fixed capacity of the position history ring buffer.
const TrailLen = 16

// Trail is a bounded ring buffer of recent positions, used for stagnation
// detection over a trailing window.
type Trail struct {
	xs, ys [TrailLen]float64
	head   uint8
	count  uint8
}

// Push records a position, evicting the oldest when full.
func (t *Trail) Push(x, y float64) {
	t.xs[t.head] = x
	t.ys[t.head] = y
	t.head = (t.head + 1) % TrailLen
	if t.count < TrailLen {
		t.count++
	}
}

// Count returns the number of retained positions.
func (t *Trail) Count() int {
	return int(t.count)
}

// Back returns the position recorded n pushes ago (0 = most recent).
// n must be below Count.
func (t *Trail) Back(n int) (x, y float64) {
	i := (int(t.head) - 1 - n + 2*TrailLen) % TrailLen
	return t.xs[i], t.ys[i]
}

// NetDisplacement returns the distance between the newest position and the
// one window-1 pushes before it, wrap-aware in x over the given period.
// Returns a negative value while the window is not yet filled.
func (t *Trail) NetDisplacement(window int, period float64) float64 {
	if int(t.count) < window {
		return -1
	}
	nx, ny := t.Back(0)
	ox, oy := t.Back(window - 1)
	dx := WrapDelta(nx-ox, period)
	dy := ny - oy
	return math.Hypot(dx, dy)
}

// WrapDelta maps a coordinate difference into [-period/2, period/2).
func WrapDelta(d, period float64) float64 {
	d = math.Mod(d, period)
	if d >= period/2 {
		d -= period
	} else if d < -period/2 {
		d += period
	}
	return d
}
