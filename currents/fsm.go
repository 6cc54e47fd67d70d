package currents

import "github.com/pthm-cable/gyre/components"

// transitions is the allowed state machine for agents. Terminal states have
// no outgoing edges; an agent that reached one stays there until collection.
var transitions = map[components.State][]components.State{
	components.StateActive: {
		components.StateActive,
		components.StateCrawling,
		components.StateImpact,
		components.StateStuck,
		components.StateDead,
	},
	components.StateCrawling: {
		components.StateActive,
		components.StateCrawling,
		components.StateImpact,
		components.StateDead,
	},
}

// canTransition reports whether the edge from -> to exists.
func canTransition(from, to components.State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// terminate moves the agent to a terminal state with the given cause.
// Illegal transitions are ignored, so a later rule in the same step cannot
// overwrite an earlier termination.
func terminate(life *components.Life, to components.State, cause components.Cause) bool {
	if !to.Terminal() || !canTransition(life.State, to) {
		return false
	}
	life.State = to
	life.Cause = cause
	return true
}

// setCrawling toggles between free drift and wall crawling.
func setCrawling(life *components.Life, crawling bool) {
	to := components.StateActive
	if crawling {
		to = components.StateCrawling
	}
	if canTransition(life.State, to) {
		life.State = to
	}
}
