package currents

import (
	"testing"

	"github.com/pthm-cable/gyre/components"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to components.State
		want     bool
	}{
		{components.StateActive, components.StateCrawling, true},
		{components.StateActive, components.StateImpact, true},
		{components.StateActive, components.StateDead, true},
		{components.StateCrawling, components.StateActive, true},
		{components.StateCrawling, components.StateDead, true},
		{components.StateCrawling, components.StateStuck, false},
		{components.StateImpact, components.StateActive, false},
		{components.StateDead, components.StateActive, false},
		{components.StateStuck, components.StateDead, false},
	}
	for _, tt := range tests {
		if got := canTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("canTransition(%s, %s): expected %v, got %v", tt.from, tt.to, tt.want, got)
		}
	}
}

func TestTerminateIsSticky(t *testing.T) {
	life := &components.Life{State: components.StateActive}

	if !terminate(life, components.StateImpact, components.CauseImpact) {
		t.Fatal("expected first termination to apply")
	}
	if life.State != components.StateImpact || life.Cause != components.CauseImpact {
		t.Fatalf("unexpected life after termination: %+v", life)
	}

	// A second rule in the same step must not overwrite the first.
	if terminate(life, components.StateDead, components.CauseExpired) {
		t.Error("expected second termination to be rejected")
	}
	if life.Cause != components.CauseImpact {
		t.Errorf("cause overwritten: got %s", life.Cause)
	}
}

func TestTerminateRejectsNonTerminal(t *testing.T) {
	life := &components.Life{State: components.StateActive}
	if terminate(life, components.StateCrawling, components.CauseNone) {
		t.Error("expected non-terminal target to be rejected")
	}
	if life.State != components.StateActive {
		t.Errorf("state changed: got %s", life.State)
	}
}

func TestSetCrawling(t *testing.T) {
	life := &components.Life{State: components.StateActive}

	setCrawling(life, true)
	if life.State != components.StateCrawling {
		t.Errorf("expected crawling, got %s", life.State)
	}
	setCrawling(life, false)
	if life.State != components.StateActive {
		t.Errorf("expected active, got %s", life.State)
	}

	// A terminal agent stays terminal.
	life.State = components.StateImpact
	setCrawling(life, true)
	if life.State != components.StateImpact {
		t.Errorf("terminal state changed: got %s", life.State)
	}
}
