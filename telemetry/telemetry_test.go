package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/gyre/components"
	"github.com/pthm-cable/gyre/config"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()

	c.RecordImpact()
	c.RecordImpact()
	c.RecordSlide()
	c.RecordRecovery()
	c.RecordPrune()
	c.RecordArrival()
	c.RecordPolarExit()
	c.RecordStagnation(10, 20, 30, components.KindECC)

	if c.Impacts() != 2 {
		t.Errorf("expected 2 impacts, got %d", c.Impacts())
	}
	if c.Slides() != 1 || c.Recoveries() != 1 || c.Prunes() != 1 {
		t.Errorf("unexpected counters: slides %d, recoveries %d, prunes %d",
			c.Slides(), c.Recoveries(), c.Prunes())
	}
	if c.Arrivals() != 1 || c.PolarExits() != 1 || c.Stagnations() != 1 {
		t.Errorf("unexpected counters: arrivals %d, polar exits %d, stagnations %d",
			c.Arrivals(), c.PolarExits(), c.Stagnations())
	}
}

func TestCollectorDiagnostics(t *testing.T) {
	c := NewCollector()

	c.RecordStagnation(1, 2, 40, components.KindECC)
	c.RecordInfantDeath(3, 4, 5, components.KindECNorth)

	diags := c.Diagnostics()
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(diags))
	}
	if diags[0].Kind != DiagStagnation || diags[0].X != 1 || diags[0].Age != 40 {
		t.Errorf("unexpected stagnation record: %+v", diags[0])
	}
	if diags[1].Kind != DiagInfantDeath || !strings.Contains(diags[1].Msg, "ec_n") {
		t.Errorf("unexpected infant death record: %+v", diags[1])
	}
}

func TestFrameRecorderJSON(t *testing.T) {
	rec := NewFrameRecorder("january")
	rec.RecordFrame(Frame{
		Phase: "counter",
		Step:  0,
		Agents: []AgentFrame{
			NewAgentFrame(1,
				components.Position{X: 10, Y: 20},
				components.Velocity{X: 0.5, Y: 0},
				components.Drift{Kind: components.KindECC},
				components.Life{State: components.StateActive, Age: 3},
			),
		},
	})

	path := filepath.Join(t.TempDir(), "frames.json")
	if err := rec.WriteJSON(path); err != nil {
		t.Fatalf("writing frames: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var loaded FrameRecorder
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("parsing frames: %v", err)
	}
	if loaded.Version != FrameVersion || loaded.Month != "january" {
		t.Errorf("unexpected header: version %d, month %s", loaded.Version, loaded.Month)
	}
	if len(loaded.Frames) != 1 || len(loaded.Frames[0].Agents) != 1 {
		t.Fatalf("unexpected frame shape: %+v", loaded.Frames)
	}
	a := loaded.Frames[0].Agents[0]
	if a.Kind != "ecc" || a.State != "active" || a.X != 10 || a.Age != 3 {
		t.Errorf("unexpected agent frame: %+v", a)
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatal(err)
	}
	if om != nil {
		t.Fatal("expected a nil manager for an empty directory")
	}
	// All operations on a nil manager are no-ops.
	if err := om.WriteStreamlines([]StreamlineRow{{Month: "x"}}); err != nil {
		t.Errorf("nil manager write failed: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("nil manager close failed: %v", err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	rows := []StreamlineRow{
		{Month: "january", Type: "main", Line: 0, Seq: 0, X: 1, Y: 2, Strength: 0.8},
		{Month: "january", Type: "main", Line: 0, Seq: 1, X: 1.5, Y: 2, Strength: 0.8},
	}
	if err := om.WriteStreamlines(rows); err != nil {
		t.Fatalf("first write: %v", err)
	}
	// A second batch must append without repeating the header.
	if err := om.WriteStreamlines(rows[:1]); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if err := om.WriteImpacts([]ImpactRow{{Month: "january", Source: "ecc", Lon: 0.5}}); err != nil {
		t.Fatalf("impacts write: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "streamlines.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "month,") {
		t.Errorf("expected a header line, got %q", lines[0])
	}
	if strings.Count(string(data), "month,type") != 1 {
		t.Error("header repeated on append")
	}

	data, err = os.ReadFile(filepath.Join(dir, "impacts.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "ecc") {
		t.Errorf("impact row missing: %q", string(data))
	}
}

func TestOutputManagerConfigSnapshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("writing config snapshot: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config snapshot missing: %v", err)
	}
}

func TestPerfCollector(t *testing.T) {
	p := NewPerfCollector()

	stop := p.Time(PhaseCounterPass)
	stop()
	stop = p.Time(PhaseReturnPass)
	stop()
	// Re-timing a phase accumulates instead of overwriting.
	stop = p.Time(PhaseCounterPass)
	stop()

	if len(p.names) != 2 {
		t.Errorf("expected 2 distinct phases, got %d", len(p.names))
	}
	if p.Total() < 0 {
		t.Errorf("expected non-negative total, got %v", p.Total())
	}

	// A nil collector is safe to time against.
	var nilP *PerfCollector
	nilP.Time("anything")()
	nilP.Log("january")
}
