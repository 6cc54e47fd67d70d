// Package currents runs the two-pass current derivation: an eastward
// counter-current pass that discovers where the flow meets coastlines, and a
// westward return pass seeded from those terminations. The output is a set of
// streamlines suitable for rendering or downstream climate stages.
package currents

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/gyre/components"
	"github.com/pthm-cable/gyre/config"
	"github.com/pthm-cable/gyre/field"
	"github.com/pthm-cable/gyre/grid"
	"github.com/pthm-cable/gyre/telemetry"
)

// Streamline type tags in output files.
const (
	TypeMain   = "main"
	TypeSplitN = "split_n"
	TypeSplitS = "split_s"
)

// TrajectoryPoint is one sampled agent position with both grid and
// geographic coordinates.
type TrajectoryPoint struct {
	X, Y     float64
	Lon, Lat float64
	VX, VY   float64
}

// Streamline is one finished trajectory. Strength is the mean speed along it
// relative to the configured base speed.
type Streamline struct {
	Type     string
	Strength float64
	Points   []TrajectoryPoint
}

// ImpactPoint marks where an agent terminated against a coast.
type ImpactPoint struct {
	X, Y     float64
	Lon, Lat float64
	Source   components.Kind
}

// Summary aggregates one run for logging and assertions.
type Summary struct {
	Phase1Spawned int
	Phase2Spawned int
	Causes        map[string]int
	Impacts       int
	Slides        int
	Recoveries    int
	Prunes        int
	Stagnations   int
	Arrivals      int
	PolarExits    int
	MeanLength    float64
	MedianLength  float64
}

// Result is everything one engine run produces.
type Result struct {
	Streamlines []Streamline
	Impacts     []ImpactPoint
	Diagnostics []telemetry.Diagnostic
	Summary     Summary
}

// Engine owns one month's simulation. It is single-use: construct, Run,
// discard. Concurrent months each get their own engine.
type Engine struct {
	grid      *grid.Grid
	cfg       *config.Config
	fld       *field.Field
	line      grid.ITCZLine
	collector *telemetry.Collector
	recorder  telemetry.Recorder
	perf      *telemetry.PerfCollector
	rng       *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithField supplies a pre-built wall field, so parallel months can share
// one instead of rebuilding it.
func WithField(f *field.Field) Option {
	return func(e *Engine) { e.fld = f }
}

// WithRecorder attaches a per-step frame recorder.
func WithRecorder(r telemetry.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithPerf attaches a per-phase timing collector.
func WithPerf(p *telemetry.PerfCollector) Option {
	return func(e *Engine) { e.perf = p }
}

// New creates an engine for one grid and convergence line. The wall field is
// built here unless one is injected.
func New(g *grid.Grid, line grid.ITCZLine, cfg *config.Config, opts ...Option) (*Engine, error) {
	if err := line.Validate(g); err != nil {
		return nil, fmt.Errorf("currents: %w", err)
	}

	e := &Engine{
		grid:      g,
		cfg:       cfg,
		line:      line,
		collector: telemetry.NewCollector(),
		rng:       rand.New(rand.NewSource(cfg.Physics.Seed)),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.fld == nil {
		stop := e.perf.Time(telemetry.PhaseFieldBuild)
		e.fld = field.Build(g, cfg.Physics.CollisionBuffer, cfg.Physics.SmoothingIters)
		stop()
	}
	return e, nil
}

// Run executes both passes and assembles the result.
func (e *Engine) Run() (*Result, error) {
	res := &Result{Summary: Summary{Causes: make(map[string]int)}}

	stop := e.perf.Time(telemetry.PhaseCounterPass)
	seeds := e.runCounterPass(res)
	stop()
	slog.Debug("counter_pass_complete",
		"spawned", res.Summary.Phase1Spawned,
		"seeds", len(seeds),
		"impacts", e.collector.Impacts(),
		"prunes", e.collector.Prunes(),
	)

	stop = e.perf.Time(telemetry.PhaseSpawnPlan)
	spawns := e.planReturnSpawns(seeds)
	stop()
	if dropped := 2*len(seeds) - len(spawns); dropped > 0 {
		slog.Debug("impact_thinning", "seeds", len(seeds), "dropped_spawns", dropped)
	}

	stop = e.perf.Time(telemetry.PhaseReturnPass)
	e.runReturnPass(spawns, res)
	stop()
	slog.Debug("return_pass_complete",
		"spawned", res.Summary.Phase2Spawned,
		"arrivals", e.collector.Arrivals(),
		"polar_exits", e.collector.PolarExits(),
	)

	stop = e.perf.Time(telemetry.PhaseAssembly)
	e.assemble(res)
	stop()

	return res, nil
}

// pass holds the per-pass ECS world and the trajectory buffers keyed by
// entity ID. Each pass gets a fresh world so entity IDs restart and the
// collection order is reproducible.
type pass struct {
	world  *ecs.World
	mapper *ecs.Map5[components.Position, components.Velocity, components.Drift, components.Trail, components.Life]
	filter *ecs.Filter5[components.Position, components.Velocity, components.Drift, components.Trail, components.Life]
	trajs  map[uint32][]TrajectoryPoint
}

func newPass() *pass {
	world := ecs.NewWorld()
	return &pass{
		world: world,
		mapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Drift,
			components.Trail,
			components.Life,
		](world),
		filter: ecs.NewFilter5[
			components.Position,
			components.Velocity,
			components.Drift,
			components.Trail,
			components.Life,
		](world),
		trajs: make(map[uint32][]TrajectoryPoint),
	}
}

// spawn creates one agent with the given starting velocity.
func (p *pass) spawn(pos components.Position, vel components.Velocity, kind components.Kind) ecs.Entity {
	drift := components.Drift{Kind: kind}
	trail := components.Trail{}
	life := components.Life{State: components.StateActive}
	return p.mapper.NewEntity(&pos, &vel, &drift, &trail, &life)
}

// record appends one trajectory sample for the entity.
func (e *Engine) record(p *pass, id uint32, pos *components.Position, vel *components.Velocity) {
	p.trajs[id] = append(p.trajs[id], TrajectoryPoint{
		X:   pos.X,
		Y:   pos.Y,
		Lon: e.grid.LonAt(pos.X),
		Lat: e.grid.LatAt(pos.Y),
		VX:  vel.X,
		VY:  vel.Y,
	})
}

// captureFrame snapshots every live agent for the attached recorder.
func (e *Engine) captureFrame(p *pass, phase string, step int) {
	if e.recorder == nil {
		return
	}
	frame := telemetry.Frame{Phase: phase, Step: step}
	query := p.filter.Query()
	for query.Next() {
		pos, vel, drift, _, life := query.Get()
		frame.Agents = append(frame.Agents,
			telemetry.NewAgentFrame(uint32(query.Entity().ID()), *pos, *vel, *drift, *life))
	}
	e.recorder.RecordFrame(frame)
}

// collect finalizes and removes every terminated agent, in query order so
// the output ordering is deterministic. Phase-1 coast terminations are
// returned to the caller as return-pass seeds.
func (e *Engine) collect(p *pass, res *Result) []ImpactPoint {
	type done struct {
		entity ecs.Entity
		id     uint32
		pos    components.Position
		kind   components.Kind
		cause  components.Cause
	}
	var finished []done

	query := p.filter.Query()
	for query.Next() {
		pos, _, drift, _, life := query.Get()
		if !life.State.Terminal() {
			continue
		}
		finished = append(finished, done{
			entity: query.Entity(),
			id:     uint32(query.Entity().ID()),
			pos:    *pos,
			kind:   drift.Kind,
			cause:  life.Cause,
		})
	}

	var seeds []ImpactPoint
	for _, d := range finished {
		res.Summary.Causes[d.cause.String()]++

		pts := p.trajs[d.id]
		delete(p.trajs, d.id)
		if len(pts) > e.cfg.Physics.MinSamples {
			res.Streamlines = append(res.Streamlines, Streamline{
				Type:     typeForKind(d.kind),
				Strength: e.strength(pts),
				Points:   pts,
			})
		}

		impact := ImpactPoint{
			X:      d.pos.X,
			Y:      d.pos.Y,
			Lon:    e.grid.LonAt(d.pos.X),
			Lat:    e.grid.LatAt(d.pos.Y),
			Source: d.kind,
		}
		switch d.cause {
		case components.CauseImpact, components.CauseArrival:
			res.Impacts = append(res.Impacts, impact)
		case components.CauseStagnation:
			// A counter-current that stalls against a coast still marks a
			// boundary: record it like a head-on impact.
			if d.kind == components.KindECC {
				res.Impacts = append(res.Impacts, impact)
			}
		}
		if d.kind == components.KindECC &&
			(d.cause == components.CauseImpact || d.cause == components.CauseStagnation) {
			seeds = append(seeds, impact)
		}

		p.mapper.Remove(d.entity)
	}
	return seeds
}

// expire terminates every still-live agent when the step budget runs out.
func (p *pass) expire() {
	query := p.filter.Query()
	for query.Next() {
		_, _, _, _, life := query.Get()
		if !life.State.Terminal() {
			terminate(life, components.StateDead, components.CauseExpired)
		}
	}
}

func typeForKind(k components.Kind) string {
	switch k {
	case components.KindECNorth:
		return TypeSplitN
	case components.KindECSouth:
		return TypeSplitS
	}
	return TypeMain
}

// strength is the mean speed along the trajectory relative to base speed.
func (e *Engine) strength(pts []TrajectoryPoint) float64 {
	speeds := make([]float64, len(pts))
	for i, pt := range pts {
		speeds[i] = math.Hypot(pt.VX, pt.VY)
	}
	return stat.Mean(speeds, nil) / e.cfg.Physics.BaseSpeed
}

// assemble fills the run summary from the collector and streamline set.
func (e *Engine) assemble(res *Result) {
	res.Diagnostics = e.collector.Diagnostics()
	res.Summary.Impacts = e.collector.Impacts()
	res.Summary.Slides = e.collector.Slides()
	res.Summary.Recoveries = e.collector.Recoveries()
	res.Summary.Prunes = e.collector.Prunes()
	res.Summary.Stagnations = e.collector.Stagnations()
	res.Summary.Arrivals = e.collector.Arrivals()
	res.Summary.PolarExits = e.collector.PolarExits()

	if len(res.Streamlines) == 0 {
		return
	}
	lengths := make([]float64, len(res.Streamlines))
	for i, sl := range res.Streamlines {
		lengths[i] = float64(len(sl.Points))
	}
	sort.Float64s(lengths)
	res.Summary.MeanLength = stat.Mean(lengths, nil)
	res.Summary.MedianLength = stat.Quantile(0.5, stat.Empirical, lengths, nil)
}
