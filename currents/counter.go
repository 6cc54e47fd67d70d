package currents

import (
	"math"

	"github.com/pthm-cable/gyre/components"
)

// Frame capture phase tags.
const (
	phaseCounter = "counter"
	phaseReturn  = "return"
)

// runCounterPass drives the eastward counter-current along the convergence
// line until every agent has terminated or the step budget runs out. The
// coast terminations it returns seed the return pass.
func (e *Engine) runCounterPass(res *Result) []ImpactPoint {
	p := newPass()
	cache := newDirectionCache(e.grid.Rows, e.grid.Cols, e.cfg.Physics.PruneSimilarity)

	spawns := e.planCounterSpawns()
	vel := components.Velocity{X: 0.5 * e.cfg.Physics.BaseSpeed}
	for _, pos := range spawns {
		ent := p.spawn(pos, vel, components.KindECC)
		e.record(p, uint32(ent.ID()), &pos, &vel)
	}
	res.Summary.Phase1Spawned = len(spawns)

	var seeds []ImpactPoint
	for step := 0; step < e.cfg.Physics.MaxSteps; step++ {
		live := e.stepCounter(p, cache)
		e.captureFrame(p, phaseCounter, step)
		seeds = append(seeds, e.collect(p, res)...)
		if live == 0 {
			break
		}
	}
	p.expire()
	seeds = append(seeds, e.collect(p, res)...)
	return seeds
}

// stepCounter advances every live counter-current agent one outer step and
// returns how many remain live.
func (e *Engine) stepCounter(p *pass, cache *directionCache) int {
	phy := &e.cfg.Physics
	live := 0

	query := p.filter.Query()
	for query.Next() {
		pos, vel, drift, trail, life := query.Get()
		if life.State.Terminal() {
			continue
		}
		id := uint32(query.Entity().ID())

		col := e.wrapColIdx(int(math.Round(pos.X)))
		target := e.line[col]

		vel.X += e.cfg.Derived.DriveAccel
		vel.Y += (target - pos.Y) * phy.PatternForce
		clampSpeed(vel, e.cfg.Derived.MaxSpeed)

		for s := 0; s < phy.SubSteps; s++ {
			result, _ := e.advance(pos, vel, e.cfg.Derived.SubDT)
			switch result {
			case moveImpact:
				terminate(life, components.StateImpact, components.CauseImpact)
				e.collector.RecordImpact()
			case moveSlide:
				e.collector.RecordSlide()
			case moveRecovered:
				e.collector.RecordRecovery()
			}
			if life.State.Terminal() {
				break
			}
		}

		life.Age++
		e.record(p, id, pos, vel)
		if life.State.Terminal() {
			continue
		}

		if math.Hypot(vel.X, vel.Y) < e.cfg.Derived.MinSpeed {
			terminate(life, components.StateDead, components.CauseSpeedFloor)
			continue
		}
		if math.Abs(pos.Y-target) > phy.MaxDeflection {
			terminate(life, components.StateDead, components.CauseDeflection)
			continue
		}

		trail.Push(pos.X, pos.Y)
		d := trail.NetDisplacement(phy.StagnationSteps, float64(e.grid.Cols))
		if d >= 0 && d < phy.StagnationDist {
			terminate(life, components.StateStuck, components.CauseStagnation)
			e.collector.RecordStagnation(pos.X, pos.Y, life.Age, drift.Kind)
			continue
		}

		// Check the direction cache only on cell entry, so an agent that
		// lingers in a cell is not pruned against its own record.
		curCol := e.wrapColIdx(int(math.Round(pos.X)))
		curRow := int(math.Round(pos.Y))
		entered := true
		if trail.Count() >= 2 {
			px, py := trail.Back(1)
			entered = e.wrapColIdx(int(math.Round(px))) != curCol ||
				int(math.Round(py)) != curRow
		}
		if entered && cache.Check(curCol, curRow, vel.X, vel.Y) {
			terminate(life, components.StateDead, components.CausePruned)
			e.collector.RecordPrune()
			continue
		}
		live++
	}
	return live
}

// clampSpeed rescales the velocity when it exceeds max.
func clampSpeed(vel *components.Velocity, max float64) {
	sp := math.Hypot(vel.X, vel.Y)
	if sp > max {
		scale := max / sp
		vel.X *= scale
		vel.Y *= scale
	}
}
