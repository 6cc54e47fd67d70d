package currents

import (
	"math"

	"github.com/pthm-cable/gyre/components"
	"github.com/pthm-cable/gyre/field"
)

// runReturnPass drives the westward return currents from the planned seeds.
// Each seed already carries its branch; the two branches only differ in the
// latitude they home on.
func (e *Engine) runReturnPass(spawns []returnSpawn, res *Result) {
	p := newPass()
	cache := newDirectionCache(e.grid.Rows, e.grid.Cols, e.cfg.Physics.PruneSimilarity)

	vel := components.Velocity{X: -0.5 * e.cfg.Physics.BaseSpeed}
	for _, s := range spawns {
		ent := p.spawn(s.pos, vel, s.kind)
		e.record(p, uint32(ent.ID()), &s.pos, &vel)
	}
	res.Summary.Phase2Spawned = len(spawns)

	for step := 0; step < e.cfg.Physics.MaxSteps; step++ {
		live := e.stepReturn(p, cache)
		e.captureFrame(p, phaseReturn, step)
		e.collect(p, res)
		if live == 0 {
			break
		}
	}
	p.expire()
	e.collect(p, res)
}

// targetRow returns the branch's home row under the convergence line at the
// given column.
func (e *Engine) targetRow(kind components.Kind, col int) float64 {
	if kind == components.KindECSouth {
		return e.line[col] + e.cfg.Derived.GapRows
	}
	return e.line[col] - e.cfg.Derived.GapRows
}

// stepReturn advances every live return agent one outer step and returns how
// many remain live.
func (e *Engine) stepReturn(p *pass, cache *directionCache) int {
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
		err := e.targetRow(drift.Kind, col) - pos.Y
		s := e.fld.At(pos.X, pos.Y)

		crawl := s.Dist > -phy.CrawlBuffer && math.Abs(err) > phy.CrawlLatTol
		setCrawling(life, crawl)

		if life.State == components.StateCrawling {
			e.steerCrawl(vel, s, err)
		} else {
			// Spring toward the home row, with damping raised toward
			// critical inside the capture window so the agent settles
			// instead of oscillating across it.
			damping := phy.Damping
			if w := phy.DampingWindow; w > 0 && math.Abs(err) < w {
				if crit := e.cfg.CriticalDamping(); crit > damping {
					damping += (crit - damping) * (1 - math.Abs(err)/w)
				}
			}
			ax := -e.cfg.Derived.DriveAccel
			ay := phy.Spring*err - damping*vel.Y
			if drift.Kind == components.KindECNorth {
				ay -= phy.PolewardDrift
			} else {
				ay += phy.PolewardDrift
			}
			if s.Dist > -phy.WallBuffer {
				if nx, ny, ok := s.Normal(); ok {
					prox := (s.Dist + phy.WallBuffer) / phy.WallBuffer
					ax -= nx * phy.Repulsion * prox
					ay -= ny * phy.Repulsion * prox
				}
			}
			vel.X += ax
			vel.Y += ay
			clampSpeed(vel, e.cfg.Derived.MaxSpeed)
		}

		for sub := 0; sub < phy.SubSteps; sub++ {
			result, c := e.advance(pos, vel, e.cfg.Derived.SubDT)
			switch result {
			case moveImpact:
				if c.nx < 0 {
					// Land to the west: the agent completed its circuit.
					terminate(life, components.StateDead, components.CauseArrival)
					e.collector.RecordArrival()
					if life.Age < phy.InfantAge {
						e.collector.RecordInfantDeath(pos.X, pos.Y, life.Age, drift.Kind)
					}
				} else {
					// A wall in any other direction is an obstacle, not a
					// destination. Shed the inward velocity and crawl.
					vn := vel.X*c.nx + vel.Y*c.ny
					vel.X -= vn * c.nx
					vel.Y -= vn * c.ny
					setCrawling(life, true)
					e.collector.RecordSlide()
				}
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

		if math.Abs(e.grid.LatAt(pos.Y)) >= phy.PolarExitLat {
			terminate(life, components.StateDead, components.CausePolarExit)
			e.collector.RecordPolarExit()
			continue
		}
		if life.State == components.StateActive &&
			math.Hypot(vel.X, vel.Y) < e.cfg.Derived.MinSpeed {
			terminate(life, components.StateDead, components.CauseSpeedFloor)
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

// steerCrawl sets a crawling agent's velocity: tangent to the wall in the
// direction that closes the latitude error, with a small outward component
// so the agent does not grind into the surface.
func (e *Engine) steerCrawl(vel *components.Velocity, s field.Sample, err float64) {
	nx, ny, ok := s.Normal()
	if !ok {
		return
	}
	tx, ty := -ny, nx
	if ty*err < 0 || (ty == 0 && tx > 0) {
		tx, ty = -tx, -ty
	}
	speed := e.cfg.Physics.CrawlSpeed * e.cfg.Physics.BaseSpeed
	vel.X = tx*speed - nx*e.cfg.Physics.SlideEpsilon
	vel.Y = ty*speed - ny*e.cfg.Physics.SlideEpsilon
}
