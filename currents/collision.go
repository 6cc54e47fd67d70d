package currents

import (
	"github.com/pthm-cable/gyre/components"
)

// moveResult classifies one sub-step of motion.
type moveResult uint8

const (
	moveOK        moveResult = iota // ended in open water
	moveImpact                      // hit a wall head-on
	moveSlide                       // grazed a wall, velocity projected tangentially
	moveRecovered                   // started inside a wall, pushed back out
)

// contact is the inward wall normal at the point of a hit.
type contact struct {
	nx, ny float64
}

// advance moves an agent one sub-step against the wall field. Longitude
// wraps, latitude clamps. The wall boundary is located by bisecting the
// sub-step interval, so fast agents cannot tunnel through thin land.
func (e *Engine) advance(pos *components.Position, vel *components.Velocity, dt float64) (moveResult, contact) {
	s0 := e.fld.At(pos.X, pos.Y)
	if s0.Dist > 0 {
		// Stale overlap from a previous step. Push back along the gradient,
		// converting the field-unit depth into cells.
		nx, ny, ok := s0.Normal()
		if ok {
			push := s0.Dist/s0.GradMag() + e.cfg.Physics.SlideEpsilon
			pos.X = e.grid.WrapX(pos.X - nx*push)
			pos.Y = e.grid.ClampY(pos.Y - ny*push)
		}
		return moveRecovered, contact{nx, ny}
	}

	tx := e.grid.WrapX(pos.X + vel.X*dt)
	ty := e.grid.ClampY(pos.Y + vel.Y*dt)

	s1 := e.fld.At(tx, ty)
	if s1.Dist <= 0 {
		pos.X = tx
		pos.Y = ty
		return moveOK, contact{}
	}

	// The sub-step crosses the wall boundary. Bisect for the crossing and
	// stop on the free side of it. The interval never wraps because a
	// sub-step is far shorter than half the grid.
	lo, hi := 0.0, 1.0
	dx := components.WrapDelta(tx-pos.X, float64(e.grid.Cols))
	dy := ty - pos.Y
	for i := 0; i < e.cfg.Physics.BisectIters; i++ {
		mid := (lo + hi) / 2
		if e.fld.At(e.grid.WrapX(pos.X+dx*mid), pos.Y+dy*mid).Dist > 0 {
			hi = mid
		} else {
			lo = mid
		}
	}
	pos.X = e.grid.WrapX(pos.X + dx*lo)
	pos.Y = e.grid.ClampY(pos.Y + dy*lo)

	nx, ny, ok := e.fld.At(e.grid.WrapX(pos.X+dx*(hi-lo)), e.grid.ClampY(pos.Y+dy*(hi-lo))).Normal()
	if !ok {
		return moveOK, contact{}
	}

	vn := vel.X*nx + vel.Y*ny
	if vn > e.cfg.Physics.ImpactThreshold {
		return moveImpact, contact{nx, ny}
	}

	// Glancing: drop the inward component and nudge off the wall.
	vel.X -= vn * nx
	vel.Y -= vn * ny
	pos.X = e.grid.WrapX(pos.X - nx*e.cfg.Physics.SlideEpsilon)
	pos.Y = e.grid.ClampY(pos.Y - ny*e.cfg.Physics.SlideEpsilon)
	return moveSlide, contact{nx, ny}
}
