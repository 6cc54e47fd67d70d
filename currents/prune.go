package currents

import "math"

// directionCache records, per grid cell, the travel direction of the first
// agent that passed through it. A later agent whose direction is close to the
// recorded one is redundant: it would trace the same streamline again. The
// cache is built fresh for each pass.
type directionCache struct {
	rows, cols int
	vx, vy     []float64
	set        []bool
	threshold  float64
}

func newDirectionCache(rows, cols int, threshold float64) *directionCache {
	n := rows * cols
	return &directionCache{
		rows:      rows,
		cols:      cols,
		vx:        make([]float64, n),
		vy:        make([]float64, n),
		set:       make([]bool, n),
		threshold: threshold,
	}
}

// Check registers the agent's direction in its current cell and reports
// whether the agent duplicates an earlier visitor. Near-zero velocities are
// never pruned; a stalled agent is the stagnation detector's problem.
func (c *directionCache) Check(col, row int, vx, vy float64) bool {
	if col < 0 {
		col += c.cols
	} else if col >= c.cols {
		col -= c.cols
	}
	if row < 0 {
		row = 0
	} else if row >= c.rows {
		row = c.rows - 1
	}

	mag := math.Hypot(vx, vy)
	if mag < 1e-9 {
		return false
	}

	i := row*c.cols + col
	if !c.set[i] {
		c.set[i] = true
		c.vx[i] = vx / mag
		c.vy[i] = vy / mag
		return false
	}

	sim := c.vx[i]*vx/mag + c.vy[i]*vy/mag
	return sim >= c.threshold
}
