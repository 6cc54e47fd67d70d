package currents

import (
	"math"

	"github.com/pthm-cable/gyre/components"
)

// planCounterSpawns picks the seed positions for the eastward pass: one agent
// per stride column along the convergence line, plus one immediately east of
// every wall so no coastline segment goes unsampled. Columns where the line
// sits in shallow water or on land are skipped.
func (e *Engine) planCounterSpawns() []components.Position {
	var spawns []components.Position
	for c := 0; c < e.grid.Cols; c++ {
		y := e.line[c]
		row := int(math.Round(y))
		if e.fld.ValueAt(c, row) > e.cfg.Physics.ShallowLimit {
			continue
		}
		westWall := e.fld.Wall(c-1, row)
		if westWall || c%e.cfg.Derived.SpawnStride == 0 {
			spawns = append(spawns, components.Position{X: float64(c), Y: y})
		}
	}
	return spawns
}

// returnSpawnPoint derives a return-current seed from an eastward impact:
// walk west until the water is deep, then back off a further physical offset
// so the return agents start clear of the coastal gradient. Reports false
// when no deep water exists on the whole parallel.
func (e *Engine) returnSpawnPoint(x, y float64) (components.Position, bool) {
	px := x
	found := false
	for i := 0; i < e.grid.Cols; i++ {
		if e.fld.At(px, y).Dist < e.cfg.Physics.DeepWaterLimit {
			found = true
			break
		}
		px = e.grid.WrapX(px - 1)
	}
	if !found {
		return components.Position{}, false
	}

	lat := e.grid.LatAt(y)
	offset := e.cfg.Physics.SpawnOffsetKm / e.grid.KmPerCellLon(lat)
	return components.Position{X: e.grid.WrapX(px - offset), Y: y}, true
}

// planReturnSpawns converts the eastward pass's termination points into
// return-current seeds, two per point: both branches start at the same deep
// water origin and diverge under their own latitude targets. Thinning, when
// enabled, drops a deterministic subset of seeds before expansion.
func (e *Engine) planReturnSpawns(seeds []ImpactPoint) []returnSpawn {
	var out []returnSpawn
	for _, seed := range seeds {
		if e.cfg.Physics.ImpactKeepRatio < 1 && e.rng.Float64() >= e.cfg.Physics.ImpactKeepRatio {
			continue
		}
		origin, ok := e.returnSpawnPoint(seed.X, seed.Y)
		if !ok {
			continue
		}
		out = append(out,
			returnSpawn{pos: origin, kind: components.KindECNorth},
			returnSpawn{pos: origin, kind: components.KindECSouth},
		)
	}
	return out
}

// returnSpawn is one planned return-current agent.
type returnSpawn struct {
	pos  components.Position
	kind components.Kind
}

func (e *Engine) wrapColIdx(c int) int {
	c %= e.grid.Cols
	if c < 0 {
		c += e.grid.Cols
	}
	return c
}
