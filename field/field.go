// Package field builds the smoothed scalar wall field the current engine
// collides against, and its gradient. Positive values are land, negative
// values open ocean. The field is built once per run and read-only afterwards.
package field

import (
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/gyre/grid"
)

// Field is the smoothed collision field and its central-difference gradient,
// row-major at the grid resolution. The gradient points toward increasing
// values, i.e. toward land.
type Field struct {
	Rows, Cols int
	Values     []float64
	GradX      []float64
	GradY      []float64
}

// Build initializes the field as coast distance plus buffer, applies the
// requested number of 3x3 box blur passes (toroidal in longitude, clamped at
// the poles) and computes the gradient. Zero iterations leave the raw field
// untouched, so an already-smoothed field passed back through is unchanged.
func Build(g *grid.Grid, buffer float64, iterations int) *Field {
	f := &Field{
		Rows:   g.Rows,
		Cols:   g.Cols,
		Values: g.Distances(),
		GradX:  make([]float64, g.Rows*g.Cols),
		GradY:  make([]float64, g.Rows*g.Cols),
	}
	floats.AddConst(buffer, f.Values)

	tmp := make([]float64, len(f.Values))
	for i := 0; i < iterations; i++ {
		f.blurOnce(tmp)
		f.Values, tmp = tmp, f.Values
	}

	f.computeGradient()
	return f
}

func (f *Field) idx(col, row int) int {
	return row*f.Cols + col
}

func (f *Field) wrapCol(c int) int {
	c %= f.Cols
	if c < 0 {
		c += f.Cols
	}
	return c
}

func (f *Field) clampRow(r int) int {
	if r < 0 {
		return 0
	}
	if r >= f.Rows {
		return f.Rows - 1
	}
	return r
}

// blurOnce writes the 3x3 neighborhood mean of Values into dst.
func (f *Field) blurOnce(dst []float64) {
	for r := 0; r < f.Rows; r++ {
		for c := 0; c < f.Cols; c++ {
			var sum float64
			for dr := -1; dr <= 1; dr++ {
				rr := f.clampRow(r + dr)
				for dc := -1; dc <= 1; dc++ {
					sum += f.Values[f.idx(f.wrapCol(c+dc), rr)]
				}
			}
			dst[f.idx(c, r)] = sum / 9
		}
	}
}

// computeGradient fills GradX/GradY with central differences. At the pole
// rows the vertical difference degenerates to one-sided over the same span.
func (f *Field) computeGradient() {
	for r := 0; r < f.Rows; r++ {
		for c := 0; c < f.Cols; c++ {
			east := f.Values[f.idx(f.wrapCol(c+1), r)]
			west := f.Values[f.idx(f.wrapCol(c-1), r)]
			south := f.Values[f.idx(c, f.clampRow(r+1))]
			north := f.Values[f.idx(c, f.clampRow(r-1))]
			i := f.idx(c, r)
			f.GradX[i] = (east - west) / 2
			f.GradY[i] = (south - north) / 2
		}
	}
}

// Wall reports whether the cell at (col, row) is inside a wall.
func (f *Field) Wall(col, row int) bool {
	return f.Values[f.idx(f.wrapCol(col), f.clampRow(row))] > 0
}

// ValueAt returns the raw cell value at (col, row), wrapped and clamped.
func (f *Field) ValueAt(col, row int) float64 {
	return f.Values[f.idx(f.wrapCol(col), f.clampRow(row))]
}
