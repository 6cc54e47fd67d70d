// Package grid holds the world grid the current engine runs on: per-cell
// latitude, longitude and signed coastline distance, plus the coordinate
// helpers shared by the field builder and the simulation passes.
package grid

import (
	"fmt"
	"math"
)

// earthCircumferenceKm is the equatorial circumference used to convert
// physical offsets into grid cells.
const earthCircumferenceKm = 40075.017

// Cell is one grid cell. DistanceToCoast is positive inland and negative
// offshore, in the same units the upstream geography stage produces.
type Cell struct {
	Lat             float64 `csv:"lat"`
	Lon             float64 `csv:"lon"`
	DistanceToCoast float64 `csv:"distance_to_coast"`
}

// Grid is a row-major rows x cols world grid. Row 0 touches the north pole,
// column 0 sits at longitude -180. Longitude wraps, latitude does not.
type Grid struct {
	Rows  int
	Cols  int
	Cells []Cell
}

// New builds a grid from row-major cells, failing fast on a shape mismatch.
func New(rows, cols int, cells []Cell) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("grid: invalid resolution %dx%d", cols, rows)
	}
	if len(cells) != rows*cols {
		return nil, fmt.Errorf("grid: %d cells for declared resolution %dx%d (want %d)",
			len(cells), cols, rows, rows*cols)
	}
	return &Grid{Rows: rows, Cols: cols, Cells: cells}, nil
}

// FromDistanceFunc builds a grid procedurally from a coast-distance function.
// Lat/lon are derived from the cell position.
func FromDistanceFunc(rows, cols int, dist func(row, col int) float64) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("grid: invalid resolution %dx%d", cols, rows)
	}
	cells := make([]Cell, rows*cols)
	g := &Grid{Rows: rows, Cols: cols, Cells: cells}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cells[r*cols+c] = Cell{
				Lat:             g.LatAt(float64(r)),
				Lon:             g.LonAt(float64(c)),
				DistanceToCoast: dist(r, c),
			}
		}
	}
	return g, nil
}

// At returns the cell at (col, row). Bounds are the caller's problem.
func (g *Grid) At(col, row int) *Cell {
	return &g.Cells[row*g.Cols+col]
}

// Distances returns a fresh row-major copy of the coast distances.
func (g *Grid) Distances() []float64 {
	out := make([]float64, len(g.Cells))
	for i := range g.Cells {
		out[i] = g.Cells[i].DistanceToCoast
	}
	return out
}

// LatAt converts a fractional row position to degrees latitude.
func (g *Grid) LatAt(y float64) float64 {
	return 90 - (y+0.5)*180/float64(g.Rows)
}

// LonAt converts a fractional column position to degrees longitude in [-180, 180).
func (g *Grid) LonAt(x float64) float64 {
	lon := -180 + math.Mod(x+0.5, float64(g.Cols))*360/float64(g.Cols)
	if lon >= 180 {
		lon -= 360
	}
	return lon
}

// RowAtLat converts degrees latitude to a fractional row position.
func (g *Grid) RowAtLat(lat float64) float64 {
	return (90-lat)*float64(g.Rows)/180 - 0.5
}

// WrapX wraps a fractional column position into [0, cols).
func (g *Grid) WrapX(x float64) float64 {
	cols := float64(g.Cols)
	x = math.Mod(x, cols)
	if x < 0 {
		x += cols
	}
	return x
}

// ClampY clamps a fractional row position into the grid.
func (g *Grid) ClampY(y float64) float64 {
	if y < 0 {
		return 0
	}
	if max := float64(g.Rows - 1); y > max {
		return max
	}
	return y
}

// KmPerCellLon returns the east-west extent of one cell at the given latitude.
// Near the poles the parallel circumference collapses; a small floor keeps
// km-to-cell conversions finite.
func (g *Grid) KmPerCellLon(lat float64) float64 {
	circ := earthCircumferenceKm * math.Cos(lat*math.Pi/180)
	const minCircKm = 100.0
	if circ < minCircKm {
		circ = minCircKm
	}
	return circ / float64(g.Cols)
}

// ITCZLine is the per-column convergence target row for one month.
type ITCZLine []float64

// FlatITCZ builds a constant-latitude convergence line for the grid.
func FlatITCZ(lat float64, g *Grid) ITCZLine {
	row := g.RowAtLat(lat)
	line := make(ITCZLine, g.Cols)
	for i := range line {
		line[i] = row
	}
	return line
}

// Validate checks the line against the grid it will steer agents on.
func (l ITCZLine) Validate(g *Grid) error {
	if len(l) != g.Cols {
		return fmt.Errorf("grid: convergence line has %d columns, grid has %d", len(l), g.Cols)
	}
	return nil
}
