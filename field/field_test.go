package field

import (
	"math"
	"testing"

	"github.com/pthm-cable/gyre/grid"
)

// stripGrid has land in columns [12,16) of a 16x8 grid, everything else ocean.
func stripGrid(t *testing.T) *grid.Grid {
	t.Helper()
	g, err := grid.FromDistanceFunc(8, 16, func(row, col int) float64 {
		if col >= 12 {
			return 100
		}
		return -100
	})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestBuildZeroIterations(t *testing.T) {
	g := stripGrid(t)
	f := Build(g, 3, 0)

	// No smoothing: values are exactly distance plus buffer.
	if got := f.ValueAt(0, 0); got != -97 {
		t.Errorf("ocean cell: expected -97, got %f", got)
	}
	if got := f.ValueAt(13, 4); got != 103 {
		t.Errorf("land cell: expected 103, got %f", got)
	}
	if !f.Wall(13, 4) {
		t.Error("expected land cell to be a wall")
	}
	if f.Wall(5, 4) {
		t.Error("expected open ocean cell not to be a wall")
	}
}

func TestGradientPointsTowardLand(t *testing.T) {
	g := stripGrid(t)
	f := Build(g, 0, 0)

	// West of the strip the gradient must point east, toward land.
	i := 4*f.Cols + 11
	if f.GradX[i] <= 0 {
		t.Errorf("expected positive x gradient west of land, got %f", f.GradX[i])
	}
	// East of the strip (wrapping) it must point west.
	i = 4*f.Cols + 0
	if f.GradX[i] >= 0 {
		t.Errorf("expected negative x gradient east of land, got %f", f.GradX[i])
	}
	// Mid-ocean the gradient is flat.
	i = 4*f.Cols + 5
	if f.GradX[i] != 0 || f.GradY[i] != 0 {
		t.Errorf("expected flat gradient mid-ocean, got (%f, %f)", f.GradX[i], f.GradY[i])
	}
}

func TestSmoothingConserves(t *testing.T) {
	g := stripGrid(t)
	raw := Build(g, 0, 0)
	smooth := Build(g, 0, 3)

	// The box blur is an average, so values stay within the raw extremes
	// and the land/ocean transition is still present.
	for i, v := range smooth.Values {
		if v < -100 || v > 100 {
			t.Fatalf("cell %d out of range after smoothing: %f", i, v)
		}
	}
	if raw.Wall(13, 4) && !smooth.Wall(13, 4) {
		t.Error("expected interior land to survive smoothing")
	}
	if smooth.Wall(5, 4) {
		t.Error("expected mid-ocean to stay open after smoothing")
	}
}

func TestBilinearSample(t *testing.T) {
	g := stripGrid(t)
	f := Build(g, 0, 0)

	// On a cell center the sample equals the cell value.
	if got := f.At(5, 3).Dist; got != -100 {
		t.Errorf("cell center: expected -100, got %f", got)
	}
	// Halfway between equal cells nothing changes.
	if got := f.At(5.5, 3).Dist; got != -100 {
		t.Errorf("between equal cells: expected -100, got %f", got)
	}
	// Halfway across the land boundary the sample is the midpoint.
	if got := f.At(11.5, 3).Dist; math.Abs(got) > 1e-9 {
		t.Errorf("boundary midpoint: expected 0, got %f", got)
	}
}

func TestSampleWrapsLongitude(t *testing.T) {
	g, err := grid.FromDistanceFunc(8, 16, func(row, col int) float64 {
		if col == 0 {
			return 100
		}
		return -100
	})
	if err != nil {
		t.Fatal(err)
	}
	f := Build(g, 0, 0)

	// Sampling between the last column and the wrapped first column.
	if got := f.At(15.5, 3).Dist; math.Abs(got) > 1e-9 {
		t.Errorf("wrapped midpoint: expected 0, got %f", got)
	}
}

func TestNormal(t *testing.T) {
	s := Sample{Dist: 10, GX: 3, GY: 4}
	nx, ny, ok := s.Normal()
	if !ok {
		t.Fatal("expected a normal for a non-zero gradient")
	}
	if math.Abs(nx-0.6) > 1e-12 || math.Abs(ny-0.8) > 1e-12 {
		t.Errorf("expected unit normal (0.6, 0.8), got (%f, %f)", nx, ny)
	}
	if math.Abs(s.GradMag()-5) > 1e-12 {
		t.Errorf("expected gradient magnitude 5, got %f", s.GradMag())
	}

	flat := Sample{}
	if _, _, ok := flat.Normal(); ok {
		t.Error("expected no normal for a flat sample")
	}
}
