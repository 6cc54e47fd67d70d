package grid

import (
	"math"
	"path/filepath"
	"testing"
)

func allOcean(rows, cols int) *Grid {
	g, err := FromDistanceFunc(rows, cols, func(row, col int) float64 { return -1000 })
	if err != nil {
		panic(err)
	}
	return g
}

func TestNewShapeMismatch(t *testing.T) {
	if _, err := New(10, 10, make([]Cell, 99)); err == nil {
		t.Error("expected error for 99 cells on a 10x10 grid")
	}
	if _, err := New(0, 10, nil); err == nil {
		t.Error("expected error for zero rows")
	}
}

func TestLatLonConversion(t *testing.T) {
	g := allOcean(180, 360)

	tests := []struct {
		y, wantLat float64
	}{
		{0, 89.5},
		{89.5, 0},
		{179, -89.5},
	}
	for _, tt := range tests {
		if got := g.LatAt(tt.y); math.Abs(got-tt.wantLat) > 1e-9 {
			t.Errorf("LatAt(%f): expected %f, got %f", tt.y, tt.wantLat, got)
		}
		// RowAtLat inverts LatAt.
		if got := g.RowAtLat(tt.wantLat); math.Abs(got-tt.y) > 1e-9 {
			t.Errorf("RowAtLat(%f): expected %f, got %f", tt.wantLat, tt.y, got)
		}
	}

	if got := g.LonAt(0); math.Abs(got-(-179.5)) > 1e-9 {
		t.Errorf("LonAt(0): expected -179.5, got %f", got)
	}
	if got := g.LonAt(359.5); got < -180 || got >= 180 {
		t.Errorf("LonAt must stay in [-180,180), got %f", got)
	}
}

func TestWrapAndClamp(t *testing.T) {
	g := allOcean(180, 360)

	if got := g.WrapX(-1); got != 359 {
		t.Errorf("WrapX(-1): expected 359, got %f", got)
	}
	if got := g.WrapX(360.5); got != 0.5 {
		t.Errorf("WrapX(360.5): expected 0.5, got %f", got)
	}
	if got := g.ClampY(-3); got != 0 {
		t.Errorf("ClampY(-3): expected 0, got %f", got)
	}
	if got := g.ClampY(200); got != 179 {
		t.Errorf("ClampY(200): expected 179, got %f", got)
	}
}

func TestKmPerCellLon(t *testing.T) {
	g := allOcean(180, 360)

	equator := g.KmPerCellLon(0)
	if math.Abs(equator-40075.017/360) > 1e-6 {
		t.Errorf("expected ~111.32 km/cell at equator, got %f", equator)
	}

	mid := g.KmPerCellLon(60)
	if math.Abs(mid-equator/2) > 1e-6 {
		t.Errorf("expected half the equatorial extent at 60N, got %f", mid)
	}

	// Near the pole the floor keeps the conversion finite.
	polar := g.KmPerCellLon(89.9)
	if polar <= 0 {
		t.Errorf("expected positive cell extent near the pole, got %f", polar)
	}
}

func TestFlatITCZ(t *testing.T) {
	g := allOcean(180, 360)
	line := FlatITCZ(5, g)

	if err := line.Validate(g); err != nil {
		t.Fatalf("line failed validation: %v", err)
	}
	want := g.RowAtLat(5)
	for c, row := range line {
		if row != want {
			t.Fatalf("column %d: expected row %f, got %f", c, want, row)
		}
	}

	short := ITCZLine(make([]float64, 10))
	if err := short.Validate(g); err == nil {
		t.Error("expected validation error for a short line")
	}
}

func TestCSVRoundTrip(t *testing.T) {
	g, err := FromDistanceFunc(4, 8, func(row, col int) float64 {
		return float64(row*8+col) - 16
	})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "grid.csv")
	if err := g.WriteCSV(path); err != nil {
		t.Fatalf("writing grid: %v", err)
	}

	loaded, err := LoadCSV(path, 4, 8)
	if err != nil {
		t.Fatalf("loading grid: %v", err)
	}
	for i := range g.Cells {
		if g.Cells[i] != loaded.Cells[i] {
			t.Fatalf("cell %d changed in round trip: %+v != %+v", i, g.Cells[i], loaded.Cells[i])
		}
	}

	if _, err := LoadCSV(path, 8, 8); err == nil {
		t.Error("expected error loading with the wrong declared resolution")
	}
}
