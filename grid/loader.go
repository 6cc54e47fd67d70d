package grid

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// LoadCSV reads a row-major grid from a CSV file with lat, lon and
// distance_to_coast columns, validating the record count against the
// declared resolution.
func LoadCSV(path string, rows, cols int) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening grid file: %w", err)
	}
	defer f.Close()

	var cells []Cell
	if err := gocsv.UnmarshalFile(f, &cells); err != nil {
		return nil, fmt.Errorf("parsing grid file: %w", err)
	}
	g, err := New(rows, cols, cells)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// WriteCSV writes the grid in the format LoadCSV reads, for round-tripping
// procedurally generated worlds.
func (g *Grid) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating grid file: %w", err)
	}
	defer f.Close()

	if err := gocsv.Marshal(g.Cells, f); err != nil {
		return fmt.Errorf("writing grid file: %w", err)
	}
	return nil
}
