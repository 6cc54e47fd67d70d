package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/gyre/config"
)

// StreamlineRow is one trajectory sample in streamlines.csv.
type StreamlineRow struct {
	Month    string  `csv:"month"`
	Type     string  `csv:"type"`
	Line     int     `csv:"line"`
	Seq      int     `csv:"seq"`
	X        float64 `csv:"x"`
	Y        float64 `csv:"y"`
	Lon      float64 `csv:"lon"`
	Lat      float64 `csv:"lat"`
	VX       float64 `csv:"vx"`
	VY       float64 `csv:"vy"`
	Strength float64 `csv:"strength"`
}

// ImpactRow is one impact point in impacts.csv.
type ImpactRow struct {
	Month  string  `csv:"month"`
	Source string  `csv:"source"`
	X      float64 `csv:"x"`
	Y      float64 `csv:"y"`
	Lon    float64 `csv:"lon"`
	Lat    float64 `csv:"lat"`
}

// DiagnosticRow is one anomaly record in diagnostics.csv.
type DiagnosticRow struct {
	Month string  `csv:"month"`
	Kind  string  `csv:"kind"`
	X     float64 `csv:"x"`
	Y     float64 `csv:"y"`
	Age   int32   `csv:"age"`
	Msg   string  `csv:"message"`
}

// OutputManager handles structured run output with CSV logging.
// A nil manager is valid and writes nothing.
type OutputManager struct {
	dir            string
	streamlineFile *os.File
	impactFile     *os.File
	diagFile       *os.File

	streamlineHeaderWritten bool
	impactHeaderWritten     bool
	diagHeaderWritten       bool
}

// NewOutputManager creates the output directory and its CSV files.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "streamlines.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating streamlines.csv: %w", err)
	}
	om.streamlineFile = f

	f, err = os.Create(filepath.Join(dir, "impacts.csv"))
	if err != nil {
		om.streamlineFile.Close()
		return nil, fmt.Errorf("creating impacts.csv: %w", err)
	}
	om.impactFile = f

	f, err = os.Create(filepath.Join(dir, "diagnostics.csv"))
	if err != nil {
		om.streamlineFile.Close()
		om.impactFile.Close()
		return nil, fmt.Errorf("creating diagnostics.csv: %w", err)
	}
	om.diagFile = f

	return om, nil
}

// WriteConfig saves the effective configuration for run provenance.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteStreamlines appends rows to streamlines.csv.
func (om *OutputManager) WriteStreamlines(rows []StreamlineRow) error {
	if om == nil || len(rows) == 0 {
		return nil
	}
	if !om.streamlineHeaderWritten {
		if err := gocsv.Marshal(rows, om.streamlineFile); err != nil {
			return fmt.Errorf("writing streamlines: %w", err)
		}
		om.streamlineHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, om.streamlineFile); err != nil {
		return fmt.Errorf("writing streamlines: %w", err)
	}
	return nil
}

// WriteImpacts appends rows to impacts.csv.
func (om *OutputManager) WriteImpacts(rows []ImpactRow) error {
	if om == nil || len(rows) == 0 {
		return nil
	}
	if !om.impactHeaderWritten {
		if err := gocsv.Marshal(rows, om.impactFile); err != nil {
			return fmt.Errorf("writing impacts: %w", err)
		}
		om.impactHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, om.impactFile); err != nil {
		return fmt.Errorf("writing impacts: %w", err)
	}
	return nil
}

// WriteDiagnostics appends rows to diagnostics.csv.
func (om *OutputManager) WriteDiagnostics(rows []DiagnosticRow) error {
	if om == nil || len(rows) == 0 {
		return nil
	}
	if !om.diagHeaderWritten {
		if err := gocsv.Marshal(rows, om.diagFile); err != nil {
			return fmt.Errorf("writing diagnostics: %w", err)
		}
		om.diagHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, om.diagFile); err != nil {
		return fmt.Errorf("writing diagnostics: %w", err)
	}
	return nil
}

// WriteFrames saves a frame capture as JSON next to the CSV files.
func (om *OutputManager) WriteFrames(rec *FrameRecorder) error {
	if om == nil || rec == nil {
		return nil
	}
	return rec.WriteJSON(filepath.Join(om.dir, "frames_"+rec.Month+".json"))
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.streamlineFile, om.impactFile, om.diagFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
