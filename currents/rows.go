package currents

import "github.com/pthm-cable/gyre/telemetry"

// StreamlineRows flattens the result's streamlines into CSV rows for the
// named month.
func (r *Result) StreamlineRows(month string) []telemetry.StreamlineRow {
	var rows []telemetry.StreamlineRow
	for li, sl := range r.Streamlines {
		for seq, pt := range sl.Points {
			rows = append(rows, telemetry.StreamlineRow{
				Month:    month,
				Type:     sl.Type,
				Line:     li,
				Seq:      seq,
				X:        pt.X,
				Y:        pt.Y,
				Lon:      pt.Lon,
				Lat:      pt.Lat,
				VX:       pt.VX,
				VY:       pt.VY,
				Strength: sl.Strength,
			})
		}
	}
	return rows
}

// ImpactRows converts the result's impact points into CSV rows.
func (r *Result) ImpactRows(month string) []telemetry.ImpactRow {
	rows := make([]telemetry.ImpactRow, len(r.Impacts))
	for i, ip := range r.Impacts {
		rows[i] = telemetry.ImpactRow{
			Month:  month,
			Source: ip.Source.String(),
			X:      ip.X,
			Y:      ip.Y,
			Lon:    ip.Lon,
			Lat:    ip.Lat,
		}
	}
	return rows
}

// DiagnosticRows converts the result's anomaly records into CSV rows.
func (r *Result) DiagnosticRows(month string) []telemetry.DiagnosticRow {
	rows := make([]telemetry.DiagnosticRow, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		rows[i] = telemetry.DiagnosticRow{
			Month: month,
			Kind:  d.Kind.String(),
			X:     d.X,
			Y:     d.Y,
			Age:   d.Age,
			Msg:   d.Msg,
		}
	}
	return rows
}
