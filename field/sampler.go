package field

import "math"

// Sample is one environment lookup: interpolated wall distance and the two
// gradient components at a fractional position.
type Sample struct {
	Dist float64
	GX   float64
	GY   float64
}

// At bilinearly interpolates the field and gradient at a fractional position,
// toroidal in x and clamped in y. This is the only read path into the arrays
// during simulation; it has no side effects.
func (f *Field) At(x, y float64) Sample {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	fx := x - x0
	fy := y - y0

	c0 := f.wrapCol(int(x0))
	c1 := f.wrapCol(int(x0) + 1)
	r0 := f.clampRow(int(y0))
	r1 := f.clampRow(int(y0) + 1)

	i00 := f.idx(c0, r0)
	i10 := f.idx(c1, r0)
	i01 := f.idx(c0, r1)
	i11 := f.idx(c1, r1)

	w00 := (1 - fx) * (1 - fy)
	w10 := fx * (1 - fy)
	w01 := (1 - fx) * fy
	w11 := fx * fy

	return Sample{
		Dist: w00*f.Values[i00] + w10*f.Values[i10] + w01*f.Values[i01] + w11*f.Values[i11],
		GX:   w00*f.GradX[i00] + w10*f.GradX[i10] + w01*f.GradX[i01] + w11*f.GradX[i11],
		GY:   w00*f.GradY[i00] + w10*f.GradY[i10] + w01*f.GradY[i01] + w11*f.GradY[i11],
	}
}

// Normal returns the unit inward wall normal at the sample, pointing toward
// land, and false when the gradient is too short to normalize.
func (s Sample) Normal() (nx, ny float64, ok bool) {
	mag := math.Hypot(s.GX, s.GY)
	if mag < 1e-9 {
		return 0, 0, false
	}
	return s.GX / mag, s.GY / mag, true
}

// GradMag returns the gradient magnitude, used to convert field-unit
// penetration depths into cell-unit pushes.
func (s Sample) GradMag() float64 {
	return math.Hypot(s.GX, s.GY)
}
