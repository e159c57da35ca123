package constraints

import "gonum.org/v1/gonum/mat"

// deadband maps a raw error to zero inside [lower, upper] and to the signed
// excess over the nearer bound outside it.
type deadband struct {
	lower []float64
	upper []float64
}

func symmetricBand(half []float64) deadband {
	d := deadband{lower: make([]float64, len(half)), upper: make([]float64, len(half))}
	for i, h := range half {
		d.lower[i] = -h
		d.upper[i] = h
	}
	return d
}

// apply returns the deadband error of raw.
func (d deadband) apply(raw []float64) *mat.VecDense {
	out := mat.NewVecDense(len(raw), nil)
	for i, v := range raw {
		switch {
		case v > d.upper[i]:
			out.SetVec(i, v-d.upper[i])
		case v < d.lower[i]:
			out.SetVec(i, v-d.lower[i])
		}
	}
	return out
}

// mask zeroes the rows of jac whose raw error lies inside the band.
func (d deadband) mask(raw []float64, jac *mat.Dense) {
	_, n := jac.Dims()
	zero := make([]float64, n)
	for i, v := range raw {
		if v >= d.lower[i] && v <= d.upper[i] {
			jac.SetRow(i, zero)
		}
	}
}
