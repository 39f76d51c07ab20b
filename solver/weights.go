package solver

// quadWeights evaluates the three quadratic B-spline weights for a
// fractional offset d in [-0.5, 0.5]:
//
//	w0(d) = 1/2*(1/2-d)^2
//	w1(d) = 3/4-d^2
//	w2(d) = 1/2*(1/2+d)^2
//
// The three weights always sum to 1.
func quadWeights(d float32) [3]float32 {
	return [3]float32{
		0.5 * (0.5 - d) * (0.5 - d),
		0.75 - d*d,
		0.5 * (0.5 + d) * (0.5 + d),
	}
}

// cellBase returns the base cell index i = floor(x)-1 and the fractional
// offset d = frac(x)-0.5 for one axis.
func cellBase(x float32) (int32, float32) {
	fl := floorf(x)
	i := int32(fl) - 1
	d := (x - fl) - 0.5
	return i, d
}

func floorf(x float32) float32 {
	i := int32(x)
	if x < 0 && float32(i) != x {
		i--
	}
	return float32(i)
}
