package solver

import "math"

// HSVToRGB converts h,s,v (each expected roughly in [0,1], h wraps) to
// linear RGB, used by G2P's per-particle color assignment.
func HSVToRGB(h, s, v float32) (r, g, b float32) {
	h = h - float32(math.Floor(float64(h)))
	i := int(h * 6)
	f := h*6 - float32(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	switch i % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
