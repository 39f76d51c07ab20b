package solver

import (
	"math"
	"math/rand"
)

// PerlinNoise generates coherent 3D noise, used by the G2P pass's
// low-amplitude curl perturbation (triNoise3D(x*0.015, t, 0.11) scaled
// by the noise uniform), via a standard permutation-table Perlin
// generator.
type PerlinNoise struct {
	perm [512]int
}

// NewPerlinNoise creates a new Perlin noise generator from seed.
func NewPerlinNoise(seed int64) *PerlinNoise {
	p := &PerlinNoise{}
	rng := rand.New(rand.NewSource(seed))

	var perm [256]int
	for i := range perm {
		perm[i] = i
	}
	for i := len(perm) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	for i := 0; i < 256; i++ {
		p.perm[i] = perm[i]
		p.perm[i+256] = perm[i]
	}
	return p
}

// Noise3D returns a noise value for 3D coordinates in roughly [-1, 1].
func (p *PerlinNoise) Noise3D(x, y, z float64) float64 {
	X := int(math.Floor(x)) & 255
	Y := int(math.Floor(y)) & 255
	Z := int(math.Floor(z)) & 255

	x -= math.Floor(x)
	y -= math.Floor(y)
	z -= math.Floor(z)

	u := fade(x)
	v := fade(y)
	w := fade(z)

	A := p.perm[X] + Y
	AA := p.perm[A] + Z
	AB := p.perm[A+1] + Z
	B := p.perm[X+1] + Y
	BA := p.perm[B] + Z
	BB := p.perm[B+1] + Z

	return lerp64(w, lerp64(v, lerp64(u, grad3D(p.perm[AA], x, y, z),
		grad3D(p.perm[BA], x-1, y, z)),
		lerp64(u, grad3D(p.perm[AB], x, y-1, z),
			grad3D(p.perm[BB], x-1, y-1, z))),
		lerp64(v, lerp64(u, grad3D(p.perm[AA+1], x, y, z-1),
			grad3D(p.perm[BA+1], x-1, y, z-1)),
			lerp64(u, grad3D(p.perm[AB+1], x, y-1, z-1),
				grad3D(p.perm[BB+1], x-1, y-1, z-1))))
}

func fade(t float64) float64 { return t * t * t * (t*(t*6-15) + 10) }

func lerp64(t, a, b float64) float64 { return a + t*(b-a) }

func grad3D(hash int, x, y, z float64) float64 {
	h := hash & 15
	u := x
	if h >= 8 {
		u = y
	}
	v := y
	if h >= 4 {
		if h == 12 || h == 14 {
			v = x
		} else {
			v = z
		}
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}

// TriNoise3D is the reference's named curl-perturbation source: three
// offset Perlin lookups combined to approximate a divergence-free vector
// without computing an explicit curl. x, y and z are the lookup
// coordinates (callers pre-scale them), t offsets each lookup along one
// axis, and amp scales the output; the G2P pass calls it as
// TriNoise3D(x*0.015, time, z*0.015, 0.11, noise).
func (p *PerlinNoise) TriNoise3D(x, y, z, t, amp float64) [3]float64 {
	return [3]float64{
		p.Noise3D(x+t, y, z) * amp,
		p.Noise3D(x, y+t, z+17.3) * amp,
		p.Noise3D(x+5.1, y+t, z) * amp,
	}
}

// CurlNoise3D computes a divergence-free vector field by taking the curl
// of a Perlin-noise scalar potential via finite differences, used by the
// force-field "curl" type.
func (p *PerlinNoise) CurlNoise3D(x, y, z float64) [3]float64 {
	const eps = 0.001
	n := func(dx, dy, dz float64) float64 { return p.Noise3D(x+dx, y+dy, z+dz) }

	dPsi1dy := (n(0, eps, 0) - n(0, -eps, 0)) / (2 * eps)
	dPsi1dz := (n(0, 0, eps) - n(0, 0, -eps)) / (2 * eps)
	dPsi2dx := (n(eps, 0, 100) - n(-eps, 0, 100)) / (2 * eps)
	dPsi2dz := (n(0, 0, eps+100) - n(0, 0, -eps+100)) / (2 * eps)
	dPsi3dx := (n(eps, 0, 200) - n(-eps, 0, 200)) / (2 * eps)
	dPsi3dy := (n(0, eps, 200) - n(0, -eps, 200)) / (2 * eps)

	return [3]float64{
		dPsi3dy - dPsi2dz,
		dPsi1dz - dPsi3dx,
		dPsi2dx - dPsi1dy,
	}
}
