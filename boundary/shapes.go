// Package boundary implements the analytic soft-wall shapes and the
// collision response policy: box, sphere, tube (capped cylinder),
// dodecahedron and none, each exposing a signed distance and outward
// normal at any grid-space point.
package boundary

import "math"

// Shape is an analytic solid in grid space. Distance is negative inside
// the solid, positive outside; Normal always points outward. Both are
// queried once per surface cell per frame by the solver's updateGrid
// pass, via the BoundaryField.Distance/Normal callbacks
// the pipeline builds from a Shape.
type Shape interface {
	Distance(p [3]float32) float32
	Normal(p [3]float32) [3]float32
}

// ShapeKind names a Shape for config/serialization; solver.CollisionMode
// and this package intentionally duplicate such small enums rather than
// import each other (no back-pointer from boundary into solver).
type ShapeKind uint8

const (
	ShapeNone ShapeKind = iota
	ShapeBox
	ShapeSphere
	ShapeTube
	ShapeDodecahedron
)

func ParseShapeKind(s string) ShapeKind {
	switch s {
	case "sphere":
		return ShapeSphere
	case "tube":
		return ShapeTube
	case "dodecahedron":
		return ShapeDodecahedron
	case "none":
		return ShapeNone
	default:
		return ShapeBox
	}
}

func (k ShapeKind) String() string {
	switch k {
	case ShapeSphere:
		return "sphere"
	case ShapeTube:
		return "tube"
	case ShapeDodecahedron:
		return "dodecahedron"
	case ShapeNone:
		return "none"
	default:
		return "box"
	}
}

func sub(a, b [3]float32) [3]float32 { return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

func length(v [3]float32) float32 {
	return float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
}

func normalize(v [3]float32) [3]float32 {
	l := length(v)
	if l < 1e-6 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

// NoneShape treats the implicit domain box as the only wall; used when
// the shape kind is "none". Its Distance is the distance to the nearest
// domain face, positive inside the domain, and its Normal points from
// that face into the domain.
type NoneShape struct {
	GridSize [3]float32
}

func (s NoneShape) Distance(p [3]float32) float32 {
	dx := minf(p[0], s.GridSize[0]-p[0])
	dy := minf(p[1], s.GridSize[1]-p[1])
	dz := minf(p[2], s.GridSize[2]-p[2])
	return minf(dx, minf(dy, dz))
}

func (s NoneShape) Normal(p [3]float32) [3]float32 {
	dx := minf(p[0], s.GridSize[0]-p[0])
	dy := minf(p[1], s.GridSize[1]-p[1])
	dz := minf(p[2], s.GridSize[2]-p[2])
	switch {
	case dx <= dy && dx <= dz:
		if p[0] < s.GridSize[0]-p[0] {
			return [3]float32{1, 0, 0}
		}
		return [3]float32{-1, 0, 0}
	case dy <= dx && dy <= dz:
		if p[1] < s.GridSize[1]-p[1] {
			return [3]float32{0, 1, 0}
		}
		return [3]float32{0, -1, 0}
	default:
		if p[2] < s.GridSize[2]-p[2] {
			return [3]float32{0, 0, 1}
		}
		return [3]float32{0, 0, -1}
	}
}

// BoxShape is an axis-aligned box centred at Center with half-extents
// HalfExtents.
type BoxShape struct {
	Center      [3]float32
	HalfExtents [3]float32
}

func (s BoxShape) Distance(p [3]float32) float32 {
	d := sub(p, s.Center)
	qx := absf(d[0]) - s.HalfExtents[0]
	qy := absf(d[1]) - s.HalfExtents[1]
	qz := absf(d[2]) - s.HalfExtents[2]
	outside := length([3]float32{maxf(qx, 0), maxf(qy, 0), maxf(qz, 0)})
	inside := minf(maxf(qx, maxf(qy, qz)), 0)
	return outside + inside
}

func (s BoxShape) Normal(p [3]float32) [3]float32 {
	d := sub(p, s.Center)
	ax, ay, az := absf(d[0])-s.HalfExtents[0], absf(d[1])-s.HalfExtents[1], absf(d[2])-s.HalfExtents[2]
	switch {
	case ax >= ay && ax >= az:
		return [3]float32{signf(d[0]), 0, 0}
	case ay >= ax && ay >= az:
		return [3]float32{0, signf(d[1]), 0}
	default:
		return [3]float32{0, 0, signf(d[2])}
	}
}

// SphereShape is a ball centred at Center with the given Radius.
type SphereShape struct {
	Center [3]float32
	Radius float32
}

func (s SphereShape) Distance(p [3]float32) float32 {
	return length(sub(p, s.Center)) - s.Radius
}

func (s SphereShape) Normal(p [3]float32) [3]float32 {
	return normalize(sub(p, s.Center))
}

// TubeShape is a capped cylinder: infinite along Axis (normalized),
// capped at +/-HalfHeight from Center, with the given Radius.
type TubeShape struct {
	Center    [3]float32
	Axis      [3]float32
	Radius    float32
	HalfHeight float32
}

func dot3(a, b [3]float32) float32 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func (s TubeShape) axisNormalized() [3]float32 { return normalize(s.Axis) }

func (s TubeShape) Distance(p [3]float32) float32 {
	axis := s.axisNormalized()
	d := sub(p, s.Center)
	h := dot3(d, axis)
	radial := sub(d, [3]float32{axis[0] * h, axis[1] * h, axis[2] * h})
	radialDist := length(radial) - s.Radius
	heightDist := absf(h) - s.HalfHeight
	outside := length([3]float32{maxf(radialDist, 0), maxf(heightDist, 0), 0})
	inside := minf(maxf(radialDist, heightDist), 0)
	return outside + inside
}

func (s TubeShape) Normal(p [3]float32) [3]float32 {
	axis := s.axisNormalized()
	d := sub(p, s.Center)
	h := dot3(d, axis)
	radial := sub(d, [3]float32{axis[0] * h, axis[1] * h, axis[2] * h})
	radialDist := length(radial) - s.Radius
	heightDist := absf(h) - s.HalfHeight
	if heightDist > radialDist {
		if h > 0 {
			return axis
		}
		return [3]float32{-axis[0], -axis[1], -axis[2]}
	}
	return normalize(radial)
}

// DodecahedronShape approximates a regular dodecahedron as the
// intersection of twelve half-spaces whose outward normals are the face
// normals of a dodecahedron inscribed at Radius around Center.
type DodecahedronShape struct {
	Center [3]float32
	Radius float32
}

// dodecaNormals are the twelve outward face normals of a regular
// dodecahedron, derived from the golden ratio construction (vertices of
// an icosahedron's dual), normalized.
var dodecaNormals = func() [12][3]float32 {
	const phi = 1.6180339887498949
	raw := [12][3]float32{
		{0, 1, phi}, {0, 1, -phi}, {0, -1, phi}, {0, -1, -phi},
		{1, phi, 0}, {1, -phi, 0}, {-1, phi, 0}, {-1, -phi, 0},
		{phi, 0, 1}, {phi, 0, -1}, {-phi, 0, 1}, {-phi, 0, -1},
	}
	var out [12][3]float32
	for i, n := range raw {
		out[i] = normalize(n)
	}
	return out
}()

func (s DodecahedronShape) Distance(p [3]float32) float32 {
	d := sub(p, s.Center)
	var maxDist float32 = -math.MaxFloat32
	for _, n := range dodecaNormals {
		dist := dot3(d, n) - s.Radius
		if dist > maxDist {
			maxDist = dist
		}
	}
	return maxDist
}

func (s DodecahedronShape) Normal(p [3]float32) [3]float32 {
	d := sub(p, s.Center)
	best := dodecaNormals[0]
	var bestDist float32 = -math.MaxFloat32
	for _, n := range dodecaNormals {
		dist := dot3(d, n) - s.Radius
		if dist > bestDist {
			bestDist = dist
			best = n
		}
	}
	return best
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func absf(a float32) float32 {
	if a < 0 {
		return -a
	}
	return a
}

func signf(a float32) float32 {
	if a < 0 {
		return -1
	}
	return 1
}
