package boundary

import "testing"

func TestShapeDistanceSignsAgreeWithInsideOutside(t *testing.T) {
	box := BoxShape{Center: [3]float32{0, 0, 0}, HalfExtents: [3]float32{2, 2, 2}}
	if d := box.Distance([3]float32{0, 0, 0}); d >= 0 {
		t.Fatalf("center should be inside (negative distance), got %v", d)
	}
	if d := box.Distance([3]float32{10, 0, 0}); d <= 0 {
		t.Fatalf("far point should be outside (positive distance), got %v", d)
	}

	sphere := SphereShape{Center: [3]float32{0, 0, 0}, Radius: 3}
	if d := sphere.Distance([3]float32{0, 0, 0}); d >= 0 {
		t.Fatalf("sphere center should be inside, got %v", d)
	}
	if d := sphere.Distance([3]float32{0, 10, 0}); d <= 0 {
		t.Fatalf("far point should be outside sphere, got %v", d)
	}
}

func TestDodecahedronNormalsPointOutward(t *testing.T) {
	shape := DodecahedronShape{Center: [3]float32{0, 0, 0}, Radius: 5}
	p := [3]float32{0, 0, 0}
	n := shape.Normal(p)
	l := length(n)
	if l < 0.99 || l > 1.01 {
		t.Fatalf("normal should be unit length, got %v", l)
	}
	far := [3]float32{0, 0, 10}
	if d := dot3(shape.Normal(far), far); d <= 0 {
		t.Fatalf("normal outside the shape should point away from the center, dot=%v", d)
	}
}

// Reflect monotonicity: increasing wallStiffness never
// increases the outward normal speed retained after a reflection, checked
// for one point just outside the +X face moving further outward as
// stiffness rises.
func TestReflectMonotonicity(t *testing.T) {
	shape := BoxShape{Center: [3]float32{8, 8, 8}, HalfExtents: [3]float32{4, 4, 4}}
	point := [3]float32{12.5, 8, 8} // just outside the +X face
	normal := shape.Normal(point)

	reflectedSpeed := func(stiffness, restitution float32) float32 {
		v := [3]float32{5, 0, 0} // moving further outward
		vn := dot3(v, normal)
		if vn <= 0 {
			return 0
		}
		scale := (1 + restitution) * stiffness
		return vn - scale*vn
	}

	prev := reflectedSpeed(0, 0.2)
	for _, k := range []float32{0.2, 0.4, 0.6, 0.8, 1.0} {
		cur := reflectedSpeed(k, 0.2)
		if cur > prev+1e-5 {
			t.Fatalf("reflected outward speed increased with stiffness %v: prev=%v cur=%v", k, prev, cur)
		}
		prev = cur
	}
}
