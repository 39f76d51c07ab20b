package fields

import "testing"

func TestForceFieldRegistryCapacity(t *testing.T) {
	r := NewRegistry()
	var last interface{}
	for i := 0; i < Capacity+3; i++ {
		e := r.Add(ForceField{Kind: KindAttractor, Strength: float32(i)})
		last = e
	}
	_ = last
	if r.Len() != Capacity {
		t.Fatalf("expected registry to cap at %d, got %d", Capacity, r.Len())
	}
}

func TestForceFieldSnapshotMatchesContents(t *testing.T) {
	r := NewRegistry()
	r.Add(ForceField{Kind: KindVortex, Position: [3]float32{1, 2, 3}, Strength: 5, Radius: 2})
	snap := r.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(snap))
	}
	if snap[0].Strength != 5 || snap[0].Position != [3]float32{1, 2, 3} {
		t.Fatalf("snapshot did not preserve field data: %+v", snap[0])
	}
}

func TestEmitterContinuousAccumulatesFractionalRate(t *testing.T) {
	r := NewEmitterRegistry(1)
	r.Add(Emitter{Kind: EmitterPoint, Pattern: PatternContinuous, Rate: 10, Position: [3]float32{4, 4, 4}})

	var total int
	for i := 0; i < 30; i++ {
		reqs := r.Advance(1.0 / 60)
		total += len(reqs)
	}
	// 10 particles/sec for 0.5s ~= 5, allow slack for accumulator rounding.
	if total < 3 || total > 7 {
		t.Fatalf("expected roughly 5 spawned particles, got %d", total)
	}
}

func TestEmitterBurstFiresOnce(t *testing.T) {
	r := NewEmitterRegistry(2)
	r.Add(Emitter{Kind: EmitterSphere, Pattern: PatternBurst, Rate: 20, Extent: [3]float32{1, 1, 1}, Position: [3]float32{8, 8, 8}})

	first := r.Advance(1.0 / 60)
	second := r.Advance(1.0 / 60)
	if len(first) == 0 {
		t.Fatal("expected burst to fire particles on first advance")
	}
	if len(second) != 0 {
		t.Fatalf("expected burst to fire only once, got %d more particles", len(second))
	}
}
