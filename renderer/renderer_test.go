package renderer

import "testing"

func TestMassToColorRampEndpoints(t *testing.T) {
	zero := massToColor(0, 4)
	if zero.A != 0 {
		t.Fatalf("expected zero mass to be fully transparent, got alpha %d", zero.A)
	}
	full := massToColor(4, 4)
	if full.R != 255 {
		t.Fatalf("expected max mass to land in the red band, got %+v", full)
	}
}

func TestMassToColorClampsAboveMax(t *testing.T) {
	over := massToColor(40, 4)
	atMax := massToColor(4, 4)
	if over != atMax {
		t.Fatalf("expected values above max to clamp to the same color as max, got %+v vs %+v", over, atMax)
	}
}

func TestVariantUpdateStoresCount(t *testing.T) {
	mv := NewMeshVariant()
	mv.Update(128, 0.5)
	if mv.count != 128 || mv.size != 0.5 {
		t.Fatalf("expected Update to store count/size, got %d/%v", mv.count, mv.size)
	}

	pv := NewPointVariant()
	pv.Update(64, 0.2)
	if pv.count != 64 {
		t.Fatalf("expected point variant to store count, got %d", pv.count)
	}
}
