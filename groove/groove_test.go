package groove

import "testing"

// A steady 120 BPM beat stream should produce a near-zero swing ratio.
func TestSwingRatioSanityForSteadyBeat(t *testing.T) {
	e := NewEngine()
	t0 := 0.0
	for i := 0; i < 16; i++ {
		e.Push(BeatEvent{Time: t0, Intensity: 1, IsDownbeat: i%4 == 0})
		t0 += 0.5 // 120 BPM
	}
	s := e.State()
	if s.SwingRatio > 0.05 {
		t.Fatalf("expected near-zero swing ratio for a steady beat, got %v", s.SwingRatio)
	}
}

func TestSwingRatioDetectsSwungBeat(t *testing.T) {
	e := NewEngine()
	t0 := 0.0
	for i := 0; i < 16; i++ {
		e.Push(BeatEvent{Time: t0})
		if i%2 == 0 {
			t0 += 0.35
		} else {
			t0 += 0.65
		}
	}
	s := e.State()
	if s.SwingRatio < 0.1 {
		t.Fatalf("expected a detectable swing ratio, got %v", s.SwingRatio)
	}
}

func TestPredictorStableForConsistentTempo(t *testing.T) {
	p := NewPredictor()
	t0 := 0.0
	for i := 0; i < 10; i++ {
		p.Push(t0)
		t0 += 0.5
	}
	if !p.Stable() {
		t.Fatal("expected predictor to report stable tempo for consistent IOIs")
	}
	if p.Tempo() < 110 || p.Tempo() > 130 {
		t.Fatalf("expected tempo near 120 BPM, got %v", p.Tempo())
	}
	beats := p.PredictBeats(4)
	if len(beats) != 8 {
		t.Fatalf("expected 8 predicted beats, got %d", len(beats))
	}
}

func TestPredictorUnstableForErraticTempo(t *testing.T) {
	p := NewPredictor()
	times := []float64{0, 0.3, 1.1, 1.2, 2.5, 2.6, 5.0}
	for _, tm := range times {
		p.Push(tm)
	}
	if p.Stable() {
		t.Fatal("expected predictor to report unstable tempo for erratic IOIs")
	}
	if beats := p.PredictBeats(4); beats != nil {
		t.Fatalf("expected no predicted beats while unstable, got %d", len(beats))
	}
}

func TestStructureForcesTransitionAfterMaxDuration(t *testing.T) {
	a := NewAnalyser(10)
	var last StructureState
	for i := 0; i < 10*maxSectionSeconds+5; i++ {
		last = a.Push(0.1, 0.1, 0.2, 0.1, 0.5)
	}
	if last.SectionElapsed >= maxSectionSeconds {
		t.Fatalf("section should have forced a transition by now, elapsed=%v", last.SectionElapsed)
	}
	if last.Current != SectionVerse {
		t.Fatalf("forced transition from intro should land on verse, got %v", last.Current)
	}
}
