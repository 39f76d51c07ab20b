package perf

import "testing"

func testThresholds() Thresholds {
	return Thresholds{
		HighToMediumFPS:      45,
		HighToMediumFrames:   45,
		MediumToLowFPS:       30,
		MediumToLowFrames:    30,
		RecoverToHighFPS:     70,
		RecoverToHighFrames:  180,
		ManualOverrideFrames: 600,
	}
}

func TestTierDropsCascadeUnderSustainedLoad(t *testing.T) {
	c := NewController(testThresholds(), nil)

	if c.Tier() != TierHigh {
		t.Fatalf("expected initial tier high, got %v", c.Tier())
	}

	var lastTransition Transition
	for i := 0; i < 45; i++ {
		tr, ok := c.Observe(20)
		if ok {
			lastTransition = tr
		}
	}
	if c.Tier() != TierMedium {
		t.Fatalf("expected medium tier after sustained low FPS, got %v", c.Tier())
	}
	if lastTransition.Reason != ReasonFPSDropHighToMedium {
		t.Fatalf("expected high->medium reason, got %v", lastTransition.Reason)
	}

	for i := 0; i < 30; i++ {
		tr, ok := c.Observe(10)
		if ok {
			lastTransition = tr
		}
	}
	if c.Tier() != TierLow {
		t.Fatalf("expected low tier after further sustained drop, got %v", c.Tier())
	}
	if lastTransition.Reason != ReasonFPSDropMediumToLow {
		t.Fatalf("expected medium->low reason, got %v", lastTransition.Reason)
	}

	for i := 0; i < 180; i++ {
		tr, ok := c.Observe(120)
		if ok {
			lastTransition = tr
		}
	}
	if c.Tier() != TierHigh {
		t.Fatalf("expected recovery to high tier, got %v", c.Tier())
	}
	if lastTransition.Reason != ReasonFPSRecoveredToHigh {
		t.Fatalf("expected recovery reason, got %v", lastTransition.Reason)
	}
}

func TestTierHoldsWithoutSustainedBreach(t *testing.T) {
	c := NewController(testThresholds(), nil)
	for i := 0; i < 44; i++ {
		c.Observe(20)
	}
	if c.Tier() != TierHigh {
		t.Fatalf("expected tier to remain high just below the frame threshold, got %v", c.Tier())
	}
	// A single good frame should reset the streak.
	c.Observe(120)
	for i := 0; i < 44; i++ {
		c.Observe(20)
	}
	if c.Tier() != TierHigh {
		t.Fatalf("expected reset streak to keep tier high, got %v", c.Tier())
	}
}

func TestManualOverridePinsTier(t *testing.T) {
	c := NewController(testThresholds(), nil)
	c.Override(TierLow)
	if c.Tier() != TierLow {
		t.Fatalf("expected override to pin low tier, got %v", c.Tier())
	}
	for i := 0; i < 599; i++ {
		c.Observe(120)
		if c.Tier() != TierLow {
			t.Fatalf("expected tier pinned during override window, got %v at frame %d", c.Tier(), i)
		}
	}
}

func TestHintsMatchTier(t *testing.T) {
	c := NewController(testThresholds(), nil)
	hint, scale := c.Hint()
	if hint != HintMesh || scale != 1.0 {
		t.Fatalf("expected mesh/1.0 at high tier, got %v/%v", hint, scale)
	}
	c.Override(TierMedium)
	hint, scale = c.Hint()
	if hint != HintSprite || scale != 0.75 {
		t.Fatalf("expected sprite/0.75 at medium tier, got %v/%v", hint, scale)
	}
	c.Override(TierLow)
	hint, scale = c.Hint()
	if hint != HintPoint || scale != 0.5 {
		t.Fatalf("expected point/0.5 at low tier, got %v/%v", hint, scale)
	}
}
