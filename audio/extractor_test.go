package audio

import (
	"math"
	"testing"
)

func TestExtractorSilenceProducesNoNaN(t *testing.T) {
	e := New(DefaultConfig())
	left := make([]float32, e.cfg.FFTSize)
	right := make([]float32, e.cfg.FFTSize)
	e.PushStereo(left, right, float64(e.cfg.FFTSize)/float64(e.cfg.SampleRate))

	f := e.Frame()
	if math.IsNaN(float64(f.Bass)) || math.IsNaN(float64(f.Tempo)) {
		t.Fatalf("silence produced NaN frame: %+v", f)
	}
}

func TestExtractorBassBurstRaisesBassBand(t *testing.T) {
	e := New(DefaultConfig())
	n := e.cfg.FFTSize
	left := make([]float32, n)
	right := make([]float32, n)
	const freq = 80.0 // within the bass band
	for i := 0; i < n; i++ {
		v := float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(e.cfg.SampleRate)))
		left[i] = v
		right[i] = v
	}
	e.PushStereo(left, right, float64(n)/float64(e.cfg.SampleRate))

	f := e.Frame()
	if f.Bass <= 0 {
		t.Fatalf("expected non-zero bass energy for an 80Hz tone, got %v", f.Bass)
	}
}

func TestExtractorTempoStaysInRange(t *testing.T) {
	e := New(DefaultConfig())
	n := e.cfg.FFTSize
	left := make([]float32, n)
	right := make([]float32, n)
	for block := 0; block < 40; block++ {
		for i := range left {
			left[i] = float32(math.Sin(float64(block*n+i)) * 0.1)
			right[i] = left[i]
		}
		e.PushStereo(left, right, float64(n)/float64(e.cfg.SampleRate))
	}
	f := e.Frame()
	if f.Tempo < 40 || f.Tempo > 200 {
		t.Fatalf("tempo out of spec range [40,200]: %v", f.Tempo)
	}
}

func TestStereoFeaturesMonoHasZeroWidth(t *testing.T) {
	n := 512
	left := make([]float64, n)
	right := make([]float64, n)
	for i := range left {
		left[i] = math.Sin(float64(i) * 0.1)
		right[i] = left[i]
	}
	_, width := stereoFeatures(left, right)
	if width > 0.05 {
		t.Fatalf("identical channels should have near-zero width, got %v", width)
	}
}
