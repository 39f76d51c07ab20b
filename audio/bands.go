package audio

import "math"

// bandRange is a log-spaced frequency band's [lo, hi) bound in Hz.
type bandRange struct {
	lo, hi float64
}

var (
	bassRange   = bandRange{20, 250}
	midRange    = bandRange{250, 4000}
	trebleRange = bandRange{4000, 16000}
)

// Config controls the extractor's tunables, populated by
// config.AudioConfig.
type Config struct {
	SampleRate    int
	FFTSize       int
	Smoothing     float32 // band smoothing alpha, default 0.88
	BassGain      float32
	MidGain       float32
	TrebleGain    float32
	OverallGain   float32
	BeatThreshold float32
	BeatDecay     float32
}

// DefaultConfig returns the reference's documented defaults.
func DefaultConfig() Config {
	return Config{
		SampleRate:    48000,
		FFTSize:       2048,
		Smoothing:     0.88,
		BassGain:      1,
		MidGain:       1,
		TrebleGain:    1,
		OverallGain:   1,
		BeatThreshold: 1.5,
		BeatDecay:     0.9,
	}
}

// bandEnergy returns the mean magnitude (not squared) of the bins of a
// magnitude spectrum mag (length fftSize/2+1) whose frequency falls in
// [lo, hi); bins within a band are linearly spaced.
func bandEnergy(mag []float64, sampleRate, fftSize int, r bandRange) float64 {
	freqPerBin := float64(sampleRate) / float64(fftSize)
	var sum float64
	var n int
	for bin := 1; bin < len(mag); bin++ {
		freq := float64(bin) * freqPerBin
		if freq < r.lo || freq >= r.hi {
			continue
		}
		sum += mag[bin]
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func rmsEnergy(mag []float64) float64 {
	var sum float64
	for _, v := range mag {
		sum += v * v
	}
	if len(mag) == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(len(mag)))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
