package audio

import (
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Extractor performs real-time FFT feature extraction on stereo PCM
// blocks. It is single-writer/single-reader: the caller
// feeds samples from one goroutine and reads Frame snapshots from
// another via Frame().
type Extractor struct {
	cfg Config
	fft *fourier.FFT

	windowL []float64
	windowR []float64
	bufL    []float64
	bufR    []float64
	cursor  int

	prevMag []float64
	window  []float64 // Hann window coefficients

	smoothBass, smoothMid, smoothTreble, smoothOverall float32
	fluxHistory                                         float64

	beatMean, beatVar float64
	beatSampleCount   int
	lastBeatTime      float64
	beatIntensity     float32

	tempo        float32
	onsetHistory *Ring

	loudnessHistory *Ring
	fluxHistoryRing *Ring
	beatHistory     *Ring

	clock float64 // running time in seconds, advanced by Push
	frame atomic.Pointer[Frame]
}

// New creates an extractor for the given config.
func New(cfg Config) *Extractor {
	if cfg.FFTSize == 0 {
		cfg = DefaultConfig()
	}
	window := make([]float64, cfg.FFTSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(cfg.FFTSize-1)))
	}
	return &Extractor{
		cfg:             cfg,
		fft:             fourier.NewFFT(cfg.FFTSize),
		window:          window,
		bufL:            make([]float64, cfg.FFTSize),
		bufR:            make([]float64, cfg.FFTSize),
		prevMag:         make([]float64, cfg.FFTSize/2+1),
		onsetHistory:    NewRing(256),
		loudnessHistory: NewRing(512),
		fluxHistoryRing: NewRing(512),
		beatHistory:     NewRing(256),
		tempo:           120,
	}
}

// PushStereo feeds one stereo PCM block, given as separate left and right
// channel slices (samples in [-1,1]), into the extractor's circular buffer, recomputing the Frame every time
// the buffer wraps.
// dt is the wall-clock duration this block represents, used to advance
// the extractor's internal clock for beat/tempo timing.
func (e *Extractor) PushStereo(left, right []float32, dt float64) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	for i := 0; i < n; i++ {
		e.bufL[e.cursor] = float64(left[i])
		e.bufR[e.cursor] = float64(right[i])
		e.cursor++
		if e.cursor == e.cfg.FFTSize {
			e.cursor = 0
			e.analyze()
		}
	}
	e.clock += dt
}

// analyze runs one full FFT-to-Frame pass over the current buffer.
func (e *Extractor) analyze() {
	mono := make([]float64, e.cfg.FFTSize)
	for i := range mono {
		mono[i] = (e.bufL[i] + e.bufR[i]) * 0.5 * e.window[i]
	}
	coeffs := e.fft.Coefficients(nil, mono)
	mag := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mag[i] = math.Hypot(real(c), imag(c))
	}

	bass := bandEnergy(mag, e.cfg.SampleRate, e.cfg.FFTSize, bassRange)
	mid := bandEnergy(mag, e.cfg.SampleRate, e.cfg.FFTSize, midRange)
	treble := bandEnergy(mag, e.cfg.SampleRate, e.cfg.FFTSize, trebleRange)
	overall := rmsEnergy(mag)

	normBass := clamp01(float32(bass/float64(e.cfg.FFTSize)) * e.cfg.BassGain)
	normMid := clamp01(float32(mid/float64(e.cfg.FFTSize)) * e.cfg.MidGain)
	normTreble := clamp01(float32(treble/float64(e.cfg.FFTSize)) * e.cfg.TrebleGain)
	normOverall := clamp01(float32(overall/float64(e.cfg.FFTSize)) * e.cfg.OverallGain)

	alpha := e.cfg.Smoothing
	e.smoothBass = alpha*e.smoothBass + (1-alpha)*normBass
	e.smoothMid = alpha*e.smoothMid + (1-alpha)*normMid
	e.smoothTreble = alpha*e.smoothTreble + (1-alpha)*normTreble
	e.smoothOverall = alpha*e.smoothOverall + (1-alpha)*normOverall

	flux := spectralFlux(mag, e.prevMag)
	copy(e.prevMag, mag)

	e.fluxHistory = 0.8*e.fluxHistory + 0.2*flux
	onset := triangleHighpass(flux, e.fluxHistory)
	e.onsetHistory.Push(float32(onset))

	harmonicRatio, harmonicEnergy := harmonicFeatures(mag)

	beat, intensity := e.detectBeat(float64(normBass))
	e.beatIntensity = e.beatIntensity*e.cfg.BeatDecay + intensity*(1-e.cfg.BeatDecay)

	e.tempo = e.estimateTempo()

	balance, width := stereoFeatures(e.bufL, e.bufR)

	e.loudnessHistory.Push(normOverall)
	e.fluxHistoryRing.Push(float32(flux))
	if beat {
		e.beatHistory.Push(1)
	} else {
		e.beatHistory.Push(0)
	}

	tempoPhase := float32(0)
	if e.tempo > 0 {
		period := 60.0 / float64(e.tempo)
		elapsed := e.clock - e.lastBeatTime
		tempoPhase = float32(math.Mod(elapsed, period) / period)
	}

	rhythmConfidence := clamp01(e.beatIntensity)

	f := Frame{
		Bass: normBass, Mid: normMid, Treble: normTreble, Overall: normOverall,
		SmoothBass: e.smoothBass, SmoothMid: e.smoothMid, SmoothTreble: e.smoothTreble, SmoothOverall: e.smoothOverall,
		Beat: beat, BeatIntensity: e.beatIntensity, TempoPhase: tempoPhase,
		SpectralFlux: float32(flux), OnsetEnergy: float32(onset),
		HarmonicRatio: harmonicRatio, HarmonicEnergy: harmonicEnergy,
		RhythmConfidence: rhythmConfidence,
		Tempo:            e.tempo,
		StereoBalance:    balance, StereoWidth: width,
		Groove: clamp01(rhythmConfidence*0.5 + e.smoothBass*0.5),
	}
	e.frame.Store(&f)
}

// Frame returns the most recently computed frame, or a zero Frame before
// the first analysis pass.
func (e *Extractor) Frame() Frame {
	if f := e.frame.Load(); f != nil {
		return *f
	}
	return Frame{}
}

// spectralFlux is sum(max(0, |X_k(t)| - |X_k(t-1)|)) normalised by band
// energy.
func spectralFlux(mag, prevMag []float64) float64 {
	var sum, energy float64
	for i := range mag {
		d := mag[i] - prevMag[i]
		if d > 0 {
			sum += d
		}
		energy += mag[i]
	}
	if energy < 1e-9 {
		return 0
	}
	return sum / energy
}

// triangleHighpass approximates a 50ms-triangle-convolved high-pass of
// spectral flux using the running flux average as the low-frequency
// component to subtract.
func triangleHighpass(flux, fluxAvg float64) float64 {
	v := flux - fluxAvg
	if v < 0 {
		return 0
	}
	return v
}

// harmonicFeatures approximates harmonicRatio as an autocorrelation-peak
// proxy over the magnitude spectrum divided by a spectral-centroid
// proxy.
func harmonicFeatures(mag []float64) (ratio, energy float32) {
	var weightedSum, totalEnergy float64
	for i, v := range mag {
		weightedSum += float64(i) * v
		totalEnergy += v
	}
	if totalEnergy < 1e-9 {
		return 0, 0
	}
	centroid := weightedSum / totalEnergy

	var peak float64
	for lag := 1; lag < len(mag)/2; lag++ {
		var corr float64
		for i := 0; i+lag < len(mag); i++ {
			corr += mag[i] * mag[i+lag]
		}
		if corr > peak {
			peak = corr
		}
	}
	if centroid < 1e-6 {
		centroid = 1e-6
	}
	r := peak / (centroid * totalEnergy)
	return clamp01(float32(r)), clamp01(float32(totalEnergy / float64(len(mag))))
}

// detectBeat maintains a running mean/variance of bass energy over a
// ~1-second window and fires when bass exceeds mean+threshold*stddev,
// gated to at least 100ms since the last beat.
func (e *Extractor) detectBeat(bass float64) (bool, float32) {
	const windowSize = 23 // ~1s at a 2048-sample FFT hop, 48kHz
	e.beatSampleCount++
	if e.beatSampleCount > windowSize {
		e.beatSampleCount = windowSize
	}
	n := float64(e.beatSampleCount)
	delta := bass - e.beatMean
	e.beatMean += delta / n
	e.beatVar = e.beatVar + (delta*(bass-e.beatMean)-e.beatVar)/n

	sigma := math.Sqrt(e.beatVar)
	if sigma < 1e-6 {
		return false, 0
	}

	threshold := e.beatMean + float64(e.cfg.BeatThreshold)*sigma
	sinceLast := e.clock - e.lastBeatTime
	if bass > threshold && sinceLast >= 0.1 {
		e.lastBeatTime = e.clock
		intensity := clamp01(float32((bass - e.beatMean) / sigma))
		return true, intensity
	}
	return false, 0
}

// estimateTempo runs autocorrelation over the onset envelope at lags
// corresponding to 40-200 BPM, clamped.
func (e *Extractor) estimateTempo() float32 {
	onsets := e.onsetHistory.Values()
	if len(onsets) < 8 {
		return e.tempo
	}
	hopSeconds := float64(e.cfg.FFTSize) / float64(e.cfg.SampleRate)
	minLag := int(60.0 / 200.0 / hopSeconds)
	maxLag := int(60.0 / 40.0 / hopSeconds)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(onsets) {
		maxLag = len(onsets) - 1
	}
	if maxLag <= minLag {
		return e.tempo
	}

	bestLag, bestScore := minLag, -1.0
	for lag := minLag; lag <= maxLag; lag++ {
		var score float64
		for i := 0; i+lag < len(onsets); i++ {
			score += float64(onsets[i]) * float64(onsets[i+lag])
		}
		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}
	bpm := float32(60.0 / (float64(bestLag) * hopSeconds))
	smoothed := 0.9*e.tempo + 0.1*bpm
	if smoothed < 40 {
		smoothed = 40
	}
	if smoothed > 200 {
		smoothed = 200
	}
	return smoothed
}

// stereoFeatures computes balance = (R-L)/(R+L+eps) and width =
// 1-correlation(L,R) over the current buffer.
func stereoFeatures(left, right []float64) (balance, width float32) {
	var sumL, sumR float64
	for i := range left {
		sumL += math.Abs(left[i])
		sumR += math.Abs(right[i])
	}
	balance = float32((sumR - sumL) / (sumR + sumL + 1e-9))

	var meanL, meanR float64
	n := float64(len(left))
	for i := range left {
		meanL += left[i]
		meanR += right[i]
	}
	meanL /= n
	meanR /= n

	var cov, varL, varR float64
	for i := range left {
		dl := left[i] - meanL
		dr := right[i] - meanR
		cov += dl * dr
		varL += dl * dl
		varR += dr * dr
	}
	denom := math.Sqrt(varL * varR)
	corr := 0.0
	if denom > 1e-9 {
		corr = cov / denom
	}
	width = clamp01(float32(1 - corr))
	return balance, width
}
