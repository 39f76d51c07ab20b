package groove

import "math"

// PredictedBeat is one extrapolated future beat.
type PredictedBeat struct {
	Time             float64
	BeatInMeasure    int
}

// AnticipationWindows are durations (seconds) for upcoming musical
// gestures, scaled from tempo.
type AnticipationWindows struct {
	Swell, Attack, Accent, Breath float64
}

const maxIOIHistory = 32

// Predictor estimates tempo stability from recent inter-onset intervals
// and extrapolates upcoming beats while stable.
type Predictor struct {
	iois         []float64
	lastBeatTime float64
	tempo        float64
	stable       bool
}

// NewPredictor creates an empty predictor.
func NewPredictor() *Predictor { return &Predictor{tempo: 120} }

// Push records a new beat time and recomputes tempo stability.
func (p *Predictor) Push(beatTime float64) {
	if p.lastBeatTime > 0 {
		ioi := beatTime - p.lastBeatTime
		p.iois = append(p.iois, ioi)
		if len(p.iois) > maxIOIHistory {
			p.iois = p.iois[len(p.iois)-maxIOIHistory:]
		}
	}
	p.lastBeatTime = beatTime
	p.recompute()
}

func (p *Predictor) recompute() {
	if len(p.iois) < 4 {
		p.stable = false
		return
	}
	mean, stddev := meanStddev(p.iois)
	if mean <= 0 {
		p.stable = false
		return
	}
	p.tempo = 60 / mean
	cv := stddev / mean
	p.stable = cv < 0.1
}

// Stable reports whether the coefficient of variation of recent IOIs is
// below 0.1.
func (p *Predictor) Stable() bool { return p.stable }

// Tempo returns the predictor's current tempo estimate in BPM.
func (p *Predictor) Tempo() float64 { return p.tempo }

// PredictBeats extrapolates the next 8 beats as lastBeatTime +
// k*(60/tempo), annotated with a beat-in-measure index, only while
// Stable(). Returns nil when unstable.
func (p *Predictor) PredictBeats(beatsPerMeasure int) []PredictedBeat {
	if !p.stable || p.tempo <= 0 {
		return nil
	}
	if beatsPerMeasure <= 0 {
		beatsPerMeasure = 4
	}
	period := 60 / p.tempo
	out := make([]PredictedBeat, 8)
	for k := 1; k <= 8; k++ {
		out[k-1] = PredictedBeat{
			Time:          p.lastBeatTime + float64(k)*period,
			BeatInMeasure: (k - 1) % beatsPerMeasure,
		}
	}
	return out
}

// AnticipationWindows derives swell/attack/accent/breath durations by
// scaling base durations by clamp(120/tempo, 0.5, 2.0).
func (p *Predictor) AnticipationWindows() AnticipationWindows {
	scale := 120 / p.tempo
	if scale < 0.5 {
		scale = 0.5
	}
	if scale > 2.0 {
		scale = 2.0
	}
	return AnticipationWindows{
		Swell:  0.5 * scale,
		Attack: 0.1 * scale,
		Accent: 0.2 * scale,
		Breath: 1.0 * scale,
	}
}

func meanStddev(vs []float64) (mean, stddev float64) {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	mean = sum / float64(len(vs))
	var variance float64
	for _, v := range vs {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(vs))
	return mean, math.Sqrt(variance)
}
