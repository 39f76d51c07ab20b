// Package telemetry produces the per-frame dashboard feed and a
// low-frequency event log, repurposed from per-tick ecosystem stats to
// per-frame simulation metrics for dashboard consumers.
package telemetry

import "github.com/pthm-cable/fluidmpm/perf"

// FrameMetrics is produced once per frame by the pipeline, carrying
// everything a live dashboard needs: particle count, FPS, kernel time,
// quality tier, and the audio features driving modulation.
type FrameMetrics struct {
	Frame            int64
	ActiveParticles  int
	FPS              float64
	KernelMs         float64
	Tier             perf.Tier
	AudioActive      bool
	Bass, Mid, Treble float32
	Beat             bool
	Tempo            float32
}

// FrameMetricsCSV is a flat struct for CSV export via gocsv, the same
// flattening pattern used for other CSV-exported stats structs.
type FrameMetricsCSV struct {
	Frame           int64   `csv:"frame"`
	ActiveParticles int     `csv:"active_particles"`
	FPS             float64 `csv:"fps"`
	KernelMs        float64 `csv:"kernel_ms"`
	Tier            string  `csv:"tier"`
	AudioActive     bool    `csv:"audio_active"`
	Bass            float32 `csv:"bass"`
	Mid             float32 `csv:"mid"`
	Treble          float32 `csv:"treble"`
	Beat            bool    `csv:"beat"`
	Tempo           float32 `csv:"tempo"`
}

// ToCSV flattens a FrameMetrics record for CSV export.
func (m FrameMetrics) ToCSV() FrameMetricsCSV {
	return FrameMetricsCSV{
		Frame:           m.Frame,
		ActiveParticles: m.ActiveParticles,
		FPS:             m.FPS,
		KernelMs:        m.KernelMs,
		Tier:            m.Tier.String(),
		AudioActive:     m.AudioActive,
		Bass:            m.Bass,
		Mid:             m.Mid,
		Treble:          m.Treble,
		Beat:            m.Beat,
		Tempo:           m.Tempo,
	}
}
