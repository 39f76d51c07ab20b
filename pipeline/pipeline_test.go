package pipeline

import (
	"context"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluidmpm/audio"
	"github.com/pthm-cable/fluidmpm/config"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Solver.MaxParticles = 512
	cfg.Solver.InitialParticles = 64
	cfg.Solver.BaseGridSize = 16
	cfg.Telemetry.OutputDir = ""

	p, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestPipelineStepProducesMetrics(t *testing.T) {
	p := newTestPipeline(t)
	defer p.Close()

	cam := rl.NewCamera3D(rl.NewVector3(0, 0, 10), rl.NewVector3(0, 0, 0), rl.NewVector3(0, 1, 0), 45.0, rl.CameraPerspective)
	mouse := rl.NewVector2(0, 0)

	for i := 0; i < 5; i++ {
		res, err := p.Step(context.Background(), 1.0/60, nil, cam, mouse, false)
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		if res.Metrics.Frame != int64(i+1) {
			t.Fatalf("expected frame %d, got %d", i+1, res.Metrics.Frame)
		}
		if res.Metrics.ActiveParticles <= 0 {
			t.Fatalf("expected live particles, got %d", res.Metrics.ActiveParticles)
		}
	}
}

func TestPipelineStepWithAudioFrameIsReactive(t *testing.T) {
	p := newTestPipeline(t)
	defer p.Close()
	cam := rl.NewCamera3D(rl.NewVector3(0, 0, 10), rl.NewVector3(0, 0, 0), rl.NewVector3(0, 1, 0), 45.0, rl.CameraPerspective)
	mouse := rl.NewVector2(0, 0)

	af := testAudioFrame()
	res, err := p.Step(context.Background(), 1.0/60, &af, cam, mouse, false)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !res.Metrics.AudioActive {
		t.Fatalf("expected AudioActive true when a frame is supplied")
	}
}

func TestPipelineAudioStallDecaysEnergy(t *testing.T) {
	p := newTestPipeline(t)
	defer p.Close()
	cam := rl.NewCamera3D(rl.NewVector3(0, 0, 10), rl.NewVector3(0, 0, 0), rl.NewVector3(0, 1, 0), 45.0, rl.CameraPerspective)
	mouse := rl.NewVector2(0, 0)

	af := testAudioFrame()
	if _, err := p.Step(context.Background(), 1.0/60, &af, cam, mouse, false); err != nil {
		t.Fatalf("Step: %v", err)
	}

	var lastBass float32 = p.lastAudio.Bass
	for i := 0; i < 40; i++ {
		if _, err := p.Step(context.Background(), 1.0/60, nil, cam, mouse, false); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if p.lastAudio.Bass >= lastBass {
		t.Fatalf("expected bass energy to decay after a stall, before=%v after=%v", lastBass, p.lastAudio.Bass)
	}
}

func testAudioFrame() audio.Frame {
	return audio.Frame{
		Bass: 0.8, Mid: 0.4, Treble: 0.2, Overall: 0.5,
		SmoothBass: 0.6, SmoothMid: 0.3, SmoothTreble: 0.15, SmoothOverall: 0.4,
		Beat: true, BeatIntensity: 0.9,
		SpectralFlux: 0.5, HarmonicRatio: 0.6, RhythmConfidence: 0.7,
		Tempo: 120, StereoBalance: 0.1, StereoWidth: 0.5,
	}
}
