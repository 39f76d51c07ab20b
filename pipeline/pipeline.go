// Package pipeline wires the solver, boundary, force-field/emitter
// registries, audio extractor, groove/structure/prediction engines and
// modulation router into a single ordered per-frame step, in place of
// a generic game-loop update with a domain-specific one.
package pipeline

import (
	"context"
	"log/slog"
	"math"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluidmpm/audio"
	"github.com/pthm-cable/fluidmpm/boundary"
	"github.com/pthm-cable/fluidmpm/config"
	"github.com/pthm-cable/fluidmpm/fields"
	"github.com/pthm-cable/fluidmpm/groove"
	"github.com/pthm-cable/fluidmpm/modulation"
	"github.com/pthm-cable/fluidmpm/perf"
	"github.com/pthm-cable/fluidmpm/solver"
	"github.com/pthm-cable/fluidmpm/telemetry"
)

// Pipeline owns every long-lived subsystem and advances them together,
// once per frame, in a fixed order.
type Pipeline struct {
	cfg *config.Config
	log *slog.Logger

	Solver   *solver.Solver
	Boundary *boundary.State
	Fields   *fields.Registry
	Emitters *fields.EmitterRegistry
	Audio    *audio.Extractor
	Groove   *groove.Engine
	Structure *groove.Analyser
	Predict  *groove.Predictor
	Router   *modulation.Router
	Perf     *perf.Controller
	Mouse    MouseState
	Commands *CommandQueue
	Output   *telemetry.OutputManager
	Bookmarks *telemetry.BookmarkLog

	base modulation.BaseParameters

	transferMode solver.TransferMode
	gravityMode  solver.GravityMode

	running          bool
	frame            int64
	framesSinceAudio int
	lastAudio        audio.Frame
	lastMetrics      telemetry.FrameMetrics
	predictorWasStable bool
}

// New builds a pipeline from cfg. The caller decides per-frame whether
// to pass a live audio frame into Step.
func New(cfg *config.Config, log *slog.Logger) (*Pipeline, error) {
	if log == nil {
		log = slog.Default()
	}

	grid := solver.GridSize{X: int32(cfg.Solver.BaseGridSize), Y: int32(cfg.Solver.BaseGridSize), Z: int32(cfg.Solver.BaseGridSize)}

	sv := solver.New(solver.Options{
		Capacity:         cfg.Solver.MaxParticles,
		InitialParticles: cfg.Solver.InitialParticles,
		GridSize:         grid,
		FixedPointScale:  cfg.Derived.FixedPointScale,
		Seed:             1,
	})

	gridF := [3]float32{float32(grid.X), float32(grid.Y), float32(grid.Z)}
	bnd := boundary.New(gridF)
	bnd.SetShape(boundary.ParseShapeKind(cfg.Boundary.Shape))
	bnd.SetCollisionMode(boundary.ParseCollisionMode(cfg.Boundary.CollisionMode))
	bnd.SetWallStiffness(float32(cfg.Boundary.WallStiffness))
	bnd.SetRestitution(float32(cfg.Boundary.Restitution))
	bnd.SetFriction(float32(cfg.Boundary.Friction))

	audioCfg := audio.Config{
		SampleRate:    cfg.Audio.SampleRate,
		FFTSize:       cfg.Audio.FFTSize,
		Smoothing:     float32(cfg.Audio.Smoothing),
		BassGain:      1, MidGain: 1, TrebleGain: 1, OverallGain: 1,
		BeatThreshold: float32(cfg.Audio.BeatThreshold),
		BeatDecay:     float32(cfg.Audio.BeatDecay),
	}

	out, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:      cfg,
		log:      log,
		Solver:   sv,
		Boundary: bnd,
		Fields:   fields.NewRegistry(),
		Emitters: fields.NewEmitterRegistry(2),
		Audio:    audio.New(audioCfg),
		Groove:   groove.NewEngine(),
		Structure: groove.NewAnalyser(float32(cfg.Screen.TargetFPS)),
		Predict:  groove.NewPredictor(),
		Router:   modulation.NewRouter(float32(cfg.Modulation.TimelineSmoothing), float32(cfg.Modulation.TransitionResponsiveness)),
		Perf: perf.NewController(perf.Thresholds{
			HighToMediumFPS:      cfg.Perf.HighToMediumFPS,
			HighToMediumFrames:   cfg.Perf.HighToMediumFrames,
			MediumToLowFPS:       cfg.Perf.MediumToLowFPS,
			MediumToLowFrames:    cfg.Perf.MediumToLowFrames,
			RecoverToHighFPS:     cfg.Perf.RecoverToHighFPS,
			RecoverToHighFrames:  cfg.Perf.RecoverToHighFrames,
			ManualOverrideFrames: cfg.Perf.ManualOverrideFrames,
		}, log),
		Commands:  NewCommandQueue(),
		Output:    out,
		Bookmarks: telemetry.NewBookmarkLog(0.7),
		base: modulation.BaseParameters{
			BaseNoise:         float32(cfg.Solver.Noise),
			BaseSpeed:         float32(cfg.Solver.DT),
			StiffMin:          float32(cfg.Modulation.StiffnessMin),
			StiffMax:          float32(cfg.Modulation.StiffnessMax),
			ViscMin:           float32(cfg.Modulation.ViscosityMin),
			ViscMax:           float32(cfg.Modulation.ViscosityMax),
			ParticleInfluence: float32(cfg.Modulation.ParticleInfluence),
		},
		transferMode:     solver.ParseTransferMode(cfg.Solver.TransferMode),
		gravityMode:      solver.ParseGravityMode(cfg.Solver.GravityMode),
		running:          true,
		framesSinceAudio: 0,
	}

	log.Info("pipeline initialized",
		slog.Int("grid_x", int(grid.X)), slog.Int("grid_y", int(grid.Y)), slog.Int("grid_z", int(grid.Z)),
		slog.Int("max_particles", cfg.Solver.MaxParticles),
		slog.String("gpu_backend", cfg.GPU.Backend),
	)

	return p, nil
}

// StepResult is returned from Step for the caller's render/telemetry use.
type StepResult struct {
	Metrics telemetry.FrameMetrics
	Tier    perf.Tier
	Hint    perf.RendererHint

	// PredictedBeats and Anticipation surface the prediction engine's
	// forward-looking state for a caller that wants to pre-stage visuals
	// (e.g. a pulse building into a predicted downbeat). PredictedBeats
	// is nil while the tempo estimate isn't stable.
	PredictedBeats []groove.PredictedBeat
	Anticipation   groove.AnticipationWindows
}

// Step advances every subsystem by one frame following the pipeline's
// fixed ordered contract. dt is the frame's wall-clock delta in
// seconds. audioFrame is nil when audio input is disabled or not yet
// available.
func (p *Pipeline) Step(ctx context.Context, dt float64, audioFrame *audio.Frame, cam rl.Camera3D, mousePos rl.Vector2, mousePressed bool) (StepResult, error) {
	start := time.Now()
	p.frame++

	p.applyCommands()

	// Step 2: pull the current AudioFrame.
	if audioFrame != nil {
		p.lastAudio = *audioFrame
		p.framesSinceAudio = 0
	} else {
		p.framesSinceAudio++
		if p.framesSinceAudio == p.cfg.Audio.StallFrames {
			p.Bookmarks.RecordAudioStall(p.frame, p.framesSinceAudio)
		}
		if p.framesSinceAudio >= p.cfg.Audio.StallFrames {
			// Error taxonomy "Audio stall": decay toward zero
			// with a 1s half-life instead of holding stale energy.
			halfLife := p.cfg.Audio.StallHalfLifeSec
			if halfLife <= 0 {
				halfLife = 1
			}
			decay := float32(1 - math.Pow(0.5, dt/halfLife))
			p.lastAudio.Bass *= 1 - decay
			p.lastAudio.Mid *= 1 - decay
			p.lastAudio.Treble *= 1 - decay
			p.lastAudio.Overall *= 1 - decay
			p.lastAudio.Beat = false
		}
	}

	// Step 3: groove/structure/prediction update off the beat signal,
	// ahead of the router so this frame's modulators already see the
	// updated pocket/tempo state.
	if p.lastAudio.Beat {
		p.Groove.Push(groove.BeatEvent{Time: float64(p.frame) * dt, Intensity: p.lastAudio.BeatIntensity})
		p.Predict.Push(float64(p.frame) * dt)
	}
	structureState := p.Structure.Push(dt, p.lastAudio.Overall, p.lastAudio.SpectralFlux, p.lastAudio.BeatIntensity, p.lastAudio.HarmonicRatio)
	p.Bookmarks.RecordSectionChange(p.frame, structureState.Current.String())
	grooveState := p.Groove.State()
	anticipation := p.Predict.AnticipationWindows()

	stable := p.Predict.Stable()
	if stable && !p.predictorWasStable {
		p.Bookmarks.RecordTempoLock(p.frame, p.Predict.Tempo())
	}
	p.predictorWasStable = stable
	var predictedBeats []groove.PredictedBeat
	if stable {
		predictedBeats = p.Predict.PredictBeats(4)
	}

	// Step 4: if audio reactive, update boundary animation + router +
	// write uniforms.
	var mods modulation.Modulators
	if p.cfg.Boundary.AudioReactive {
		mods = p.Router.Update(p.lastAudio, grooveState.PocketTightness, anticipation)
		if p.lastAudio.Beat {
			p.Bookmarks.RecordBeat(p.frame, p.lastAudio.BeatIntensity)
		}
	} else {
		mods = p.Router.Update(audio.Frame{}, grooveState.PocketTightness, anticipation)
	}

	intensity := modulation.RoutingIntensity{
		PulseForce:     float32(p.cfg.Modulation.PulseForce),
		FlowTurbulence: float32(p.cfg.Modulation.FlowTurbulence),
		ShimmerColor:   float32(p.cfg.Modulation.ShimmerColor),
		WarpSpatial:    float32(p.cfg.Modulation.WarpSpatial),
		DensitySpawn:   float32(p.cfg.Modulation.DensitySpawn),
		AuraBloom:      float32(p.cfg.Modulation.AuraBloom),
	}
	targets := modulation.Route(mods, intensity, p.base, p.lastAudio.Overall)

	if p.cfg.Boundary.AudioReactive {
		p.Boundary.SetWallStiffness(targets.BoundaryPulseStrength * float32(p.cfg.Boundary.AudioPulseGain))
	}

	// Step 5: renderer-visible uniforms (particle size/count) are derived
	// by the caller from Solver.Particles + the perf hint; predicted
	// beats/anticipation windows are surfaced on StepResult for the same
	// reason.

	// Step 6: if running, issue the five solver passes.
	if p.running {
		p.Mouse.Update(cam, mousePos, mousePressed)

		gravity := gravityVector(p.gravityMode)

		spawns := p.Emitters.Advance(float32(dt) * (1 + targets.EmitterRateMultiplier))
		for _, s := range spawns {
			p.Solver.Enqueue(s)
		}

		in := solver.StepInput{
			Uniforms: solver.Uniforms{
				NumParticles:     uint32(p.Solver.Particles.Live),
				GridSize:         [3]int32{p.Solver.Grid.Size.X, p.Solver.Grid.Size.Y, p.Solver.Grid.Size.Z},
				DT:               targets.SolverDT,
				Stiffness:        targets.SolverStiffness,
				RestDensity:      float32(p.cfg.Solver.RestDensity),
				DynamicViscosity: targets.SolverDynamicViscosity,
				Noise:            targets.SolverNoise,
				GravityMode:      uint32(p.gravityMode),
				Gravity:          gravity,
				MouseRayOrigin:   p.Mouse.RayOrigin,
				MouseRayDirection: p.Mouse.RayDir,
				MouseForce:       p.Mouse.Force,
				TransferMode:     uint32(p.transferMode),
				FlipRatio:        float32(p.cfg.Solver.FlipRatio),
				VorticityEnabled: boolToU32(p.cfg.Solver.VorticityEnabled),
				VorticityEpsilon: float32(p.cfg.Solver.VorticityEpsilon),
				SurfaceTensionEnabled: boolToU32(p.cfg.Solver.SurfaceTension),
				SurfaceTensionCoeff:   float32(p.cfg.Solver.SurfaceTensionCoeff),
				AdaptiveTimestep: boolToU32(p.cfg.Solver.AdaptiveTimestep),
				CFLTarget:        float32(p.cfg.Solver.CFLTarget),
			},
			Boundary: boundaryFieldFrom(p.Boundary),
			Fields:   p.Fields.Snapshot(),
			Time:     float32(p.frame) * float32(dt),
		}

		if err := p.Solver.Step(ctx, in); err != nil {
			return StepResult{}, err
		}
	}

	// Step 7: observe elapsed wall-clock and feed the adaptive
	// performance controller.
	elapsed := time.Since(start)
	fps := 0.0
	if elapsed > 0 {
		fps = float64(time.Second) / float64(elapsed)
	}
	if tr, ok := p.Perf.Observe(fps); ok {
		p.Bookmarks.RecordTierChange(p.frame, tr.From.String(), tr.To.String(), tr.TriggeringFPS, tr.Reason.String())
	}

	hint, _ := p.Perf.Hint()
	metrics := telemetry.FrameMetrics{
		Frame:           p.frame,
		ActiveParticles: p.Solver.Particles.Live,
		FPS:             fps,
		KernelMs:        float64(elapsed.Microseconds()) / 1000,
		Tier:            p.Perf.Tier(),
		AudioActive:     audioFrame != nil,
		Bass:            p.lastAudio.Bass,
		Mid:             p.lastAudio.Mid,
		Treble:          p.lastAudio.Treble,
		Beat:            p.lastAudio.Beat,
		Tempo:           p.lastAudio.Tempo,
	}
	p.lastMetrics = metrics
	if err := p.Output.WriteMetrics(metrics); err != nil {
		p.log.Warn("telemetry write failed", slog.String("err", err.Error()))
	}

	return StepResult{
		Metrics:        metrics,
		Tier:           p.Perf.Tier(),
		Hint:           hint,
		PredictedBeats: predictedBeats,
		Anticipation:   anticipation,
	}, nil
}

// LastMetrics returns the most recently produced frame metrics.
func (p *Pipeline) LastMetrics() telemetry.FrameMetrics { return p.lastMetrics }

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// gravityVector derives the gravity direction from the selected mode.
// Back returns a fixed -Z vector, Centre returns the zero vector (no
// position-dependent pull is applied), and Device has no device input
// here and returns the same downward vector as Down.
func gravityVector(mode solver.GravityMode) [3]float32 {
	switch mode {
	case solver.GravityBack:
		return [3]float32{0, 0, -9.8}
	case solver.GravityCentre:
		return [3]float32{0, 0, 0}
	case solver.GravityDevice:
		return [3]float32{0, -9.8, 0}
	default:
		return [3]float32{0, -9.8, 0}
	}
}

// resize recomputes the grid size from a new viewport's aspect ratio
// and propagates it to the solver and boundary.
func (p *Pipeline) resize(width, height int32) {
	if width <= 0 || height <= 0 {
		return
	}
	aspect := float32(width) / float32(height)
	grid := solver.ComputeGridSize(int32(p.cfg.Solver.BaseGridSize), aspect)
	p.Solver.Resize(grid)
	p.Boundary.Resize([3]float32{float32(grid.X), float32(grid.Y), float32(grid.Z)})
}

// Close releases telemetry output resources.
func (p *Pipeline) Close() error {
	return p.Output.Close()
}
