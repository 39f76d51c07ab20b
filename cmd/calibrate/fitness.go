package main

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluidmpm/config"
	"github.com/pthm-cable/fluidmpm/pipeline"
)

// FitnessEvaluator runs headless pipeline simulations and scores a
// parameter vector by how long the material stays numerically stable
// and how well it settles: a survival-driven fitness function applied
// to solver stability instead of population survival.
type FitnessEvaluator struct {
	params   *ParamVector
	maxTicks int32
	seeds    []int64
	baseCfg  *config.Config

	mu          sync.Mutex
	bestFitness float64
	lastQuality float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseCfg:     baseCfg,
		bestFitness: math.Inf(1),
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// windowSample is one frame's worth of aggregate particle statistics.
type windowSample struct {
	meanSpeed      float64
	maxSpeed       float64
	outOfBoundsFraction float64
}

// Evaluate computes fitness for a parameter vector (lower = better).
// All seeds run concurrently via a per-seed goroutine fan-out.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSeed(x, s)
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	var best float64 = math.Inf(1)
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.fitness < best {
			best = r.fitness
		}
	}
	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

type seedResult struct {
	fitness float64
	quality float64
}

// runSeed runs a single headless run, advancing the pipeline one frame
// at a time until it diverges (a NaN velocity, a runaway speed, or no
// live particles) or reaches maxTicks.
func (fe *FitnessEvaluator) runSeed(x []float64, seed int64) seedResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Solver.MaxParticles = 2048
	cfg.Solver.InitialParticles = 2048
	cfg.Solver.BaseGridSize = 32
	cfg.Boundary.AudioReactive = false
	cfg.Telemetry.OutputDir = ""

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := pipeline.New(cfg, log)
	if err != nil {
		return seedResult{fitness: 0, quality: 0}
	}
	defer p.Close()

	cam := rl.NewCamera3D(rl.NewVector3(0, 0, float32(cfg.Solver.BaseGridSize)*2), rl.NewVector3(0, 0, 0), rl.NewVector3(0, 1, 0), 45, rl.CameraPerspective)
	mouse := rl.NewVector2(0, 0)

	var survived int32
	var samples []windowSample
	const windowEvery = 30

	for tick := int32(0); tick < fe.maxTicks; tick++ {
		if _, err := p.Step(context.Background(), 1.0/60.0, nil, cam, mouse, false); err != nil {
			break
		}

		ws := sampleParticles(p, float32(cfg.Solver.BaseGridSize))
		if ws.diverged {
			break
		}
		survived = tick + 1

		if tick%windowEvery == 0 {
			samples = append(samples, windowSample{
				meanSpeed:           float64(ws.meanSpeed),
				maxSpeed:            float64(ws.maxSpeed),
				outOfBoundsFraction: float64(ws.outOfBoundsFraction),
			})
		}
	}

	quality := fe.computeQuality(samples)
	fitness := -(float64(survived) * (1.0 + 0.2*quality))
	return seedResult{fitness: fitness, quality: quality}
}

// particleSample summarizes one frame's particle state for stability
// detection: diverged is set when there are no live particles or any
// particle carries a NaN velocity or a speed above 10x the grid size.
// Particles more than a quarter of the grid size outside the grid only
// count toward outOfBoundsFraction.
type particleSample struct {
	meanSpeed           float32
	maxSpeed            float32
	outOfBoundsFraction float32
	diverged            bool
}

func sampleParticles(p *pipeline.Pipeline, gridSize float32) particleSample {
	pb := p.Solver.Particles
	n := pb.Live
	if n == 0 {
		return particleSample{diverged: true}
	}

	var sumSpeed, maxSpeed float32
	var outOfBounds int
	margin := gridSize * 0.25

	for i := 0; i < n; i++ {
		vx, vy, vz := pb.VelX[i], pb.VelY[i], pb.VelZ[i]
		if math.IsNaN(float64(vx)) || math.IsNaN(float64(vy)) || math.IsNaN(float64(vz)) {
			return particleSample{diverged: true}
		}
		speed := sqrt32(vx*vx + vy*vy + vz*vz)
		if speed > gridSize*10 {
			return particleSample{diverged: true}
		}
		sumSpeed += speed
		if speed > maxSpeed {
			maxSpeed = speed
		}

		px, py, pz := pb.PosX[i], pb.PosY[i], pb.PosZ[i]
		if px < -margin || px > gridSize+margin || py < -margin || py > gridSize+margin || pz < -margin || pz > gridSize+margin {
			outOfBounds++
		}
	}

	return particleSample{
		meanSpeed:           sumSpeed / float32(n),
		maxSpeed:            maxSpeed,
		outOfBoundsFraction: float32(outOfBounds) / float32(n),
	}
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

// Quality component weights: a calibration run is "good" when particles
// settle toward a low, stable speed and stay inside the grid bounds.
const (
	qualityWeightSettle = 0.5
	qualityWeightBounds = 0.5
)

// computeQuality derives a [0,1] score from the collected window
// samples, rewarding settling speed decay and boundary containment over
// the back half of the run.
func (fe *FitnessEvaluator) computeQuality(samples []windowSample) float64 {
	if len(samples) < 4 {
		return 0
	}

	half := len(samples) / 2
	var firstSpeed, lastSpeed, lastBounds float64
	for _, s := range samples[:half] {
		firstSpeed += s.meanSpeed
	}
	firstSpeed /= float64(half)

	tail := samples[half:]
	for _, s := range tail {
		lastSpeed += s.meanSpeed
		lastBounds += s.outOfBoundsFraction
	}
	lastSpeed /= float64(len(tail))
	lastBounds /= float64(len(tail))

	settleScore := 0.0
	if firstSpeed > 1e-6 {
		settleScore = clamp01(1.0 - lastSpeed/firstSpeed)
	}
	boundsScore := clamp01(1.0 - lastBounds)

	return clamp01(qualityWeightSettle*settleScore + qualityWeightBounds*boundsScore)
}

// copyConfig creates a working copy of the base config, carrying over
// every field the optimizer doesn't itself touch.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg, _ := config.Load("")
	cfg.Solver = fe.baseCfg.Solver
	cfg.Derived = fe.baseCfg.Derived
	cfg.Telemetry = fe.baseCfg.Telemetry
	cfg.Boundary = fe.baseCfg.Boundary
	cfg.Fields = fe.baseCfg.Fields
	cfg.Audio = fe.baseCfg.Audio
	cfg.Groove = fe.baseCfg.Groove
	cfg.Structure = fe.baseCfg.Structure
	cfg.Prediction = fe.baseCfg.Prediction
	cfg.Modulation = fe.baseCfg.Modulation
	cfg.Perf = fe.baseCfg.Perf
	cfg.GPU = fe.baseCfg.GPU
	cfg.Screen = fe.baseCfg.Screen
	return cfg
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
