// Command fluidmpm runs the interactive MLS-MPM fluid/granular-material
// simulator with live audio-reactive modulation: a window/flag/
// headless-mode bootstrap wrapping a pipeline.Pipeline step in place of
// an organism ECS game loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluidmpm/audio"
	"github.com/pthm-cable/fluidmpm/boundary"
	"github.com/pthm-cable/fluidmpm/config"
	"github.com/pthm-cable/fluidmpm/perf"
	"github.com/pthm-cable/fluidmpm/pipeline"
	"github.com/pthm-cable/fluidmpm/renderer"
	"github.com/pthm-cable/fluidmpm/solver"
)

var (
	configPath = flag.String("config", "", "Config YAML file (empty = embedded defaults)")
	headless   = flag.Bool("headless", false, "Run without graphics (for benchmarking/telemetry capture)")
	maxTicks   = flag.Int("max-ticks", 0, "Stop after N ticks (0 = run forever, useful with -headless)")
	audioInput = flag.Bool("audio", false, "Enable live microphone capture for audio-reactive modulation")
	logFile    = flag.String("logfile", "", "Write structured logs to file instead of stderr")
)

func main() {
	flag.Parse()

	logHandle := os.Stderr
	if *logFile != "" {
		f, err := os.Create(*logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logHandle = f
	}
	logger := slog.New(slog.NewTextHandler(logHandle, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer p.Close()

	var capture *audio.Capture
	if *audioInput {
		capture, err = audio.NewCapture(p.Audio, cfg.Audio.SampleRate, cfg.Audio.FFTSize)
		if err != nil {
			logger.Warn("audio capture unavailable, continuing without live input", slog.String("err", err.Error()))
			capture = nil
		} else if err := capture.Start(); err != nil {
			logger.Warn("audio capture failed to start", slog.String("err", err.Error()))
			capture = nil
		}
	}
	if capture != nil {
		defer capture.Stop()
	}

	if *headless {
		runHeadless(p, capture, logger)
		return
	}

	runWindowed(cfg, p, capture, logger)
}

// runHeadless advances the pipeline without any graphics, for telemetry
// capture and calibration-style benchmarking, reporting progress on a
// fixed interval instead of drawing a frame.
func runHeadless(p *pipeline.Pipeline, capture *audio.Capture, logger *slog.Logger) {
	logger.Info("starting headless run", slog.Int("max_ticks", *maxTicks))

	cam := rl.NewCamera3D(rl.NewVector3(0, 0, 1), rl.NewVector3(0, 0, 0), rl.NewVector3(0, 1, 0), 45, rl.CameraPerspective)
	start := time.Now()
	lastReport := start
	var tick int

	for {
		if *maxTicks > 0 && tick >= *maxTicks {
			logger.Info("reached max ticks, stopping", slog.Int("ticks", tick))
			break
		}

		var audioFrame *audio.Frame
		if capture != nil {
			f := p.Audio.Frame()
			audioFrame = &f
		}

		if _, err := p.Step(context.Background(), 1.0/60.0, audioFrame, cam, rl.Vector2{}, false); err != nil {
			logger.Error("solver step failed", slog.String("err", err.Error()))
			break
		}
		tick++

		if time.Since(lastReport) >= 10*time.Second {
			elapsed := time.Since(start)
			metrics := p.LastMetrics()
			logger.Info("progress",
				slog.Int("tick", tick),
				slog.Int("active_particles", metrics.ActiveParticles),
				slog.Float64("fps", metrics.FPS),
				slog.Duration("elapsed", elapsed.Round(time.Second)),
			)
			lastReport = time.Now()
		}
	}

	logger.Info("headless run complete", slog.Int("ticks", tick), slog.Duration("elapsed", time.Since(start).Round(time.Millisecond)))
}

// orbitCamera is a minimal arrow-key/scroll-wheel orbit rig: yaw/pitch
// around the grid's centre at a fixed radius, the cheapest camera that
// still lets an operator inspect the material from every side.
type orbitCamera struct {
	target             rl.Vector3
	yaw, pitch, radius float32
}

func newOrbitCamera(gridSize float32) *orbitCamera {
	return &orbitCamera{
		target: rl.NewVector3(gridSize/2, gridSize/2, gridSize/2),
		yaw:    0.8,
		pitch:  0.4,
		radius: gridSize * 1.8,
	}
}

func (o *orbitCamera) update(dt float32) rl.Camera3D {
	const rotSpeed = 1.5
	if rl.IsKeyDown(rl.KeyLeft) {
		o.yaw -= rotSpeed * dt
	}
	if rl.IsKeyDown(rl.KeyRight) {
		o.yaw += rotSpeed * dt
	}
	if rl.IsKeyDown(rl.KeyUp) {
		o.pitch += rotSpeed * dt
	}
	if rl.IsKeyDown(rl.KeyDown) {
		o.pitch -= rotSpeed * dt
	}
	const maxPitch = 1.5
	if o.pitch > maxPitch {
		o.pitch = maxPitch
	}
	if o.pitch < -maxPitch {
		o.pitch = -maxPitch
	}

	wheel := rl.GetMouseWheelMove()
	o.radius -= wheel * o.radius * 0.1
	if o.radius < 1 {
		o.radius = 1
	}

	pos := rl.NewVector3(
		o.target.X+o.radius*float32(math.Cos(float64(o.pitch)))*float32(math.Cos(float64(o.yaw))),
		o.target.Y+o.radius*float32(math.Sin(float64(o.pitch))),
		o.target.Z+o.radius*float32(math.Cos(float64(o.pitch)))*float32(math.Sin(float64(o.yaw))),
	)

	return rl.NewCamera3D(pos, o.target, rl.NewVector3(0, 1, 0), 45, rl.CameraPerspective)
}

// runWindowed runs the interactive simulator with a raylib window,
// the perf-controller-selected particle renderer variant, and a debug
// grid-mass heatmap overlay toggled with V.
func runWindowed(cfg *config.Config, p *pipeline.Pipeline, capture *audio.Capture, logger *slog.Logger) {
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Fluid/Granular Simulator")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	gridSize := float32(cfg.Solver.BaseGridSize)
	orbit := newOrbitCamera(gridSize)

	mesh := renderer.NewMeshVariant()
	sprite := renderer.NewSpriteVariant()
	point := renderer.NewPointVariant()
	defer mesh.Dispose()
	defer sprite.Dispose()
	defer point.Dispose()

	heatmap := renderer.NewHeatmapView()
	showHeatmap := false
	running := true

	gravityModes := []solver.GravityMode{solver.GravityDown, solver.GravityBack, solver.GravityCentre, solver.GravityDevice}
	gravityIdx := 0
	boundaryShapes := []boundary.ShapeKind{boundary.ShapeBox, boundary.ShapeSphere, boundary.ShapeTube, boundary.ShapeDodecahedron, boundary.ShapeNone}
	boundaryIdx := 0

	for !rl.WindowShouldClose() {
		dt := rl.GetFrameTime()
		cam := orbit.update(dt)

		if rl.IsKeyPressed(rl.KeySpace) {
			running = !running
			p.Commands.Submit(pipeline.Command{Kind: pipeline.CmdSetRunning, Running: running})
		}
		if rl.IsKeyPressed(rl.KeyG) {
			gravityIdx = (gravityIdx + 1) % len(gravityModes)
			p.Commands.Submit(pipeline.Command{Kind: pipeline.CmdSetGravityMode, GravityMode: gravityModes[gravityIdx]})
		}
		if rl.IsKeyPressed(rl.KeyB) {
			boundaryIdx = (boundaryIdx + 1) % len(boundaryShapes)
			p.Commands.Submit(pipeline.Command{Kind: pipeline.CmdSetBoundaryShape, BoundaryShape: boundaryShapes[boundaryIdx]})
		}
		if rl.IsKeyPressed(rl.KeyV) {
			showHeatmap = !showHeatmap
		}

		var audioFrame *audio.Frame
		if capture != nil {
			f := p.Audio.Frame()
			audioFrame = &f
		}

		mousePos := rl.GetMousePosition()
		mousePressed := rl.IsMouseButtonDown(rl.MouseLeftButton)

		result, err := p.Step(context.Background(), float64(dt), audioFrame, cam, mousePos, mousePressed)
		if err != nil {
			logger.Error("solver step failed", slog.String("err", err.Error()))
			break
		}

		sprite.SetCamera(cam)
		var variant renderer.Variant
		var scale float32
		switch result.Hint {
		case perf.HintMesh:
			variant, scale = mesh, 1.0
		case perf.HintSprite:
			variant, scale = sprite, 0.75
		default:
			variant, scale = point, 0.5
		}
		variant.Update(p.Solver.Particles.Live, 0.5*scale)

		rl.BeginDrawing()
		rl.ClearBackground(rl.NewColor(10, 10, 18, 255))

		rl.BeginMode3D(cam)
		rl.DrawCubeWires(rl.NewVector3(gridSize/2, gridSize/2, gridSize/2), gridSize, gridSize, gridSize, rl.Gray)
		variant.Draw(p.Solver.Particles)
		if showHeatmap {
			heatmap.Draw(p.Solver.Grid)
		}
		rl.EndMode3D()

		rl.DrawFPS(10, 10)
		rl.DrawText(fmt.Sprintf("particles: %d  tier: %s", result.Metrics.ActiveParticles, result.Tier), 10, 35, 18, rl.RayWhite)
		rl.DrawText("Space: pause  G: gravity  B: boundary  V: heatmap", 10, int32(cfg.Screen.Height)-25, 14, rl.LightGray)

		rl.EndDrawing()
	}
}
