// Field preview tool - interactive visualization of a single force
// field's contribution across a grid slice, adapted from a generic
// FBM potential-field preview with the generated scalar grid replaced
// by solver.SampleForceField's actual vector-field output so what you
// see here is exactly what the solver would apply.
//
// Usage: go run ./cmd/fieldpreview
package main

import (
	"fmt"
	"image/color"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluidmpm/solver"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
	gridSize     = 96
)

var kindNames = [...]string{"attractor", "repeller", "vortex", "turbulence", "directional", "curl"}

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Force Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	ff := solver.ForceFieldSample{
		Kind:     solver.ForceAttractor,
		Position: [3]float32{gridSize / 2, gridSize / 2, gridSize / 2},
		Strength: 4.0,
		Radius:   32,
		Falloff:  0.08,
		Axis:     [3]float32{0, 1, 0},
	}
	sliceY := float32(gridSize / 2)
	noiseGen := solver.NewPerlinNoise(1)
	var t float32
	animating := false

	magnitudes := make([]float32, gridSize*gridSize)
	img := rl.GenImageColor(gridSize, gridSize, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	needsRegen := true
	regen := func() {
		sampleSlice(ff, sliceY, t, noiseGen, magnitudes)
		updateTexture(texture, magnitudes)
		needsRegen = false
	}
	regen()

	for !rl.WindowShouldClose() {
		if animating {
			t += rl.GetFrameTime()
			needsRegen = true
		}
		if needsRegen {
			regen()
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: gridSize, Height: gridSize},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		var minMag, maxMag float32 = 1e9, 0
		for _, m := range magnitudes {
			if m < minMag {
				minMag = m
			}
			if m > maxMag {
				maxMag = m
			}
		}
		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Min |F|: %.3f  Max |F|: %.3f", minMag, maxMag), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Slice Y: %.1f  Time: %.1f", sliceY, t), 15, statsY+20, 16, rl.DarkGray)

		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Force Field Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		rl.DrawText(fmt.Sprintf("Kind: %s", kindNames[ff.Kind]), int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 22
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 28}, "Next Kind") {
			ff.Kind = solver.ForceFieldKind((int(ff.Kind) + 1) % len(kindNames))
			needsRegen = true
		}
		panelY += 40

		panelY = slider(panelX, panelY, "Strength", &ff.Strength, 0, 10, "%.2f", &needsRegen)
		panelY = slider(panelX, panelY, "Radius", &ff.Radius, 1, float32(gridSize), "%.1f", &needsRegen)
		panelY = slider(panelX, panelY, "Falloff / Scale", &ff.Falloff, 0.01, 0.5, "%.3f", &needsRegen)
		panelY = slider(panelX, panelY, "Axis X", &ff.Axis[0], -1, 1, "%.2f", &needsRegen)
		panelY = slider(panelX, panelY, "Axis Y", &ff.Axis[1], -1, 1, "%.2f", &needsRegen)
		panelY = slider(panelX, panelY, "Axis Z", &ff.Axis[2], -1, 1, "%.2f", &needsRegen)
		panelY = slider(panelX, panelY, "Position X", &ff.Position[0], 0, float32(gridSize), "%.1f", &needsRegen)
		panelY = slider(panelX, panelY, "Position Z", &ff.Position[2], 0, float32(gridSize), "%.1f", &needsRegen)
		panelY = slider(panelX, panelY, "Slice Y", &sliceY, 0, float32(gridSize), "%.1f", &needsRegen)

		panelY += 10
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(animating, "Stop", "Animate")) {
			animating = !animating
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset Time") {
			t = 0
			needsRegen = true
		}
		panelY += 45

		rl.DrawText("YAML snippet:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		yamlLines := fieldYAML(ff)
		for _, line := range yamlLines {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			snippet := ""
			for _, l := range yamlLines {
				snippet += l + "\n"
			}
			rl.SetClipboardText(snippet)
		}

		rl.EndDrawing()
	}
}

// slider draws a labeled slider bound to v, flips needsRegen when the
// value changes, and returns the Y position for the next control.
func slider(x, y float32, label string, v *float32, min, max float32, format string, needsRegen *bool) float32 {
	rl.DrawText(label, int32(x), int32(y), 14, rl.Gray)
	y += 18
	newVal := gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: float32(panelWidth - 80), Height: 20},
		fmt.Sprintf(format, min), fmt.Sprintf(format, max),
		*v, min, max,
	)
	rl.DrawText(fmt.Sprintf(format, *v), int32(x+float32(panelWidth-70)), int32(y+2), 16, rl.DarkGray)
	if newVal != *v {
		*v = newVal
		*needsRegen = true
	}
	return y + 35
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// sampleSlice evaluates the field's magnitude at every cell of the
// horizontal slice y=sliceY, using the solver's own sampling function.
func sampleSlice(ff solver.ForceFieldSample, sliceY, t float32, noiseGen *solver.PerlinNoise, out []float32) {
	for z := 0; z < gridSize; z++ {
		for x := 0; x < gridSize; x++ {
			pos := [3]float32{float32(x) + 0.5, sliceY, float32(z) + 0.5}
			v := solver.SampleForceField(ff, pos, t, noiseGen)
			mag := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
			out[z*gridSize+x] = mag
		}
	}
}

// updateTexture maps magnitudes through a blue-cyan-yellow-white ramp,
// normalized against the slice's own current max so the ramp stays
// legible across every field strength.
func updateTexture(texture rl.Texture2D, magnitudes []float32) {
	var maxMag float32
	for _, m := range magnitudes {
		if m > maxMag {
			maxMag = m
		}
	}
	if maxMag < 1e-6 {
		maxMag = 1
	}

	pixels := make([]color.RGBA, len(magnitudes))
	for i, m := range magnitudes {
		v := m / maxMag
		var r, g, b uint8
		switch {
		case v < 0.25:
			tt := v / 0.25
			r, g, b = uint8(10+tt*30), uint8(20+tt*60), uint8(60+tt*100)
		case v < 0.5:
			tt := (v - 0.25) / 0.25
			r, g, b = uint8(40+tt*20), uint8(80+tt*120), uint8(160+tt*40)
		case v < 0.75:
			tt := (v - 0.5) / 0.25
			r, g, b = uint8(60+tt*140), uint8(200-tt*40), uint8(200-tt*150)
		default:
			tt := (v - 0.75) / 0.25
			r, g, b = uint8(200+tt*55), uint8(160+tt*95), uint8(50+tt*205)
		}
		pixels[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	rl.UpdateTexture(texture, pixels)
}

func fieldYAML(ff solver.ForceFieldSample) []string {
	return []string{
		"force_field:",
		fmt.Sprintf("  kind: %s", kindNames[ff.Kind]),
		fmt.Sprintf("  position: [%.1f, %.1f, %.1f]", ff.Position[0], ff.Position[1], ff.Position[2]),
		fmt.Sprintf("  strength: %.2f", ff.Strength),
		fmt.Sprintf("  radius: %.1f", ff.Radius),
		fmt.Sprintf("  falloff: %.3f", ff.Falloff),
		fmt.Sprintf("  axis: [%.2f, %.2f, %.2f]", ff.Axis[0], ff.Axis[1], ff.Axis[2]),
	}
}
