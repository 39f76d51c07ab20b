package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluidmpm/solver"
)

// HeatmapView renders one Y-slice of the grid's mass channel as a
// false-color overlay, a development/debug aid generalized from a 2D
// resource-grid heatmap to a single horizontal slice through the 3D
// Eulerian grid.
type HeatmapView struct {
	SliceY   int32
	CellSize float32
	MaxMass  float32
}

// NewHeatmapView creates a heatmap viewer for the grid's horizontal
// mid-slice by default.
func NewHeatmapView() *HeatmapView {
	return &HeatmapView{SliceY: -1, CellSize: 1, MaxMass: 4}
}

// Draw renders the grid's mass channel at y=SliceY as a grid of colored
// quads in the XZ plane, positioned at world height SliceY.
func (h *HeatmapView) Draw(g *solver.GridBuffer) {
	y := h.SliceY
	if y < 0 || y >= g.Size.Y {
		y = g.Size.Y / 2
	}
	for z := int32(0); z < g.Size.Z; z++ {
		for x := int32(0); x < g.Size.X; x++ {
			mass := g.Mass[g.Index(x, y, z)]
			color := massToColor(mass, h.MaxMass)
			if color.A == 0 {
				continue
			}
			center := rl.NewVector3(
				(float32(x)+0.5)*h.CellSize,
				float32(y)*h.CellSize,
				(float32(z)+0.5)*h.CellSize,
			)
			rl.DrawCube(center, h.CellSize, 0.05, h.CellSize, color)
		}
	}
}

// massToColor maps a mass value to a blue-cyan-green-yellow-red heatmap
// ramp, scaled by max instead of assuming a fixed [0,1] domain.
func massToColor(mass, max float32) rl.Color {
	if max <= 0 {
		max = 1
	}
	val := clamp01(mass / max)
	if val < 1e-3 {
		return rl.Color{}
	}

	alpha := uint8(40 + val*160)
	var r, g, b uint8
	switch {
	case val < 0.25:
		t := val / 0.25
		r, g, b = 0, uint8(t*255), 255
	case val < 0.5:
		t := (val - 0.25) / 0.25
		r, g, b = 0, 255, uint8((1-t)*255)
	case val < 0.75:
		t := (val - 0.5) / 0.25
		r, g, b = uint8(t*255), 255, 0
	default:
		t := (val - 0.75) / 0.25
		r, g, b = 255, uint8((1-t)*255), 0
	}
	return rl.Color{R: r, G: g, B: b, A: alpha}
}
