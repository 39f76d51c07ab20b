package solver

import (
	"math"
	"sync/atomic"
)

// FixedPointScale is the default encode/decode multiplier. The CPU
// backend accumulates into int64 so the 32-bit headroom claim is a
// design target for the GPU SSBO layout, not a hard CPU limit; the
// multiplier is still honoured exactly so results match bit-for-bit.
//
// Keep this configurable (solver.Options.FixedPointScale); changing it
// breaks reproducibility with any recorded run.
const FixedPointScale = 1e7

// EncodeFixed converts a real value to its fixed-point integer encoding.
func EncodeFixed(v float32, scale float32) int64 {
	return int64(v * scale)
}

// DecodeFixed converts a fixed-point integer encoding back to real.
func DecodeFixed(v int64, scale float32) float32 {
	return float32(v) / scale
}

// clampFixed saturates a fixed-point accumulator to int32 range, matching
// the "fixed-point overflow is tolerated silently" error policy: a saturated value is wrong by a bounded amount, never by overflow
// wraparound.
func clampFixed(v int64) int64 {
	const maxI32 = int64(math.MaxInt32)
	const minI32 = int64(math.MinInt32)
	if v > maxI32 {
		return maxI32
	}
	if v < minI32 {
		return minI32
	}
	return v
}

// atomicAddFixed encodes v and scatter-adds it into the fixed-point
// accumulator at dst. This is the CPU reference's stand-in for the GPU
// backend's atomicAdd(int) on an SSBO cell; the
// scatter pattern is identical, only the memory model differs.
func atomicAddFixed(dst *int64, v float32, scale float32) {
	atomic.AddInt64(dst, EncodeFixed(v, scale))
}
