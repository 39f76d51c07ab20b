// Package perf implements the adaptive performance controller: a
// three-tier FPS state machine that downgrades rendering detail and
// particle count under load and recovers once the frame rate has been
// comfortably high for a while, counting consecutive frames past each
// FPS threshold instead of per-phase timing breakdowns.
package perf

import "log/slog"

// Tier is one of the three quality levels the controller selects.
type Tier uint8

const (
	TierHigh Tier = iota
	TierMedium
	TierLow
)

func (t Tier) String() string {
	switch t {
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	default:
		return "high"
	}
}

// RendererHint is the preferred draw style for a tier.
type RendererHint uint8

const (
	HintMesh RendererHint = iota
	HintSprite
	HintPoint
)

func (h RendererHint) String() string {
	switch h {
	case HintSprite:
		return "sprite"
	case HintPoint:
		return "point"
	default:
		return "mesh"
	}
}

// tierInfo pairs a tier with its renderer hint and particle-count scale.
type tierInfo struct {
	hint  RendererHint
	scale float32
}

var tierTable = map[Tier]tierInfo{
	TierHigh:   {hint: HintMesh, scale: 1.0},
	TierMedium: {hint: HintSprite, scale: 0.75},
	TierLow:    {hint: HintPoint, scale: 0.5},
}

// Thresholds configures the controller's transition rules, loaded from
// config.PerfConfig.
type Thresholds struct {
	HighToMediumFPS      float64
	HighToMediumFrames   int
	MediumToLowFPS       float64
	MediumToLowFrames    int
	RecoverToHighFPS     float64
	RecoverToHighFrames  int
	ManualOverrideFrames int
}

// TransitionReason names why a tier change occurred, reported once per
// transition along with the triggering FPS.
type TransitionReason uint8

const (
	ReasonNone TransitionReason = iota
	ReasonFPSDropHighToMedium
	ReasonFPSDropMediumToLow
	ReasonFPSRecoveredToHigh
	ReasonManualOverride
)

func (r TransitionReason) String() string {
	switch r {
	case ReasonFPSDropHighToMedium:
		return "fps_drop_high_to_medium"
	case ReasonFPSDropMediumToLow:
		return "fps_drop_medium_to_low"
	case ReasonFPSRecoveredToHigh:
		return "fps_recovered_to_high"
	case ReasonManualOverride:
		return "manual_override"
	default:
		return "none"
	}
}

// Transition is emitted once per tier change.
type Transition struct {
	From          Tier
	To            Tier
	TriggeringFPS float64
	Reason        TransitionReason
}

// Controller tracks a rolling FPS average and the consecutive-frame
// counters that drive tier transitions.
type Controller struct {
	thresholds Thresholds
	log        *slog.Logger

	tier Tier

	belowMediumFrames int // consecutive frames with FPS < HighToMediumFPS
	belowLowFrames    int // consecutive frames with FPS < MediumToLowFPS
	aboveHighFrames   int // consecutive frames with FPS > RecoverToHighFPS

	overrideFramesLeft int
	avgFPS             float64
	initialized        bool
}

// NewController creates a controller starting at the high tier.
func NewController(t Thresholds, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{thresholds: t, log: log, tier: TierHigh}
}

// Tier returns the currently selected tier.
func (c *Controller) Tier() Tier { return c.tier }

// Hint returns the renderer hint and particle-count scale for the
// current tier.
func (c *Controller) Hint() (RendererHint, float32) {
	info := tierTable[c.tier]
	return info.hint, info.scale
}

// Override manually pins the controller's tier for ManualOverrideFrames.
func (c *Controller) Override(t Tier) {
	prev := c.tier
	c.tier = t
	c.overrideFramesLeft = c.thresholds.ManualOverrideFrames
	c.belowMediumFrames, c.belowLowFrames, c.aboveHighFrames = 0, 0, 0
	if prev != t {
		c.report(Transition{From: prev, To: t, TriggeringFPS: c.avgFPS, Reason: ReasonManualOverride})
	}
}

// Observe feeds one frame's instantaneous FPS into the controller. The
// consecutive-frame streaks behind the transition rules count this
// per-frame FPS against each threshold; a simple exponential rolling
// average is kept alongside and reported as a transition's
// TriggeringFPS. It returns the transition if one occurred this frame,
// or ok=false otherwise.
func (c *Controller) Observe(instantFPS float64) (Transition, bool) {
	if !c.initialized {
		c.avgFPS = instantFPS
		c.initialized = true
	} else {
		const alpha = 0.1
		c.avgFPS = (1-alpha)*c.avgFPS + alpha*instantFPS
	}

	if c.overrideFramesLeft > 0 {
		c.overrideFramesLeft--
		return Transition{}, false
	}

	t := c.thresholds
	if instantFPS < t.HighToMediumFPS {
		c.belowMediumFrames++
	} else {
		c.belowMediumFrames = 0
	}
	if instantFPS < t.MediumToLowFPS {
		c.belowLowFrames++
	} else {
		c.belowLowFrames = 0
	}
	if instantFPS > t.RecoverToHighFPS {
		c.aboveHighFrames++
	} else {
		c.aboveHighFrames = 0
	}

	prev := c.tier
	reason := ReasonNone

	switch c.tier {
	case TierHigh:
		if c.belowMediumFrames >= t.HighToMediumFrames {
			c.tier = TierMedium
			reason = ReasonFPSDropHighToMedium
		}
	case TierMedium:
		if c.belowLowFrames >= t.MediumToLowFrames {
			c.tier = TierLow
			reason = ReasonFPSDropMediumToLow
		} else if c.aboveHighFrames >= t.RecoverToHighFrames {
			c.tier = TierHigh
			reason = ReasonFPSRecoveredToHigh
		}
	case TierLow:
		if c.aboveHighFrames >= t.RecoverToHighFrames {
			c.tier = TierHigh
			reason = ReasonFPSRecoveredToHigh
		}
	}

	if c.tier == prev {
		return Transition{}, false
	}
	c.belowMediumFrames, c.belowLowFrames, c.aboveHighFrames = 0, 0, 0
	tr := Transition{From: prev, To: c.tier, TriggeringFPS: c.avgFPS, Reason: reason}
	c.report(tr)
	return tr, true
}

func (c *Controller) report(tr Transition) {
	c.log.Info("perf tier change",
		slog.String("from", tr.From.String()),
		slog.String("to", tr.To.String()),
		slog.Float64("fps", tr.TriggeringFPS),
		slog.String("reason", tr.Reason.String()),
	)
}
