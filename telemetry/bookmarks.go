package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the kind of notable event recorded: the
// audio/perf equivalents of an ecosystem-milestone bookmark.
type BookmarkType string

const (
	BookmarkTierChange        BookmarkType = "tier_change"
	BookmarkSectionChange     BookmarkType = "section_change"
	BookmarkStrongBeat        BookmarkType = "strong_beat"
	BookmarkBoundaryShapeSwitch BookmarkType = "boundary_shape_switch"
	BookmarkAudioStall        BookmarkType = "audio_stall"
	BookmarkTempoLock         BookmarkType = "tempo_lock"
)

// Bookmark is one recorded event.
type Bookmark struct {
	Type        BookmarkType
	Frame       int64
	Description string
}

// Log emits the bookmark via slog.
func (b Bookmark) Log() {
	slog.Info("bookmark",
		slog.String("type", string(b.Type)),
		slog.Int64("frame", b.Frame),
		slog.String("description", b.Description),
	)
}

// bookmarkHistoryCap bounds the in-memory ring so a long-running
// headless session doesn't grow memory without limit.
const bookmarkHistoryCap = 512

// BookmarkLog is a bounded ring buffer of recent notable events plus
// the threshold state needed to detect "strong beat".
type BookmarkLog struct {
	entries []Bookmark
	start   int

	strongBeatThreshold float32
	lastTier            string
	lastSection         string
}

// NewBookmarkLog creates an empty bookmark log. strongBeatThreshold
// gates how intense a beat must be (BeatIntensity) before it is
// recorded, avoiding a bookmark on every single beat.
func NewBookmarkLog(strongBeatThreshold float32) *BookmarkLog {
	return &BookmarkLog{strongBeatThreshold: strongBeatThreshold}
}

func (l *BookmarkLog) push(b Bookmark) {
	if len(l.entries) < bookmarkHistoryCap {
		l.entries = append(l.entries, b)
	} else {
		l.entries[l.start] = b
		l.start = (l.start + 1) % bookmarkHistoryCap
	}
	b.Log()
}

// RecordTierChange logs a performance tier transition. A transition into
// the tier most recently recorded is ignored, so a repeated report of the
// same change is logged once.
func (l *BookmarkLog) RecordTierChange(frame int64, from, to string, fps float64, reason string) {
	if to == l.lastTier {
		return
	}
	l.lastTier = to
	l.push(Bookmark{
		Type:        BookmarkTierChange,
		Frame:       frame,
		Description: fmt.Sprintf("tier %s -> %s at %.1f fps (%s)", from, to, fps, reason),
	})
}

// RecordSectionChange logs a detected structural section transition.
func (l *BookmarkLog) RecordSectionChange(frame int64, section string) {
	if section == l.lastSection {
		return
	}
	l.lastSection = section
	l.push(Bookmark{
		Type:        BookmarkSectionChange,
		Frame:       frame,
		Description: fmt.Sprintf("entered section %s", section),
	})
}

// RecordBeat logs a beat whose intensity clears strongBeatThreshold.
func (l *BookmarkLog) RecordBeat(frame int64, intensity float32) {
	if intensity < l.strongBeatThreshold {
		return
	}
	l.push(Bookmark{
		Type:        BookmarkStrongBeat,
		Frame:       frame,
		Description: fmt.Sprintf("strong beat, intensity %.2f", intensity),
	})
}

// RecordTempoLock logs the prediction engine's IOI coefficient of
// variation dropping below its stability threshold, i.e. the point
// PredictBeats starts returning extrapolated beats instead of nil.
func (l *BookmarkLog) RecordTempoLock(frame int64, tempo float64) {
	l.push(Bookmark{
		Type:        BookmarkTempoLock,
		Frame:       frame,
		Description: fmt.Sprintf("tempo locked at %.1f bpm", tempo),
	})
}

// RecordBoundaryShapeSwitch logs an operator-triggered boundary shape change.
func (l *BookmarkLog) RecordBoundaryShapeSwitch(frame int64, shape string) {
	l.push(Bookmark{
		Type:        BookmarkBoundaryShapeSwitch,
		Frame:       frame,
		Description: fmt.Sprintf("boundary shape switched to %s", shape),
	})
}

// RecordAudioStall logs the router falling back to decayed modulators
// after N frames without a fresh AudioFrame.
func (l *BookmarkLog) RecordAudioStall(frame int64, framesSinceAudio int) {
	l.push(Bookmark{
		Type:        BookmarkAudioStall,
		Frame:       frame,
		Description: fmt.Sprintf("audio stalled for %d frames", framesSinceAudio),
	})
}

// Recent returns the bookmarks currently held, oldest first.
func (l *BookmarkLog) Recent() []Bookmark {
	if len(l.entries) < bookmarkHistoryCap {
		out := make([]Bookmark, len(l.entries))
		copy(out, l.entries)
		return out
	}
	out := make([]Bookmark, 0, bookmarkHistoryCap)
	out = append(out, l.entries[l.start:]...)
	out = append(out, l.entries[:l.start]...)
	return out
}
