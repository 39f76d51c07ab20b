package telemetry

import "testing"

func TestBookmarkLogIgnoresWeakBeats(t *testing.T) {
	l := NewBookmarkLog(0.6)
	l.RecordBeat(1, 0.3)
	if len(l.Recent()) != 0 {
		t.Fatalf("expected weak beat to be ignored, got %d entries", len(l.Recent()))
	}
	l.RecordBeat(2, 0.8)
	recent := l.Recent()
	if len(recent) != 1 || recent[0].Type != BookmarkStrongBeat {
		t.Fatalf("expected one strong beat bookmark, got %+v", recent)
	}
}

func TestBookmarkLogDedupesRepeatedTier(t *testing.T) {
	l := NewBookmarkLog(0.6)
	l.RecordTierChange(1, "high", "medium", 40, "fps_drop_high_to_medium")
	l.RecordTierChange(2, "high", "medium", 39, "fps_drop_high_to_medium")
	if len(l.Recent()) != 1 {
		t.Fatalf("expected duplicate tier transition to be suppressed, got %d entries", len(l.Recent()))
	}
}

func TestBookmarkLogWrapsAtCapacity(t *testing.T) {
	l := NewBookmarkLog(0)
	for i := 0; i < bookmarkHistoryCap+10; i++ {
		l.RecordBoundaryShapeSwitch(int64(i), "sphere")
	}
	recent := l.Recent()
	if len(recent) != bookmarkHistoryCap {
		t.Fatalf("expected ring buffer capped at %d, got %d", bookmarkHistoryCap, len(recent))
	}
	if recent[len(recent)-1].Frame != int64(bookmarkHistoryCap+9) {
		t.Fatalf("expected newest entry last, got frame %d", recent[len(recent)-1].Frame)
	}
}
