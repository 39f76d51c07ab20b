package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// OutputManager handles CSV export of frame metrics and bookmarks,
// trimmed to the two files the fluid/audio pipeline produces instead of
// a larger ecosystem/perf/hall-of-fame trio.
type OutputManager struct {
	dir string

	metricsFile   *os.File
	bookmarksFile *os.File

	metricsHeaderWritten   bool
	bookmarksHeaderWritten bool
}

// NewOutputManager creates an output manager writing into dir. Returns
// (nil, nil) when dir is empty, which every write method treats as "output
// disabled" rather than an error.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating telemetry output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "metrics.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating metrics.csv: %w", err)
	}
	om.metricsFile = f

	f, err = os.Create(filepath.Join(dir, "bookmarks.csv"))
	if err != nil {
		om.metricsFile.Close()
		return nil, fmt.Errorf("creating bookmarks.csv: %w", err)
	}
	om.bookmarksFile = f

	return om, nil
}

// WriteMetrics appends one FrameMetrics record to metrics.csv.
func (om *OutputManager) WriteMetrics(m FrameMetrics) error {
	if om == nil {
		return nil
	}
	records := []FrameMetricsCSV{m.ToCSV()}
	if !om.metricsHeaderWritten {
		if err := gocsv.Marshal(records, om.metricsFile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		om.metricsHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.metricsFile); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// WriteBookmark appends one Bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	records := []Bookmark{b}
	if !om.bookmarksHeaderWritten {
		if err := gocsv.Marshal(records, om.bookmarksFile); err != nil {
			return fmt.Errorf("writing bookmark: %w", err)
		}
		om.bookmarksHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.bookmarksFile); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// Dir returns the output directory, or "" if output is disabled.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes the open output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	if om.metricsFile != nil {
		if err := om.metricsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if om.bookmarksFile != nil {
		if err := om.bookmarksFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
