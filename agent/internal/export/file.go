package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/flowpulse/flowpulse/agent/internal/chart"
)

// Write renders charts in format ("prometheus" or "json").
func Write(w io.Writer, format string, charts []*chart.Chart, now time.Time) error {
	switch format {
	case "prometheus":
		return WritePrometheus(w, charts)
	case "json":
		return WriteJSON(w, charts, now)
	default:
		return fmt.Errorf("export: unknown format %q", format)
	}
}

// WriteFile renders charts and replaces path with the result. Readers never
// see a partially written file.
func WriteFile(path, format string, charts []*chart.Chart, now time.Time) error {
	var buf bytes.Buffer
	if err := Write(&buf, format, charts, now); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("export: write %q: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("export: commit %q: %w", path, err)
	}
	return nil
}
