package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/flowpulse/flowpulse/agent/internal/chart"
)

// Snapshot is the JSON document written by the "json" format.
type Snapshot struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Charts      []*chart.Chart `json:"charts"`
}

// WriteJSON encodes charts as an indented Snapshot.
func WriteJSON(w io.Writer, charts []*chart.Chart, now time.Time) error {
	if charts == nil {
		charts = []*chart.Chart{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Snapshot{GeneratedAt: now.UTC(), Charts: charts}); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}
