package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	rverrors "github.com/vedakosh/rigveda/core/errors"
	"github.com/vedakosh/rigveda/core/merge"
)

// MandalaCount aggregates per-book output.
type MandalaCount struct {
	Mandala int `json:"mandala"`
	Verses  int `json:"verses"`
	// WithDeity counts records whose deity was recognized.
	WithDeity int `json:"with_deity"`
	// WithTranslation counts records carrying a translation.
	WithTranslation int `json:"with_translation"`
}

// RejectReport locates one rejected record for manual review.
type RejectReport struct {
	Source string `json:"source"`
	Ref    string `json:"ref,omitempty"`
	Reason string `json:"reason"`
}

// Summary is the user-visible outcome of one run. It is written next to
// the output stream and printed at the end; a run never exits silently,
// even on zero output.
type Summary struct {
	RunID       string         `json:"run_id"`
	GeneratedAt string         `json:"generated_at"`
	Blocks      int            `json:"blocks"`
	Skipped     int            `json:"skipped,omitempty"`
	Emitted     int            `json:"records_emitted"`
	Flagged     int            `json:"records_flagged"`
	Rejected    int            `json:"records_rejected"`
	Rejects     []RejectReport `json:"rejects,omitempty"`
	ByMandala   []MandalaCount `json:"by_mandala"`
	Merge       *merge.Stats   `json:"merge,omitempty"`
}

// Summarize builds the summary for the run's current state.
func (r *Run) Summarize() Summary {
	s := Summary{
		RunID:       r.id,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Blocks:      r.blocks,
		Skipped:     r.skipped,
		Emitted:     len(r.records),
		Flagged:     r.validator.Flagged(),
		Rejected:    r.validator.Rejected(),
	}

	for _, rej := range r.rejects {
		s.Rejects = append(s.Rejects, RejectReport{
			Source: rej.Source,
			Ref:    rej.Ref,
			Reason: strings.Join(rej.Reasons, "; "),
		})
	}

	counts := make(map[int]*MandalaCount)
	for _, rec := range r.records {
		c := counts[rec.Mandala]
		if c == nil {
			c = &MandalaCount{Mandala: rec.Mandala}
			counts[rec.Mandala] = c
		}
		c.Verses++
		if rec.Deity != nil {
			c.WithDeity++
		}
		if rec.Translation != nil {
			c.WithTranslation++
		}
	}
	for _, c := range counts {
		s.ByMandala = append(s.ByMandala, *c)
	}
	sort.Slice(s.ByMandala, func(i, j int) bool {
		return s.ByMandala[i].Mandala < s.ByMandala[j].Mandala
	})
	return s
}

// SummaryPath derives the sidecar summary location for an output stream:
// "<output minus extension>_summary.json".
func SummaryPath(outputPath string) string {
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + "_summary.json"
}

// WriteSummary writes the summary JSON next to the output stream.
func WriteSummary(outputPath string, s Summary) error {
	path := SummaryPath(outputPath)
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return rverrors.Wrap(err, "encode summary")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return rverrors.NewIO("write", path, err)
	}
	return nil
}
