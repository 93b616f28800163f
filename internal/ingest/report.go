// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"fmt"
	"io"

	"github.com/pdiddy/paper-catalog/pkg/types"
)

// Report summarizes an ingestion run. Items counts only projections that
// were durably written, including on a failed run. Partial counts the part
// of Items that belongs to papers whose write failed midway.
type Report struct {
	RunID   string      `json:"run_id" yaml:"run_id"`
	Records int         `json:"records" yaml:"records"`
	Papers  int         `json:"papers" yaml:"papers"`
	Skipped int         `json:"skipped" yaml:"skipped"`
	Items   types.Tally `json:"items" yaml:"items"`
	Partial int         `json:"partial_items,omitempty" yaml:"partial_items,omitempty"`
}

// Factor returns the denormalization factor: items written per fully
// ingested paper. Partial items are left out. It is zero when no paper was
// ingested.
func (r Report) Factor() float64 {
	if r.Papers == 0 {
		return 0
	}
	return float64(r.Items.Total()-r.Partial) / float64(r.Papers)
}

// Print writes the summary lines of the report.
func (r Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Created items: total=%d, categories=%d, authors=%d, keywords=%d, by_id=%d\n",
		r.Items.Total(), r.Items.Category, r.Items.Author, r.Items.Keyword, r.Items.ID)
	if r.Skipped > 0 {
		fmt.Fprintf(w, "Skipped records: %d\n", r.Skipped)
	}
	if r.Papers > 0 {
		fmt.Fprintf(w, "Denormalization factor: %.2fx\n", r.Factor())
	}
}
