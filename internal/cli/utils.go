// Package cli provides CLI output helpers for docanalyzer.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/docanalyzer/internal/models"
	"github.com/hyperjump/docanalyzer/pkg/utils"
)

// OutputFormat is the format for report output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// textPreview bounds how much of the document text the text format prints.
const textPreview = 500

// ParseOutputFormat accepts "text" or "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

// WriteReport writes an analysis report to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteReport(w io.Writer, report *models.ReportView, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, report)
	default:
		writeReportText(w, report)
		return nil
	}
}

// WriteHealth writes capability health to w in the given format.
func WriteHealth(w io.Writer, h models.Health, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, h)
	}
	fmt.Fprintf(w, "Status: %s\n", h.Status)
	caps := make([]string, 0, len(h.Capabilities))
	for c := range h.Capabilities {
		caps = append(caps, string(c))
	}
	sort.Strings(caps)
	for _, c := range caps {
		ch := h.Capabilities[models.Capability(c)]
		state := "available"
		if !ch.Available {
			state = "unavailable"
		}
		fmt.Fprintf(w, "  %-11s %-12s %s", c, ch.Backend, state)
		if ch.Reason != "" {
			fmt.Fprintf(w, " (%s)", ch.Reason)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeReportText(w io.Writer, r *models.ReportView) {
	d := r.Document
	fmt.Fprintf(w, "\n%s (%s, %d pages, %d words)\n", d.Filename, d.Format, d.PageCount, d.WordCount)
	fmt.Fprintf(w, "Outcome: %s in %dms\n\n", r.Outcome, r.DurationMS)

	if len(r.Pages) > 0 {
		fmt.Fprintln(w, "--- Pages ---")
		for _, p := range r.Pages {
			fmt.Fprintf(w, "[%d] %-6s confidence %.2f  %s", p.Index, p.Source, p.Confidence, p.ContentType)
			if p.LowConfidence {
				fmt.Fprint(w, " (low confidence)")
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "--- Text ---")
	fmt.Fprintln(w, utils.Truncate(r.Text, textPreview))
	fmt.Fprintln(w)

	if st, ok := r.Status[models.StageEntities]; ok {
		fmt.Fprintf(w, "--- Entities (%d) ---\n", len(r.Entities))
		for _, e := range r.Entities {
			fmt.Fprintf(w, "%-12s %s [%d:%d] page %d\n", e.Category, e.Text, e.Start, e.End, e.Page)
		}
		writeStageNote(w, st)
	}
	if st, ok := r.Status[models.StageMath]; ok {
		fmt.Fprintf(w, "--- Math expressions (%d) ---\n", len(r.MathExpressions))
		for _, m := range r.MathExpressions {
			fmt.Fprintf(w, "%-10s %s\n", m.Kind, m.Text)
		}
		writeStageNote(w, st)
	}
	if st, ok := r.Status[models.StageSummary]; ok {
		fmt.Fprintln(w, "--- Summary ---")
		if r.Summary != "" {
			fmt.Fprintln(w, r.Summary)
		}
		for _, kp := range r.KeyPoints {
			fmt.Fprintf(w, "  * %s\n", TruncateWords(kp, 30))
		}
		writeStageNote(w, st)
	}
}

func writeStageNote(w io.Writer, st models.StageStatus) {
	if st.Status != models.StatusSuccess {
		fmt.Fprintf(w, "(%s", st.Status)
		if st.Message != "" {
			fmt.Fprintf(w, ": %s", st.Message)
		}
		fmt.Fprintln(w, ")")
	}
	fmt.Fprintln(w)
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
