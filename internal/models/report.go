package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Stage names one independent extraction task over the assembled text.
type Stage string

const (
	StageEntities Stage = "entities"
	StageMath     Stage = "math_expressions"
	StageSummary  Stage = "summary"
)

// AllStages lists every stage in report order.
var AllStages = []Stage{StageEntities, StageMath, StageSummary}

// ParseStage accepts a stage name or its short alias ("math").
func ParseStage(s string) (Stage, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entities", "entity", "ner":
		return StageEntities, true
	case "math", "math_expressions":
		return StageMath, true
	case "summary", "summarize":
		return StageSummary, true
	}
	return "", false
}

// Outcome is the overall verdict across the stages that ran.
type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomePartial  Outcome = "partial"
	OutcomeFailed   Outcome = "failed"
)

// PageInfo describes how one page's text was obtained and where it sits in the assembled text.
type PageInfo struct {
	Index         int        `json:"index"`
	Source        TextSource `json:"source"`
	Confidence    float64    `json:"confidence"`
	Start         int        `json:"start"`
	End           int        `json:"end"`
	ContentType   string     `json:"content_type"`
	HasTable      bool       `json:"has_table,omitempty"`
	HasImage      bool       `json:"has_image,omitempty"`
	LowConfidence bool       `json:"low_confidence,omitempty"`
}

// AnalysisReport is the merged result of one analysis. The orchestrator builds it once;
// callers treat it as read-only.
type AnalysisReport struct {
	Document        *Document
	WordCount       int
	Text            string
	TextTruncated   bool
	Pages           []PageInfo
	Entities        ExtractionResult[[]Entity]
	Math            ExtractionResult[[]MathExpression]
	Summary         ExtractionResult[Summary]
	HighlightedText string
	Duration        time.Duration
}

// Outcome is failed when every stage that ran failed, partial when any stage is failed or
// unavailable, and complete otherwise.
func (r *AnalysisReport) Outcome() Outcome {
	ran, failed, degraded := 0, 0, 0
	for _, st := range []Status{r.Entities.Status(), r.Math.Status(), r.Summary.Status()} {
		if st == "" {
			continue
		}
		ran++
		switch st {
		case StatusFailed:
			failed++
			degraded++
		case StatusUnavailable:
			degraded++
		}
	}
	switch {
	case ran > 0 && failed == ran:
		return OutcomeFailed
	case degraded > 0:
		return OutcomePartial
	default:
		return OutcomeComplete
	}
}

// StageStatus is the serialized status of one stage.
type StageStatus struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Statuses returns the status of every stage that ran.
func (r *AnalysisReport) Statuses() map[Stage]StageStatus {
	out := make(map[Stage]StageStatus, 3)
	add := func(s Stage, st Status, reason string) {
		if st == "" {
			return
		}
		ss := StageStatus{Status: st}
		if st != StatusSuccess {
			ss.Message = reason
		}
		out[s] = ss
	}
	add(StageEntities, r.Entities.Status(), r.Entities.Reason())
	add(StageMath, r.Math.Status(), r.Math.Reason())
	add(StageSummary, r.Summary.Status(), r.Summary.Reason())
	return out
}

// DocumentView is the document metadata block of a serialized report.
type DocumentView struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Format    Format `json:"format"`
	SizeBytes int64  `json:"size_bytes"`
	PageCount int    `json:"page_count"`
	WordCount int    `json:"word_count"`
}

// ReportView is the wire shape of an AnalysisReport.
type ReportView struct {
	Document        DocumentView          `json:"document"`
	Outcome         Outcome               `json:"outcome"`
	Text            string                `json:"text"`
	TextTruncated   bool                  `json:"text_truncated"`
	Pages           []PageInfo            `json:"pages"`
	Entities        []Entity              `json:"entities"`
	EntityCounts    map[Category]int      `json:"entity_counts,omitempty"`
	HighlightedText string                `json:"highlighted_text,omitempty"`
	MathExpressions []MathExpression      `json:"math_expressions"`
	Summary         string                `json:"summary"`
	Truncated       bool                  `json:"truncated"`
	KeyPoints       []string              `json:"key_points,omitempty"`
	Facts           []string              `json:"facts,omitempty"`
	Status          map[Stage]StageStatus `json:"status"`
	DurationMS      int64                 `json:"duration_ms"`
}

// View flattens the report into its wire shape. Lists are never null.
func (r *AnalysisReport) View() *ReportView {
	v := &ReportView{
		Outcome:         r.Outcome(),
		Text:            r.Text,
		TextTruncated:   r.TextTruncated,
		Pages:           r.Pages,
		Entities:        []Entity{},
		MathExpressions: []MathExpression{},
		HighlightedText: r.HighlightedText,
		Status:          r.Statuses(),
		DurationMS:      r.Duration.Milliseconds(),
	}
	if r.Document != nil {
		v.Document = DocumentView{
			ID:        r.Document.ID,
			Filename:  r.Document.Filename,
			Format:    r.Document.Format,
			SizeBytes: r.Document.SizeBytes,
			PageCount: r.Document.PageCount(),
			WordCount: r.WordCount,
		}
	}
	if v.Pages == nil {
		v.Pages = []PageInfo{}
	}
	if ents, ok := r.Entities.Value(); ok && ents != nil {
		v.Entities = ents
		v.EntityCounts = CountByCategory(ents)
	}
	if exprs, ok := r.Math.Value(); ok && exprs != nil {
		v.MathExpressions = exprs
	}
	if s, ok := r.Summary.Value(); ok {
		v.Summary = s.Text
		v.Truncated = s.Truncated
		v.KeyPoints = s.KeyPoints
		v.Facts = s.Facts
	}
	return v
}

// MarshalJSON encodes the report as its ReportView.
func (r *AnalysisReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.View())
}
