package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAnalysisReport_Outcome(t *testing.T) {
	tests := []struct {
		name   string
		report AnalysisReport
		want   Outcome
	}{
		{
			name: "all success",
			report: AnalysisReport{
				Entities: Success([]Entity{}),
				Math:     Success([]MathExpression{}),
				Summary:  Success(Summary{Text: "x"}),
			},
			want: OutcomeComplete,
		},
		{
			name: "one unavailable",
			report: AnalysisReport{
				Entities: Success([]Entity{}),
				Math:     Success([]MathExpression{}),
				Summary:  Unavailable[Summary]("no model"),
			},
			want: OutcomePartial,
		},
		{
			name: "all failed",
			report: AnalysisReport{
				Entities: Failed[[]Entity](errors.New("a")),
				Math:     Failed[[]MathExpression](errors.New("b")),
				Summary:  Failed[Summary](errors.New("c")),
			},
			want: OutcomeFailed,
		},
		{
			name: "failed plus unavailable is partial",
			report: AnalysisReport{
				Entities: Failed[[]Entity](errors.New("a")),
				Summary:  Unavailable[Summary]("no model"),
			},
			want: OutcomePartial,
		},
		{
			name: "single requested stage failed",
			report: AnalysisReport{
				Summary: Failed[Summary](errors.New("c")),
			},
			want: OutcomeFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.report.Outcome(); got != tt.want {
				t.Errorf("Outcome() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalysisReport_MarshalJSON(t *testing.T) {
	doc := NewDocument("invoice.pdf", FormatPDF, 1234, []Page{{Index: 0}, {Index: 1}})
	r := &AnalysisReport{
		Document:  doc,
		WordCount: 10,
		Text:      "Invoice for $500.",
		Entities:  Success([]Entity{{Text: "$500", Category: CategoryMoney, Start: 12, End: 16}}),
		Math:      Success([]MathExpression(nil)),
		Summary:   Unavailable[Summary]("summarizer not configured"),
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out["text"] != "Invoice for $500." {
		t.Errorf("text: %v", out["text"])
	}
	if exprs, ok := out["math_expressions"].([]any); !ok || len(exprs) != 0 {
		t.Errorf("math_expressions should be an empty list, got %v", out["math_expressions"])
	}
	status := out["status"].(map[string]any)
	sum := status["summary"].(map[string]any)
	if sum["status"] != "unavailable" || sum["message"] != "summarizer not configured" {
		t.Errorf("summary status: %v", sum)
	}
	if ent := status["entities"].(map[string]any); ent["status"] != "success" {
		t.Errorf("entities status: %v", ent)
	}
	if out["truncated"] != false {
		t.Errorf("truncated: %v", out["truncated"])
	}
	if out["outcome"] != "partial" {
		t.Errorf("outcome: %v", out["outcome"])
	}
	docView := out["document"].(map[string]any)
	if docView["page_count"].(float64) != 2 {
		t.Errorf("page_count: %v", docView["page_count"])
	}
	counts := out["entity_counts"].(map[string]any)
	if counts["MONEY"].(float64) != 1 {
		t.Errorf("entity_counts: %v", counts)
	}
}

func TestNewHealth(t *testing.T) {
	h := NewHealth(map[Capability]CapabilityHealth{
		CapabilityOCR:        {Available: true, Backend: "tesseract"},
		CapabilitySummarizer: {Available: false, Backend: "llm", Reason: "no key"},
	})
	if h.Status != "partial" {
		t.Errorf("status: %q", h.Status)
	}
	h = NewHealth(map[Capability]CapabilityHealth{CapabilityOCR: {Available: true}})
	if h.Status != "healthy" {
		t.Errorf("status: %q", h.Status)
	}
}

func TestCountByCategory(t *testing.T) {
	ents := []Entity{{Category: CategoryDate}, {Category: CategoryDate}, {Category: CategoryMoney}}
	got := CountByCategory(ents)
	if len(got) != 2 || got[CategoryDate] != 2 || got[CategoryMoney] != 1 {
		t.Errorf("got %v", got)
	}
	if CountByCategory(nil) != nil {
		t.Error("expected nil for no entities")
	}
}
