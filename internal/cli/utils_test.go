package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/docanalyzer/internal/models"
)

func sampleReport() *models.ReportView {
	return &models.ReportView{
		Document: models.DocumentView{ID: "doc-1", Filename: "invoice.pdf", Format: models.FormatPDF, PageCount: 2, WordCount: 10},
		Outcome:  models.OutcomePartial,
		Text:     "Invoice dated March 5, 2024 for $500.\n\f\nPaid in full.",
		Pages: []models.PageInfo{
			{Index: 0, Source: models.SourceNative, Confidence: 1, ContentType: "text"},
			{Index: 1, Source: models.SourceOCR, Confidence: 0.3, ContentType: "scanned", LowConfidence: true},
		},
		Entities: []models.Entity{
			{Text: "March 5, 2024", Category: models.CategoryDate, Start: 14, End: 27},
		},
		MathExpressions: []models.MathExpression{},
		Status: map[models.Stage]models.StageStatus{
			models.StageEntities: {Status: models.StatusSuccess},
			models.StageMath:     {Status: models.StatusSuccess},
			models.StageSummary:  {Status: models.StatusUnavailable, Message: "summary: model not loaded"},
		},
		DurationMS: 12,
	}
}

func TestWriteReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleReport(), OutputJSON); err != nil {
		t.Fatalf("WriteReport(json): %v", err)
	}
	var decoded models.ReportView
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Document.ID != "doc-1" || decoded.Outcome != models.OutcomePartial {
		t.Errorf("decoded document=%+v outcome=%s", decoded.Document, decoded.Outcome)
	}
	if decoded.Status[models.StageSummary].Status != models.StatusUnavailable {
		t.Errorf("summary status = %+v", decoded.Status[models.StageSummary])
	}
}

func TestWriteReport_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleReport(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"invoice.pdf (pdf, 2 pages, 10 words)",
		"Outcome: partial",
		"(low confidence)",
		"--- Entities (1) ---",
		"March 5, 2024",
		"(unavailable: summary: model not loaded)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteReport_TextSkipsStagesNotRun(t *testing.T) {
	r := sampleReport()
	r.Status = map[models.Stage]models.StageStatus{}
	var buf bytes.Buffer
	_ = WriteReport(&buf, r, OutputText)
	if strings.Contains(buf.String(), "Entities") || strings.Contains(buf.String(), "Summary") {
		t.Errorf("stages that did not run should be omitted:\n%s", buf.String())
	}
}

func TestWriteHealth(t *testing.T) {
	h := models.NewHealth(map[models.Capability]models.CapabilityHealth{
		models.CapabilityOCR:      {Available: false, Backend: "tesseract", Reason: "not built with ocr tag"},
		models.CapabilityEntities: {Available: true, Backend: "pattern"},
	})
	var buf bytes.Buffer
	if err := WriteHealth(&buf, h, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "Status: partial\n") {
		t.Errorf("output = %q", out)
	}
	if strings.Index(out, "entities") > strings.Index(out, "ocr") {
		t.Errorf("capabilities should be sorted:\n%s", out)
	}
	if !strings.Contains(out, "unavailable (not built with ocr tag)") {
		t.Errorf("missing reason:\n%s", out)
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestTruncateWords(t *testing.T) {
	if got := TruncateWords("one two three", 2); got != "one two..." {
		t.Errorf("got %q", got)
	}
	if got := TruncateWords("one two", 5); got != "one two" {
		t.Errorf("got %q", got)
	}
}
