package models

import (
	"errors"
	"testing"
)

func TestExtractionResult_States(t *testing.T) {
	ok := Success([]Entity{{Text: "Acme Inc", Category: CategoryOrg}})
	if ok.Status() != StatusSuccess || !ok.Ran() {
		t.Fatalf("success status: got %q", ok.Status())
	}
	if v, has := ok.Value(); !has || len(v) != 1 {
		t.Errorf("success value: got %v, %v", v, has)
	}

	un := Unavailable[Summary]("no model loaded")
	if un.Status() != StatusUnavailable {
		t.Errorf("unavailable status: got %q", un.Status())
	}
	if _, has := un.Value(); has {
		t.Error("unavailable result must not expose a value")
	}
	if un.Reason() != "no model loaded" {
		t.Errorf("reason: got %q", un.Reason())
	}

	boom := errors.New("boom")
	f := Failed[[]MathExpression](boom)
	if f.Status() != StatusFailed || !errors.Is(f.Err(), boom) || f.Reason() != "boom" {
		t.Errorf("failed result: %q %v %q", f.Status(), f.Err(), f.Reason())
	}

	var zero ExtractionResult[Summary]
	if zero.Ran() {
		t.Error("zero value should mean the stage did not run")
	}
}

func TestParseCategory(t *testing.T) {
	if c, ok := ParseCategory(" money "); !ok || c != CategoryMoney {
		t.Errorf("ParseCategory(money) = %q, %v", c, ok)
	}
	if _, ok := ParseCategory("CARDINAL"); ok {
		t.Error("CARDINAL is outside the closed set")
	}
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		in   string
		want Stage
		ok   bool
	}{
		{"math", StageMath, true},
		{"entities", StageEntities, true},
		{"Summary", StageSummary, true},
		{"ocr", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseStage(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseStage(%q) = %q, %v", tt.in, got, ok)
		}
	}
}

func TestInputError(t *testing.T) {
	cause := errors.New("bad xref")
	err := error(NewInputError(InputCorrupt, "report.pdf", cause))
	var ie *InputError
	if !errors.As(err, &ie) || ie.Reason != InputCorrupt {
		t.Fatalf("errors.As failed: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("InputError should unwrap to its cause")
	}
	if err.Error() != "invalid input (corrupt): report.pdf: bad xref" {
		t.Errorf("message: %q", err.Error())
	}
}

func TestUnavailableError(t *testing.T) {
	err := NewUnavailableError("summarizer", "api key not set")
	if !IsUnavailable(err) {
		t.Error("expected IsUnavailable")
	}
	if IsUnavailable(errors.New("other")) {
		t.Error("plain error is not unavailable")
	}
}

func TestDocument_Validate(t *testing.T) {
	doc := NewDocument("a.pdf", FormatPDF, 10, nil)
	if doc.Validate() == nil {
		t.Error("document without pages must be invalid")
	}
	doc.Pages = []Page{{Index: 0}, {Index: 1}}
	if err := doc.Validate(); err != nil {
		t.Errorf("valid document: %v", err)
	}
	if doc.ID == "" {
		t.Error("expected generated id")
	}
	doc.Pages[1].Index = 5
	if doc.Validate() == nil {
		t.Error("mismatched page index must be invalid")
	}
}
