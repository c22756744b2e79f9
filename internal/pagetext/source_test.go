package pagetext

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/hyperjump/docanalyzer/internal/config"
	"github.com/hyperjump/docanalyzer/internal/models"
	"github.com/hyperjump/docanalyzer/internal/ocr"
)

type fakeRenderer struct {
	calls int
	err   error
}

func (f *fakeRenderer) RenderPage(_ context.Context, index int) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("image"), nil
}

type fakeRecognizer struct {
	calls int
	rec   ocr.Recognition
	err   error
}

func (f *fakeRecognizer) Recognize(context.Context, []byte) (ocr.Recognition, error) {
	f.calls++
	return f.rec, f.err
}

func (f *fakeRecognizer) Available() error { return nil }
func (f *fakeRecognizer) Name() string     { return "fake" }

type unavailableRecognizer struct{}

func (unavailableRecognizer) Recognize(context.Context, []byte) (ocr.Recognition, error) {
	return ocr.Recognition{}, errors.New("not loaded")
}

func (unavailableRecognizer) Available() error {
	return models.NewUnavailableError("ocr", "not loaded")
}

func (unavailableRecognizer) Name() string { return "none" }

func defaults() config.PageTextConfig {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg.PageText
}

func letter(index int, text string) models.Page {
	return models.Page{Index: index, NativeText: text, Width: 612, Height: 792}
}

func TestResolve_sufficientNativeSkipsOCR(t *testing.T) {
	rend, rec := &fakeRenderer{}, &fakeRecognizer{}
	s := NewSource(defaults(), WithOCR(rend, rec), WithLogger(zaptest.NewLogger(t)))

	got := s.Resolve(context.Background(), letter(0, "Invoice dated March 5, 2024 for $500."))
	if got.Source != models.SourceNative || got.Confidence != 1.0 {
		t.Errorf("got %+v", got)
	}
	if got.Text != "Invoice dated March 5, 2024 for $500." {
		t.Errorf("text = %q", got.Text)
	}
	if rend.calls != 0 || rec.calls != 0 {
		t.Errorf("OCR invoked: render=%d recognize=%d", rend.calls, rec.calls)
	}
}

func TestResolve_emptyNativeUsesOCR(t *testing.T) {
	rec := &fakeRecognizer{rec: ocr.Recognition{Text: "Paid in full.", Confidence: 0.91, HasConfidence: true}}
	s := NewSource(defaults(), WithOCR(&fakeRenderer{}, rec))

	got := s.Resolve(context.Background(), letter(1, "  \n"))
	if got.Source != models.SourceOCR || got.Text != "Paid in full." || got.Confidence != 0.91 {
		t.Errorf("got %+v", got)
	}
	if got.Index != 1 {
		t.Errorf("index = %d", got.Index)
	}
}

func TestResolve_defaultConfidence(t *testing.T) {
	rec := &fakeRecognizer{rec: ocr.Recognition{Text: "faint text"}}
	s := NewSource(defaults(), WithOCR(&fakeRenderer{}, rec))

	got := s.Resolve(context.Background(), letter(0, ""))
	if got.Confidence != 0.25 {
		t.Errorf("confidence = %v, want 0.25", got.Confidence)
	}
	if !s.LowConfidence(got) {
		t.Error("expected low confidence flag")
	}
}

func TestResolve_failuresDegrade(t *testing.T) {
	tests := []struct {
		name string
		rend *fakeRenderer
		rec  *fakeRecognizer
	}{
		{"render", &fakeRenderer{err: ocr.ErrNoPageImage}, &fakeRecognizer{}},
		{"recognize", &fakeRenderer{}, &fakeRecognizer{err: errors.New("tesseract crashed")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSource(defaults(), WithOCR(tt.rend, tt.rec))
			got := s.Resolve(context.Background(), letter(3, ""))
			want := models.PageText{Index: 3, Source: models.SourceOCR, Confidence: 0}
			if got != want {
				t.Errorf("got %+v, want %+v", got, want)
			}
		})
	}
}

func TestResolve_withoutOCR(t *testing.T) {
	s := NewSource(defaults())
	got := s.Resolve(context.Background(), models.Page{Index: 0, NativeText: "short"})
	if got.Source != models.SourceNative || got.Text != "short" {
		t.Errorf("got %+v", got)
	}

	empty := s.Resolve(context.Background(), models.Page{Index: 1, NativeText: " \n\t"})
	want := models.PageText{Index: 1, Source: models.SourceOCR, Confidence: 0}
	if empty != want {
		t.Errorf("empty page = %+v, want %+v", empty, want)
	}
}

func TestResolve_unavailableRecognizerKeepsNative(t *testing.T) {
	rend := &fakeRenderer{}
	s := NewSource(defaults(), WithOCR(rend, unavailableRecognizer{}))
	got := s.Resolve(context.Background(), letter(0, "short"))
	if got.Source != models.SourceNative || got.Text != "short" {
		t.Errorf("got %+v", got)
	}
	empty := s.Resolve(context.Background(), letter(1, ""))
	if empty.Source != models.SourceOCR || empty.Confidence != 0 {
		t.Errorf("empty page = %+v, want OCR with zero confidence", empty)
	}
	if rend.calls != 0 {
		t.Errorf("renderer called %d times", rend.calls)
	}

	noRenderer := NewSource(defaults(), WithOCR(nil, &fakeRecognizer{}))
	if got := noRenderer.Resolve(context.Background(), letter(2, "")); got.Source != models.SourceOCR {
		t.Errorf("no renderer = %+v, want OCR", got)
	}
}

func TestSufficient(t *testing.T) {
	s := NewSource(defaults())
	tests := []struct {
		name string
		page models.Page
		want bool
	}{
		{"empty", letter(0, ""), false},
		{"too short for letter page", letter(0, "Total: 12 items"), false},
		{"long enough", letter(0, strings.Repeat("word ", 10)), true},
		{"garbage glyphs", letter(0, strings.Repeat("\x00\x01\x02ab", 10)), false},
		{"no geometry uses minimum", models.Page{NativeText: "sixteen chars ok"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sufficient(tt.page); got != tt.want {
				t.Errorf("Sufficient() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMinLength(t *testing.T) {
	s := NewSource(defaults())
	if got := s.MinLength(letter(0, "")); got != 24 {
		t.Errorf("letter page = %d, want 24", got)
	}
	if got := s.MinLength(models.Page{}); got != 16 {
		t.Errorf("no geometry = %d, want 16", got)
	}
}
