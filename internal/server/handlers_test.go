package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/docanalyzer/internal/config"
	"github.com/hyperjump/docanalyzer/internal/models"
	"github.com/hyperjump/docanalyzer/internal/pipeline"
	"go.uber.org/zap/zaptest"
)

type fakeAnalyzer struct {
	report *models.AnalysisReport
	err    error
	got    pipeline.Request
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req pipeline.Request) (*models.AnalysisReport, error) {
	f.got = req
	return f.report, f.err
}

func (f *fakeAnalyzer) Health(context.Context) models.Health {
	return models.NewHealth(map[models.Capability]models.CapabilityHealth{
		models.CapabilityOCR:        {Available: false, Backend: "tesseract", Reason: "not built"},
		models.CapabilityEntities:   {Available: true, Backend: "pattern"},
		models.CapabilitySummarizer: {Available: true, Backend: "extractive"},
	})
}

func newTestServer(t *testing.T, a Analyzer) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return NewServer(a, &cfg.Server, cfg.Limits, zaptest.NewLogger(t)).Handler()
}

func multipartRequest(t *testing.T, path, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, path, &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func invoiceReport() *models.AnalysisReport {
	text := "Invoice dated March 5, 2024 for $500."
	return &models.AnalysisReport{
		Document:  models.NewDocument("invoice.pdf", models.FormatPDF, 1024, []models.Page{{Index: 0}}),
		WordCount: 7,
		Text:      text,
		Entities: models.Success([]models.Entity{
			{Text: "March 5, 2024", Category: models.CategoryDate, Start: 14, End: 27},
			{Text: "$500", Category: models.CategoryMoney, Start: 32, End: 36},
		}),
		Math:    models.Success([]models.MathExpression{}),
		Summary: models.Success(models.Summary{Text: text}),
	}
}

func TestHandleHealth(t *testing.T) {
	h := newTestServer(t, &fakeAnalyzer{})
	for _, path := range []string{"/health", "/api/v1/health"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, w.Code)
		}
		var out models.Health
		if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
			t.Fatal(err)
		}
		if out.Status != "partial" {
			t.Errorf("%s: status = %q, want partial", path, out.Status)
		}
		if out.Capabilities[models.CapabilityOCR].Available {
			t.Errorf("%s: ocr should be unavailable", path)
		}
	}
}

func TestHandleAnalyze(t *testing.T) {
	fa := &fakeAnalyzer{report: invoiceReport()}
	h := newTestServer(t, fa)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, multipartRequest(t, "/api/v1/analyze", "invoice.pdf", []byte("%PDF-1.4")))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	if fa.got.Filename != "invoice.pdf" || string(fa.got.Data) != "%PDF-1.4" {
		t.Errorf("request = %q %q", fa.got.Filename, fa.got.Data)
	}
	if fa.got.Stages != nil {
		t.Errorf("stages = %v, want all", fa.got.Stages)
	}
	out := decode(t, w)
	if out["outcome"] != "complete" {
		t.Errorf("outcome = %v", out["outcome"])
	}
	if ents, _ := out["entities"].([]interface{}); len(ents) != 2 {
		t.Errorf("entities = %v", out["entities"])
	}
	status, _ := out["status"].(map[string]interface{})
	if len(status) != 3 {
		t.Errorf("status = %v", out["status"])
	}
}

func TestHandleAnalyze_stagesQuery(t *testing.T) {
	fa := &fakeAnalyzer{report: invoiceReport()}
	h := newTestServer(t, fa)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, multipartRequest(t, "/api/v1/analyze?stages=math,summary", "a.txt", []byte("x")))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	want := []models.Stage{models.StageMath, models.StageSummary}
	if len(fa.got.Stages) != 2 || fa.got.Stages[0] != want[0] || fa.got.Stages[1] != want[1] {
		t.Errorf("stages = %v, want %v", fa.got.Stages, want)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, multipartRequest(t, "/api/v1/analyze?stages=poetry", "a.txt", []byte("x")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown stage: got %d, want 400", w.Code)
	}
}

func TestHandleAnalyze_errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"too large", models.NewInputError(models.InputTooLarge, "big.pdf", nil), http.StatusRequestEntityTooLarge},
		{"corrupt", models.NewInputError(models.InputCorrupt, "bad.pdf", errors.New("xref")), http.StatusBadRequest},
		{"encrypted", models.NewInputError(models.InputEncrypted, "secret.pdf", nil), http.StatusBadRequest},
		{"system", &models.SystemError{Op: "create scratch space", Err: errors.New("disk full")}, http.StatusInternalServerError},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &fakeAnalyzer{err: tt.err})
			w := httptest.NewRecorder()
			h.ServeHTTP(w, multipartRequest(t, "/api/v1/analyze", "doc.pdf", []byte("data")))
			if w.Code != tt.want {
				t.Errorf("status: got %d, want %d", w.Code, tt.want)
			}
			if msg, _ := decode(t, w)["error"].(string); msg == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestHandleAnalyze_missingFile(t *testing.T) {
	fa := &fakeAnalyzer{report: invoiceReport()}
	h := newTestServer(t, fa)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader("{}")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("not multipart: got %d, want 400", w.Code)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("name", "x")
	_ = mw.Close()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("no file field: got %d, want 400", w.Code)
	}
	if fa.got.Filename != "" {
		t.Error("analyzer must not be called")
	}
}

func TestHandleAnalyze_allStagesFailed(t *testing.T) {
	report := invoiceReport()
	report.Entities = models.Failed[[]models.Entity](errors.New("entities: model crashed"))
	report.Math = models.ExtractionResult[[]models.MathExpression]{}
	report.Summary = models.Failed[models.Summary](errors.New("summary: timeout"))
	h := newTestServer(t, &fakeAnalyzer{report: report})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, multipartRequest(t, "/api/v1/analyze", "invoice.pdf", []byte("x")))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want 502", w.Code)
	}
	out := decode(t, w)
	if out["outcome"] != "failed" {
		t.Errorf("outcome = %v", out["outcome"])
	}
	if out["text"] == "" {
		t.Error("report body should still carry the text")
	}
}

func TestHandleExtractEndpoints(t *testing.T) {
	fa := &fakeAnalyzer{report: invoiceReport()}
	h := newTestServer(t, fa)

	tests := []struct {
		path  string
		stage models.Stage
		key   string
	}{
		{"/api/v1/extract/text", models.StageEntities, "text_content"},
		{"/api/v1/extract/entities", models.StageEntities, "entity_counts"},
		{"/api/v1/extract/math", models.StageMath, "expression_count"},
		{"/api/v1/extract/summary", models.StageSummary, "summary_word_count"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, multipartRequest(t, tt.path, "invoice.pdf", []byte("x")))
			if w.Code != http.StatusOK {
				t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
			}
			if len(fa.got.Stages) != 1 || fa.got.Stages[0] != tt.stage {
				t.Errorf("stages = %v, want [%s]", fa.got.Stages, tt.stage)
			}
			if _, ok := decode(t, w)[tt.key]; !ok {
				t.Errorf("missing %q in response", tt.key)
			}
		})
	}
}

func TestHandleExtractText_highlights(t *testing.T) {
	report := invoiceReport()
	report.HighlightedText = "Invoice dated **March 5, 2024** for **$500**."
	h := newTestServer(t, &fakeAnalyzer{report: report})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, multipartRequest(t, "/api/v1/extract/text", "invoice.pdf", []byte("x")))
	out := decode(t, w)
	if out["highlighted_text"] != report.HighlightedText {
		t.Errorf("highlighted_text = %v", out["highlighted_text"])
	}
	if out["word_count"] != float64(7) {
		t.Errorf("word_count = %v", out["word_count"])
	}
}

func TestHandleExtractSummary_unavailable(t *testing.T) {
	report := invoiceReport()
	report.Summary = models.Unavailable[models.Summary]("summary: bart backend: model not loaded")
	h := newTestServer(t, &fakeAnalyzer{report: report})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, multipartRequest(t, "/api/v1/extract/summary", "invoice.pdf", []byte("x")))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", w.Code)
	}
	if msg, _ := decode(t, w)["error"].(string); !strings.Contains(msg, "model not loaded") {
		t.Errorf("error = %q", msg)
	}
}

func TestHandleExtractEntities_failed(t *testing.T) {
	report := invoiceReport()
	report.Entities = models.Failed[[]models.Entity](errors.New("entities: timeout"))
	h := newTestServer(t, &fakeAnalyzer{report: report})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, multipartRequest(t, "/api/v1/extract/entities", "invoice.pdf", []byte("x")))
	if w.Code != http.StatusBadGateway {
		t.Errorf("status: got %d, want 502", w.Code)
	}
}

func TestAnalyze_withPipeline(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Limits.MaxDocumentBytes = 256
	cfg.Pipeline.ScratchDir = t.TempDir()
	orch := pipeline.New(context.Background(), cfg, pipeline.WithLogger(zaptest.NewLogger(t)))
	defer orch.Close()
	h := NewServer(orch, &cfg.Server, cfg.Limits, zaptest.NewLogger(t)).Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, multipartRequest(t, "/api/v1/analyze", "invoice.txt",
		[]byte("Invoice dated March 5, 2024 for $500.\fPaid in full.")))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	out := decode(t, w)
	pages, _ := out["pages"].([]interface{})
	if len(pages) != 2 {
		t.Errorf("pages = %v", out["pages"])
	}
	counts, _ := out["entity_counts"].(map[string]interface{})
	if counts["DATE"] != float64(1) || counts["MONEY"] != float64(1) {
		t.Errorf("entity_counts = %v", counts)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, multipartRequest(t, "/api/v1/analyze", "big.txt", bytes.Repeat([]byte("a "), 200)))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversize: got %d, want 413", w.Code)
	}
}

func TestParseStages(t *testing.T) {
	got, err := parseStages("")
	if err != nil || got != nil {
		t.Errorf("empty: got %v, %v", got, err)
	}
	got, err = parseStages(" entities , math ")
	if err != nil || len(got) != 2 || got[0] != models.StageEntities || got[1] != models.StageMath {
		t.Errorf("list: got %v, %v", got, err)
	}
	if _, err := parseStages("entities,nope"); err == nil {
		t.Error("expected error for unknown stage")
	}
}
