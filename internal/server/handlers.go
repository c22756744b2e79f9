package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/hyperjump/docanalyzer/internal/models"
	"github.com/hyperjump/docanalyzer/internal/pipeline"
	"github.com/hyperjump/docanalyzer/pkg/utils"
	"go.uber.org/zap"
)

// upload is a document read from a multipart request.
type upload struct {
	filename string
	data     []byte
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.analyzer.Health(r.Context()))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	stages, err := parseStages(r.URL.Query().Get("stages"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, ok := s.analyze(w, r, stages)
	if !ok {
		return
	}
	status := http.StatusOK
	if report.Outcome() == models.OutcomeFailed {
		status = http.StatusBadGateway
	}
	s.respondJSON(w, status, report)
}

func (s *Server) handleExtractText(w http.ResponseWriter, r *http.Request) {
	// Entities are only used for highlighting here; their absence is not an error.
	report, ok := s.analyze(w, r, []models.Stage{models.StageEntities})
	if !ok {
		return
	}
	v := report.View()
	highlighted := v.HighlightedText
	if highlighted == "" {
		highlighted = v.Text
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"document":         v.Document,
		"text_content":     v.Text,
		"text_truncated":   v.TextTruncated,
		"highlighted_text": highlighted,
		"page_count":       v.Document.PageCount,
		"word_count":       v.Document.WordCount,
		"pages":            v.Pages,
	})
}

func (s *Server) handleExtractEntities(w http.ResponseWriter, r *http.Request) {
	report, ok := s.analyzeStage(w, r, models.StageEntities)
	if !ok {
		return
	}
	v := report.View()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"entities":      v.Entities,
		"entity_counts": v.EntityCounts,
	})
}

func (s *Server) handleExtractMath(w http.ResponseWriter, r *http.Request) {
	report, ok := s.analyzeStage(w, r, models.StageMath)
	if !ok {
		return
	}
	v := report.View()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"math_expressions": v.MathExpressions,
		"expression_count": len(v.MathExpressions),
	})
}

func (s *Server) handleExtractSummary(w http.ResponseWriter, r *http.Request) {
	report, ok := s.analyzeStage(w, r, models.StageSummary)
	if !ok {
		return
	}
	v := report.View()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"summary":             v.Summary,
		"truncated":           v.Truncated,
		"key_points":          v.KeyPoints,
		"facts":               v.Facts,
		"original_word_count": report.WordCount,
		"summary_word_count":  utils.WordCount(v.Summary),
	})
}

// analyzeStage runs a single stage and writes an error response unless it succeeded.
func (s *Server) analyzeStage(w http.ResponseWriter, r *http.Request, stage models.Stage) (*models.AnalysisReport, bool) {
	report, ok := s.analyze(w, r, []models.Stage{stage})
	if !ok {
		return nil, false
	}
	st := report.Statuses()[stage]
	switch st.Status {
	case models.StatusUnavailable:
		s.respondError(w, http.StatusServiceUnavailable, st.Message)
		return nil, false
	case models.StatusFailed:
		s.respondError(w, http.StatusBadGateway, st.Message)
		return nil, false
	}
	return report, true
}

// analyze reads the upload and runs the pipeline. On failure it writes the error response
// and returns false.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request, stages []models.Stage) (*models.AnalysisReport, bool) {
	up, status, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, status, err.Error())
		return nil, false
	}
	s.logger.Debug("analyze request",
		zap.String("filename", up.filename),
		zap.Int("size_bytes", len(up.data)),
		zap.Int("stages", len(stages)))

	report, err := s.analyzer.Analyze(r.Context(), pipeline.Request{
		Filename: up.filename,
		Data:     up.data,
		Stages:   stages,
	})
	if err != nil {
		status := errorStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("analysis failed", zap.String("filename", up.filename), zap.Error(err))
		} else {
			s.logger.Debug("upload rejected", zap.String("filename", up.filename), zap.Error(err))
		}
		s.respondError(w, status, err.Error())
		return nil, false
	}
	return report, true
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, int, error) {
	if s.limits.MaxDocumentBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.limits.MaxDocumentBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, models.NewInputError(models.InputTooLarge, "request body exceeds limit", nil)
		}
		return nil, http.StatusBadRequest, errors.New("expected multipart form with a file field")
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("failed to read upload")
	}
	return &upload{filename: header.Filename, data: data}, 0, nil
}

// errorStatus maps a request-level error onto an HTTP status.
func errorStatus(err error) int {
	var ie *models.InputError
	var se *models.SystemError
	switch {
	case errors.As(err, &ie):
		if ie.Reason == models.InputTooLarge || ie.Reason == models.InputTooManyPages {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case errors.As(err, &se):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// parseStages reads a comma separated stage list. An empty value selects every stage.
func parseStages(raw string) ([]models.Stage, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	out := []models.Stage{}
	for _, name := range strings.Split(raw, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		st, ok := models.ParseStage(name)
		if !ok {
			return nil, errors.New("unknown stage: " + strings.TrimSpace(name))
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
