// Package pagetext decides, page by page, whether the native text layer is usable or the
// page has to go through OCR.
package pagetext

import (
	"context"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hyperjump/docanalyzer/internal/config"
	"github.com/hyperjump/docanalyzer/internal/models"
	"github.com/hyperjump/docanalyzer/internal/ocr"
)

const pointsPerInch = 72.0

// Source resolves the effective text of one page.
type Source struct {
	cfg        config.PageTextConfig
	renderer   ocr.PageRenderer
	recognizer ocr.Recognizer
	logger     *zap.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOCR enables the OCR fallback for documents whose pages can be rendered. Without it
// insufficient native text is kept as is and empty pages are tagged OCR with zero
// confidence. renderer may be nil when the recognizer is not available.
func WithOCR(renderer ocr.PageRenderer, recognizer ocr.Recognizer) Option {
	return func(s *Source) {
		s.renderer = renderer
		s.recognizer = recognizer
	}
}

// NewSource returns a Source using the sufficiency thresholds in cfg.
func NewSource(cfg config.PageTextConfig, opts ...Option) *Source {
	s := &Source{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the page's effective text. It never fails: an OCR failure yields empty
// text tagged OCR with zero confidence.
func (s *Source) Resolve(ctx context.Context, page models.Page) models.PageText {
	if s.Sufficient(page) {
		return models.PageText{Index: page.Index, Text: page.NativeText, Source: models.SourceNative, Confidence: 1.0}
	}
	native := models.PageText{Index: page.Index, Text: page.NativeText, Source: models.SourceNative, Confidence: 1.0}
	failed := models.PageText{Index: page.Index, Source: models.SourceOCR, Confidence: 0.0}
	empty := strings.TrimSpace(page.NativeText) == ""
	if s.recognizer == nil || s.renderer == nil || s.recognizer.Available() != nil {
		// A thin native layer is still better than nothing.
		if empty {
			return failed
		}
		return native
	}

	log := s.logger.With(zap.Int("page", page.Index))

	img, err := s.renderer.RenderPage(ctx, page.Index)
	if err != nil {
		log.Debug("page render failed", zap.Error(err))
		return failed
	}
	rec, err := s.recognizer.Recognize(ctx, img)
	if err != nil {
		log.Debug("page recognition failed", zap.Error(err))
		return failed
	}

	conf := s.cfg.DefaultOCRConfidence
	if rec.HasConfidence {
		conf = rec.Confidence
	}
	log.Debug("page resolved by ocr",
		zap.String("source", string(models.SourceOCR)),
		zap.Float64("confidence", conf),
		zap.Int("chars", utf8.RuneCountInString(rec.Text)))
	return models.PageText{Index: page.Index, Text: rec.Text, Source: models.SourceOCR, Confidence: conf}
}

// Sufficient reports whether the native layer of page is usable without OCR.
func (s *Source) Sufficient(page models.Page) bool {
	text := strings.TrimSpace(page.NativeText)
	if text == "" {
		return false
	}

	total, printable := 0, 0
	for _, r := range text {
		total++
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	if float64(printable)/float64(total) < s.cfg.MinPrintableRatio {
		return false
	}
	return total >= s.MinLength(page)
}

// MinLength is the character count a native layer must reach for the page's size.
func (s *Source) MinLength(page models.Page) int {
	squareInches := (page.Width / pointsPerInch) * (page.Height / pointsPerInch)
	byArea := int(math.Ceil(squareInches * s.cfg.MinCharsPerSquareInch))
	if byArea > s.cfg.MinChars {
		return byArea
	}
	return s.cfg.MinChars
}

// LowConfidence reports whether an OCR page falls under the configured threshold.
func (s *Source) LowConfidence(pt models.PageText) bool {
	return pt.Source == models.SourceOCR && pt.Confidence < s.cfg.LowConfidenceThreshold
}
