// Package pipeline runs one document through page resolution, assembly and the independent
// extraction stages, and merges the outcome into an AnalysisReport.
package pipeline

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/docanalyzer/internal/assemble"
	"github.com/hyperjump/docanalyzer/internal/config"
	"github.com/hyperjump/docanalyzer/internal/entity"
	"github.com/hyperjump/docanalyzer/internal/extract"
	"github.com/hyperjump/docanalyzer/internal/llm"
	"github.com/hyperjump/docanalyzer/internal/mathexpr"
	"github.com/hyperjump/docanalyzer/internal/models"
	"github.com/hyperjump/docanalyzer/internal/ocr"
	"github.com/hyperjump/docanalyzer/internal/pagetext"
	"github.com/hyperjump/docanalyzer/internal/summarize"
	"github.com/hyperjump/docanalyzer/pkg/utils"
)

// Request is one analysis job.
type Request struct {
	Filename string
	Data     []byte
	// Stages selects which stages run. nil runs all of them; an empty non-nil slice runs
	// none and only extracts text.
	Stages []models.Stage
}

// Renderer renders pages of one stored upload and releases it on Close.
type Renderer interface {
	ocr.PageRenderer
	io.Closer
}

// RendererFactory opens a Renderer over the file at path.
type RendererFactory func(path string) Renderer

// Orchestrator analyses documents. It is safe for concurrent use.
type Orchestrator struct {
	cfg         *config.Config
	loader      *extract.Loader
	recognizer  ocr.Recognizer
	newRenderer RendererFactory
	entities    entity.Extractor
	summarizer  summarize.Summarizer
	math        *mathexpr.Extractor
	pool        *Pool
	logger      *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger; the default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithRecognizer replaces the OCR engine built from config.
func WithRecognizer(r ocr.Recognizer) Option {
	return func(o *Orchestrator) { o.recognizer = r }
}

// WithRendererFactory replaces how stored uploads are rendered for OCR.
func WithRendererFactory(f RendererFactory) Option {
	return func(o *Orchestrator) { o.newRenderer = f }
}

// WithEntityExtractor replaces the entity backend built from config.
func WithEntityExtractor(e entity.Extractor) Option {
	return func(o *Orchestrator) { o.entities = e }
}

// WithSummarizer replaces the summarizer built from config.
func WithSummarizer(s summarize.Summarizer) Option {
	return func(o *Orchestrator) { o.summarizer = s }
}

// New builds an orchestrator from cfg. Capabilities not supplied through options are
// constructed from config; those that cannot be loaded are reported unavailable rather
// than failing construction.
func New(ctx context.Context, cfg *config.Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg,
		loader: extract.NewLoader(cfg.Limits, extract.WithTempDir(cfg.Pipeline.ScratchDir)),
		math:   mathexpr.New(),
		pool:   NewPool(cfg.Pipeline.Workers),
		logger: zap.NewNop(),
		newRenderer: func(path string) Renderer {
			return ocr.NewImageRenderer(path)
		},
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.recognizer == nil {
		o.recognizer = ocr.NewRecognizer(cfg.OCR)
	}
	if o.entities == nil || o.summarizer == nil {
		var (
			provider    llm.Provider
			providerErr error
		)
		if strings.EqualFold(cfg.Entities.Backend, "llm") || strings.EqualFold(cfg.Summary.Backend, "llm") {
			provider, providerErr = llm.New(ctx, cfg.LLM)
		}
		if o.entities == nil {
			o.entities = entity.New(cfg.Entities, provider, providerErr)
		}
		if o.summarizer == nil {
			o.summarizer = summarize.New(cfg.Summary, provider, providerErr)
		}
	}

	for capability, h := range o.Health(ctx).Capabilities {
		if !h.Available {
			o.logger.Warn("capability unavailable",
				zap.String("capability", string(capability)),
				zap.String("backend", h.Backend),
				zap.String("reason", h.Reason))
		}
	}
	return o
}

// Close releases resources held by loaded capabilities.
func (o *Orchestrator) Close() error {
	if c, ok := o.entities.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Health reports which capabilities are loaded.
func (o *Orchestrator) Health(_ context.Context) models.Health {
	return models.NewHealth(map[models.Capability]models.CapabilityHealth{
		models.CapabilityOCR:        capabilityHealth(o.recognizer.Name(), o.recognizer.Available()),
		models.CapabilityEntities:   capabilityHealth(o.entities.Name(), o.entities.Available()),
		models.CapabilitySummarizer: capabilityHealth(o.summarizer.Name(), o.summarizer.Available()),
	})
}

func capabilityHealth(backend string, err error) models.CapabilityHealth {
	h := models.CapabilityHealth{Available: err == nil, Backend: backend}
	if err != nil {
		h.Reason = err.Error()
	}
	return h
}

// Analyze validates and analyses one document. Input and system errors are returned
// before any stage runs; otherwise the report is always returned, whatever the stages did.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) (*models.AnalysisReport, error) {
	started := time.Now()
	stages := selectStages(req.Stages)

	doc, err := o.loader.Load(ctx, req.Filename, req.Data)
	if err != nil {
		return nil, err
	}
	log := o.logger.With(zap.String("doc_id", doc.ID))
	log.Info("analysis started",
		zap.String("filename", doc.Filename),
		zap.String("format", string(doc.Format)),
		zap.Int("pages", doc.PageCount()),
		zap.Int64("size_bytes", doc.SizeBytes))

	resolved, src, err := o.resolvePages(ctx, doc, req.Data, log)
	if err != nil {
		return nil, err
	}
	asm := assemble.Assemble(resolved)

	report := &models.AnalysisReport{
		Document:  doc,
		WordCount: utils.WordCount(asm.Text()),
		Pages:     pageInfos(doc, asm, src),
	}

	tr := newTracker(stages)
	if asm.Empty() {
		log.Info("document has no extractable text")
		o.emptyResults(report, stages, tr)
	} else {
		o.runStages(ctx, asm, report, stages, tr, log)
	}

	o.finish(report, asm)
	report.Duration = time.Since(started)
	log.Info("analysis finished",
		zap.String("outcome", string(report.Outcome())),
		zap.Duration("duration", report.Duration))
	return report, nil
}

func selectStages(requested []models.Stage) []models.Stage {
	if requested == nil {
		return models.AllStages
	}
	want := make(map[models.Stage]bool, len(requested))
	for _, s := range requested {
		want[s] = true
	}
	var out []models.Stage
	for _, s := range models.AllStages {
		if want[s] {
			out = append(out, s)
		}
	}
	return out
}

// resolvePages picks each page's effective text in parallel. The upload is stored in
// scratch space only when a renderable page actually needs OCR, and removed before return.
func (o *Orchestrator) resolvePages(ctx context.Context, doc *models.Document, data []byte, log *zap.Logger) ([]models.PageText, *pagetext.Source, error) {
	opts := []pagetext.Option{pagetext.WithLogger(log)}

	sufficiency := pagetext.NewSource(o.cfg.PageText)
	needOCR := false
	if doc.Format.Renderable() && o.recognizer.Available() == nil {
		for _, p := range doc.Pages {
			if !sufficiency.Sufficient(p) {
				needOCR = true
				break
			}
		}
	}
	if doc.Format.Renderable() {
		var renderer ocr.PageRenderer
		if needOCR {
			scratch, err := NewScratch(o.cfg.Pipeline.ScratchDir)
			if err != nil {
				return nil, nil, err
			}
			defer func() {
				if err := scratch.Close(); err != nil {
					log.Warn("failed to remove scratch space", zap.String("dir", scratch.Dir()), zap.Error(err))
				}
			}()
			path, err := scratch.WriteFile("upload.pdf", data)
			if err != nil {
				return nil, nil, err
			}
			r := o.newRenderer(path)
			defer r.Close()
			renderer = r
		}
		opts = append(opts, pagetext.WithOCR(renderer, pooledRecognizer{Recognizer: o.recognizer, pool: o.pool}))
	}
	src := pagetext.NewSource(o.cfg.PageText, opts...)

	out := make([]models.PageText, len(doc.Pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Pipeline.PageWorkers)
	for i, p := range doc.Pages {
		g.Go(func() error {
			out[i] = src.Resolve(gctx, p)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return out, src, nil
}

func pageInfos(doc *models.Document, asm *assemble.Document, src *pagetext.Source) []models.PageInfo {
	text := asm.Text()
	spans := asm.Pages()
	out := make([]models.PageInfo, len(spans))
	for i, sp := range spans {
		page := doc.Pages[sp.Index]
		pt := models.PageText{Index: sp.Index, Source: sp.Source, Confidence: sp.Confidence}
		out[i] = models.PageInfo{
			Index:         sp.Index,
			Source:        sp.Source,
			Confidence:    sp.Confidence,
			Start:         sp.Start,
			End:           sp.End,
			ContentType:   contentType(sp, page, text[sp.Start:sp.End]),
			HasTable:      page.HasTable,
			HasImage:      page.HasImage,
			LowConfidence: src.LowConfidence(pt),
		}
	}
	return out
}

func contentType(sp assemble.PageSpan, page models.Page, text string) string {
	switch {
	case strings.TrimSpace(text) == "":
		return "blank"
	case sp.Source == models.SourceOCR:
		return "scanned"
	case page.HasTable:
		return "table"
	default:
		return "text"
	}
}

func (o *Orchestrator) emptyResults(report *models.AnalysisReport, stages []models.Stage, tr *tracker) {
	for _, s := range stages {
		_ = tr.start(s)
		switch s {
		case models.StageEntities:
			report.Entities = models.Success([]models.Entity{})
		case models.StageMath:
			report.Math = models.Success([]models.MathExpression{})
		case models.StageSummary:
			report.Summary = models.Success(models.Summary{})
		}
		_ = tr.finish(s, models.StatusSuccess)
	}
}

// runStages starts every requested stage at once over the same immutable text and waits
// for all of them. Each goroutine owns one report field.
func (o *Orchestrator) runStages(ctx context.Context, asm *assemble.Document, report *models.AnalysisReport, stages []models.Stage, tr *tracker, log *zap.Logger) {
	var wg sync.WaitGroup
	for _, s := range stages {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch s {
			case models.StageEntities:
				report.Entities = track(tr, s, log, func() models.ExtractionResult[[]models.Entity] {
					return o.entityStage(ctx, asm)
				})
			case models.StageMath:
				report.Math = track(tr, s, log, func() models.ExtractionResult[[]models.MathExpression] {
					return o.mathStage(ctx, asm)
				})
			case models.StageSummary:
				report.Summary = track(tr, s, log, func() models.ExtractionResult[models.Summary] {
					return o.summaryStage(ctx, asm)
				})
			}
		}()
	}
	wg.Wait()
}

// finish fills the response-size dependent fields.
func (o *Orchestrator) finish(report *models.AnalysisReport, asm *assemble.Document) {
	text := asm.Text()
	limit := o.cfg.Limits.MaxResponseTextChars
	if limit > 0 && len(text) > limit {
		text = text[:utils.RuneBoundary(text, limit)]
		report.TextTruncated = true
	}
	report.Text = text

	ents, ok := report.Entities.Value()
	if !ok || len(ents) == 0 {
		return
	}
	visible := ents
	if report.TextTruncated {
		visible = nil
		for _, e := range ents {
			if e.End <= len(text) {
				visible = append(visible, e)
			}
		}
	}
	report.HighlightedText = entity.Highlight(text, visible)
}
