package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/docanalyzer/internal/assemble"
	"github.com/hyperjump/docanalyzer/internal/entity"
	"github.com/hyperjump/docanalyzer/internal/models"
	"github.com/hyperjump/docanalyzer/internal/textchunk"
)

// track moves stage through its lifecycle around fn and logs the outcome.
func track[T any](tr *tracker, stage models.Stage, log *zap.Logger, fn func() models.ExtractionResult[T]) models.ExtractionResult[T] {
	if err := tr.start(stage); err != nil {
		return models.Failed[T](err)
	}
	began := time.Now()
	res := fn()
	if err := tr.finish(stage, res.Status()); err != nil {
		log.Error("stage state", zap.Error(err))
	}

	fields := []zap.Field{
		zap.String("stage", string(stage)),
		zap.String("status", string(res.Status())),
		zap.Duration("duration", time.Since(began)),
	}
	if res.Status() == models.StatusSuccess {
		log.Debug("stage finished", fields...)
	} else {
		log.Warn("stage degraded", append(fields, zap.String("reason", res.Reason()))...)
	}
	return res
}

// runStage calls fn under its own timeout. A backend that ignores ctx is abandoned once the
// deadline passes and its late result is discarded. Panics become stage failures.
func runStage[T any](ctx context.Context, stage models.Stage, timeout time.Duration, fn func(context.Context) (T, error)) models.ExtractionResult[T] {
	sctx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		sctx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	type outcome struct {
		v   T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := fn(sctx)
		done <- outcome{v: v, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-sctx.Done():
		out.err = sctx.Err()
	}

	switch {
	case out.err == nil:
		return models.Success(out.v)
	case models.IsUnavailable(out.err):
		return models.Unavailable[T](out.err.Error())
	case errors.Is(out.err, context.DeadlineExceeded) && errors.Is(sctx.Err(), context.DeadlineExceeded):
		return models.Failed[T](&models.StageError{Stage: stage, Timeout: true, Err: out.err})
	default:
		return models.Failed[T](&models.StageError{Stage: stage, Err: out.err})
	}
}

func (o *Orchestrator) entityStage(ctx context.Context, asm *assemble.Document) models.ExtractionResult[[]models.Entity] {
	if err := o.entities.Available(); err != nil {
		return models.Unavailable[[]models.Entity](err.Error())
	}
	return runStage(ctx, models.StageEntities, o.cfg.Pipeline.EntityTimeout, func(ctx context.Context) ([]models.Entity, error) {
		var ents []models.Entity
		err := o.pool.Do(ctx, func() error {
			var err error
			ents, err = o.extractEntities(ctx, asm)
			return err
		})
		return ents, err
	})
}

// extractEntities feeds the backend chunks no longer than its input limit and shifts the
// returned offsets back into the assembled text.
func (o *Orchestrator) extractEntities(ctx context.Context, asm *assemble.Document) ([]models.Entity, error) {
	text := asm.Text()
	var all []models.Entity
	for _, c := range textchunk.NewChunker(o.entities.MaxInputLength()).Chunk(text) {
		ents, err := o.entities.Extract(ctx, c.Text)
		if err != nil {
			return nil, err
		}
		for _, e := range ents {
			e.Start += c.Offset
			e.End += c.Offset
			all = append(all, e)
		}
	}
	all = entity.Clean(text, all)
	for i := range all {
		all[i].Page = asm.PageAt(all[i].Start)
	}
	if all == nil {
		all = []models.Entity{}
	}
	return all, nil
}

func (o *Orchestrator) mathStage(ctx context.Context, asm *assemble.Document) models.ExtractionResult[[]models.MathExpression] {
	return runStage(ctx, models.StageMath, o.cfg.Pipeline.MathTimeout, func(ctx context.Context) ([]models.MathExpression, error) {
		exprs, err := o.math.ExtractContext(ctx, asm.Text())
		if exprs == nil {
			exprs = []models.MathExpression{}
		}
		return exprs, err
	})
}

func (o *Orchestrator) summaryStage(ctx context.Context, asm *assemble.Document) models.ExtractionResult[models.Summary] {
	if err := o.summarizer.Available(); err != nil {
		return models.Unavailable[models.Summary](err.Error())
	}
	return runStage(ctx, models.StageSummary, o.cfg.Pipeline.SummaryTimeout, func(ctx context.Context) (models.Summary, error) {
		var s models.Summary
		err := o.pool.Do(ctx, func() error {
			var err error
			s, err = o.summarizer.Summarize(ctx, asm.Text(), o.cfg.Summary.MaxLength)
			return err
		})
		return s, err
	})
}
