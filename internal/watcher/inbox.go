package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/docanalyzer/internal/config"
	"github.com/hyperjump/docanalyzer/internal/models"
	"github.com/hyperjump/docanalyzer/internal/pipeline"
)

// ReportSuffix is appended to an input file name to form its report path.
const ReportSuffix = ".analysis.json"

const tempPrefix = ".docanalyzer-"

// Analyzer runs one document through the pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.Request) (*models.AnalysisReport, error)
}

// Inbox analyses every file that settles in the watched directories and writes the report
// next to it as <file>.analysis.json. Rejected inputs get a report holding only the error.
type Inbox struct {
	analyzer Analyzer
	watcher  *Watcher
	logger   *zap.Logger
	wg       sync.WaitGroup
	ctx      context.Context
}

// NewInbox builds an inbox over cfg's directories.
func NewInbox(analyzer Analyzer, cfg config.WatchConfig, logger *zap.Logger, opts ...Option) *Inbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	in := &Inbox{analyzer: analyzer, logger: logger, ctx: context.Background()}
	opts = append([]Option{WithLogger(logger), WithIgnore(isOutput)}, opts...)
	in.watcher = NewWatcher(cfg.Directories, cfg.Extensions, cfg.RecursiveOrDefault(),
		in.handleSettled, in.handleRemoved, opts...)
	return in
}

// Start begins watching and analyses files already present. It returns once the watch is
// established; processing continues until ctx ends or Stop is called.
func (in *Inbox) Start(ctx context.Context) error {
	in.ctx = ctx
	if err := in.watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	in.logger.Info("watching inbox", zap.Strings("directories", in.watcher.Directories()))
	go in.watcher.SyncExistingFiles()
	return nil
}

// Stop stops watching and waits for in-flight analyses.
func (in *Inbox) Stop() {
	in.watcher.Stop()
	in.wg.Wait()
}

// Watcher exposes the underlying watcher for adding and removing directories.
func (in *Inbox) Watcher() *Watcher { return in.watcher }

func (in *Inbox) handleSettled(path string) {
	in.wg.Add(1)
	defer in.wg.Done()
	if err := in.Process(in.ctx, path); err != nil {
		in.logger.Warn("inbox file not processed", zap.String("path", path), zap.Error(err))
	}
}

func (in *Inbox) handleRemoved(path string) {
	if err := os.Remove(ReportPath(path)); err != nil && !os.IsNotExist(err) {
		in.logger.Debug("failed to remove stale report", zap.String("path", path), zap.Error(err))
	}
}

// Process analyses the file at path and writes its report. Input errors are recorded in
// the report file; only failures to read or write files are returned.
func (in *Inbox) Process(ctx context.Context, path string) error {
	if IsReport(path) {
		return nil
	}
	if current, err := reportIsCurrent(path); err == nil && current {
		in.logger.Debug("report up to date", zap.String("path", path))
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	report, err := in.analyzer.Analyze(ctx, pipeline.Request{Filename: filepath.Base(path), Data: data})
	var body interface{}
	switch {
	case err == nil:
		body = report
		in.logger.Info("inbox file analysed",
			zap.String("path", path),
			zap.String("outcome", string(report.Outcome())))
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		body = map[string]string{"error": err.Error()}
		in.logger.Warn("inbox file rejected", zap.String("path", path), zap.Error(err))
	}
	return writeReport(ReportPath(path), body)
}

// ReportPath returns where the report for path is written.
func ReportPath(path string) string { return path + ReportSuffix }

// IsReport reports whether path is a report written by the inbox.
func IsReport(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ReportSuffix)
}

// isOutput matches reports and the temp files they are staged in.
func isOutput(path string) bool {
	return IsReport(path) || strings.HasPrefix(filepath.Base(path), tempPrefix)
}

// reportIsCurrent is true when a report exists and is newer than its input.
func reportIsCurrent(path string) (bool, error) {
	in, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	out, err := os.Stat(ReportPath(path))
	if err != nil {
		return false, err
	}
	return !out.ModTime().Before(in.ModTime()), nil
}

// writeReport writes through a temp file in the same directory so readers never see a
// partial report.
func writeReport(path string, body interface{}) error {
	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), tempPrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
