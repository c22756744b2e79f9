// Package summarize condenses assembled document text. Backends summarize one bounded piece
// of text; MapReduce handles text longer than a backend's context window.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/docanalyzer/internal/config"
	"github.com/hyperjump/docanalyzer/internal/llm"
	"github.com/hyperjump/docanalyzer/internal/models"
	"github.com/hyperjump/docanalyzer/pkg/utils"
)

// TruncationMarker ends a summary that was cut to its maximum length.
const TruncationMarker = " [...]"

// DefaultMaxLength applies when a caller passes no maximum length.
const DefaultMaxLength = 400

// Summarizer turns text into a summary of at most maxLength bytes.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxLength int) (models.Summary, error)
	// ContextWindow is the longest input, in bytes, handled in a single call.
	ContextWindow() int
	// Available returns nil when the backend can serve requests, otherwise an error
	// wrapping models.ErrUnavailable.
	Available() error
	Name() string
}

// New builds the configured backend wrapped in MapReduce. provider and providerErr come
// from llm.New and are only consulted by the llm backend.
func New(cfg config.SummaryConfig, provider llm.Provider, providerErr error) Summarizer {
	var backend Summarizer
	switch strings.ToLower(cfg.Backend) {
	case "", "extractive":
		backend = NewExtractive(cfg.ContextWindow)
	case "llm":
		if providerErr != nil {
			return Unavailable{Backend: "llm", Err: providerErr}
		}
		backend = NewLLM(provider, cfg.ContextWindow)
	default:
		return Unavailable{Backend: cfg.Backend, Err: models.NewUnavailableError("summary", "unknown backend "+cfg.Backend)}
	}
	return NewMapReduce(backend, cfg.ReduceOrDefault())
}

// Unavailable is a Summarizer whose backend could not be loaded.
type Unavailable struct {
	Backend string
	Err     error
}

func (u Unavailable) Summarize(context.Context, string, int) (models.Summary, error) {
	return models.Summary{}, u.Available()
}

func (u Unavailable) ContextWindow() int { return 0 }

func (u Unavailable) Available() error {
	if models.IsUnavailable(u.Err) {
		return u.Err
	}
	return models.NewUnavailableError("summary", fmt.Sprintf("%s backend: %v", u.Backend, u.Err))
}

func (u Unavailable) Name() string { return u.Backend }

// Truncate cuts text to at most maxLength bytes, preferring a word boundary, and appends
// TruncationMarker. The second result reports whether anything was cut.
func Truncate(text string, maxLength int) (string, bool) {
	if maxLength <= 0 || len(text) <= maxLength {
		return text, false
	}
	keep := maxLength - len(TruncationMarker)
	if keep <= 0 {
		return strings.TrimSpace(TruncationMarker), true
	}
	cut := utils.RuneBoundary(text, keep)
	if sp := strings.LastIndexByte(text[:cut], ' '); sp > keep/2 {
		cut = sp
	}
	return strings.TrimRight(text[:cut], " ,;:") + TruncationMarker, true
}
