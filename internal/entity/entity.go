// Package entity recognises named entities in assembled document text. Backends range
// from always-available regular expressions to an ONNX token-classification model and
// hosted language models; all share the same post-processing.
package entity

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/docanalyzer/internal/config"
	"github.com/hyperjump/docanalyzer/internal/llm"
	"github.com/hyperjump/docanalyzer/internal/models"
)

// Extractor finds entities in text. Offsets in the result are byte offsets into text.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]models.Entity, error)
	// MaxInputLength is the longest text, in bytes, one Extract call accepts.
	MaxInputLength() int
	// Available returns nil when the backend is loaded, otherwise an error wrapping
	// models.ErrUnavailable.
	Available() error
	Name() string
}

// New builds the backend selected by cfg.Backend. provider and providerErr come from
// llm.New and are only consulted by the llm backend. Backends that cannot be loaded are
// returned as an Unavailable extractor rather than an error.
func New(cfg config.EntityConfig, provider llm.Provider, providerErr error) Extractor {
	switch strings.ToLower(cfg.Backend) {
	case "", "pattern":
		return NewPattern(cfg.MaxInputChars)
	case "onnx":
		ex, err := NewONNX(cfg)
		if err != nil {
			return Unavailable{Backend: "onnx", Err: err}
		}
		return ex
	case "llm":
		if providerErr != nil {
			return Unavailable{Backend: "llm", Err: providerErr}
		}
		return NewLLM(provider, cfg.MaxInputChars)
	default:
		return Unavailable{Backend: cfg.Backend, Err: models.NewUnavailableError("entities", "unknown backend "+cfg.Backend)}
	}
}

// Unavailable is an Extractor whose backend could not be loaded.
type Unavailable struct {
	Backend string
	Err     error
}

func (u Unavailable) Extract(context.Context, string) ([]models.Entity, error) {
	return nil, u.Available()
}

func (u Unavailable) MaxInputLength() int { return 0 }

func (u Unavailable) Available() error {
	if models.IsUnavailable(u.Err) {
		return u.Err
	}
	return models.NewUnavailableError("entities", fmt.Sprintf("%s backend: %v", u.Backend, u.Err))
}

func (u Unavailable) Name() string { return u.Backend }
