// Package llm wraps hosted language model APIs behind a single completion call.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hyperjump/docanalyzer/internal/config"
	"github.com/hyperjump/docanalyzer/internal/models"
)

// Request is one completion request. JSON asks the provider to answer with a JSON object.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
	JSON      bool
}

// Provider completes prompts.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// envKeys lists the environment variable consulted when no key is configured.
var envKeys = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// New builds the provider named in cfg. A missing API key returns an error wrapping
// models.ErrUnavailable so dependent stages report themselves unavailable.
func New(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	name := strings.ToLower(cfg.Provider)
	envKey, ok := envKeys[name]
	if !ok {
		return nil, models.NewUnavailableError("llm", fmt.Sprintf("unknown provider %q", cfg.Provider))
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(envKey)
	}
	if apiKey == "" {
		return nil, models.NewUnavailableError("llm", "no API key for "+name+" (set "+envKey+")")
	}

	switch name {
	case "anthropic":
		return NewAnthropic(apiKey, cfg), nil
	case "gemini":
		return NewGemini(ctx, apiKey, cfg)
	default:
		return NewOpenAI(apiKey, cfg), nil
	}
}

func maxTokens(req Request, cfg config.LLMConfig) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return 1024
}

// ExtractJSON returns the outermost JSON object in a model reply, dropping code fences
// and chatter around it.
func ExtractJSON(reply string) (string, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in reply")
	}
	return reply[start : end+1], nil
}
