package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/docanalyzer/internal/llm"
	"github.com/hyperjump/docanalyzer/internal/models"
)

const llmSystemPrompt = "You summarize documents. Reply with the summary only: plain prose, no headings, no preamble."

// LLM summarizes through a hosted language model.
type LLM struct {
	provider llm.Provider
	window   int
}

// NewLLM returns an LLM summarizer over provider.
func NewLLM(provider llm.Provider, window int) *LLM {
	if window <= 0 {
		window = DefaultContextWindow
	}
	return &LLM{provider: provider, window: window}
}

func (l *LLM) Summarize(ctx context.Context, text string, maxLength int) (models.Summary, error) {
	if strings.TrimSpace(text) == "" {
		return models.Summary{}, nil
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	reply, err := l.provider.Complete(ctx, llm.Request{
		System: llmSystemPrompt,
		Prompt: fmt.Sprintf("Summarize the following text in at most %d characters.\n\n%s", maxLength, text),
		// Roughly four characters per token, with headroom.
		MaxTokens: maxLength/3 + 64,
	})
	if err != nil {
		return models.Summary{}, err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return models.Summary{}, fmt.Errorf("%s returned an empty summary", l.provider.Name())
	}
	return models.Summary{Text: reply}, nil
}

func (l *LLM) ContextWindow() int { return l.window }

func (l *LLM) Available() error {
	if l.provider == nil {
		return models.NewUnavailableError("summary", "no llm provider configured")
	}
	return nil
}

func (l *LLM) Name() string {
	if l.provider == nil {
		return "llm"
	}
	return "llm:" + l.provider.Name()
}
