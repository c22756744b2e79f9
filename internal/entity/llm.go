package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/docanalyzer/internal/llm"
	"github.com/hyperjump/docanalyzer/internal/models"
)

// llmMaxInput bounds prompts so that request and reply fit typical context windows.
const llmMaxInput = 12000

const llmSystemPrompt = `You are a named entity recognizer. Return only JSON of the form
{"entities":[{"text":"...","category":"..."}]}. "text" must be copied exactly from the input.
"category" must be one of: %s.`

// LLM asks a hosted language model for entities and locates each returned surface
// string in the input to recover offsets.
type LLM struct {
	provider llm.Provider
	maxInput int
}

// NewLLM returns an LLM backend over provider.
func NewLLM(provider llm.Provider, maxInput int) *LLM {
	if maxInput <= 0 || maxInput > llmMaxInput {
		maxInput = llmMaxInput
	}
	return &LLM{provider: provider, maxInput: maxInput}
}

type llmEntities struct {
	Entities []struct {
		Text     string `json:"text"`
		Category string `json:"category"`
	} `json:"entities"`
}

func (l *LLM) Extract(ctx context.Context, text string) ([]models.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	cats := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		cats[i] = string(c)
	}
	reply, err := l.provider.Complete(ctx, llm.Request{
		System: fmt.Sprintf(llmSystemPrompt, strings.Join(cats, ", ")),
		Prompt: text,
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}
	body, err := llm.ExtractJSON(reply)
	if err != nil {
		return nil, fmt.Errorf("entity reply: %w", err)
	}
	var parsed llmEntities
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode entity reply: %w", err)
	}

	type key struct {
		text string
		cat  models.Category
	}
	seen := make(map[key]struct{})
	var raw []models.Entity
	for _, e := range parsed.Entities {
		cat, ok := mapLabel(e.Category)
		surface := strings.TrimSpace(e.Text)
		if !ok || surface == "" {
			continue
		}
		k := key{surface, cat}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		for _, start := range occurrences(text, surface) {
			raw = append(raw, models.Entity{Category: cat, Start: start, End: start + len(surface)})
		}
	}
	return Clean(text, raw), nil
}

// occurrences returns the start offsets of surface in text that sit on word boundaries.
func occurrences(text, surface string) []int {
	var out []int
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], surface)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(surface)
		if boundary(text, start, end) {
			out = append(out, start)
		}
		from = start + 1
	}
	return out
}

func boundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func (l *LLM) MaxInputLength() int { return l.maxInput }

func (l *LLM) Available() error {
	if l.provider == nil {
		return models.NewUnavailableError("entities", "no llm provider configured")
	}
	return nil
}

func (l *LLM) Name() string {
	if l.provider == nil {
		return "llm"
	}
	return "llm:" + l.provider.Name()
}
