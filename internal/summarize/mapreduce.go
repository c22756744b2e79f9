package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/docanalyzer/internal/models"
	"github.com/hyperjump/docanalyzer/internal/textchunk"
)

const (
	keyPointCount = 5
	// minPartialLength keeps per-chunk summaries useful when there are many chunks.
	minPartialLength = 120
)

// MapReduce summarizes text longer than the backend's context window: each chunk is
// summarized, the partials concatenated, and the result optionally summarized once more.
// Without the reduce step, or when it fails, an overlong concatenation is cut with
// TruncationMarker and the summary is marked truncated.
type MapReduce struct {
	backend Summarizer
	reduce  bool
}

// NewMapReduce wraps backend.
func NewMapReduce(backend Summarizer, reduce bool) *MapReduce {
	return &MapReduce{backend: backend, reduce: reduce}
}

func (m *MapReduce) Summarize(ctx context.Context, text string, maxLength int) (models.Summary, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	chunks := textchunk.NewChunker(m.backend.ContextWindow()).Chunk(text)
	if len(chunks) == 0 {
		return models.Summary{}, nil
	}

	var out models.Summary
	if len(chunks) == 1 {
		s, err := m.backend.Summarize(ctx, chunks[0].Text, maxLength)
		if err != nil {
			return models.Summary{}, err
		}
		out = s
	} else {
		partialLength := maxLength / len(chunks)
		if partialLength < minPartialLength {
			partialLength = minPartialLength
		}
		partials := make([]string, 0, len(chunks))
		for _, c := range chunks {
			s, err := m.backend.Summarize(ctx, c.Text, partialLength)
			if err != nil {
				return models.Summary{}, fmt.Errorf("chunk %d of %d: %w", c.Index+1, len(chunks), err)
			}
			if s.Text != "" {
				partials = append(partials, s.Text)
			}
		}
		combined := strings.Join(partials, " ")

		switch {
		case len(combined) <= maxLength:
			out = models.Summary{Text: combined}
		case m.reduce:
			s, err := m.backend.Summarize(ctx, combined, maxLength)
			switch {
			case ctx.Err() != nil:
				return models.Summary{}, fmt.Errorf("reduce: %w", ctx.Err())
			case err != nil:
				// The partials stand in for the reduced summary and are cut below.
				out = models.Summary{Text: combined}
			default:
				out = s
			}
		default:
			out = models.Summary{Text: combined}
		}
	}

	if cut, truncated := Truncate(out.Text, maxLength); truncated {
		out.Text = cut
		out.Truncated = true
	}
	out.Chunks = len(chunks)
	out.KeyPoints = KeyPoints(text, keyPointCount)
	out.Facts = Facts(text)
	if len(out.Facts) > maxFacts {
		out.Facts = out.Facts[:maxFacts]
	}
	return out, nil
}

func (m *MapReduce) ContextWindow() int { return m.backend.ContextWindow() }

func (m *MapReduce) Available() error { return m.backend.Available() }

func (m *MapReduce) Name() string { return m.backend.Name() }
