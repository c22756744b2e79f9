package summarize

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/hyperjump/docanalyzer/internal/models"
	"github.com/hyperjump/docanalyzer/internal/textchunk"
	"github.com/hyperjump/docanalyzer/pkg/utils"
)

// DefaultContextWindow bounds a single extractive pass.
const DefaultContextWindow = 4000

const (
	shortTextWords = 50
	// summaryShare is the part of maxLength spent on ranked sentences.
	summaryShare = 0.7
	maxFacts     = 3
)

var indicators = []struct {
	word  string
	boost int
}{
	{"conclusion", 15}, {"result", 12}, {"finding", 12}, {"significant", 10},
	{"important", 10}, {"key", 8}, {"main", 8}, {"primary", 8},
	{"discovered", 10}, {"showed", 8}, {"demonstrated", 8},
	{"analysis", 6}, {"study", 6}, {"research", 6}, {"data", 5},
}

var (
	numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	dateRe   = regexp.MustCompile(`\b\d{4}\b|\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\b`)
)

// Score rates how much a sentence contributes to a summary: its word count plus boosts for
// indicator words, numbers and dates.
func Score(sentence string) int {
	score := utils.WordCount(sentence)
	lower := strings.ToLower(sentence)
	for _, ind := range indicators {
		if strings.Contains(lower, ind.word) {
			score += ind.boost
		}
	}
	if numberRe.MatchString(sentence) {
		score += 8
	}
	if dateRe.MatchString(sentence) {
		score += 5
	}
	return score
}

type scored struct {
	pos   int
	text  string
	score int
}

// rank returns the sentences of text accepted by keep, highest score first.
func rank(text string, keep func(string) bool) []scored {
	var out []scored
	for i, sp := range textchunk.Sentences(text) {
		s := textchunk.CollapseWhitespace(text[sp.Start:sp.End])
		if keep(s) {
			out = append(out, scored{pos: i, text: s, score: Score(s)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

// KeyPoints returns up to n of the highest scoring substantial sentences of text.
func KeyPoints(text string, n int) []string {
	ranked := rank(text, func(s string) bool {
		return len(s) > 30 && utils.WordCount(s) > 5
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.text)
	}
	return out
}

// Extractive builds a summary from the document's own highest scoring sentences. It needs no
// model and is always available.
type Extractive struct {
	window int
}

// NewExtractive returns an extractive summarizer with the given context window.
func NewExtractive(window int) *Extractive {
	if window <= 0 {
		window = DefaultContextWindow
	}
	return &Extractive{window: window}
}

func (e *Extractive) Summarize(ctx context.Context, text string, maxLength int) (models.Summary, error) {
	if err := ctx.Err(); err != nil {
		return models.Summary{}, err
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	clean := textchunk.CollapseWhitespace(text)
	if clean == "" {
		return models.Summary{}, nil
	}

	facts := Facts(text)
	if len(facts) > maxFacts {
		facts = facts[:maxFacts]
	}
	whole := func() models.Summary {
		s, cut := Truncate(clean, maxLength)
		return models.Summary{Text: s, Truncated: cut, Facts: facts}
	}
	if utils.WordCount(clean) < shortTextWords {
		return whole(), nil
	}

	ranked := rank(text, func(s string) bool {
		return len(s) > 20 && utils.WordCount(s) > 4
	})
	if len(ranked) == 0 {
		return whole(), nil
	}

	budget := int(float64(maxLength) * summaryShare)
	var chosen []scored
	length := 0
	for _, r := range ranked {
		if length+len(r.text)+1 > budget {
			break
		}
		chosen = append(chosen, r)
		length += len(r.text) + 1
	}
	if len(chosen) == 0 {
		s, _ := Truncate(ranked[0].text, maxLength)
		return models.Summary{Text: s, Truncated: true, Facts: facts}, nil
	}

	sort.Slice(chosen, func(i, j int) bool { return chosen[i].pos < chosen[j].pos })
	parts := make([]string, len(chosen))
	for i, c := range chosen {
		parts[i] = c.text
	}
	return models.Summary{Text: strings.Join(parts, " "), Facts: facts}, nil
}

func (e *Extractive) ContextWindow() int { return e.window }

func (e *Extractive) Available() error { return nil }

func (e *Extractive) Name() string { return "extractive" }
