// Package mathexpr finds mathematical notation in plain text: equations, statistical
// reporting, variable definitions and assorted symbolic notation.
package mathexpr

import (
	"context"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/hyperjump/docanalyzer/internal/models"
	"github.com/hyperjump/docanalyzer/internal/textchunk"
)

const (
	// DefaultLimit caps the number of expressions returned for one document.
	DefaultLimit = 50

	minExprRunes = 3
	maxExprRunes = 200
	contextRunes = 60
)

const mathSymbols = "=+-*/^√∑∫∏π∞∂≤≥≠≈∈∉⊂⊃∪∩±<>×÷≡·_⁰¹²³⁴⁵⁶⁷⁸⁹"

var falsePositiveWords = []string{
	"page", "figure", "table", "section", "chapter",
	"reference", "bibliography", "index", "appendix",
}

var symbolReplacer = strings.NewReplacer("×", "*", "÷", "/", "−", "-", "·", "*")

// Extractor runs the recognizers over a text. The zero value is not usable; use New.
type Extractor struct {
	limit       int
	withContext bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLimit sets the maximum number of expressions returned.
func WithLimit(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.limit = n
		}
	}
}

// WithContext attaches surrounding text to every expression.
func WithContext(enabled bool) Option {
	return func(e *Extractor) {
		e.withContext = enabled
	}
}

// New returns an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{limit: DefaultLimit}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type candidate struct {
	start, end int
	order      int
	kind       models.MathKind
}

// Extract returns the expressions found in text, ordered by position.
// It never fails; text without notation yields an empty slice.
func (e *Extractor) Extract(text string) []models.MathExpression {
	out, _ := e.ExtractContext(context.Background(), text)
	return out
}

// ExtractContext is Extract with cancellation checked between recognizers.
func (e *Extractor) ExtractContext(ctx context.Context, text string) ([]models.MathExpression, error) {
	var cands []candidate
	for i, r := range recognizers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, loc := range r.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[0], loc[1]
			if len(loc) >= 4 && loc[2] >= 0 {
				start, end = loc[2], loc[3]
			}
			start, end = trimBounds(text, start, end)
			start, end = trimBrackets(text, start, end)
			if start >= end || !standsAlone(text, start, end) {
				continue
			}
			kind := r.kind
			if r.classify {
				kind = classify(text[start:end])
			}
			cands = append(cands, candidate{start: start, end: end, order: i, kind: kind})
		}
	}

	accepted := resolveOverlaps(cands)

	result := make([]models.MathExpression, 0, len(accepted))
	seen := make(map[string]struct{}, len(accepted))
	for _, c := range accepted {
		literal := textchunk.CollapseWhitespace(text[c.start:c.end])
		if !valid(literal) {
			continue
		}
		key := dedupeKey(literal)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		expr := models.MathExpression{
			Text:     literal,
			Kind:     c.kind,
			Position: c.start,
		}
		if e.withContext {
			expr.Context = surrounding(text, c.start, c.end)
		}
		result = append(result, expr)
		if len(result) == e.limit {
			break
		}
	}
	return result, nil
}

// resolveOverlaps keeps the longest match wherever candidates overlap and returns
// the survivors in position order.
func resolveOverlaps(cands []candidate) []candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		li, lj := cands[i].end-cands[i].start, cands[j].end-cands[j].start
		if li != lj {
			return li > lj
		}
		if cands[i].start != cands[j].start {
			return cands[i].start < cands[j].start
		}
		return cands[i].order < cands[j].order
	})

	var kept []candidate
	for _, c := range cands {
		overlaps := false
		for _, k := range kept {
			if c.start < k.end && k.start < c.end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].start < kept[j].start })
	return kept
}

func trimBounds(text string, start, end int) (int, int) {
	for start < end {
		r, size := utf8.DecodeRuneInString(text[start:end])
		if !unicode.IsSpace(r) && r != ',' {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if !unicode.IsSpace(r) && r != ',' && r != '.' && r != ';' {
			break
		}
		end -= size
	}
	return start, end
}

// trimBrackets drops unbalanced leading or trailing brackets and a single pair
// enclosing the whole span.
func trimBrackets(text string, start, end int) (int, int) {
	for end-start >= 2 {
		s := text[start:end]
		opens := strings.Count(s, "(") + strings.Count(s, "[")
		closes := strings.Count(s, ")") + strings.Count(s, "]")
		switch {
		case (s[0] == '(' || s[0] == '[') && opens > closes:
			start++
		case (s[len(s)-1] == ')' || s[len(s)-1] == ']') && closes > opens:
			end--
		case s[0] == '(' && s[len(s)-1] == ')' && enclosed(s):
			start++
			end--
		default:
			return trimBounds(text, start, end)
		}
	}
	return start, end
}

// enclosed reports whether the opening bracket at s[0] closes at the last byte.
func enclosed(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i == len(s)-1
			}
		}
	}
	return false
}

// standsAlone rejects matches that begin or end inside a word, number or date.
func standsAlone(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if glued(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if glued(r) {
			return false
		}
	}
	return true
}

func glued(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '/' || r == '^'
}

func classify(s string) models.MathKind {
	if strings.ContainsAny(s, "=≈≡") {
		return models.KindEquation
	}
	return models.KindNotation
}

func valid(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < minExprRunes || n > maxExprRunes {
		return false
	}
	if !strings.ContainsAny(s, mathSymbols) && !containsGreek(s) {
		return false
	}

	alnum := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if alnum < 2 {
		return false
	}

	lower := strings.ToLower(s)
	for _, w := range falsePositiveWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

func containsGreek(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Greek, r) {
			return true
		}
	}
	return false
}

func dedupeKey(literal string) string {
	return norm.NFKC.String(symbolReplacer.Replace(literal))
}

func surrounding(text string, start, end int) string {
	from := start
	for i := 0; i < contextRunes && from > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}
	to := end
	for i := 0; i < contextRunes && to < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}
	return textchunk.CollapseWhitespace(text[from:to])
}
