// Package textchunk splits text into bounded pieces on paragraph and sentence boundaries while
// keeping every piece an exact substring of its source, so offsets can be mapped back.
package textchunk

import (
	"strings"

	"github.com/hyperjump/docanalyzer/pkg/utils"
)

// Span is a half-open byte range [Start, End) into a source text.
type Span struct {
	Start int
	End   int
}

// Len returns the span length in bytes.
func (s Span) Len() int { return s.End - s.Start }

// Chunk is one piece of a source text. Text == source[Offset:Offset+len(Text)].
type Chunk struct {
	Index  int
	Offset int
	Text   string
}

// Chunker packs whole sentences into chunks of at most maxChars bytes.
type Chunker struct {
	maxChars int
}

// NewChunker creates a chunker. A maxChars of zero or less disables splitting.
func NewChunker(maxChars int) *Chunker {
	return &Chunker{maxChars: maxChars}
}

// Chunk splits text. Sentences are never cut unless a single sentence exceeds the limit,
// in which case it is split on word boundaries. Blank text yields nil.
func (c *Chunker) Chunk(text string) []Chunk {
	whole := trimSpan(text, Span{0, len(text)})
	if whole.Len() == 0 {
		return nil
	}
	if c.maxChars <= 0 || whole.Len() <= c.maxChars {
		return []Chunk{{Index: 0, Offset: whole.Start, Text: text[whole.Start:whole.End]}}
	}

	var pieces []Span
	for _, sp := range Sentences(text) {
		if sp.Len() > c.maxChars {
			pieces = append(pieces, splitWords(text, sp, c.maxChars)...)
			continue
		}
		pieces = append(pieces, sp)
	}

	chunks := make([]Chunk, 0, len(pieces))
	cur := Span{-1, -1}
	flush := func() {
		chunks = append(chunks, Chunk{Index: len(chunks), Offset: cur.Start, Text: text[cur.Start:cur.End]})
	}
	for _, p := range pieces {
		if cur.Start < 0 {
			cur = p
			continue
		}
		if p.End-cur.Start <= c.maxChars {
			cur.End = p.End
			continue
		}
		flush()
		cur = p
	}
	if cur.Start >= 0 {
		flush()
	}
	return chunks
}

// Sentences returns the trimmed sentence spans of text. A sentence ends at terminal
// punctuation followed by whitespace (closing quotes and brackets stay with it), at a blank
// line, or at a form feed.
func Sentences(text string) []Span {
	var spans []Span
	start := 0
	n := len(text)
	emit := func(end int) {
		if sp := trimSpan(text, Span{start, end}); sp.Len() > 0 {
			spans = append(spans, sp)
		}
		start = end
	}
	for i := 0; i < n; i++ {
		switch text[i] {
		case '.', '!', '?':
			j := i + 1
			for j < n && (text[j] == '"' || text[j] == '\'' || text[j] == ')' || text[j] == ']') {
				j++
			}
			if j == n || isSpace(text[j]) {
				emit(j)
				i = j - 1
			}
		case '\n':
			if i+1 < n && text[i+1] == '\n' {
				emit(i)
			}
		case '\f':
			emit(i)
		}
	}
	emit(n)
	return spans
}

// splitWords breaks an overlong span on whitespace, falling back to a hard cut on a rune
// boundary when a single word exceeds maxChars.
func splitWords(text string, sp Span, maxChars int) []Span {
	var out []Span
	s := sp.Start
	for sp.End-s > maxChars {
		limit := s + maxChars
		cut := limit
		if idx := strings.LastIndexAny(text[s:limit], " \t\n\r"); idx > 0 {
			cut = s + idx
		} else {
			cut = s + utils.RuneBoundary(text[s:], maxChars)
			if cut == s {
				cut = limit
			}
		}
		if piece := trimSpan(text, Span{s, cut}); piece.Len() > 0 {
			out = append(out, piece)
		}
		s = cut
		for s < sp.End && isSpace(text[s]) {
			s++
		}
	}
	if piece := trimSpan(text, Span{s, sp.End}); piece.Len() > 0 {
		out = append(out, piece)
	}
	return out
}

func trimSpan(text string, sp Span) Span {
	for sp.Start < sp.End && isSpace(text[sp.Start]) {
		sp.Start++
	}
	for sp.End > sp.Start && isSpace(text[sp.End-1]) {
		sp.End--
	}
	return sp
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}
