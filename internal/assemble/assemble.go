// Package assemble merges resolved page texts into one document text with page boundaries.
package assemble

import (
	"sort"
	"strings"

	"github.com/hyperjump/docanalyzer/internal/models"
)

// PageBreak separates consecutive pages in the assembled text.
const PageBreak = "\n\f\n"

// PageSpan locates one page inside the assembled text. End excludes the page break.
type PageSpan struct {
	Index      int
	Start      int
	End        int
	Source     models.TextSource
	Confidence float64
}

// Document is the immutable assembled text shared by every downstream stage.
type Document struct {
	text  string
	pages []PageSpan
}

// Assemble concatenates page texts in page-index order. Nothing is filtered: empty and
// low-confidence pages keep their slot so offsets stay traceable.
func Assemble(pages []models.PageText) *Document {
	ordered := make([]models.PageText, len(pages))
	copy(ordered, pages)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	var b strings.Builder
	spans := make([]PageSpan, 0, len(ordered))
	for i, p := range ordered {
		if i > 0 {
			b.WriteString(PageBreak)
		}
		start := b.Len()
		b.WriteString(p.Text)
		spans = append(spans, PageSpan{
			Index:      p.Index,
			Start:      start,
			End:        b.Len(),
			Source:     p.Source,
			Confidence: p.Confidence,
		})
	}
	return &Document{text: b.String(), pages: spans}
}

// Text returns the assembled text.
func (d *Document) Text() string { return d.text }

// Pages returns a copy of the page spans in order.
func (d *Document) Pages() []PageSpan {
	out := make([]PageSpan, len(d.pages))
	copy(out, d.pages)
	return out
}

// Offsets returns the starting offset of each page.
func (d *Document) Offsets() []int {
	out := make([]int, len(d.pages))
	for i, p := range d.pages {
		out[i] = p.Start
	}
	return out
}

// Empty reports whether no page contributed any non-whitespace text.
func (d *Document) Empty() bool {
	return strings.TrimSpace(strings.ReplaceAll(d.text, PageBreak, "")) == ""
}

// PageAt maps a byte offset to the index of the page containing it. Offsets that fall on a
// page break belong to the preceding page. Returns -1 for an empty document.
func (d *Document) PageAt(offset int) int {
	if len(d.pages) == 0 {
		return -1
	}
	i := sort.Search(len(d.pages), func(i int) bool { return d.pages[i].Start > offset })
	if i == 0 {
		return d.pages[0].Index
	}
	return d.pages[i-1].Index
}
