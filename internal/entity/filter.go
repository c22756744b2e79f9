package entity

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hyperjump/docanalyzer/internal/models"
	"github.com/hyperjump/docanalyzer/internal/textchunk"
)

const (
	minEntityLen = 2
	maxEntityLen = 100
)

var stopwords = toSet(
	"the", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with",
	"by", "from", "up", "about", "into", "through", "during", "before",
	"after", "above", "below", "between", "among", "page", "figure",
	"table", "section", "chapter", "appendix", "reference", "et", "al",
)

var pronouns = toSet("he", "she", "it", "they", "we", "you", "i", "him", "her", "them", "me", "us")

var vagueTime = toSet("now", "then", "when", "time", "date", "today", "later", "soon")

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// cleanEntity collapses whitespace and drops OCR debris, keeping currency and percent signs.
func cleanEntity(s string) string {
	s = textchunk.CollapseWhitespace(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || strings.ContainsRune(".-()&',$€£¥%§/", r) {
			return r
		}
		return -1
	}, s)
}

// Valid reports whether an entity is meaningful enough to report.
func Valid(e models.Entity) bool {
	cleaned := cleanEntity(e.Text)
	n := len([]rune(cleaned))
	if n < minEntityLen || n > maxEntityLen {
		return false
	}
	lower := strings.ToLower(cleaned)
	if _, stop := stopwords[lower]; stop {
		return false
	}

	numeric := e.Category == models.CategoryMoney || e.Category == models.CategoryPercent || e.Category == models.CategoryDate
	if !numeric && isDigits(cleaned) {
		return false
	}

	words := strings.Fields(cleaned)
	switch e.Category {
	case models.CategoryPerson:
		if strings.IndexFunc(cleaned, unicode.IsLetter) < 0 {
			return false
		}
		if len(words) == 1 {
			if _, p := pronouns[lower]; p {
				return false
			}
		}
	case models.CategoryOrg:
		if len(words) == 1 && n < 3 {
			return false
		}
	case models.CategoryDate:
		if _, vague := vagueTime[lower]; vague {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Clean applies the shared post-processing to raw backend output for text: invalid spans
// and entities are dropped, exact duplicates collapsed, overlaps within one category
// resolved in favour of the longest span, and the result sorted by position.
func Clean(text string, ents []models.Entity) []models.Entity {
	type key struct {
		cat        models.Category
		start, end int
	}
	seen := make(map[key]struct{}, len(ents))
	byCat := make(map[models.Category][]models.Entity)
	for _, e := range ents {
		if e.Start < 0 || e.End > len(text) || e.Start >= e.End {
			continue
		}
		e.Text = text[e.Start:e.End]
		if !Valid(e) {
			continue
		}
		k := key{e.Category, e.Start, e.End}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		byCat[e.Category] = append(byCat[e.Category], e)
	}

	var out []models.Entity
	for _, group := range byCat {
		out = append(out, longestNonOverlapping(group)...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		if out[i].End != out[j].End {
			return out[i].End < out[j].End
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func longestNonOverlapping(group []models.Entity) []models.Entity {
	sort.Slice(group, func(i, j int) bool {
		li, lj := group[i].End-group[i].Start, group[j].End-group[j].Start
		if li != lj {
			return li > lj
		}
		return group[i].Start < group[j].Start
	})
	var kept []models.Entity
	for _, e := range group {
		overlaps := false
		for _, k := range kept {
			if e.Start < k.End && k.Start < e.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, e)
		}
	}
	return kept
}

// Highlight wraps every entity span of text in Markdown bold markers. Entities must be
// sorted by start; spans overlapping an earlier one are left unmarked.
func Highlight(text string, ents []models.Entity) string {
	if len(ents) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + 4*len(ents))
	last := 0
	for _, e := range ents {
		if e.Start < last || e.End > len(text) || e.Start >= e.End {
			continue
		}
		b.WriteString(text[last:e.Start])
		b.WriteString("**")
		b.WriteString(text[e.Start:e.End])
		b.WriteString("**")
		last = e.End
	}
	b.WriteString(text[last:])
	return b.String()
}
