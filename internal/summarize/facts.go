package summarize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/docanalyzer/pkg/utils"
)

const maxFactsScanned = 10

type factPattern struct {
	re      *regexp.Regexp
	context int
	minLen  int
}

var factPatterns = []factPattern{
	{regexp.MustCompile(`\b\d+(?:\.\d+)?%`), 50, 20},
	{regexp.MustCompile(`(?i)\b\d+(?:,\d{3})*(?:\.\d+)?[ \t]*(?:million|billion|thousand|M|B|K)\b`), 50, 20},
	{regexp.MustCompile(`(?i)\$\d+(?:,\d{3})*(?:\.\d+)?(?:[ \t]*(?:million|billion|thousand|M|B|K)\b)?`), 50, 20},
	{regexp.MustCompile(`\b(?:1[5-9]|20)\d{2}\b`), 50, 20},
	{regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?[ \t]*(?:kg|g|lb|ton|km|m|ft|inch|cm|mm)\b`), 50, 20},
	{regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December)[ \t]+\d{1,2},?[ \t]+\d{4}\b`), 40, 15},
	{regexp.MustCompile(`\b\d{1,2}[-/]\d{1,2}[-/]\d{2,4}\b`), 40, 15},
	{regexp.MustCompile(`(?i)\b(?:from|between|during)[ \t]+\d{4}[ \t]*(?:to|and|-)[ \t]*\d{4}\b`), 40, 15},
}

// Facts returns short excerpts of text around percentages, amounts of money, large
// numbers, measurements and dates, in pattern order and without duplicates.
func Facts(text string) []string {
	var facts []string
	seen := make(map[string]struct{})
	for _, p := range factPatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			excerpt := around(text, loc[0], loc[1], p.context)
			if len(excerpt) <= p.minLen {
				continue
			}
			if _, dup := seen[excerpt]; dup {
				continue
			}
			seen[excerpt] = struct{}{}
			facts = append(facts, excerpt)
			if len(facts) == maxFactsScanned {
				return facts
			}
		}
	}
	return facts
}

// around returns the whitespace-collapsed text within width bytes of [start, end),
// never crossing a page break.
func around(text string, start, end, width int) string {
	lo := start - width
	if lo < 0 {
		lo = 0
	}
	hi := utils.RuneBoundary(text, end+width)
	for lo > 0 && lo < len(text) && !utf8.RuneStart(text[lo]) {
		lo++
	}
	if i := strings.LastIndexByte(text[lo:start], '\f'); i >= 0 {
		lo += i + 1
	}
	if i := strings.IndexByte(text[end:hi], '\f'); i >= 0 {
		hi = end + i
	}
	return strings.Join(strings.Fields(text[lo:hi]), " ")
}
