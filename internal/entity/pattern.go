package entity

import (
	"context"
	"regexp"
	"strings"

	"github.com/hyperjump/docanalyzer/internal/models"
)

// DefaultMaxInput is used when no input limit is configured.
const DefaultMaxInput = 100000

const (
	month  = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`
	amount = `\d+(?:,\d{3})*(?:\.\d+)?`
	scale  = `(?:[ \t]?(?:thousand|million|billion|trillion|[mb]n)\b)?`
	capWd  = `[A-Z][\w&'.\-]*`
)

type pattern struct {
	category models.Category
	re       *regexp.Regexp
	// group selects a submatch as the entity span; 0 means the whole match.
	group int
}

var patterns = []pattern{
	{models.CategoryDate, regexp.MustCompile(`\b` + month + `\.?[ \t]+\d{1,2}(?:st|nd|rd|th)?,?[ \t]+\d{4}\b`), 0},
	{models.CategoryDate, regexp.MustCompile(`\b\d{1,2}(?:st|nd|rd|th)?[ \t]+` + month + `\.?,?[ \t]+\d{4}\b`), 0},
	{models.CategoryDate, regexp.MustCompile(`\b` + month + `[ \t]+\d{4}\b`), 0},
	{models.CategoryDate, regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`), 0},
	{models.CategoryDate, regexp.MustCompile(`\b\d{1,2}/\d{1,2}/(?:\d{4}|\d{2})\b`), 0},

	{models.CategoryMoney, regexp.MustCompile(`[$€£¥][ \t]?` + amount + scale), 0},
	{models.CategoryMoney, regexp.MustCompile(`\b(?:USD|EUR|GBP|JPY|CHF)[ \t]?` + amount + scale), 0},
	{models.CategoryMoney, regexp.MustCompile(`\b` + amount + scale + `[ \t]+(?:dollars|euros|pounds|USD|EUR|GBP)\b`), 0},

	{models.CategoryPercent, regexp.MustCompile(`\b\d+(?:\.\d+)?(?:[ \t]?%|[ \t]+(?:percent|per cent)\b)`), 0},

	{models.CategoryOrg, regexp.MustCompile(`\b(?:` + capWd + `[ \t]+){0,4}?` + capWd + `,?[ \t]+(?:Inc|Corp|Corporation|LLC|Ltd|Limited|GmbH|AG|PLC|plc|LLP|Co|Company|Group|Holdings|Foundation|Association)\b\.?`), 0},
	{models.CategoryOrg, regexp.MustCompile(`\b(?:University|Institute|Bank|Ministry|Department)[ \t]+of[ \t]+[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+){0,3}`), 0},

	{models.CategoryPerson, regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof)\.?[ \t]+([A-Z][a-z]+(?:[ \t]+[A-Z]\.)?(?:[ \t]+[A-Z][a-z]+){0,2})`), 1},

	{models.CategoryLaw, regexp.MustCompile(`\b(?:[A-Z][a-z]+[ \t]+){1,6}Act(?:[ \t]+of[ \t]+\d{4})?\b`), 0},
	{models.CategoryLaw, regexp.MustCompile(`\b\d+[ \t]+U\.S\.C\.[ \t]*§*[ \t]*\d+\b`), 0},
	{models.CategoryLaw, regexp.MustCompile(`\bRegulation[ \t]+\(EU\)[ \t]+\d{4}/\d+\b`), 0},
}

// Capitalised words that start sentences rather than names.
var leadingNoise = toSet("The", "A", "An", "And", "Or", "But", "If", "As", "Of", "By", "For", "From", "To", "In", "On", "At",
	"With", "Then", "This", "That", "These", "Those", "Our", "Dear", "Per", "Via")

// Pattern recognises the entity categories that have a regular surface form:
// dates, amounts of money, percentages, organisations with legal suffixes,
// titled persons and statutes. It needs no model and is always available.
type Pattern struct {
	maxInput int
}

// NewPattern returns a Pattern backend accepting at most maxInput bytes per call.
func NewPattern(maxInput int) *Pattern {
	if maxInput <= 0 {
		maxInput = DefaultMaxInput
	}
	return &Pattern{maxInput: maxInput}
}

func (p *Pattern) Extract(ctx context.Context, text string) ([]models.Entity, error) {
	var raw []models.Entity
	for _, pat := range patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, loc := range pat.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[2*pat.group], loc[2*pat.group+1]
			if start < 0 {
				continue
			}
			if pat.category == models.CategoryOrg {
				start = skipLeadingNoise(text, start, end)
			}
			raw = append(raw, models.Entity{
				Text:     text[start:end],
				Category: pat.category,
				Start:    start,
				End:      end,
			})
		}
	}
	return Clean(text, raw), nil
}

// skipLeadingNoise moves start past sentence-initial words while at least two words remain.
func skipLeadingNoise(text string, start, end int) int {
	for {
		word := text[start:end]
		sp := strings.IndexAny(word, " \t")
		if sp < 0 || len(strings.Fields(word)) <= 2 {
			return start
		}
		if _, noise := leadingNoise[word[:sp]]; !noise {
			return start
		}
		start += sp
		for text[start] == ' ' || text[start] == '\t' {
			start++
		}
	}
}

func (p *Pattern) MaxInputLength() int { return p.maxInput }

func (p *Pattern) Available() error { return nil }

func (p *Pattern) Name() string { return "pattern" }
