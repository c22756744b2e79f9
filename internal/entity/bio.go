package entity

import (
	"strings"

	"github.com/hyperjump/docanalyzer/internal/models"
)

// labelAliases maps CoNLL tag names onto report categories. OntoNotes names are
// resolved by models.ParseCategory directly.
var labelAliases = map[string]models.Category{
	"PER": models.CategoryPerson,
	"LOC": models.CategoryGPE,
}

func mapLabel(tag string) (models.Category, bool) {
	if c, ok := labelAliases[strings.ToUpper(tag)]; ok {
		return c, true
	}
	return models.ParseCategory(tag)
}

// splitTag separates a BIO tag such as "B-ORG" into its prefix and type.
func splitTag(label string) (prefix byte, typ string) {
	if label == "" || label == "O" {
		return 'O', ""
	}
	if len(label) > 2 && (label[1] == '-' || label[1] == '_') {
		return label[0], label[2:]
	}
	return 'B', label
}

// decodeBIO merges per-token BIO labels into entities over text. Continuation
// subwords always extend the current entity; an I- tag whose type differs from the
// open entity starts a new one.
func decodeBIO(text string, tokens []Token, labels []string) []models.Entity {
	var (
		out     []models.Entity
		open    bool
		cur     models.Entity
		curType string
	)
	flush := func() {
		if open {
			cur.Text = text[cur.Start:cur.End]
			out = append(out, cur)
		}
		open = false
	}

	for i, tok := range tokens {
		if i >= len(labels) {
			break
		}
		if tok.Subword {
			if open {
				cur.End = tok.End
			}
			continue
		}
		prefix, typ := splitTag(labels[i])
		switch {
		case prefix == 'O':
			flush()
		case prefix == 'I' && open && typ == curType:
			cur.End = tok.End
		default:
			flush()
			cat, ok := mapLabel(typ)
			if !ok {
				continue
			}
			cur = models.Entity{Category: cat, Start: tok.Start, End: tok.End}
			curType = typ
			open = true
		}
	}
	flush()
	return out
}
