package models

import "strings"

// Category is a named-entity category.
type Category string

const (
	CategoryPerson    Category = "PERSON"
	CategoryOrg       Category = "ORG"
	CategoryGPE       Category = "GPE"
	CategoryDate      Category = "DATE"
	CategoryMoney     Category = "MONEY"
	CategoryPercent   Category = "PERCENT"
	CategoryProduct   Category = "PRODUCT"
	CategoryEvent     Category = "EVENT"
	CategoryWorkOfArt Category = "WORK_OF_ART"
	CategoryLaw       Category = "LAW"
	CategoryLanguage  Category = "LANGUAGE"
)

// Categories lists the closed category set in a stable order.
var Categories = []Category{
	CategoryPerson, CategoryOrg, CategoryGPE, CategoryDate, CategoryMoney, CategoryPercent,
	CategoryProduct, CategoryEvent, CategoryWorkOfArt, CategoryLaw, CategoryLanguage,
}

// ParseCategory maps a label to a category. Returns false for labels outside the closed set.
func ParseCategory(label string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(label)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Entity is a categorized span of the assembled text. Start and End are byte offsets.
type Entity struct {
	Text     string   `json:"text"`
	Category Category `json:"category"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Page     int      `json:"page"`
}

// CountByCategory returns the number of entities per category, or nil when ents is empty.
func CountByCategory(ents []Entity) map[Category]int {
	if len(ents) == 0 {
		return nil
	}
	counts := make(map[Category]int)
	for _, e := range ents {
		counts[e.Category]++
	}
	return counts
}
