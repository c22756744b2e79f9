package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/docanalyzer/internal/models"
)

const byteOrderMark = "\ufeff"

// loadPlain splits text on form feeds, one page per segment. Invalid UTF-8 sequences are
// replaced with the replacement character.
func loadPlain(content []byte) []models.Page {
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	text = strings.TrimPrefix(text, byteOrderMark)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	segments := strings.Split(text, "\f")
	pages := make([]models.Page, len(segments))
	for i, seg := range segments {
		pages[i] = models.Page{Index: i, NativeText: seg}
	}
	return pages
}
