package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hyperjump/docanalyzer/internal/models"
)

// odfContentPath is the main content part of every OpenDocument package.
const odfContentPath = "content.xml"

var (
	odfPara   = regexp.MustCompile(`(?s)<text:(?:p|h)(?:\s[^>]*)?>(.*?)</text:(?:p|h)>`)
	odfTag    = regexp.MustCompile(`<[^>]+>`)
	odfSlide  = regexp.MustCompile(`<draw:page[\s>]`)
	odfSheet  = regexp.MustCompile(`<table:table[\s>]`)
	odfSpaces = regexp.MustCompile(`<text:s(?:\s[^>]*)?/>|<text:tab/>|<text:line-break/>`)
)

// loadODF reads OpenDocument text, spreadsheet and presentation files. Presentations
// yield a page per slide and spreadsheets a page per table; text documents are one page.
func loadODF(name string, content []byte) ([]models.Page, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract ODF: not a zip: %w", err)
	}
	data, err := readZipFile(zr, odfContentPath)
	if err != nil {
		return nil, fmt.Errorf("extract ODF: %w", err)
	}
	body := string(data)

	var sections []string
	switch strings.ToLower(filepath.Ext(name)) {
	case ".odp":
		sections = splitAt(body, odfSlide)
	case ".ods":
		sections = splitAt(body, odfSheet)
	default:
		sections = []string{body}
	}

	pages := make([]models.Page, 0, len(sections))
	for i, sec := range sections {
		pages = append(pages, models.Page{Index: i, NativeText: odfText(sec)})
	}
	return pages, nil
}

// splitAt cuts s before every match of re, dropping the preamble before the first one.
// Without any match the whole of s is one section.
func splitAt(s string, re *regexp.Regexp) []string {
	locs := re.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return []string{s}
	}
	out := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(s)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out = append(out, s[loc[0]:end])
	}
	return out
}

func odfText(xml string) string {
	var lines []string
	for _, m := range odfPara.FindAllStringSubmatch(xml, -1) {
		inner := odfSpaces.ReplaceAllString(m[1], " ")
		text := strings.TrimSpace(html.UnescapeString(odfTag.ReplaceAllString(inner, "")))
		if text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}
