package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/docanalyzer/internal/models"
)

var (
	// slidePath matches ppt/slides/slideN.xml and captures N.
	slidePath = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

	// atTag matches <a:t>text</a:t> with any attributes.
	atTag = regexp.MustCompile(`<a:t(?:\s[^>]*)?>([^<]*)</a:t>`)
)

// loadPPTX returns one page per slide in slide-number order.
func loadPPTX(content []byte) ([]models.Page, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract PPTX: not a zip: %w", err)
	}

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		m := slidePath.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{num: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	pages := make([]models.Page, 0, len(slides))
	for i, s := range slides {
		data, err := readZipFile(zr, s.file.Name)
		if err != nil {
			return nil, fmt.Errorf("extract PPTX: %w", err)
		}
		var buf strings.Builder
		for _, p := range atTag.FindAllStringSubmatch(string(data), -1) {
			text := strings.TrimSpace(html.UnescapeString(p[1]))
			if text == "" {
				continue
			}
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(text)
		}
		pages = append(pages, models.Page{Index: i, NativeText: buf.String()})
	}
	return pages, nil
}
