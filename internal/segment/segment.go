package segment

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// UnknownAuthor is recorded when the filename carries no author part.
const UnknownAuthor = "未知"

// headingRe matches chapter heading lines: 第 + a run of digits (ASCII or
// full-width) or CJK numerals + one of 章節回卷, then the rest of the line.
var headingRe = regexp.MustCompile(`第[一二三四五六七八九十百千万0-9１２３４５６７８９０]+[章節回卷][^\n]*\n`)

// RawChapter is one chapter cut out of a local document. Body spans from
// this chapter's heading to the next heading (or end of document), heading
// line included.
type RawChapter struct {
	Title string
	Body  string
}

// TitleAuthorFromFilename derives work title and author from a filename.
// The base name (extension stripped) splits on a single "-" into
// title-author; any other shape makes the whole base name the title with an
// unknown author.
func TitleAuthorFromFilename(name string) (titleOut, author string) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	parts := strings.Split(base, "-")
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(base), UnknownAuthor
}

// Split cuts a document into chapter records at heading-pattern boundaries.
// Duplicate heading titles within the document get (1), (2), ... suffixes so
// every record in the batch has a unique title. Zero boundaries is a
// *NoChaptersError: the document is skipped, not partially imported.
//
// The concatenation of all bodies equals the document from the first
// boundary to its end.
func Split(doc string) ([]RawChapter, error) {
	matches := headingRe.FindAllStringIndex(doc, -1)
	if len(matches) == 0 {
		return nil, &NoChaptersError{}
	}

	used := make(map[string]bool, len(matches))
	chapters := make([]RawChapter, 0, len(matches))
	for i, m := range matches {
		end := len(doc)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		chTitle := strings.TrimSpace(doc[m[0]:m[1]])
		chTitle = disambiguate(chTitle, used)
		used[chTitle] = true

		chapters = append(chapters, RawChapter{
			Title: chTitle,
			Body:  doc[m[0]:end],
		})
	}
	return chapters, nil
}

// disambiguate appends (1), (2), ... until the title is unused in the batch.
func disambiguate(base string, used map[string]bool) string {
	if !used[base] {
		return base
	}
	for n := 1; ; n++ {
		t := fmt.Sprintf("%s(%d)", base, n)
		if !used[t] {
			return t
		}
	}
}
