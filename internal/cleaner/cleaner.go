// Package cleaner strips advertising noise and filter words from chapter
// bodies and re-segments them into indented paragraphs.
package cleaner

import (
	"regexp"
	"strings"

	"github.com/tdnsg/novel-harvester/internal/textnorm"
)

// boilerplateRes match known ad/boilerplate lines injected by source sites.
// Anchored per line; a leading indentation marker does not hide the ad.
var boilerplateRes = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^[\s　]*关注.*下载APP[\s　]*$`),
	regexp.MustCompile(`(?m)^[\s　]*广告.*$`),
	regexp.MustCompile(`(?m)^[\s　]*看精彩成人小说上《小黄书》.*$`),
}

// Clean normalizes a chapter body: filter words are deleted wherever they
// occur, known boilerplate lines are dropped, and the text is re-segmented
// into paragraphs each beginning with exactly one full-width space marker,
// joined by blank lines.
//
// A line that begins with the marker starts a new paragraph; lines without
// it continue the current paragraph, or open a new one (gaining the marker)
// when none is open. Blank lines end the current paragraph; runs of them
// collapse into a single paragraph break. Cleaning already-clean content is
// a no-op for a fixed filter-word list.
func Clean(content string, filterWords []string) string {
	for _, w := range filterWords {
		if w == "" {
			continue
		}
		content = strings.ReplaceAll(content, w, "")
	}

	content = textnorm.NormalizeNewlines(content)
	content = textnorm.StripControl(content)
	for _, re := range boilerplateRes {
		content = re.ReplaceAllString(content, "")
	}

	marker := textnorm.FullWidthSpace
	var paragraphs []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, current.String())
			current.Reset()
		}
	}

	for _, line := range strings.Split(content, "\n") {
		body := strings.Trim(line, " \t"+marker)
		if body == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, marker) {
			flush()
			current.WriteString(marker)
			current.WriteString(body)
			continue
		}
		if current.Len() == 0 {
			current.WriteString(marker)
		}
		current.WriteString(body)
	}
	flush()

	return strings.Join(paragraphs, "\n\n")
}
