// Package textnorm provides low-level text normalization primitives shared by
// the title canonicalizer, the content cleaner, and the local-file segmenter.
package textnorm

import (
	"regexp"
	"strings"
)

// FullWidthSpace is the ideographic space (U+3000) used as the paragraph
// indentation marker in Chinese-language novel text.
const FullWidthSpace = "　"

var (
	spaceRunRe = regexp.MustCompile(`[ \t]+`)
	controlRe  = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]")
	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// NormalizeNewlines converts CRLF and bare CR line endings to LF.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// CollapseSpaces replaces runs of spaces and tabs with a single space.
func CollapseSpaces(s string) string {
	return spaceRunRe.ReplaceAllString(s, " ")
}

// StripControl removes C0 control characters (except LF and TAB) and DEL.
// Scraped pages occasionally carry these through innerText.
func StripControl(s string) string {
	return controlRe.ReplaceAllString(s, "")
}

// CollapseBlankLines reduces runs of three or more newlines to a paragraph
// break (two newlines).
func CollapseBlankLines(s string) string {
	return blankRunRe.ReplaceAllString(s, "\n\n")
}
