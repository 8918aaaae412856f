// Package title canonicalizes chapter titles and assigns reading order.
// Upstream listings embed timestamps and padding in titles, and interleave
// bonus chapters with numbered ones; this package reduces every title to a
// stable identity key and a deterministic sort position.
package title

import (
	"regexp"
	"strings"

	"github.com/tdnsg/novel-harvester/internal/textnorm"
)

// Candidate is a discovered but not-yet-persisted chapter reference.
// Produced at the extraction boundary; nothing past that boundary carries an
// untyped scraped record.
type Candidate struct {
	RawTitle string `json:"raw_title,omitempty"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Special  bool   `json:"special,omitempty"`
	Num      int    `json:"num,omitempty"`
}

var (
	absTimestampRe   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}`)
	slashTimestampRe = regexp.MustCompile(`\d{2}/\d{2}/\d{4}\s+\d{2}:\d{2}`)
	edgeSeparatorRe  = regexp.MustCompile(`^[\s|_\-]+|[\s|_\-]+$`)
	chapterNumRe     = regexp.MustCompile(`第(\d+)章`)
	cjkChapterRe     = regexp.MustCompile(`第([〇零一二三四五六七八九十百千万0-9０-９]+)[章節回卷]`)
	bareNumRe        = regexp.MustCompile(`\d+`)
)

// numeralDigits covers ASCII, full-width, and CJK digit runes.
var numeralDigits = map[rune]int{
	'0': 0, '1': 1, '2': 2, '3': 3, '4': 4,
	'5': 5, '6': 6, '7': 7, '8': 8, '9': 9,
	'０': 0, '１': 1, '２': 2, '３': 3, '４': 4,
	'５': 5, '６': 6, '７': 7, '８': 8, '９': 9,
	'〇': 0, '零': 0, '一': 1, '二': 2, '三': 3,
	'四': 4, '五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

// numeralUnits are CJK positional multipliers.
var numeralUnits = map[rune]int{'十': 10, '百': 100, '千': 1000, '万': 10000}

// specialKeywords mark bonus/afterword/appendix/special-edition/side-story
// chapters that must sort after every numbered chapter.
var specialKeywords = []string{"番外", "后记", "附录", "特别篇", "外传"}

// NumSentinel is the numeric key for special chapters whose titles carry no
// number at all, so they sort after every numbered special.
const NumSentinel = 1 << 30

// Canonicalize strips embedded timestamps, full-width spaces, and edge
// separator characters from a raw chapter title and collapses internal
// whitespace. The result is the chapter's identity key; the function is
// idempotent.
func Canonicalize(raw string) string {
	s := absTimestampRe.ReplaceAllString(raw, "")
	s = slashTimestampRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, textnorm.FullWidthSpace, " ")
	s = textnorm.CollapseSpaces(s)
	s = edgeSeparatorRe.ReplaceAllString(s, "")
	return s
}

// Classify reports whether a title names a special chapter and extracts its
// numeric key: the first "第N章" capture, else a CJK-numeral heading
// (第一章, 第十二回, ...), else the first bare integer, else zero for
// ordinary chapters and NumSentinel for specials.
func Classify(title string) (special bool, num int) {
	for _, kw := range specialKeywords {
		if strings.Contains(title, kw) {
			special = true
			break
		}
	}

	if m := chapterNumRe.FindStringSubmatch(title); m != nil {
		num = atoiSafe(m[1])
		return special, num
	}
	if m := cjkChapterRe.FindStringSubmatch(title); m != nil {
		return special, parseNumeral(m[1])
	}
	if m := bareNumRe.FindString(title); m != "" {
		return special, atoiSafe(m)
	}
	if special {
		return true, NumSentinel
	}
	return false, 0
}

// parseNumeral evaluates a run of digit and CJK unit runes: 十二 -> 12,
// 一百零三 -> 103. Consecutive plain digits accumulate decimally.
func parseNumeral(s string) int {
	total, section, number := 0, 0, 0
	for _, r := range s {
		if d, ok := numeralDigits[r]; ok {
			number = number*10 + d
			continue
		}
		u, ok := numeralUnits[r]
		if !ok {
			continue
		}
		if u == 10000 {
			section += number
			if section == 0 {
				section = 1
			}
			total += section * u
			section, number = 0, 0
			continue
		}
		if number == 0 {
			number = 1
		}
		section += number * u
		number = 0
	}
	return total + section + number
}

// NewCandidate canonicalizes and classifies a scraped title/URL pair.
func NewCandidate(rawTitle, url string) Candidate {
	clean := Canonicalize(rawTitle)
	special, num := Classify(clean)
	return Candidate{
		RawTitle: rawTitle,
		Title:    clean,
		URL:      url,
		Special:  special,
		Num:      num,
	}
}

// atoiSafe parses digits, saturating instead of failing on absurd input.
func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
		if n > 1<<30 {
			return 1 << 30
		}
	}
	return n
}
