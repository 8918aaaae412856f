package fetch

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tdnsg/novel-harvester/internal/textnorm"
)

// Link is an anchor extracted from a rendered page.
type Link struct {
	Title string
	URL   string
}

// ExtractLinks returns the anchors matched by selector, with hrefs resolved
// against baseURL and fragment-stripped. Order follows document order;
// duplicate URLs are dropped.
func ExtractLinks(html, baseURL, selector string) ([]Link, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &FetchError{URL: baseURL, Message: "invalid base URL", Cause: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &FetchError{URL: baseURL, Message: "failed to parse HTML", Cause: err}
	}

	seen := make(map[string]bool)
	var links []Link
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		u := abs.String()

		text := textnorm.CollapseSpaces(strings.TrimSpace(s.Text()))
		if text == "" || seen[u] {
			return
		}
		seen[u] = true
		links = append(links, Link{Title: text, URL: u})
	})

	return links, nil
}

// FirstLink returns the first anchor matched by selector, or nil.
func FirstLink(html, baseURL, selector string) (*Link, error) {
	links, err := ExtractLinks(html, baseURL, selector)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, nil
	}
	return &links[0], nil
}

// ExtractParagraphs pulls the chapter body text out of a rendered page.
// It selects the container matched by bodySelector and joins its <p>
// elements, each trimmed and prefixed with the paragraph indentation
// marker. A container without <p> children falls back to its own text split
// on newlines. An unmatched selector yields the empty string.
func ExtractParagraphs(html, bodySelector string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	container := doc.Find(bodySelector).First()
	if container.Length() == 0 {
		return ""
	}

	var parts []string
	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if text != "" {
			parts = append(parts, textnorm.FullWidthSpace+text)
		}
	})

	if len(parts) == 0 {
		for _, line := range strings.Split(container.Text(), "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				parts = append(parts, textnorm.FullWidthSpace+line)
			}
		}
	}

	return strings.Join(parts, "\n\n")
}
