package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tdnsg/novel-harvester/internal/cleaner"
	"github.com/tdnsg/novel-harvester/internal/fetch"
	"github.com/tdnsg/novel-harvester/internal/source"
	"github.com/tdnsg/novel-harvester/internal/store"
	"github.com/tdnsg/novel-harvester/internal/textnorm"
	"github.com/tdnsg/novel-harvester/internal/title"
)

// Run ingests every rule in order. A listing failure abandons that source;
// a work failure abandons that work; both are reported and the run moves
// on. Only context cancellation stops the run itself.
func (c *Crawler) Run(ctx context.Context, rules []source.Rule) (Stats, error) {
	var stats Stats
	for i := range rules {
		rule := &rules[i]
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		c.reporter.Startf("source", "crawling %s (%s)", rule.Name, rule.ListingURL)
		if err := c.runRule(ctx, rule, &stats); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return stats, err
			}
			c.reporter.Errorf("source", "%v", err)
			continue
		}
		c.reporter.Successf("source", "finished %s", rule.Name)
	}
	return stats, nil
}

func (c *Crawler) runRule(ctx context.Context, rule *source.Rule, stats *Stats) error {
	items, err := c.discoverWorks(ctx, rule)
	if err != nil {
		return err
	}
	c.reporter.Infof("source", "%s: %d works listed", rule.Name, len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.processWork(ctx, rule, item, stats); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.reporter.Errorf("work", "%v", err)
			continue
		}
	}
	return nil
}

// discoverWorks pages through the source listing, collecting work links. A
// revisited pagination URL ends the walk; so does the rule's page cap.
func (c *Crawler) discoverWorks(ctx context.Context, rule *source.Rule) ([]fetch.Link, error) {
	pageURL := rule.ListingURL
	visited := make(map[string]bool)
	seen := make(map[string]bool)
	var items []fetch.Link

	for page := 1; page <= rule.MaxPages; page++ {
		if visited[pageURL] {
			break
		}
		visited[pageURL] = true

		html, err := c.fetcher.FetchPage(ctx, pageURL, rule.Selectors.ListingItem, rule.Timeout())
		if err != nil {
			return nil, &ListingError{Source: rule.Key, URL: pageURL, Err: err}
		}
		links, err := fetch.ExtractLinks(html, pageURL, rule.Selectors.ListingItem)
		if err != nil {
			return nil, &ListingError{Source: rule.Key, URL: pageURL, Err: err}
		}
		for _, l := range links {
			if seen[l.URL] {
				continue
			}
			seen[l.URL] = true
			items = append(items, l)
		}

		if rule.Selectors.NextPage == "" {
			break
		}
		next, err := fetch.FirstLink(html, pageURL, rule.Selectors.NextPage)
		if err != nil || next == nil {
			break
		}
		pageURL = next.URL

		if err := fetch.Sleep(ctx, fetch.Jitter(c.delays.Min, c.delays.Max)); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (c *Crawler) processWork(ctx context.Context, rule *source.Rule, item fetch.Link, stats *Stats) error {
	workTitle := strings.TrimSpace(textnorm.CollapseSpaces(item.Title))
	if workTitle == "" {
		return nil
	}
	c.reporter.Startf("work", "processing %s", workTitle)

	html, err := c.fetcher.FetchPage(ctx, item.URL, rule.Selectors.ChapterWait, rule.Timeout())
	if err != nil {
		return &WorkError{Work: workTitle, Err: err}
	}
	links, err := fetch.ExtractLinks(html, item.URL, rule.Selectors.ChapterList)
	if err != nil {
		return &WorkError{Work: workTitle, Err: err}
	}

	candidates := dedupeCandidates(links)
	if len(candidates) == 0 {
		return &WorkError{Work: workTitle, Err: fmt.Errorf("no chapter links found at %s", item.URL)}
	}
	orders := orderByTitle(candidates)

	work, created, err := c.catalog.EnsureWork(ctx, store.NewWork{
		Title:     workTitle,
		Author:    "未知",
		Category:  rule.Category,
		Intro:     "暂无简介",
		SourceURL: item.URL,
	})
	if err != nil {
		return &WorkError{Work: workTitle, Err: err}
	}
	if created {
		c.reporter.Infof("work", "created %s", workTitle)
	}

	existing, err := c.catalog.ListChapterTitles(ctx, work.ID)
	if err != nil {
		return &WorkError{Work: workTitle, Err: err}
	}

	var missing []title.Candidate
	for _, cand := range candidates {
		if _, ok := existing[cand.Title]; !ok {
			missing = append(missing, cand)
		}
	}
	c.reporter.Infof("work", "%s: %d chapters listed, %d missing", workTitle, len(candidates), len(missing))

	failed, added, err := c.ingest(ctx, rule, work, missing, orders)
	if err != nil {
		return &WorkError{Work: workTitle, Err: err}
	}

	// Completeness check: re-diff against the store and give anything still
	// absent one more retried pass before it is quarantined.
	stillMissing, err := c.verifyMissing(ctx, work, candidates)
	if err != nil {
		return &WorkError{Work: workTitle, Err: err}
	}
	if len(stillMissing) > 0 {
		c.reporter.Warnf("verify", "%s: %d chapters still missing, retrying", workTitle, len(stillMissing))
		retryFailed, retryAdded, err := c.ingest(ctx, rule, work, stillMissing, orders)
		if err != nil {
			return &WorkError{Work: workTitle, Err: err}
		}
		added += retryAdded
		failed = retryFailed
	}

	if len(failed) > 0 {
		if err := c.quarantine.Record(workTitle, failed); err != nil {
			return &WorkError{Work: workTitle, Err: err}
		}
		c.reporter.Warnf("ledger", "%s: %d chapters quarantined", workTitle, len(failed))
	}

	count, err := c.catalog.CountChapters(ctx, work.ID)
	if err != nil {
		return &WorkError{Work: workTitle, Err: err}
	}
	if err := c.catalog.UpdateWorkIntro(ctx, work.ID, fmt.Sprintf("共%d章", count)); err != nil {
		return &WorkError{Work: workTitle, Err: err}
	}

	stats.Works++
	stats.Chapters += added
	stats.Failures += len(failed)
	c.reporter.Successf("work", "%s: %d added, %d failed, %d total", workTitle, added, len(failed), count)
	return nil
}

// ingest fetches, cleans, and persists the given candidates. Persist
// conflicts count as successes: the chapter is in the catalog either way.
// Store errors other than the uniqueness conflict abort the work.
func (c *Crawler) ingest(ctx context.Context, rule *source.Rule, work *store.Work, candidates []title.Candidate, orders map[string]int) (failed []title.Candidate, added int, err error) {
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, added, err
		}

		content, ferr := c.fetchChapter(ctx, rule, cand)
		if ferr != nil {
			if errors.Is(ferr, context.Canceled) || errors.Is(ferr, context.DeadlineExceeded) {
				return nil, added, ferr
			}
			c.reporter.Errorf("chapter", "%s: %v", cand.Title, ferr)
			failed = append(failed, cand)
			continue
		}

		cerr := c.catalog.CreateChapter(ctx, work.ID, cand.Title, content, orders[cand.Title])
		switch {
		case cerr == nil:
			added++
		case errors.Is(cerr, store.ErrChapterExists):
			// Another pass or run landed it first.
		default:
			return nil, added, cerr
		}
	}
	return failed, added, nil
}

// fetchChapter retrieves one chapter body with bounded retries. Each
// attempt gets a fresh fetch scope; delays stretch after a failure. An
// extracted-but-empty body counts as a failure.
func (c *Crawler) fetchChapter(ctx context.Context, rule *source.Rule, cand title.Candidate) (string, error) {
	min, max := c.delays.Min, c.delays.Max
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := fetch.Sleep(ctx, fetch.Jitter(min, max)); err != nil {
			return "", err
		}

		html, err := c.fetcher.FetchPage(ctx, cand.URL, rule.Selectors.Body, rule.Timeout())
		if err != nil {
			lastErr = err
			min, max = c.delays.FailureMin, c.delays.FailureMax
			continue
		}

		text := fetch.ExtractParagraphs(html, rule.Selectors.Body)
		if strings.TrimSpace(text) == "" {
			lastErr = &fetch.FetchError{URL: cand.URL, Message: "empty chapter body"}
			min, max = c.delays.FailureMin, c.delays.FailureMax
			continue
		}

		return cleaner.Clean(text, c.filterWords), nil
	}
	return "", fmt.Errorf("giving up after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Crawler) verifyMissing(ctx context.Context, work *store.Work, candidates []title.Candidate) ([]title.Candidate, error) {
	existing, err := c.catalog.ListChapterTitles(ctx, work.ID)
	if err != nil {
		return nil, err
	}
	var missing []title.Candidate
	for _, cand := range candidates {
		if _, ok := existing[cand.Title]; !ok {
			missing = append(missing, cand)
		}
	}
	return missing, nil
}

// dedupeCandidates canonicalizes scraped chapter links and drops duplicate
// canonical titles, keeping the first occurrence. Empty titles are noise.
func dedupeCandidates(links []fetch.Link) []title.Candidate {
	seen := make(map[string]bool, len(links))
	out := make([]title.Candidate, 0, len(links))
	for _, l := range links {
		cand := title.NewCandidate(l.Title, l.URL)
		if cand.Title == "" || seen[cand.Title] {
			continue
		}
		seen[cand.Title] = true
		out = append(out, cand)
	}
	return out
}

// orderByTitle assigns every candidate its final reading order up front, so
// a chapter persisted in any pass of the run lands with the same order.
func orderByTitle(candidates []title.Candidate) map[string]int {
	orders := make(map[string]int, len(candidates))
	for _, s := range title.Sequence(candidates) {
		orders[s.Title] = s.Order
	}
	return orders
}
