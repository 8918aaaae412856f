package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/tdnsg/novel-harvester/internal/ledger"
	"github.com/tdnsg/novel-harvester/internal/source"
	"github.com/tdnsg/novel-harvester/internal/store"
	"github.com/tdnsg/novel-harvester/internal/title"
)

// Replay retries every quarantined chapter. Entries whose title already
// exists in the catalog are dropped without a fetch; the rest are fetched
// with the usual retry policy. Each work's ledger is rewritten to exactly
// the entries that remain failed, and removed when none do.
func (c *Crawler) Replay(ctx context.Context, rules []source.Rule) (Stats, error) {
	if len(rules) == 0 {
		return Stats{}, fmt.Errorf("no source rules available for replay")
	}

	names, err := c.quarantine.Works()
	if err != nil {
		return Stats{}, err
	}
	if len(names) == 0 {
		c.reporter.Infof("replay", "no failure ledgers to replay")
		return Stats{}, nil
	}

	works, err := c.catalog.ListWorks(ctx)
	if err != nil {
		return Stats{}, err
	}
	byFile := make(map[string]store.Work, len(works))
	for _, w := range works {
		byFile[ledger.SafeFilename(w.Title)] = w
	}

	var stats Stats
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		w, ok := byFile[name]
		if !ok {
			c.reporter.Warnf("replay", "ledger %q has no matching work, skipping", name)
			continue
		}

		if err := c.replayWork(ctx, rules, w, &stats); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return stats, err
			}
			c.reporter.Errorf("replay", "%s: %v", w.Title, err)
		}
	}
	return stats, nil
}

func (c *Crawler) replayWork(ctx context.Context, rules []source.Rule, w store.Work, stats *Stats) error {
	entries, err := c.quarantine.Load(w.Title)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return c.quarantine.Rewrite(w.Title, nil)
	}
	c.reporter.Startf("replay", "%s: %d quarantined chapters", w.Title, len(entries))

	existing, err := c.catalog.ListChapterTitles(ctx, w.ID)
	if err != nil {
		return err
	}

	var remaining []ledger.Entry
	resolved, added := 0, 0
	for _, e := range entries {
		if _, ok := existing[e.Title]; ok {
			resolved++
			continue
		}

		rule := ruleForURL(rules, e.URL)
		cand := title.Candidate{Title: e.Title, URL: e.URL}
		cand.Special, cand.Num = title.Classify(e.Title)

		content, ferr := c.fetchChapter(ctx, rule, cand)
		if ferr != nil {
			if errors.Is(ferr, context.Canceled) || errors.Is(ferr, context.DeadlineExceeded) {
				return ferr
			}
			now := time.Now()
			e.Failures++
			e.LastFailedAt = &now
			remaining = append(remaining, e)
			continue
		}

		cerr := c.catalog.CreateChapter(ctx, w.ID, cand.Title, content, replayOrder(cand))
		switch {
		case cerr == nil:
			added++
		case errors.Is(cerr, store.ErrChapterExists):
			resolved++
		default:
			return cerr
		}
	}

	if err := c.quarantine.Rewrite(w.Title, remaining); err != nil {
		return err
	}

	stats.Works++
	stats.Chapters += added
	stats.Failures += len(remaining)
	c.reporter.Successf("replay", "%s: %d recovered, %d already present, %d still failing",
		w.Title, added, resolved, len(remaining))
	return nil
}

// replayOrder derives an order for a chapter restored outside a full
// candidate set: its numeric key, pushed past the ordinary range when the
// title marks a special chapter. A later resequence settles specials into
// their exact positions.
func replayOrder(cand title.Candidate) int {
	if cand.Special {
		return title.SpecialOrderOffset + cand.Num
	}
	return cand.Num
}

// ruleForURL picks the rule whose listing shares the entry's host, falling
// back to the first rule when no host matches.
func ruleForURL(rules []source.Rule, rawURL string) *source.Rule {
	u, err := url.Parse(rawURL)
	if err == nil {
		for i := range rules {
			lu, lerr := url.Parse(rules[i].ListingURL)
			if lerr == nil && lu.Host == u.Host {
				return &rules[i]
			}
		}
	}
	return &rules[0]
}
