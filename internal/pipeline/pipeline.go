// Package pipeline drives remote ingestion: it walks source listings,
// discovers chapter candidates, diffs them against the catalog, fetches and
// cleans what is missing, and quarantines what repeatedly fails.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tdnsg/novel-harvester/internal/ledger"
	"github.com/tdnsg/novel-harvester/internal/status"
	"github.com/tdnsg/novel-harvester/internal/store"
	"github.com/tdnsg/novel-harvester/internal/title"
)

// maxAttempts bounds fetch retries for a single chapter within one run.
const maxAttempts = 3

// PageFetcher serves one rendered page per call, with a fresh fetch scope
// per request. Production use wraps a shared headless browser; tests supply
// a fake.
type PageFetcher interface {
	FetchPage(ctx context.Context, url, waitSelector string, timeout time.Duration) (string, error)
}

// Catalog is the slice of the store the pipeline writes through.
type Catalog interface {
	EnsureWork(ctx context.Context, nw store.NewWork) (*store.Work, bool, error)
	ListChapterTitles(ctx context.Context, workID uuid.UUID) (map[string]struct{}, error)
	CreateChapter(ctx context.Context, workID uuid.UUID, title, content string, order int) error
	CountChapters(ctx context.Context, workID uuid.UUID) (int, error)
	UpdateWorkIntro(ctx context.Context, workID uuid.UUID, intro string) error
	ListWorks(ctx context.Context) ([]store.Work, error)
}

// Quarantine records and replays fetch failures. Satisfied by *ledger.Ledger.
type Quarantine interface {
	Record(workTitle string, failed []title.Candidate) error
	Load(workTitle string) ([]ledger.Entry, error)
	Rewrite(workTitle string, entries []ledger.Entry) error
	Works() ([]string, error)
}

// Delays paces fetches. After a failed attempt the failure range applies,
// which is expected to be the longer one.
type Delays struct {
	Min        time.Duration
	Max        time.Duration
	FailureMin time.Duration
	FailureMax time.Duration
}

// Stats aggregates a run for the closing summary.
type Stats struct {
	Works    int
	Chapters int
	Failures int
}

// Crawler owns one ingestion run over a set of source rules.
type Crawler struct {
	fetcher     PageFetcher
	catalog     Catalog
	quarantine  Quarantine
	reporter    *status.Reporter
	filterWords []string
	delays      Delays
}

// NewCrawler assembles a Crawler. All dependencies are required.
func NewCrawler(fetcher PageFetcher, catalog Catalog, quarantine Quarantine, reporter *status.Reporter, filterWords []string, delays Delays) *Crawler {
	return &Crawler{
		fetcher:     fetcher,
		catalog:     catalog,
		quarantine:  quarantine,
		reporter:    reporter,
		filterWords: filterWords,
		delays:      delays,
	}
}
