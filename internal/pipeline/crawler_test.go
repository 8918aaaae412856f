package pipeline

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdnsg/novel-harvester/internal/fetch"
	"github.com/tdnsg/novel-harvester/internal/ledger"
	"github.com/tdnsg/novel-harvester/internal/source"
	"github.com/tdnsg/novel-harvester/internal/status"
	"github.com/tdnsg/novel-harvester/internal/store"
)

// fakeFetcher serves canned HTML by URL and can be told to fail a URL a
// fixed number of times (negative means always).
type fakeFetcher struct {
	pages    map[string]string
	failures map[string]int
	calls    map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:    make(map[string]string),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

func (f *fakeFetcher) FetchPage(_ context.Context, url, _ string, _ time.Duration) (string, error) {
	f.calls[url]++
	if n := f.failures[url]; n != 0 {
		if n > 0 {
			f.failures[url]--
		}
		return "", &fetch.FetchError{URL: url, Message: "connection reset"}
	}
	html, ok := f.pages[url]
	if !ok {
		return "", &fetch.FetchError{URL: url, Message: "not found"}
	}
	return html, nil
}

type chapterRow struct {
	content string
	order   int
}

// fakeCatalog is an in-memory Catalog.
type fakeCatalog struct {
	works      map[string]*store.Work
	chapters   map[uuid.UUID]map[string]chapterRow
	intros     map[uuid.UUID]string
	chapterErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		works:    make(map[string]*store.Work),
		chapters: make(map[uuid.UUID]map[string]chapterRow),
		intros:   make(map[uuid.UUID]string),
	}
}

func (f *fakeCatalog) addWork(title string) *store.Work {
	w := &store.Work{ID: uuid.New(), Title: title}
	f.works[title] = w
	f.chapters[w.ID] = make(map[string]chapterRow)
	return w
}

func (f *fakeCatalog) EnsureWork(_ context.Context, nw store.NewWork) (*store.Work, bool, error) {
	if w, ok := f.works[nw.Title]; ok {
		return w, false, nil
	}
	return f.addWork(nw.Title), true, nil
}

func (f *fakeCatalog) ListChapterTitles(_ context.Context, workID uuid.UUID) (map[string]struct{}, error) {
	titles := make(map[string]struct{})
	for t := range f.chapters[workID] {
		titles[t] = struct{}{}
	}
	return titles, nil
}

func (f *fakeCatalog) CreateChapter(_ context.Context, workID uuid.UUID, title, content string, order int) error {
	if f.chapterErr != nil {
		return f.chapterErr
	}
	if _, ok := f.chapters[workID][title]; ok {
		return store.ErrChapterExists
	}
	f.chapters[workID][title] = chapterRow{content: content, order: order}
	return nil
}

func (f *fakeCatalog) CountChapters(_ context.Context, workID uuid.UUID) (int, error) {
	return len(f.chapters[workID]), nil
}

func (f *fakeCatalog) UpdateWorkIntro(_ context.Context, workID uuid.UUID, intro string) error {
	f.intros[workID] = intro
	return nil
}

func (f *fakeCatalog) ListWorks(_ context.Context) ([]store.Work, error) {
	var out []store.Work
	for _, w := range f.works {
		out = append(out, *w)
	}
	return out, nil
}

const (
	listingURL = "https://demo.test/list"
	workURL    = "https://demo.test/w/1"
)

func chapterURL(n int) string {
	return fmt.Sprintf("https://demo.test/c/%d", n)
}

func testRule() source.Rule {
	return source.Rule{
		Key:        "demo",
		Name:       "demo",
		ListingURL: listingURL,
		MaxPages:   2,
		Category:   "网络小说",
		Selectors: source.Selectors{
			ListingItem: "a.work",
			NextPage:    "a.next",
			ChapterList: "a.chapter",
			ChapterWait: "#chapters",
			Body:        "#content",
		},
		TimeoutSeconds: 1,
	}
}

const chapterBodyHTML = `<div id="content"><p>夜色沉沉。</p><p>他推门而入。</p></div>`

// seedSite wires a listing with one work and n chapters into the fetcher.
func seedSite(f *fakeFetcher, n int) {
	f.pages[listingURL] = `<body><a class="work" href="/w/1">骸骨之城</a></body>`
	index := `<div id="chapters">`
	for i := 1; i <= n; i++ {
		index += fmt.Sprintf(`<a class="chapter" href="/c/%d">第%d章 试炼 2024-01-05 21:00:00</a>`, i, i)
	}
	index += `</div>`
	f.pages[workURL] = index
	for i := 1; i <= n; i++ {
		f.pages[chapterURL(i)] = chapterBodyHTML
	}
}

func newTestCrawler(t *testing.T, f *fakeFetcher, cat *fakeCatalog) (*Crawler, *ledger.Ledger) {
	t.Helper()
	led, err := ledger.New(t.TempDir())
	require.NoError(t, err)
	reporter := status.NewReporter(io.Discard)
	return NewCrawler(f, cat, led, reporter, nil, Delays{}), led
}

func TestRun_IngestsMissingChapters(t *testing.T) {
	f := newFakeFetcher()
	seedSite(f, 3)
	cat := newFakeCatalog()
	c, led := newTestCrawler(t, f, cat)

	stats, err := c.Run(context.Background(), []source.Rule{testRule()})
	require.NoError(t, err)

	assert.Equal(t, Stats{Works: 1, Chapters: 3, Failures: 0}, stats)
	w := cat.works["骸骨之城"]
	require.NotNil(t, w)
	for i := 1; i <= 3; i++ {
		row, ok := cat.chapters[w.ID][fmt.Sprintf("第%d章 试炼", i)]
		require.True(t, ok, "chapter %d missing", i)
		assert.Equal(t, i, row.order)
		assert.Contains(t, row.content, "夜色沉沉")
	}
	assert.Equal(t, "共3章", cat.intros[w.ID])

	entries, err := led.Load("骸骨之城")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_CompleteWorkFetchesNoChapters(t *testing.T) {
	f := newFakeFetcher()
	seedSite(f, 3)
	cat := newFakeCatalog()
	w := cat.addWork("骸骨之城")
	for i := 1; i <= 3; i++ {
		cat.chapters[w.ID][fmt.Sprintf("第%d章 试炼", i)] = chapterRow{order: i}
	}
	c, _ := newTestCrawler(t, f, cat)

	stats, err := c.Run(context.Background(), []source.Rule{testRule()})
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Chapters)
	for i := 1; i <= 3; i++ {
		assert.Zero(t, f.calls[chapterURL(i)], "chapter %d should not be fetched", i)
	}
}

func TestRun_FetchesOnlyTheDiff(t *testing.T) {
	f := newFakeFetcher()
	seedSite(f, 3)
	cat := newFakeCatalog()
	w := cat.addWork("骸骨之城")
	cat.chapters[w.ID]["第1章 试炼"] = chapterRow{order: 1}
	cat.chapters[w.ID]["第2章 试炼"] = chapterRow{order: 2}
	c, _ := newTestCrawler(t, f, cat)

	stats, err := c.Run(context.Background(), []source.Rule{testRule()})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Chapters)
	assert.Zero(t, f.calls[chapterURL(1)])
	assert.Zero(t, f.calls[chapterURL(2)])
	assert.Equal(t, 1, f.calls[chapterURL(3)])
	assert.Equal(t, 3, cat.chapters[w.ID]["第3章 试炼"].order)
}

func TestRun_QuarantinesAfterExhaustedRetries(t *testing.T) {
	f := newFakeFetcher()
	seedSite(f, 2)
	f.failures[chapterURL(2)] = -1
	cat := newFakeCatalog()
	c, led := newTestCrawler(t, f, cat)

	stats, err := c.Run(context.Background(), []source.Rule{testRule()})
	require.NoError(t, err)

	assert.Equal(t, Stats{Works: 1, Chapters: 1, Failures: 1}, stats)
	// Initial pass plus the completeness retry, each with bounded attempts.
	assert.Equal(t, 2*maxAttempts, f.calls[chapterURL(2)])

	entries, err := led.Load("骸骨之城")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "第2章 试炼", entries[0].Title)
	assert.Equal(t, chapterURL(2), entries[0].URL)
	assert.Equal(t, 1, entries[0].Failures)
}

func TestRun_EmptyBodyCountsAsFailure(t *testing.T) {
	f := newFakeFetcher()
	seedSite(f, 1)
	f.pages[chapterURL(1)] = `<div id="content"></div>`
	cat := newFakeCatalog()
	c, led := newTestCrawler(t, f, cat)

	stats, err := c.Run(context.Background(), []source.Rule{testRule()})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Failures)
	entries, err := led.Load("骸骨之城")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRun_ListingFailureAbandonsSource(t *testing.T) {
	f := newFakeFetcher()
	f.failures[listingURL] = -1
	cat := newFakeCatalog()
	c, _ := newTestCrawler(t, f, cat)

	stats, err := c.Run(context.Background(), []source.Rule{testRule()})
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Empty(t, cat.works)
}

func TestRun_PersistConflictIsSuccess(t *testing.T) {
	f := newFakeFetcher()
	seedSite(f, 1)
	cat := newFakeCatalog()
	cat.chapterErr = store.ErrChapterExists
	c, led := newTestCrawler(t, f, cat)

	stats, err := c.Run(context.Background(), []source.Rule{testRule()})
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Failures)
	entries, err := led.Load("骸骨之城")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_DuplicateCanonicalTitlesCollapse(t *testing.T) {
	f := newFakeFetcher()
	f.pages[listingURL] = `<body><a class="work" href="/w/1">骸骨之城</a></body>`
	f.pages[workURL] = `<div id="chapters">` +
		`<a class="chapter" href="/c/1">第1章 试炼 2024-01-05 21:00:00</a>` +
		`<a class="chapter" href="/c/9">第1章 试炼</a>` +
		`</div>`
	f.pages[chapterURL(1)] = chapterBodyHTML
	cat := newFakeCatalog()
	c, _ := newTestCrawler(t, f, cat)

	stats, err := c.Run(context.Background(), []source.Rule{testRule()})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Chapters)
	assert.Equal(t, 1, f.calls[chapterURL(1)])
	assert.Zero(t, f.calls[chapterURL(9)])
}

func TestRun_PaginationStopsOnRevisit(t *testing.T) {
	page2 := listingURL + "?p=2"
	f := newFakeFetcher()
	f.pages[listingURL] = `<body><a class="work" href="/w/1">骸骨之城</a>` +
		`<a class="next" href="/list?p=2">下一页</a></body>`
	f.pages[page2] = `<body><a class="work" href="/w/1">骸骨之城</a>` +
		`<a class="next" href="/list">上一页</a></body>`
	f.pages[workURL] = `<div id="chapters"><a class="chapter" href="/c/1">第1章 试炼</a></div>`
	f.pages[chapterURL(1)] = chapterBodyHTML
	cat := newFakeCatalog()
	c, _ := newTestCrawler(t, f, cat)

	rule := testRule()
	rule.MaxPages = 10
	stats, err := c.Run(context.Background(), []source.Rule{rule})
	require.NoError(t, err)

	assert.Equal(t, 1, f.calls[listingURL])
	assert.Equal(t, 1, f.calls[page2])
	// The same work listed on both pages is processed once.
	assert.Equal(t, 1, f.calls[workURL])
	assert.Equal(t, Stats{Works: 1, Chapters: 1}, stats)
}

func TestRun_SpecialChaptersOrderAfterOrdinary(t *testing.T) {
	f := newFakeFetcher()
	f.pages[listingURL] = `<body><a class="work" href="/w/1">骸骨之城</a></body>`
	f.pages[workURL] = `<div id="chapters">` +
		`<a class="chapter" href="/c/1">第1章 试炼</a>` +
		`<a class="chapter" href="/c/2">番外 婚后</a>` +
		`<a class="chapter" href="/c/3">第2章 出城</a>` +
		`</div>`
	for i := 1; i <= 3; i++ {
		f.pages[chapterURL(i)] = chapterBodyHTML
	}
	cat := newFakeCatalog()
	c, _ := newTestCrawler(t, f, cat)

	_, err := c.Run(context.Background(), []source.Rule{testRule()})
	require.NoError(t, err)

	w := cat.works["骸骨之城"]
	require.NotNil(t, w)
	assert.Equal(t, 1, cat.chapters[w.ID]["第1章 试炼"].order)
	assert.Equal(t, 2, cat.chapters[w.ID]["第2章 出城"].order)
	assert.Equal(t, 1_000_000, cat.chapters[w.ID]["番外 婚后"].order)
}

func TestRun_CancelledContextStopsRun(t *testing.T) {
	f := newFakeFetcher()
	seedSite(f, 1)
	cat := newFakeCatalog()
	c, _ := newTestCrawler(t, f, cat)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Run(ctx, []source.Rule{testRule()})
	assert.ErrorIs(t, err, context.Canceled)
}
