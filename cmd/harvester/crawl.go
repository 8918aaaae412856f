package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tdnsg/novel-harvester/internal/cleaner"
	"github.com/tdnsg/novel-harvester/internal/fetch"
	"github.com/tdnsg/novel-harvester/internal/ledger"
	"github.com/tdnsg/novel-harvester/internal/pipeline"
	"github.com/tdnsg/novel-harvester/internal/source"
	"github.com/tdnsg/novel-harvester/internal/status"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl configured sources and ingest missing chapters",
	Long:  "Walks every enabled source's listing pages, diffs each work's chapter list against the catalog, fetches and cleans what is missing, and quarantines chapters that keep failing.",
	RunE:  runCrawl,
}

var (
	crawlConfigPath  string
	crawlSources     string
	crawlLedgerDir   string
	crawlFilterWords string
	crawlDBURL       string
	crawlTimeout     int
)

func init() {
	crawlCmd.Flags().StringVarP(&crawlConfigPath, "config", "c", "", "Path to JSON config file")
	crawlCmd.Flags().StringVar(&crawlSources, "sources", "", "Path to sources YAML (overrides config)")
	crawlCmd.Flags().StringVar(&crawlLedgerDir, "ledger-dir", "", "Failure ledger directory (overrides config)")
	crawlCmd.Flags().StringVar(&crawlFilterWords, "filter-words", "", "Path to filter words YAML (overrides config)")
	crawlCmd.Flags().StringVar(&crawlDBURL, "db-url", "", "PostgreSQL connection URL (overrides config and DATABASE_URL)")
	crawlCmd.Flags().IntVar(&crawlTimeout, "timeout", 0, "Per-fetch timeout in seconds (overrides each source's setting)")

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(crawlConfigPath)
	if err != nil {
		return err
	}
	if crawlSources != "" {
		cfg.SourcesFile = crawlSources
	}
	if crawlLedgerDir != "" {
		cfg.LedgerDir = crawlLedgerDir
	}
	if crawlFilterWords != "" {
		cfg.FilterWordsFile = crawlFilterWords
	}
	if crawlDBURL != "" {
		cfg.DatabaseURL = crawlDBURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rules, err := source.Load(cfg.SourcesFile)
	if err != nil {
		return err
	}
	if crawlTimeout > 0 {
		for i := range rules {
			rules[i].TimeoutSeconds = crawlTimeout
		}
	}
	filterWords, err := cleaner.LoadFilterWords(cfg.FilterWordsFile)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	led, err := ledger.New(cfg.LedgerDir)
	if err != nil {
		return err
	}

	browser, err := fetch.NewBrowser(ctx)
	if err != nil {
		return err
	}
	defer browser.Close()

	reporter := status.NewReporter(os.Stdout)
	crawler := pipeline.NewCrawler(browser, st, led, reporter, filterWords, delaysFromConfig(cfg))

	stats, err := crawler.Run(ctx, rules)
	reporter.Summary(stats.Works, stats.Chapters, stats.Failures)
	return err
}
