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

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Retry chapters recorded in the failure ledgers",
	Long:  "Reads every failure ledger, drops entries whose chapters have since been ingested, retries the rest, and rewrites each ledger to the entries that still fail.",
	RunE:  runReplay,
}

var (
	replayConfigPath string
	replayLedgerDir  string
)

func init() {
	replayCmd.Flags().StringVarP(&replayConfigPath, "config", "c", "", "Path to JSON config file")
	replayCmd.Flags().StringVar(&replayLedgerDir, "ledger-dir", "", "Failure ledger directory (overrides config)")

	rootCmd.AddCommand(replayCmd)
}

func runReplay(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(replayConfigPath)
	if err != nil {
		return err
	}
	if replayLedgerDir != "" {
		cfg.LedgerDir = replayLedgerDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rules, err := source.Load(cfg.SourcesFile)
	if err != nil {
		return err
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

	stats, err := crawler.Replay(ctx, rules)
	reporter.Summary(stats.Works, stats.Chapters, stats.Failures)
	return err
}
