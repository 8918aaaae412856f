package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tdnsg/novel-harvester/internal/status"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete works that have no chapters",
	Long:  "Removes catalog entries left behind by runs where every chapter fetch failed. Works with at least one chapter are never touched.",
	RunE:  runPrune,
}

var pruneConfigPath string

func init() {
	pruneCmd.Flags().StringVarP(&pruneConfigPath, "config", "c", "", "Path to JSON config file")

	rootCmd.AddCommand(pruneCmd)
}

func runPrune(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(pruneConfigPath)
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

	reporter := status.NewReporter(os.Stdout)
	deleted, err := st.DeleteEmptyWorks(ctx)
	if err != nil {
		return err
	}
	reporter.Successf("prune", "%d empty works deleted", deleted)
	return nil
}
