package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tdnsg/novel-harvester/internal/status"
	"github.com/tdnsg/novel-harvester/internal/title"
)

var resequenceCmd = &cobra.Command{
	Use:   "resequence",
	Short: "Recompute chapter reading order for every work",
	Long:  "Reclassifies every chapter title and reassigns order values: numbered chapters by their number, special chapters after them. Only chapters whose order actually changes are written.",
	RunE:  runResequence,
}

var resequenceConfigPath string

func init() {
	resequenceCmd.Flags().StringVarP(&resequenceConfigPath, "config", "c", "", "Path to JSON config file")

	rootCmd.AddCommand(resequenceCmd)
}

func runResequence(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(resequenceConfigPath)
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

	works, err := st.ListWorks(ctx)
	if err != nil {
		return err
	}

	updated := 0
	for _, w := range works {
		refs, err := st.ListChapters(ctx, w.ID)
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			continue
		}

		cands := make([]title.Candidate, 0, len(refs))
		for _, r := range refs {
			cands = append(cands, title.NewCandidate(r.Title, ""))
		}
		orders := make(map[string]int, len(cands))
		for _, s := range title.Sequence(cands) {
			orders[s.Title] = s.Order
		}

		changed := 0
		for _, r := range refs {
			want, ok := orders[title.Canonicalize(r.Title)]
			if !ok || want == r.Order {
				continue
			}
			if err := st.UpdateChapterOrder(ctx, r.ID, want); err != nil {
				return err
			}
			changed++
		}
		if changed > 0 {
			reporter.Infof("resequence", "%s: %d chapters reordered", w.Title, changed)
			updated += changed
		}
	}

	reporter.Successf("resequence", "%d works scanned, %d chapters reordered", len(works), updated)
	return nil
}
