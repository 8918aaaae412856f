package main

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/tdnsg/novel-harvester/internal/status"
	"github.com/tdnsg/novel-harvester/internal/store"
	"github.com/tdnsg/novel-harvester/internal/title"
)

var retitleCmd = &cobra.Command{
	Use:   "retitle",
	Short: "Rewrite chapter titles with a regex substitution",
	Long:  "Applies a regex substitution to every chapter title, re-canonicalizes the result, and writes the changed ones back. Use --preview to see the renames without applying them.",
	RunE:  runRetitle,
}

var (
	retitleConfigPath string
	retitlePattern    string
	retitleReplace    string
	retitleWork       string
	retitleRemove     bool
	retitlePreview    bool
)

func init() {
	retitleCmd.Flags().StringVarP(&retitleConfigPath, "config", "c", "", "Path to JSON config file")
	retitleCmd.Flags().StringVarP(&retitlePattern, "pattern", "p", "", "Regex matched against chapter titles (required)")
	retitleCmd.Flags().StringVarP(&retitleReplace, "replace", "r", "", "Replacement text, supports $1 group references")
	retitleCmd.Flags().StringVar(&retitleWork, "work", "", "Only retitle chapters of this work")
	retitleCmd.Flags().BoolVar(&retitleRemove, "remove", false, "Delete the matched text (same as an empty --replace)")
	retitleCmd.Flags().BoolVar(&retitlePreview, "preview", false, "Show renames without writing them")
	retitleCmd.MarkFlagsMutuallyExclusive("replace", "remove")

	if err := retitleCmd.MarkFlagRequired("pattern"); err != nil {
		panic(fmt.Sprintf("failed to mark pattern flag as required: %v", err))
	}

	rootCmd.AddCommand(retitleCmd)
}

func runRetitle(_ *cobra.Command, _ []string) error {
	re, err := regexp.Compile(retitlePattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	cfg, err := resolveConfig(retitleConfigPath)
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

	renamed, skipped := 0, 0
	for _, w := range works {
		if retitleWork != "" && w.Title != retitleWork {
			continue
		}

		refs, err := st.ListChapters(ctx, w.ID)
		if err != nil {
			return err
		}
		for _, r := range refs {
			next := title.Canonicalize(re.ReplaceAllString(r.Title, retitleReplace))
			if next == r.Title {
				continue
			}
			if next == "" {
				reporter.Warnf("retitle", "%s: %q would become empty, skipping", w.Title, r.Title)
				skipped++
				continue
			}

			if retitlePreview {
				reporter.Infof("retitle", "%s: %q -> %q", w.Title, r.Title, next)
				renamed++
				continue
			}

			err := st.UpdateChapterTitle(ctx, r.ID, next)
			switch {
			case err == nil:
				renamed++
			case errors.Is(err, store.ErrChapterExists):
				reporter.Warnf("retitle", "%s: %q -> %q collides with an existing chapter, skipping", w.Title, r.Title, next)
				skipped++
			default:
				return err
			}
		}
	}

	verb := "renamed"
	if retitlePreview {
		verb = "would rename"
	}
	reporter.Successf("retitle", "%s %d chapters, skipped %d", verb, renamed, skipped)
	return nil
}
