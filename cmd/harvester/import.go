package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tdnsg/novel-harvester/internal/cleaner"
	"github.com/tdnsg/novel-harvester/internal/segment"
	"github.com/tdnsg/novel-harvester/internal/status"
	"github.com/tdnsg/novel-harvester/internal/store"
	"github.com/tdnsg/novel-harvester/internal/title"
)

var importCmd = &cobra.Command{
	Use:   "import <folder>",
	Short: "Import local novel text files into the catalog",
	Long:  "Imports every .txt file in the folder as one work: the filename supplies title and author, the content is decoded, split into chapters on heading lines, cleaned, and persisted in reading order.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var (
	importConfigPath  string
	importConcurrency int
)

func init() {
	importCmd.Flags().StringVarP(&importConfigPath, "config", "c", "", "Path to JSON config file")
	importCmd.Flags().IntVar(&importConcurrency, "concurrency", 0, "Parallel file imports (overrides config)")

	rootCmd.AddCommand(importCmd)
}

// importer ingests local text files. Work title allocation is serialized so
// concurrent files that collide on title get distinct suffixed names.
type importer struct {
	st          *store.Store
	reporter    *status.Reporter
	filterWords []string

	mu       sync.Mutex
	works    atomic.Int64
	chapters atomic.Int64
	skipped  atomic.Int64
}

func runImport(_ *cobra.Command, args []string) error {
	folder := args[0]
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("import folder not found: %s", folder)
	}

	cfg, err := resolveConfig(importConfigPath)
	if err != nil {
		return err
	}
	if importConcurrency > 0 {
		cfg.ImportConcurrency = importConcurrency
	}

	filterWords, err := cleaner.LoadFilterWords(cfg.FilterWordsFile)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return fmt.Errorf("failed to read import folder %s: %w", folder, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		files = append(files, filepath.Join(folder, e.Name()))
	}
	if len(files) == 0 {
		return fmt.Errorf("no .txt files in %s", folder)
	}

	ctx, stop := signalContext()
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	reporter := status.NewReporter(os.Stdout)
	imp := &importer{st: st, reporter: reporter, filterWords: filterWords}

	reporter.Startf("import", "importing %d files from %s", len(files), folder)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.ImportConcurrency)
	for _, path := range files {
		g.Go(func() error {
			return imp.importFile(gctx, path)
		})
	}
	err = g.Wait()

	reporter.Summary(int(imp.works.Load()), int(imp.chapters.Load()), int(imp.skipped.Load()))
	return err
}

func (imp *importer) importFile(ctx context.Context, path string) error {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	imp.reporter.Startf("file", "reading %s", filepath.Base(path))

	doc, encoding, err := segment.DecodeFile(path)
	if err != nil {
		imp.skipped.Add(1)
		imp.reporter.Errorf("file", "%s: %v", base, err)
		return nil
	}

	workTitle, author := segment.TitleAuthorFromFilename(base)
	chapters, err := segment.Split(doc)
	if err != nil {
		var noChapters *segment.NoChaptersError
		if errors.As(err, &noChapters) {
			imp.skipped.Add(1)
			imp.reporter.Warnf("file", "%s: no chapter headings found, skipping", base)
			return nil
		}
		return err
	}

	work, err := imp.createWork(ctx, workTitle, author)
	if err != nil {
		return err
	}

	cands, bodies := chapterCandidates(chapters)

	added := 0
	for _, s := range title.Sequence(cands) {
		err := imp.st.CreateChapter(ctx, work.ID, s.Title, cleaner.Clean(bodies[s.Title], imp.filterWords), s.Order)
		switch {
		case err == nil:
			added++
		case errors.Is(err, store.ErrChapterExists):
		default:
			return err
		}
	}

	if err := imp.st.UpdateWorkIntro(ctx, work.ID, fmt.Sprintf("共%d章", added)); err != nil {
		return err
	}

	imp.works.Add(1)
	imp.chapters.Add(int64(added))
	imp.reporter.Successf("file", "%s (%s): %d chapters as %q", base, encoding, added, work.Title)
	return nil
}

// chapterCandidates canonicalizes segmented chapter titles and keeps every
// body. Canonicalization can collapse titles the segmenter considered
// distinct (trailing separators, embedded timestamps), so collisions get
// (n) suffixes rather than losing a chapter.
func chapterCandidates(chapters []segment.RawChapter) ([]title.Candidate, map[string]string) {
	used := make(map[string]bool, len(chapters))
	bodies := make(map[string]string, len(chapters))
	cands := make([]title.Candidate, 0, len(chapters))

	for _, ch := range chapters {
		cand := title.NewCandidate(ch.Title, "")
		if cand.Title == "" {
			continue
		}
		name := cand.Title
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s(%d)", cand.Title, n)
		}
		used[name] = true
		cand.Title = name
		bodies[name] = ch.Body
		cands = append(cands, cand)
	}
	return cands, bodies
}

// createWork inserts a work under the first free variant of the title:
// the title itself, then "title(2)", "title(3)", and so on.
func (imp *importer) createWork(ctx context.Context, workTitle, author string) (*store.Work, error) {
	imp.mu.Lock()
	defer imp.mu.Unlock()

	candidate := workTitle
	for n := 2; ; n++ {
		exists, err := imp.st.WorkTitleExists(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
		candidate = fmt.Sprintf("%s(%d)", workTitle, n)
	}

	return imp.st.CreateWork(ctx, store.NewWork{
		Title:    candidate,
		Author:   author,
		Category: "网络小说",
	})
}
