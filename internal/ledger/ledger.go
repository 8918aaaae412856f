// Package ledger persists per-work records of chapter candidates that
// failed to fetch after exhausting retries. One JSON file per work,
// replaced atomically on every write, replayable by a later run.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tdnsg/novel-harvester/internal/schemas"
	"github.com/tdnsg/novel-harvester/internal/title"
	rootschemas "github.com/tdnsg/novel-harvester/schemas"
)

// Entry is one quarantined candidate.
type Entry struct {
	Title        string     `json:"title"`
	URL          string     `json:"url"`
	Failures     int        `json:"failures,omitempty"`
	LastFailedAt *time.Time `json:"last_failed_at,omitempty"`
}

// Ledger manages the failure-record directory.
type Ledger struct {
	dir string
	now func() time.Time
}

// New creates a Ledger rooted at dir, creating it if needed.
func New(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory %s: %w", dir, err)
	}
	return &Ledger{dir: dir, now: time.Now}, nil
}

var unsafeFilenameRe = regexp.MustCompile(`[\\/*?:"<>|]`)

// SafeFilename sanitizes a work title into a usable file name.
func SafeFilename(workTitle string) string {
	return unsafeFilenameRe.ReplaceAllString(workTitle, "_")
}

func (l *Ledger) path(workTitle string) string {
	return filepath.Join(l.dir, SafeFilename(workTitle)+".json")
}

// Load reads the ledger entries for a work. A missing file is an empty
// ledger. File contents are schema-validated; a corrupt file is an error,
// never a partial read.
func (l *Ledger) Load(workTitle string) ([]Entry, error) {
	data, err := os.ReadFile(l.path(workTitle))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ledger for %q: %w", workTitle, err)
	}

	if err := schemas.ValidateBytes(rootschemas.FailureLedger, data); err != nil {
		return nil, fmt.Errorf("ledger for %q is invalid: %w", workTitle, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse ledger for %q: %w", workTitle, err)
	}
	return entries, nil
}

// Record merges failed candidates into the work's ledger, deduplicated by
// source URL. A candidate already present has its failure count incremented
// instead of being duplicated.
func (l *Ledger) Record(workTitle string, failed []title.Candidate) error {
	if len(failed) == 0 {
		return nil
	}

	entries, err := l.Load(workTitle)
	if err != nil {
		return err
	}

	byURL := make(map[string]int, len(entries))
	for i, e := range entries {
		byURL[e.URL] = i
	}

	now := l.now()
	for _, c := range failed {
		if i, ok := byURL[c.URL]; ok {
			entries[i].Failures++
			entries[i].LastFailedAt = &now
			continue
		}
		byURL[c.URL] = len(entries)
		entries = append(entries, Entry{
			Title:        c.Title,
			URL:          c.URL,
			Failures:     1,
			LastFailedAt: &now,
		})
	}

	return l.Rewrite(workTitle, entries)
}

// Rewrite replaces the work's ledger with entries, atomically. An empty set
// removes the ledger file entirely.
func (l *Ledger) Rewrite(workTitle string, entries []Entry) error {
	if len(entries) == 0 {
		return l.Remove(workTitle)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger for %q: %w", workTitle, err)
	}

	path := l.path(workTitle)
	tmp, err := os.CreateTemp(l.dir, ".ledger-*")
	if err != nil {
		return fmt.Errorf("failed to create ledger temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write ledger for %q: %w", workTitle, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close ledger temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace ledger for %q: %w", workTitle, err)
	}
	return nil
}

// Remove deletes the work's ledger file if present.
func (l *Ledger) Remove(workTitle string) error {
	err := os.Remove(l.path(workTitle))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove ledger for %q: %w", workTitle, err)
	}
	return nil
}

// Works returns the sanitized work names that currently have ledger files.
// Names are SafeFilename renditions of work titles; match against the store
// by applying SafeFilename to each stored title.
func (l *Ledger) Works() ([]string, error) {
	dirents, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger directory: %w", err)
	}

	var names []string
	for _, d := range dirents {
		name := d.Name()
		if d.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	return names, nil
}
