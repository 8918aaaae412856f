// Package source loads per-site crawl rules from a YAML file. Each rule
// names a listing URL and the CSS selectors that locate work entries,
// chapter lists, and chapter bodies on that site.
package source

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Selectors locate the pieces of a source site's pages.
type Selectors struct {
	// ListingItem matches work links on the listing page.
	ListingItem string `yaml:"listing_item"`
	// NextPage matches the pagination link on the listing page.
	NextPage string `yaml:"next_page"`
	// ChapterList matches chapter links on a work's index page.
	ChapterList string `yaml:"chapter_list"`
	// ChapterWait is waited for before reading a work's index page.
	ChapterWait string `yaml:"chapter_wait"`
	// Body matches the chapter body container on a chapter page.
	Body string `yaml:"body"`
}

// Rule describes one source site.
type Rule struct {
	Key        string    `yaml:"key"`
	Name       string    `yaml:"name"`
	Enabled    *bool     `yaml:"enabled"`
	ListingURL string    `yaml:"listing_url"`
	MaxPages   int       `yaml:"max_pages"`
	Category   string    `yaml:"category"`
	Selectors  Selectors `yaml:"selectors"`
	// TimeoutSeconds bounds a single page fetch.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Timeout returns the per-fetch timeout.
func (r *Rule) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

func (r *Rule) normalizeAndValidate() error {
	r.Key = strings.TrimSpace(r.Key)
	r.Name = strings.TrimSpace(r.Name)
	r.ListingURL = strings.TrimSpace(r.ListingURL)

	if r.Key == "" {
		return fmt.Errorf("key is required")
	}
	if r.ListingURL == "" {
		return fmt.Errorf("listing_url is required")
	}
	if r.Name == "" {
		r.Name = r.Key
	}
	if r.MaxPages <= 0 {
		r.MaxPages = 5
	}
	if r.Category == "" {
		r.Category = "网络小说"
	}
	if r.TimeoutSeconds <= 0 {
		r.TimeoutSeconds = 30
	}

	if strings.TrimSpace(r.Selectors.ListingItem) == "" {
		return fmt.Errorf("selectors.listing_item is required")
	}
	if strings.TrimSpace(r.Selectors.ChapterList) == "" {
		return fmt.Errorf("selectors.chapter_list is required")
	}
	if strings.TrimSpace(r.Selectors.Body) == "" {
		return fmt.Errorf("selectors.body is required")
	}
	return nil
}

func (r *Rule) isEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Load reads rules from a YAML file, drops disabled entries, and validates
// the rest. Duplicate keys are an error.
func Load(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file %s: %w", path, err)
	}

	var doc struct {
		Sources []Rule `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}
	if len(doc.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s defines no sources", path)
	}

	seen := make(map[string]bool)
	rules := make([]Rule, 0, len(doc.Sources))
	for i := range doc.Sources {
		r := doc.Sources[i]
		if !r.isEnabled() {
			continue
		}
		if err := r.normalizeAndValidate(); err != nil {
			return nil, fmt.Errorf("source %d (%q): %w", i, r.Key, err)
		}
		if seen[r.Key] {
			return nil, fmt.Errorf("duplicate source key %q", r.Key)
		}
		seen[r.Key] = true
		rules = append(rules, r)
	}
	return rules, nil
}
