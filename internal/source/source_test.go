package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSources(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validSources = `
sources:
  - key: xqbj
    name: XQBJ
    listing_url: https://example.com/list.html
    max_pages: 3
    selectors:
      listing_item: ".novel-item a"
      next_page: ".pagination .next"
      chapter_list: ".list a"
      chapter_wait: ".list"
      body: ".novel-body"
  - key: disabled-site
    enabled: false
    listing_url: https://other.example.com/
    selectors:
      listing_item: "a"
      chapter_list: "a"
      body: ".content"
`

func TestLoad(t *testing.T) {
	rules, err := Load(writeSources(t, validSources))
	require.NoError(t, err)
	require.Len(t, rules, 1)

	r := rules[0]
	assert.Equal(t, "xqbj", r.Key)
	assert.Equal(t, "XQBJ", r.Name)
	assert.Equal(t, 3, r.MaxPages)
	assert.Equal(t, ".novel-body", r.Selectors.Body)
	assert.Equal(t, "网络小说", r.Category)
	assert.Equal(t, 30*time.Second, r.Timeout())
}

func TestLoad_Defaults(t *testing.T) {
	rules, err := Load(writeSources(t, `
sources:
  - key: s1
    listing_url: https://example.com/
    selectors:
      listing_item: "a.item"
      chapter_list: "a.ch"
      body: ".body"
`))
	require.NoError(t, err)
	require.Len(t, rules, 1)

	assert.Equal(t, "s1", rules[0].Name)
	assert.Equal(t, 5, rules[0].MaxPages)
	assert.Equal(t, 30, rules[0].TimeoutSeconds)
}

func TestLoad_MissingRequiredField(t *testing.T) {
	_, err := Load(writeSources(t, `
sources:
  - key: broken
    listing_url: https://example.com/
    selectors:
      listing_item: "a"
      chapter_list: "a"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selectors.body")
}

func TestLoad_DuplicateKey(t *testing.T) {
	_, err := Load(writeSources(t, `
sources:
  - key: dup
    listing_url: https://a.example.com/
    selectors: {listing_item: a, chapter_list: a, body: b}
  - key: dup
    listing_url: https://b.example.com/
    selectors: {listing_item: a, chapter_list: a, body: b}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate source key")
}

func TestLoad_EmptyFile(t *testing.T) {
	_, err := Load(writeSources(t, "sources: []\n"))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
