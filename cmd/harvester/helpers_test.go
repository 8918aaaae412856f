package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdnsg/novel-harvester/internal/config"
)

func TestOpenStore_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cfg, err := resolveConfig("")
	require.NoError(t, err)
	assert.Empty(t, cfg.DatabaseURL)

	_, err = openStore(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database URL required")
}

func TestResolveConfig_EnvFallback(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/harvester_test")
	cfg, err := resolveConfig("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/harvester_test", cfg.DatabaseURL)
	assert.Equal(t, "failures", cfg.LedgerDir)
	assert.Equal(t, 1, cfg.DelayMinSeconds)
}

func TestResolveConfig_FileOverridesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"database_url": "postgres://localhost/fromfile",
		"ledger_dir": "quarantine"
	}`), 0644))

	cfg, err := resolveConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/fromfile", cfg.DatabaseURL)
	assert.Equal(t, "quarantine", cfg.LedgerDir)
	assert.Equal(t, "sources.yaml", cfg.SourcesFile)
}

func TestDelaysFromConfig(t *testing.T) {
	cfg := config.Config{
		DelayMinSeconds:        1,
		DelayMaxSeconds:        5,
		FailureDelayMinSeconds: 3,
		FailureDelayMaxSeconds: 8,
	}
	d := delaysFromConfig(cfg)
	assert.Equal(t, time.Second, d.Min)
	assert.Equal(t, 5*time.Second, d.Max)
	assert.Equal(t, 3*time.Second, d.FailureMin)
	assert.Equal(t, 8*time.Second, d.FailureMax)
}

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"crawl", "replay", "import", "resequence", "retitle", "prune"} {
		assert.True(t, names[want], "command %s not registered", want)
	}
}
