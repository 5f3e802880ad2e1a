package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, slog.LevelWarn, cfg.Level())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vcs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("author: ann\nlog_level: debug\ncache_size: -1\n"), 0644))
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ann", cfg.Author)
	assert.Equal(t, ".vcs", cfg.Store)
	assert.Equal(t, 64, cfg.CacheSize)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vcs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("author: [unclosed"), 0644))
	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Config{Store: "/tmp/x", Author: "bob", LogLevel: "error", CacheSize: 8}
	require.NoError(t, Save(path, cfg))
	back, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv(EnvPath, "/etc/vcs.yaml")
	assert.Equal(t, "/etc/vcs.yaml", Path())
}
