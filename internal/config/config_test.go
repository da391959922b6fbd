package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing base URL.
	cfg := new(Config)

	err := Validate(cfg)
	require.Error(t, err)

	// Bad base URL.
	cfg = &Config{
		BaseURL:     "::not-a-url",
		InstallRoot: "/tmp/agent-os",
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Missing install root.
	cfg = &Config{
		BaseURL: "https://example.com/content",
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Okay; timeout defaulted.
	cfg = &Config{
		BaseURL:     "https://example.com/content",
		InstallRoot: "/tmp/agent-os",
	}

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		BaseURL:     "https://updates.local/content",
		InstallRoot: filepath.Join(dir, "root"),
		Timeout:     10 * time.Second,
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.BaseURL, loaded.BaseURL)
	require.Equal(t, cfg.InstallRoot, loaded.InstallRoot)
	require.Equal(t, cfg.Timeout, loaded.Timeout)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoadOrDefault falls back to defaults when the settings file is absent.
func TestLoadOrDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, cfg.BaseURL)
	require.NotEmpty(t, cfg.InstallRoot)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
}
