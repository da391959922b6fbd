package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentfoundry/agent-setup/internal/catalog"
	"github.com/agentfoundry/agent-setup/internal/service/installer"
)

const hostedConfig = `agent_os_version: 1.4.1

claude_code:
  enabled: false

github_copilot:
  enabled: false

cursor:
  enabled: false
`

// hostedContent builds the full set of files the content host publishes.
func hostedContent() map[string][]byte {
	content := map[string][]byte{
		"/config.yml":                      []byte(hostedConfig),
		"/setup/functions.sh":              []byte("#!/bin/bash\n# shared project setup\n"),
		"/instructions/meta/pre-flight.md": []byte("# Pre-flight\n"),
		"/standards/best-practices.md":     []byte("# Best practices\n"),
		"/standards/code-style.md":         []byte("# Code style\n"),
		"/standards/tech-stack.md":         []byte("# Tech stack\n"),
		"/standards/code-style/css-style.md":        []byte("# CSS\n"),
		"/standards/code-style/html-style.md":       []byte("# HTML\n"),
		"/standards/code-style/javascript-style.md": []byte("# JavaScript\n"),
	}

	for _, name := range catalog.CommandNames() {
		content["/instructions/core/"+name+".md"] = []byte("# " + name + "\n")
		content["/commands/"+name+".md"] = []byte("# /" + name + "\n")
	}

	for _, name := range catalog.AgentNames() {
		content["/claude-code/agents/"+name+".md"] = []byte("# agent " + name + "\n")
	}

	return content
}

// startContentHost serves the provided files, answering 404 for anything else.
func startContentHost(t *testing.T, content map[string][]byte) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := content[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}

		_, _ = w.Write(body)
	}))

	t.Cleanup(ts.Close)

	return ts
}

// TestInstaller_FreshInstall provisions the full tree and enables the
// requested integration flag.
func TestInstaller_FreshInstall(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	root := filepath.Join(dir, "agent-os")
	ts := startContentHost(t, hostedContent())

	options := &installer.Options{
		ConfigPath:  filepath.Join(dir, "settings.yaml"),
		BaseURL:     ts.URL,
		InstallRoot: root,
		ClaudeCode:  true,
	}

	require.NoError(t, installer.Run(context.Background(), options))

	// Instructions, standards and templates are in place.
	for _, name := range catalog.CommandNames() {
		_, err := os.Stat(filepath.Join(root, "instructions", "core", name+".md"))
		require.NoError(t, err)

		_, err = os.Stat(filepath.Join(root, "commands", name+".md"))
		require.NoError(t, err)
	}

	for _, name := range catalog.AgentNames() {
		_, err := os.Stat(filepath.Join(root, "claude-code", "agents", name+".md"))
		require.NoError(t, err)
	}

	// The bootstrap script is executable.
	info, err := os.Stat(filepath.Join(root, "setup", "functions.sh"))
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0o111)

	// Only the requested integration flag was flipped.
	installed, err := os.ReadFile(filepath.Join(root, "config.yml"))
	require.NoError(t, err)
	require.Contains(t, string(installed), "claude_code:\n  enabled: true")
	require.Contains(t, string(installed), "github_copilot:\n  enabled: false")
	require.Contains(t, string(installed), "cursor:\n  enabled: false")

	// The run marker is gone and settings were persisted.
	_, err = os.Stat(filepath.Join(root, installer.MarkerFilename))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(options.ConfigPath)
	require.NoError(t, err)
}

// TestInstaller_RerunPreservesLocalEdits keeps locally edited files when the
// overwrite flags are off, while still refreshing the bootstrap script.
func TestInstaller_RerunPreservesLocalEdits(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	root := filepath.Join(dir, "agent-os")
	ts := startContentHost(t, hostedContent())

	options := &installer.Options{
		ConfigPath:  filepath.Join(dir, "settings.yaml"),
		BaseURL:     ts.URL,
		InstallRoot: root,
	}

	ctx := context.Background()
	require.NoError(t, installer.Run(ctx, options))

	// Edit a standards file and the bootstrap script locally.
	edited := []byte("# my own tech stack\n")
	techStackPath := filepath.Join(root, "standards", "tech-stack.md")
	require.NoError(t, os.WriteFile(techStackPath, edited, 0o644))

	scriptPath := filepath.Join(root, "setup", "functions.sh")
	require.NoError(t, os.WriteFile(scriptPath, []byte("echo tampered\n"), 0o755))

	require.NoError(t, installer.Run(ctx, options))

	// The edited standards file survived the rerun.
	after, err := os.ReadFile(techStackPath)
	require.NoError(t, err)
	require.Equal(t, edited, after)

	// The bootstrap script was refreshed regardless.
	script, err := os.ReadFile(scriptPath)
	require.NoError(t, err)
	require.Equal(t, hostedContent()["/setup/functions.sh"], script)
}

// TestInstaller_OverwriteStandards refreshes standards when asked to.
func TestInstaller_OverwriteStandards(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	root := filepath.Join(dir, "agent-os")
	ts := startContentHost(t, hostedContent())

	options := &installer.Options{
		ConfigPath:  filepath.Join(dir, "settings.yaml"),
		BaseURL:     ts.URL,
		InstallRoot: root,
	}

	ctx := context.Background()
	require.NoError(t, installer.Run(ctx, options))

	techStackPath := filepath.Join(root, "standards", "tech-stack.md")
	require.NoError(t, os.WriteFile(techStackPath, []byte("# local edit\n"), 0o644))

	options.OverwriteStandards = true
	require.NoError(t, installer.Run(ctx, options))

	after, err := os.ReadFile(techStackPath)
	require.NoError(t, err)
	require.Equal(t, hostedContent()["/standards/tech-stack.md"], after)
}

// TestInstaller_OptionalArtifactMissing finishes the run successfully when a
// single agent template is absent on the host.
func TestInstaller_OptionalArtifactMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	root := filepath.Join(dir, "agent-os")

	content := hostedContent()
	missing := "/claude-code/agents/" + catalog.AgentNames()[0] + ".md"
	delete(content, missing)

	ts := startContentHost(t, content)

	options := &installer.Options{
		ConfigPath:  filepath.Join(dir, "settings.yaml"),
		BaseURL:     ts.URL,
		InstallRoot: root,
		ClaudeCode:  true,
	}

	require.NoError(t, installer.Run(context.Background(), options))

	// The missing template was reported, not installed.
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(missing[1:])))
	require.ErrorIs(t, err, os.ErrNotExist)

	// The rest of the templates made it.
	for _, name := range catalog.AgentNames()[1:] {
		_, err = os.Stat(filepath.Join(root, "claude-code", "agents", name+".md"))
		require.NoError(t, err)
	}
}

// TestInstaller_CriticalArtifactMissing aborts the run when the config file
// cannot be fetched.
func TestInstaller_CriticalArtifactMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	content := hostedContent()
	delete(content, "/config.yml")

	ts := startContentHost(t, content)

	options := &installer.Options{
		ConfigPath:  filepath.Join(dir, "settings.yaml"),
		BaseURL:     ts.URL,
		InstallRoot: filepath.Join(dir, "agent-os"),
	}

	require.Error(t, installer.Run(context.Background(), options))
}

// TestInstaller_ConcurrentRunBlocked refuses to start while a fresh run
// marker is present.
func TestInstaller_ConcurrentRunBlocked(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	root := filepath.Join(dir, "agent-os")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, installer.MarkerFilename), nil, 0o644))

	ts := startContentHost(t, hostedContent())

	options := &installer.Options{
		ConfigPath:  filepath.Join(dir, "settings.yaml"),
		BaseURL:     ts.URL,
		InstallRoot: root,
	}

	require.Error(t, installer.Run(context.Background(), options))

	// The foreign marker is left in place for the run that owns it.
	_, err := os.Stat(filepath.Join(root, installer.MarkerFilename))
	require.NoError(t, err)
}
