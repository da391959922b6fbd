package installer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestIsInstallerRunningNow covers the marker lifecycle: absent, fresh, stale.
func TestIsInstallerRunningNow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	// No marker yet.
	require.False(t, IsInstallerRunningNow(ctx, dir))

	// Fresh marker blocks a second run.
	markerPath := filepath.Join(dir, MarkerFilename)
	require.NoError(t, os.WriteFile(markerPath, nil, 0o644))
	require.True(t, IsInstallerRunningNow(ctx, dir))

	// Stale marker is cleaned up and no longer blocks.
	stale := time.Now().Add(-2 * markerLifetime)
	require.NoError(t, os.Chtimes(markerPath, stale, stale))
	require.False(t, IsInstallerRunningNow(ctx, dir))

	_, err := os.Stat(markerPath)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRequestedIntegrations keeps a stable section order for patching.
func TestRequestedIntegrations(t *testing.T) {
	t.Parallel()

	r := &runner{opts: &Options{ClaudeCode: true, Cursor: true, GithubCopilot: true}}
	require.Equal(t, []string{"claude_code", "cursor", "github_copilot"}, r.requestedIntegrations())

	r = &runner{opts: &Options{Cursor: true}}
	require.Equal(t, []string{"cursor"}, r.requestedIntegrations())

	r = &runner{opts: &Options{}}
	require.Empty(t, r.requestedIntegrations())
}
