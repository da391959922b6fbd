package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentfoundry/agent-setup/internal/catalog"
	"github.com/agentfoundry/agent-setup/internal/config"
	"github.com/agentfoundry/agent-setup/internal/flagpatch"
	"github.com/agentfoundry/agent-setup/internal/logger"
	"github.com/agentfoundry/agent-setup/internal/provisioner"
)

var errInstallerAlreadyRunning = errors.New("the installer is already running")

// Options are inputs accepted by the installer entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// BaseURL overrides the content host from settings when non-empty.
	BaseURL string
	// InstallRoot overrides the destination tree from settings when non-empty.
	InstallRoot string
	// OverwriteInstructions refreshes existing instruction files and templates.
	OverwriteInstructions bool
	// OverwriteStandards refreshes existing standards files.
	OverwriteStandards bool
	// OverwriteConfig refreshes the installed config file.
	OverwriteConfig bool
	// ClaudeCode enables the Claude Code integration flag and its agent templates.
	ClaudeCode bool
	// Cursor enables the Cursor integration flag.
	Cursor bool
	// GithubCopilot enables the GitHub Copilot integration flag.
	GithubCopilot bool
}

// runner holds the state for a single installation run.
// It is intentionally unexported—call Run(ctx, Options) from callers.
type runner struct {
	cfg     *config.Config              // Effective settings after CLI overrides.
	opts    *Options                    // Raw inputs, kept for flag patching.
	policy  provisioner.OverwritePolicy // Per-category overwrite decisions.
	results []provisioner.Result        // Outcomes collected for the summary.
}

// Run executes the installer lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "agent-setup")

	inst, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	defer inst.cleanup(ctx)

	if err = inst.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Installation failed", "error", err)
		return err
	}

	logger.Info(ctx, "Installation completed")

	return nil
}

// newRunner resolves settings, prepares the install root and writes a marker
// to avoid concurrent runs.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	if opts.InstallRoot != "" {
		cfg.InstallRoot = opts.InstallRoot
	}

	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(cfg.InstallRoot, provisioner.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("create install root: %w", err)
	}

	if IsInstallerRunningNow(ctx, cfg.InstallRoot) {
		return nil, errInstallerAlreadyRunning
	}

	marker, err := os.Create(filepath.Join(cfg.InstallRoot, MarkerFilename))
	if err != nil {
		return nil, fmt.Errorf("create run marker: %w", err)
	}

	if err = marker.Close(); err != nil {
		return nil, err
	}

	return &runner{
		cfg:  cfg,
		opts: opts,
		policy: provisioner.OverwritePolicy{
			provisioner.CategoryInstructions: opts.OverwriteInstructions,
			provisioner.CategoryStandards:    opts.OverwriteStandards,
			provisioner.CategoryConfig:       opts.OverwriteConfig,
			// Templates ship alongside the instruction files and follow
			// the same overwrite decision.
			provisioner.CategoryAgentTemplate:  opts.OverwriteInstructions,
			provisioner.CategoryPromptTemplate: opts.OverwriteInstructions,
		},
	}, nil
}

// Run executes the workflow for this runner instance:
// 1) Create the category directories.
// 2) Expand the catalog into the manifest.
// 3) Provision every artifact.
// 4) Enable the requested integration flags in the installed config.
// 5) Persist settings and report the summary.
func (r *runner) Run(ctx context.Context) error {
	logger.InfoKV(ctx, "Installing into", "root", r.cfg.InstallRoot, "source", r.cfg.BaseURL)

	catalogOpts := catalog.Options{
		BaseURL:     r.cfg.BaseURL,
		InstallRoot: r.cfg.InstallRoot,
		ClaudeCode:  r.opts.ClaudeCode,
		Cursor:      r.opts.Cursor,
	}

	if err := r.createCategoryRoots(catalogOpts); err != nil {
		return err
	}

	manifest, err := catalog.Manifest(catalogOpts)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Provisioning artifacts", "count", len(manifest))

	prov := provisioner.New(provisioner.NewHTTPFetcher(r.cfg.Timeout))

	r.results, err = prov.ProvisionAll(ctx, manifest, r.policy)

	r.printSummary(ctx)

	if err != nil {
		return err
	}

	if err = r.enableIntegrations(ctx); err != nil {
		return err
	}

	r.saveSettings(ctx)

	return nil
}

// createCategoryRoots creates the main category folders. Any failure here is
// fatal to the whole run.
func (r *runner) createCategoryRoots(opts catalog.Options) error {
	for _, root := range catalog.CategoryRoots(opts) {
		if err := os.MkdirAll(root, provisioner.DefaultDirMode); err != nil {
			return fmt.Errorf("create category folder %s: %w", root, err)
		}
	}

	return nil
}

// enableIntegrations patches the requested flags in the installed config.
// A section missing from the config means the installed schema is out of
// sync with this tool version; the operator is told and the run continues.
func (r *runner) enableIntegrations(ctx context.Context) error {
	configPath := filepath.Join(r.cfg.InstallRoot, catalog.ConfigFilename)

	for _, section := range r.requestedIntegrations() {
		logger.InfoKV(ctx, "Enabling integration", "section", section)

		err := flagpatch.SetFlag(configPath, section, true)
		if err == nil {
			continue
		}

		if errors.Is(err, flagpatch.ErrSectionNotFound) {
			logger.WarnKV(ctx, "Integration flag could not be enabled, config schema may be out of sync",
				"section", section, "error", err)

			continue
		}

		return fmt.Errorf("enable %s: %w", section, err)
	}

	return nil
}

// requestedIntegrations returns config section names for the enabled flags,
// in a stable order.
func (r *runner) requestedIntegrations() []string {
	var sections []string

	if r.opts.ClaudeCode {
		sections = append(sections, "claude_code")
	}

	if r.opts.Cursor {
		sections = append(sections, "cursor")
	}

	if r.opts.GithubCopilot {
		sections = append(sections, "github_copilot")
	}

	return sections
}

// saveSettings persists the effective settings for future runs. Best effort;
// config.Save falls back to the default filename when the path is empty.
func (r *runner) saveSettings(ctx context.Context) {
	if err := config.Save(r.opts.ConfigPath, r.cfg); err != nil {
		logger.WarnKV(ctx, "Could not persist settings", "path", r.opts.ConfigPath, "error", err)
		return
	}

	logger.InfoKV(ctx, "Saved settings", "path", r.opts.ConfigPath)
}

// printSummary reports what was written, skipped, or failed.
func (r *runner) printSummary(ctx context.Context) {
	var written, skipped, failed int

	for _, result := range r.results {
		switch result.Status {
		case provisioner.StatusWritten:
			written++
		case provisioner.StatusSkipped:
			skipped++
		case provisioner.StatusFailed:
			failed++
		}
	}

	var builder strings.Builder

	fmt.Fprintf(&builder, "Installation summary: %d written, %d skipped, %d failed", written, skipped, failed)

	if failed > 0 {
		builder.WriteString("\nNot installed:")

		for _, result := range r.results {
			if result.Status != provisioner.StatusFailed {
				continue
			}

			fmt.Fprintf(&builder, "\n%s: %v", result.Artifact.LocalPath, result.Err)
		}
	}

	logger.Info(ctx, builder.String())
}

// cleanup removes the run marker.
func (r *runner) cleanup(ctx context.Context) {
	markerPath := filepath.Join(r.cfg.InstallRoot, MarkerFilename)
	if _, err := os.Stat(markerPath); err == nil {
		_ = os.Remove(markerPath)
	}

	logger.Debug(ctx, "The installer has finished")
}
