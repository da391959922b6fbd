package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentfoundry/agent-setup/internal/config"
	"github.com/agentfoundry/agent-setup/internal/logger"
	"github.com/agentfoundry/agent-setup/internal/service/installer"
	"github.com/agentfoundry/agent-setup/internal/version"
)

var (
	// configPath to the settings YAML file.
	configPath string
	// baseURL overrides the content host from settings.
	baseURL string
	// installRoot overrides the destination tree from settings.
	installRoot string
	// logLevel selects the minimum level for console output.
	logLevel string

	overwriteInstructions bool
	overwriteStandards    bool
	overwriteConfig       bool

	claudeCode    bool
	cursorEnabled bool
	githubCopilot bool

	// rootCmd represents the base command that installs the instruction tree.
	rootCmd = &cobra.Command{
		Use:   "agent-setup",
		Short: "Install agent instructions, standards and templates from the content host",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			} else {
				return fmt.Errorf("unknown log level: %s", logLevel)
			}

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &installer.Options{
				ConfigPath:            configPath,
				BaseURL:               baseURL,
				InstallRoot:           installRoot,
				OverwriteInstructions: overwriteInstructions,
				OverwriteStandards:    overwriteStandards,
				OverwriteConfig:       overwriteConfig,
				ClaudeCode:            claudeCode,
				Cursor:                cursorEnabled,
				GithubCopilot:         githubCopilot,
			}

			return installer.Run(ctx, options)
		},
	}
)

// Execute runs the agent-setup CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	flags := rootCmd.Flags()

	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to settings file")
	flags.StringVar(&baseURL, "base-url", "", "content host URL (overrides settings)")
	flags.StringVar(&installRoot, "install-root", "", "destination directory (overrides settings)")
	flags.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error, fatal)")

	flags.BoolVar(&overwriteInstructions, "overwrite-instructions", false, "overwrite existing instruction files and templates")
	flags.BoolVar(&overwriteStandards, "overwrite-standards", false, "overwrite existing standards files")
	flags.BoolVar(&overwriteConfig, "overwrite-config", false, "overwrite the installed config file")

	flags.BoolVar(&claudeCode, "claude-code", false, "enable the Claude Code integration and install its agent templates")
	flags.BoolVar(&cursorEnabled, "cursor", false, "enable the Cursor integration")
	flags.BoolVar(&githubCopilot, "github-copilot", false, "enable the GitHub Copilot integration")

	// Historic spellings kept as hidden aliases.
	flags.BoolVar(&claudeCode, "claude", false, "alias for --claude-code")
	flags.BoolVar(&claudeCode, "claude_code", false, "alias for --claude-code")
	flags.BoolVar(&cursorEnabled, "cursor-cli", false, "alias for --cursor")

	for _, alias := range []string{"claude", "claude_code", "cursor-cli"} {
		_ = flags.MarkHidden(alias)
	}
}
