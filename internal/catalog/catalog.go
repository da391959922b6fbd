package catalog

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"

	"github.com/agentfoundry/agent-setup/internal/provisioner"
)

// Well-known destinations inside the install root.
const (
	// ConfigFilename is the installed tool config carrying the integration flags.
	ConfigFilename = "config.yml"

	// FunctionsScriptPath is the shared project bootstrap script. It is
	// always refreshed because it must stay in sync with the installed
	// version.
	FunctionsScriptPath = "setup/functions.sh"
)

// AgentNames lists the agent templates published by the content host.
func AgentNames() []string {
	return []string{
		"context-fetcher",
		"date-checker",
		"file-creator",
		"git-workflow",
		"project-manager",
		"test-runner",
	}
}

// CommandNames lists the prompt command templates. Each also has a core
// instruction file of the same name.
func CommandNames() []string {
	return []string{
		"analyze-product",
		"create-spec",
		"create-tasks",
		"execute-tasks",
		"plan-product",
	}
}

// StandardsFiles lists the top-level standards documents.
func StandardsFiles() []string {
	return []string{
		"best-practices.md",
		"code-style.md",
		"tech-stack.md",
	}
}

// CodeStyleFiles lists the per-language style documents under
// standards/code-style.
func CodeStyleFiles() []string {
	return []string{
		"css-style.md",
		"html-style.md",
		"javascript-style.md",
	}
}

// Options select which integration-specific artifacts join the manifest.
type Options struct {
	// BaseURL is the root URL of the content host.
	BaseURL string
	// InstallRoot is the local directory tree artifacts are placed into.
	InstallRoot string
	// ClaudeCode adds the agent templates and the prompt command templates.
	ClaudeCode bool
	// Cursor adds the prompt command templates.
	Cursor bool
}

// wantsCommands reports whether any requested integration consumes the
// prompt command templates.
func (o Options) wantsCommands() bool {
	return o.ClaudeCode || o.Cursor
}

// Manifest expands the static catalog into the ordered artifact sequence for
// one run. Foundational artifacts (the config file and the bootstrap script)
// are marked critical; individual templates are not.
func Manifest(opts Options) ([]provisioner.Artifact, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	var manifest []provisioner.Artifact

	add := func(relPath string, category provisioner.Category, artifact provisioner.Artifact) {
		artifact.RemoteURL = joinURL(base, relPath)
		artifact.LocalPath = filepath.Join(opts.InstallRoot, filepath.FromSlash(relPath))
		artifact.Category = category
		manifest = append(manifest, artifact)
	}

	// Workflow instructions: one core file per command, plus the meta
	// pre-flight checklist.
	for _, name := range CommandNames() {
		add("instructions/core/"+name+".md", provisioner.CategoryInstructions, provisioner.Artifact{})
	}

	add("instructions/meta/pre-flight.md", provisioner.CategoryInstructions, provisioner.Artifact{})

	for _, name := range StandardsFiles() {
		add("standards/"+name, provisioner.CategoryStandards, provisioner.Artifact{})
	}

	for _, name := range CodeStyleFiles() {
		add("standards/code-style/"+name, provisioner.CategoryStandards, provisioner.Artifact{})
	}

	add(ConfigFilename, provisioner.CategoryConfig, provisioner.Artifact{Critical: true})

	add(FunctionsScriptPath, provisioner.CategoryProjectScript, provisioner.Artifact{
		Critical:       true,
		ForceOverwrite: true,
		Executable:     true,
	})

	if opts.wantsCommands() {
		for _, name := range CommandNames() {
			add("commands/"+name+".md", provisioner.CategoryPromptTemplate, provisioner.Artifact{})
		}
	}

	if opts.ClaudeCode {
		for _, name := range AgentNames() {
			add("claude-code/agents/"+name+".md", provisioner.CategoryAgentTemplate, provisioner.Artifact{})
		}
	}

	return manifest, nil
}

// CategoryRoots returns the directories created up front under the install
// root. Failure to create any of them is fatal to the run.
func CategoryRoots(opts Options) []string {
	roots := []string{
		"instructions/core",
		"instructions/meta",
		"standards/code-style",
		"setup",
	}

	if opts.wantsCommands() {
		roots = append(roots, "commands")
	}

	if opts.ClaudeCode {
		roots = append(roots, "claude-code/agents")
	}

	paths := make([]string, 0, len(roots))
	for _, root := range roots {
		paths = append(paths, filepath.Join(opts.InstallRoot, filepath.FromSlash(root)))
	}

	return paths
}

// joinURL composes the artifact URL, normalizing duplicate slashes in the path.
func joinURL(base *url.URL, relPath string) string {
	joined := *base
	joined.Path = path.Join(joined.Path, relPath)

	return joined.String()
}
