// Package catalog holds the static tables of published artifacts (agent
// templates, prompt commands, instructions, standards) and expands them into
// the concrete manifest for one installer run.
package catalog
