// Package installer orchestrates one installation run: it resolves settings,
// guards against concurrent runs, creates the category folders, provisions
// every artifact of the manifest, enables the requested integration flags in
// the installed config, and reports a summary.
package installer
