// Package flagpatch toggles named integration flags inside the installed
// config file.
//
// The patch is a line-span text substitution, not a structured YAML rewrite:
// the first `enabled:` line inside the matching top-level section is the only
// line that changes, so hand-maintained formatting and comments elsewhere in
// the file survive byte-for-byte.
package flagpatch
