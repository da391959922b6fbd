package flagpatch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrSectionNotFound is returned when the config file has no section
	// matching the requested flag name, or the section carries no enabled
	// key. Callers treat it as non-fatal: config schema drift should not
	// abort an installation.
	ErrSectionNotFound = errors.New("section not found")

	// errUnparsableResult guards against a patch that would corrupt the file.
	errUnparsableResult = errors.New("patched config does not parse")
)

// SetFlag rewrites the boolean on the first `enabled:` line inside the named
// top-level section of the YAML file at path. Every other line, including
// `enabled:` lines of other sections, is left byte-identical. The operation
// is idempotent.
//
// The rewrite goes through a temp file renamed over the original, so a crash
// mid-patch never leaves a half-written config behind.
func SetFlag(path, section string, value bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	patched, err := patchLines(string(contents), section, value)
	if err != nil {
		return err
	}

	// Sanity check before replacing the file: the span scanner is
	// line-oriented, not a YAML parser, so refuse any rewrite that would
	// leave the config unparsable.
	var doc any
	if err = yaml.Unmarshal([]byte(patched), &doc); err != nil {
		return fmt.Errorf("%w: %v", errUnparsableResult, err)
	}

	return replaceFile(path, []byte(patched), info.Mode().Perm())
}

// patchLines performs the span-scoped substitution on the file content.
func patchLines(contents, section string, value bool) (string, error) {
	lines := strings.SplitAfter(contents, "\n")

	headerIndex := -1

	for i, line := range lines {
		if isSectionHeader(line, section) {
			headerIndex = i
			break
		}
	}

	if headerIndex < 0 {
		return "", fmt.Errorf("section %q: %w", section, ErrSectionNotFound)
	}

	// The span runs from the header to the next top-level header or EOF.
	end := len(lines)

	for i := headerIndex + 1; i < len(lines); i++ {
		if isTopLevelKey(lines[i]) {
			end = i
			break
		}
	}

	for i := headerIndex + 1; i < end; i++ {
		rewritten, ok := rewriteEnabledLine(lines[i], value)
		if !ok {
			continue
		}

		lines[i] = rewritten

		return strings.Join(lines, ""), nil
	}

	return "", fmt.Errorf("section %q has no enabled key: %w", section, ErrSectionNotFound)
}

// isSectionHeader reports whether the line is exactly `name:` at column 0.
func isSectionHeader(line, name string) bool {
	content := strings.TrimRight(line, "\r\n")
	if content != strings.TrimLeft(content, " \t") {
		return false
	}

	return strings.TrimRight(content, " \t") == name+":"
}

// isTopLevelKey reports whether the line starts a new top-level mapping key.
// Only column-0 keys terminate a section span; indented mappings inside a
// section never do.
func isTopLevelKey(line string) bool {
	content := strings.TrimRight(line, "\r\n")
	if content == "" {
		return false
	}

	switch content[0] {
	case ' ', '\t', '#', '-':
		return false
	}

	colon := strings.IndexByte(content, ':')

	return colon > 0
}

// rewriteEnabledLine replaces the value token of an `enabled:` line,
// preserving indentation, spacing, trailing comments and the line ending.
func rewriteEnabledLine(line string, value bool) (string, bool) {
	content := strings.TrimRight(line, "\r\n")
	ending := line[len(content):]

	trimmed := strings.TrimLeft(content, " \t")
	indent := content[:len(content)-len(trimmed)]

	rest, found := strings.CutPrefix(trimmed, "enabled:")
	if !found {
		return "", false
	}

	token := strings.TrimLeft(rest, " \t")
	gap := rest[:len(rest)-len(token)]

	suffix := ""
	if cut := strings.IndexAny(token, " \t#"); cut >= 0 {
		suffix = token[cut:]
		token = token[:cut]
	}

	if !isBoolLiteral(token) {
		return "", false
	}

	if gap == "" {
		gap = " "
	}

	return indent + "enabled:" + gap + strconv.FormatBool(value) + suffix + ending, true
}

// isBoolLiteral accepts the boolean spellings YAML allows for this key.
func isBoolLiteral(token string) bool {
	switch strings.ToLower(token) {
	case "true", "false", "yes", "no", "on", "off":
		return true
	default:
		return false
	}
}

// replaceFile writes data to a temp file in the destination's directory and
// renames it over the original, preserving the original permissions.
func replaceFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".agent-setup-patch-*")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}

	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("write temp config: %w", err)
	}

	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("close temp config: %w", err)
	}

	if err = os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("chmod temp config: %w", err)
	}

	if err = os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("replace config: %w", err)
	}

	return nil
}
