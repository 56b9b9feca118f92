// Package workspace holds path helpers for the directories agents run in:
// normalizing user input, deriving display names, and suggesting candidates
// for the spawn wizard.
package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// FallbackTabName is used when a workspace path yields no usable basename,
// e.g. "/" or an empty string.
const FallbackTabName = "workspace"

// Basename returns the final path component of path, or "" when there is
// none. Trailing separators are ignored.
func Basename(path string) string {
	trimmed := strings.TrimRight(path, string(filepath.Separator))
	if trimmed == "" {
		return ""
	}
	base := filepath.Base(trimmed)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return base
}

// DefaultTabName derives the tab name for a workspace: its basename, or
// FallbackTabName when the path has none.
func DefaultTabName(path string) string {
	if base := Basename(path); base != "" {
		return base
	}
	return FallbackTabName
}

// Resolve expands a leading "~" and converts path to an absolute, cleaned
// form. A relative path is resolved against the current working directory.
func Resolve(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// Truncate shortens s for fixed-width display, replacing the removed middle
// with "…". Width counts runes, not bytes.
func Truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	head := (width - 1) / 2
	tail := width - 1 - head
	return string(runes[:head]) + "…" + string(runes[len(runes)-tail:])
}

// Suggestions fuzzy-matches input against the subdirectories of the
// directories in roots and returns up to limit absolute paths, best match
// first. An empty input returns the candidates in lexical order.
func Suggestions(input string, roots []string, limit int) []string {
	var candidates []string
	seen := make(map[string]bool)
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			p := filepath.Join(root, e.Name())
			if !seen[p] {
				seen[p] = true
				candidates = append(candidates, p)
			}
		}
	}
	sort.Strings(candidates)

	if strings.TrimSpace(input) == "" {
		if len(candidates) > limit {
			candidates = candidates[:limit]
		}
		return candidates
	}

	matches := fuzzy.Find(input, candidates)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, candidates[m.Index])
		if len(out) == limit {
			break
		}
	}
	return out
}
