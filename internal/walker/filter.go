package walker

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes are directory names never descended into.
var DefaultExcludes = []string{
	".git",
	"node_modules",
	".dirsite",
	"_site",
	".idea",
	".vscode",
	".DS_Store",
}

// skipDir reports whether traversal should skip a directory. Besides the
// default excludes, directories starting with "_" or "." hold layouts,
// data and tooling rather than site content.
func skipDir(name string, keepHidden bool) bool {
	for _, excl := range DefaultExcludes {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	if keepHidden {
		return false
	}
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}

// MatchesInclude returns true if the given relative path matches any of the
// include patterns. If patterns is empty, everything is included.
func MatchesInclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return matchesAny(relPath, patterns)
}

// MatchesExclude returns true if the given relative path matches any of the
// exclude patterns. If patterns is empty, nothing is excluded.
func MatchesExclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	return matchesAny(relPath, patterns)
}

// matchesAny checks relPath against doublestar patterns ("css/**",
// "img/*.png"). A bare directory name ("css") matches everything below it.
func matchesAny(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)

	for _, pattern := range patterns {
		pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
		if pattern == "" {
			continue
		}
		if matched, err := doublestar.Match(pattern, normalized); err == nil && matched {
			return true
		}
		if !strings.ContainsAny(pattern, "*?[{") {
			if strings.HasPrefix(normalized, strings.TrimSuffix(pattern, "/")+"/") {
				return true
			}
		}
	}
	return false
}
