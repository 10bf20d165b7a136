// Package walker lists the files of a site tree: the source directory the
// generator reads, the directories the live-reload watcher follows, and the
// built output that publish uploads.
package walker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File holds metadata about a single file discovered during traversal.
type File struct {
	Path        string // Absolute path on disk.
	RelPath     string // Slash-separated path relative to the root.
	Size        int64
	Kind        Kind
	ContentHash string // SHA-256 hex digest of the file content.
}

// Config controls the behaviour of Walk.
type Config struct {
	RootDir string
	Include []string // Glob patterns; only matching files are returned.
	Exclude []string // Glob patterns; matching files are skipped.
	// KeepHidden keeps directories starting with "_" or "." (other than the
	// default excludes). Output trees use it; source trees do not.
	KeepHidden bool
}

// Walk traverses the tree rooted at cfg.RootDir and returns every regular
// file that passes filtering, sorted by RelPath. A missing root yields no
// files and no error.
func Walk(cfg Config) ([]File, error) {
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	ignore := loadIgnoreFile(filepath.Join(root, ".gitignore"))

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && skipDir(d.Name(), cfg.KeepHidden) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !cfg.KeepHidden && strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if matchesIgnore(relPath, ignore) {
			return nil
		}
		if !MatchesInclude(relPath, cfg.Include) || MatchesExclude(relPath, cfg.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		hash, err := hashFile(path)
		if err != nil {
			return fmt.Errorf("hashing %s: %w", relPath, err)
		}

		files = append(files, File{
			Path:        path,
			RelPath:     relPath,
			Size:        info.Size(),
			Kind:        DetectKind(d.Name()),
			ContentHash: hash,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// Dirs returns root and every directory under it that Walk would descend
// into. The live-reload watcher registers each one.
func Dirs(rootDir string) ([]string, error) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}
	var dirs []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name(), false) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: listing directories: %w", err)
	}
	return dirs, nil
}

// SameContent reports whether the file at path exists and hashes to hash.
func SameContent(path, hash string) bool {
	got, err := hashFile(path)
	return err == nil && got == hash
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// loadIgnoreFile reads a .gitignore file and returns its non-empty,
// non-comment lines as patterns.
func loadIgnoreFile(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		patterns = append(patterns, strings.TrimSuffix(strings.TrimPrefix(line, "/"), "/"))
	}
	return patterns
}

// matchesIgnore applies gitignore-style patterns: a pattern without a slash
// matches any path component, one with a slash matches from the root.
func matchesIgnore(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if !strings.Contains(pattern, "/") {
			for _, part := range strings.Split(relPath, "/") {
				if matched, _ := filepath.Match(pattern, part); matched {
					return true
				}
			}
			continue
		}
		if matchesAny(relPath, []string{pattern, pattern + "/**"}) {
			return true
		}
	}
	return false
}
