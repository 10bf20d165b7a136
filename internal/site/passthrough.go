package site

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ziadkadry99/dirsite/internal/walker"
)

// copyPassthrough copies files verbatim into outputDir, keeping their
// relative paths. Files whose content is already in place are skipped.
// It returns how many files were written.
func copyPassthrough(files []walker.File, outputDir string) (int, error) {
	copied := 0
	for _, f := range files {
		dst := filepath.Join(outputDir, filepath.FromSlash(f.RelPath))
		if walker.SameContent(dst, f.ContentHash) {
			continue
		}
		if err := copyFile(f.Path, dst); err != nil {
			return copied, fmt.Errorf("copying %s: %w", f.RelPath, err)
		}
		copied++
	}
	return copied, nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
