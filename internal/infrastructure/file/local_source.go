package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrOutsideBaseDir = errors.New("path escapes import directory")

// LocalSource opens import documents under BaseDir. Paths that resolve
// outside of it are rejected, absolute ones included.
type LocalSource struct {
	BaseDir string
}

func NewLocalSource(baseDir string) *LocalSource {
	if baseDir == "" {
		baseDir = "."
	}
	return &LocalSource{BaseDir: baseDir}
}

func (s *LocalSource) Open(ctx context.Context, sourcePath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.resolve(sourcePath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file %s: %w", sourcePath, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("open file %s: not a regular file", sourcePath)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", sourcePath, err)
	}
	return file, nil
}

func (s *LocalSource) resolve(sourcePath string) (string, error) {
	base, err := filepath.Abs(s.BaseDir)
	if err != nil {
		return "", fmt.Errorf("resolve import directory: %w", err)
	}

	path := sourcePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, sourcePath)
	}
	path = filepath.Clean(path)
	if !within(base, path) {
		return "", fmt.Errorf("%w: %s", ErrOutsideBaseDir, sourcePath)
	}

	// Symlinks are followed on both sides so a link inside the base dir
	// cannot point at a file outside of it.
	realBase, err := filepath.EvalSymlinks(base)
	if err != nil {
		return "", fmt.Errorf("resolve import directory: %w", err)
	}
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("stat file %s: %w", sourcePath, err)
	}
	if !within(realBase, realPath) {
		return "", fmt.Errorf("%w: %s", ErrOutsideBaseDir, sourcePath)
	}
	return realPath, nil
}

func within(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
