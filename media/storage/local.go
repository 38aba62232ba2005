package storage

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"

	apperrors "github.com/leeforge/compact/errors"
)

const tmpSuffix = ".tmp"

// EnsureDir creates path and its parents. An existing directory is success;
// anything else at path is OutputUnavailable.
func EnsureDir(path string) error {
	mkErr := os.MkdirAll(path, 0o755)

	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return nil
	}
	if mkErr != nil {
		return apperrors.NewOutputUnavailable(path, mkErr)
	}
	if err != nil {
		return apperrors.NewOutputUnavailable(path, err)
	}
	return apperrors.NewOutputUnavailable(path, nil).WithMessage("output path exists and is not a directory")
}

// LocalProvider writes outputs under a base directory.
type LocalProvider struct {
	basePath string
}

// NewLocalProvider does not touch the filesystem; call EnsureBase first.
func NewLocalProvider(basePath string) *LocalProvider {
	return &LocalProvider{basePath: basePath}
}

func (p *LocalProvider) BasePath() string {
	return p.basePath
}

// EnsureBase materializes the base directory.
func (p *LocalProvider) EnsureBase() error {
	return EnsureDir(p.basePath)
}

// Path returns the output path for name.
func (p *LocalProvider) Path(name string) string {
	return filepath.Join(p.basePath, filepath.Base(name))
}

// Write streams fill into <path>.tmp and renames it over path once fill
// succeeds, so a failed item never leaves a partial output. It returns the
// final path and its size. Errors from fill are returned unchanged.
func (p *LocalProvider) Write(ctx context.Context, name string, fill func(io.Writer) error) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	target := p.Path(name)
	tmp := target + tmpSuffix

	f, err := os.Create(tmp)
	if err != nil {
		return "", 0, apperrors.NewOutputUnavailable(tmp, err)
	}

	bw := bufio.NewWriter(f)
	if err := fill(bw); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", 0, err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", 0, apperrors.NewOutputUnavailable(tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", 0, apperrors.NewOutputUnavailable(tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", 0, apperrors.NewOutputUnavailable(target, err)
	}

	info, err := os.Stat(target)
	if err != nil {
		return target, 0, apperrors.NewOutputUnavailable(target, err)
	}
	return target, info.Size(), nil
}

// Open opens a written output for reading, e.g. to mirror it.
func (p *LocalProvider) Open(name string) (*os.File, error) {
	return os.Open(p.Path(name))
}

func (p *LocalProvider) Name() string {
	return "local"
}
