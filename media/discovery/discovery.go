package discovery

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	apperrors "github.com/leeforge/compact/errors"
	"github.com/leeforge/compact/logging"
	"github.com/leeforge/compact/media/quality"
	"go.uber.org/zap"
)

// WorkItem is one source file and the output path it is written to.
type WorkItem struct {
	Index  int            `json:"index"`
	Name   string         `json:"name"`
	Source string         `json:"source"`
	Output string         `json:"output"`
	Format quality.Format `json:"format"`
}

// Options controls how the work set is resolved.
type Options struct {
	// File, when set, is the only item; it is not checked for existence.
	File string
	// SourceDir is listed when File is empty.
	SourceDir string
	// OutputDir is the root every item's output path is joined onto.
	OutputDir string
	// Extensions are matched case-sensitively, without the leading dot.
	Extensions []string

	Logger logging.Logger
}

// Discover resolves the work set. Only a failure to list SourceDir is an error;
// entries that are not regular files or have other extensions are skipped.
func Discover(opts Options) ([]WorkItem, error) {
	if opts.File != "" {
		return []WorkItem{NewWorkItem(0, opts.File, opts.OutputDir)}, nil
	}

	dir := opts.SourceDir
	if dir == "" {
		dir = "."
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = quality.DefaultExtensions
	}
	log := opts.Logger
	if log == nil {
		log = logging.Global()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.NewDiscovery(dir, err)
	}

	var items []WorkItem
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if !Matches(path, exts) {
			log.Debug("skip: extension not selected", zap.String("file", entry.Name()))
			continue
		}
		// Stat follows symlinks: a link to a file is kept, a link to a directory is not.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			log.Debug("skip: not a regular file", zap.String("file", entry.Name()))
			continue
		}
		items = append(items, NewWorkItem(len(items), path, opts.OutputDir))
	}

	return items, nil
}

// NewWorkItem pairs source with an output path of the same base name under outputDir.
func NewWorkItem(index int, source, outputDir string) WorkItem {
	name := filepath.Base(source)
	return WorkItem{
		Index:  index,
		Name:   name,
		Source: source,
		Output: filepath.Join(outputDir, name),
		Format: quality.FormatFromPath(source),
	}
}

// Matches reports whether the extension of path is in exts, comparing case-sensitively.
func Matches(path string, exts []string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false
	}
	return slices.Contains(exts, ext)
}
