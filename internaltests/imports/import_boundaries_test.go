package imports_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Library packages are driven by resolved values; only cmd/ reads config.
func TestMediaPackagesDoNotImportConfigOrCmd(t *testing.T) {
	root := filepath.Clean("../..")
	forbidden := []string{
		"\"github.com/leeforge/compact/config\"",
		"\"github.com/leeforge/compact/cmd/",
	}
	var hits []string

	err := filepath.WalkDir(filepath.Join(root, "media"), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".go" {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, k := range forbidden {
			if strings.Contains(string(b), k) {
				hits = append(hits, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}

	if len(hits) > 0 {
		t.Fatalf("forbidden imports found: %v", hits[:min(10, len(hits))])
	}
}

// Stdout carries the batch report; everything else logs to stderr.
func TestLibraryPackagesDoNotPrintToStdout(t *testing.T) {
	root := filepath.Clean("../..")
	var hits []string

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if name == "_examples" || name == "cmd" || name == "internaltests" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		b, _ := os.ReadFile(path)
		content := string(b)
		if strings.Contains(content, "fmt.Print") || strings.Contains(content, "os.Stdout") {
			hits = append(hits, path)
		}
		return nil
	})

	if len(hits) > 0 {
		t.Fatalf("stdout writes outside cmd/: %v", hits)
	}
}
