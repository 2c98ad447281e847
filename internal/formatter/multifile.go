package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// MultiFileWriter writes a set of generated files into one directory
type MultiFileWriter struct {
	OutputDir string
}

// NewMultiFileWriter creates a new multi-file writer
func NewMultiFileWriter(outputDir string) *MultiFileWriter {
	return &MultiFileWriter{OutputDir: outputDir}
}

// Write stores every file under OutputDir, creating the directory if needed.
// All files are written under temporary names before any is renamed into
// place, so a failure while writing leaves the directory untouched. A rename
// that fails part way leaves the files renamed so far in their new version
// and the rest in their old one.
func (w *MultiFileWriter) Write(files map[string][]byte) error {
	if err := os.MkdirAll(w.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	staged := make([]string, 0, len(names))
	defer func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}()

	for _, name := range names {
		if filepath.Base(name) != name {
			return fmt.Errorf("invalid file name %q", name)
		}
		tmp := filepath.Join(w.OutputDir, "."+name+".tmp")
		if err := os.WriteFile(tmp, files[name], 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		staged = append(staged, tmp)
	}

	for i, name := range names {
		if err := os.Rename(staged[i], filepath.Join(w.OutputDir, name)); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	staged = nil
	return nil
}
