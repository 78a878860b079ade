// Package source discovers migration files in a directory.
package source

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/surmigrate/surmigrate/internal/apperr"
)

// DefaultExtensions are the file suffixes recognized when none are configured.
var DefaultExtensions = []string{".sql", ".surrealql", ".surql"}

// File is a discovered migration file. Contents are not read until asked for.
type File struct {
	Name string
	Path string
}

// Contents reads the file from disk.
func (f File) Contents() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return string(data), nil
}

// Reader lists candidate migration files directly under a directory.
type Reader struct {
	dir        string
	extensions []string
	logger     *slog.Logger
}

// NewReader creates a Reader. An empty extension list means DefaultExtensions.
func NewReader(dir string, extensions []string, logger *slog.Logger) *Reader {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		dir:        dir,
		extensions: extensions,
		logger:     logger,
	}
}

// Dir returns the directory being read.
func (r *Reader) Dir() string {
	return r.dir
}

// Discover returns the regular files whose names end in a recognized
// extension, in directory listing order. Subdirectories are not descended.
func (r *Reader) Discover() ([]File, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeDiscovery, fmt.Sprintf("unable to read migrations directory %s", r.dir), err)
	}

	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			r.logger.Debug("ignoring entry, not a file", "name", name)
			continue
		}
		if !r.recognized(name) {
			r.logger.Debug("ignoring file, unrecognized extension", "name", name, "extensions", r.extensions)
			continue
		}
		files = append(files, File{
			Name: name,
			Path: filepath.Join(r.dir, name),
		})
	}

	return files, nil
}

// recognized is a case-sensitive exact suffix match.
func (r *Reader) recognized(name string) bool {
	for _, ext := range r.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
