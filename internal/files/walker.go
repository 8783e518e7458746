// Package files discovers ingestion input files on the local filesystem.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vvka-141/tikiload/pkg/tikiload"
)

// InputFile is one discovered product file.
type InputFile struct {
	// Path is the full path used to read the file.
	Path string

	// Name is the base file name, recorded as row provenance.
	Name string
}

// Walker discovers product files for an ingestion run.
// Stateless and safe for concurrent use.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// Discover accepts either a directory containing products_*.json files or a
// single explicitly named file, and returns the files in lexicographic
// order. Discovery order is the processing order for the whole run.
//
// Returns an error wrapping tikiload.ErrNoInputFiles when the path does not
// exist or the directory contains no matching files.
func (w *Walker) Discover(dataPath string) ([]InputFile, error) {
	info, err := os.Stat(dataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("path not found: %s: %w", dataPath, tikiload.ErrNoInputFiles)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", dataPath, err)
	}

	if !info.IsDir() {
		return []InputFile{{Path: dataPath, Name: filepath.Base(dataPath)}}, nil
	}

	matches, err := filepath.Glob(filepath.Join(dataPath, tikiload.ProductFilePattern))
	if err != nil {
		return nil, fmt.Errorf("failed to glob %s: %w", dataPath, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf(
			"no files matching %s found in %s (check your filenames or point --data at a specific JSON file): %w",
			tikiload.ProductFilePattern, dataPath, tikiload.ErrNoInputFiles,
		)
	}

	sort.Strings(matches)

	inputs := make([]InputFile, 0, len(matches))
	for _, m := range matches {
		inputs = append(inputs, InputFile{Path: m, Name: filepath.Base(m)})
	}
	return inputs, nil
}
