package extractor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/a3tai/gst-invoice-extractor/internal/pdf"
)

// CollectFiles expands command-line inputs into PDF paths. Directories
// contribute their PDFs in path order; files are kept as given so that an
// unreadable file still shows up in the batch. Duplicates keep their first
// position.
func CollectFiles(search *pdf.Search, inputs []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		paths = append(paths, path)
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("cannot access input %s: %w", input, err)
		}
		if !info.IsDir() {
			add(input)
			continue
		}

		files, err := search.FindPDFs(input)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", input, err)
		}
		for _, f := range files {
			add(f.Path)
		}
	}

	return paths, nil
}
