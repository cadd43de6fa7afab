package intake

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Markers of files this tool writes itself.
const (
	OptimizedMarker = ".optimized."
	ReportSuffix    = ".report.json"
)

// Candidate reports whether a file in the input folder should be processed.
func Candidate(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return false
	}
	if strings.Contains(base, OptimizedMarker) || strings.HasSuffix(base, ReportSuffix) {
		return false
	}
	return Supported(base)
}

// Scan lists candidate files directly inside dir, sorted by name.
func Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input folder: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !Candidate(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
