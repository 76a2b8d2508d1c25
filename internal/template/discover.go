package template

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover expands glob patterns into the set of template files matching the
// naming convention. Literal paths of existing files are accepted as-is.
// Results are absolute, deduplicated, and sorted for stable log output.
func Discover(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var templates []string

	add := func(path string) error {
		if !IsTemplate(path) {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", path, err)
		}
		if !seen[abs] {
			seen[abs] = true
			templates = append(templates, abs)
		}
		return nil
	}

	for _, pattern := range patterns {
		if info, err := os.Stat(pattern); err == nil && info.Mode().IsRegular() {
			if err := add(pattern); err != nil {
				return nil, err
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			if err := add(match); err != nil {
				return nil, err
			}
		}
	}

	sort.Strings(templates)
	return templates, nil
}
