package fgdtiles

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Themes lists the sorted, distinct feature types found among the FG-GML
// files directly inside dir. The type is the fourth dash separated part of
// the file name.
func Themes(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "FG-GML*"))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	result := make([]string, 0)
	for _, m := range matches {
		parts := strings.Split(filepath.Base(m), "-")
		if len(parts) < 4 || seen[parts[3]] {
			continue
		}
		seen[parts[3]] = true
		result = append(result, parts[3])
	}

	sort.Strings(result)
	return result, nil
}

// ThemeReport compares the themes of the source archives with those already
// converted.
type ThemeReport struct {
	Source    []string `json:"source"`
	Converted []string `json:"converted"`
	Missing   []string `json:"missing"`
}

func CompareThemes(source, converted string) (*ThemeReport, error) {
	_, err := os.Stat(source)
	if err != nil {
		return nil, err
	}

	src, err := Themes(source)
	if err != nil {
		return nil, err
	}

	dst, err := Themes(converted)
	if err != nil {
		return nil, err
	}

	have := make(map[string]bool, len(dst))
	for _, t := range dst {
		have[t] = true
	}

	missing := make([]string, 0)
	for _, t := range src {
		if !have[t] {
			missing = append(missing, t)
		}
	}

	return &ThemeReport{
		Source:    src,
		Converted: dst,
		Missing:   missing,
	}, nil
}
