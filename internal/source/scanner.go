package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DetectFormat returns the import format for a path based on its extension.
func DetectFormat(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL, true
	case ".xlsx":
		return FormatXLSX, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// ScanDir walks dir and discovers every expense import file (JSONL or XLSX).
// Obligation YAML files are not expense sources and are skipped.
// A missing directory yields no files and no error.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() {
			return nil
		}
		// spreadsheet lock files
		if strings.HasPrefix(d.Name(), "~$") {
			return nil
		}
		format, ok := DetectFormat(path)
		if !ok || format == FormatYAML {
			return nil
		}
		files = append(files, DiscoveredFile{Path: path, Format: format})
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}

// Discover expands a list of file or directory arguments into import files.
// Files with an unknown extension are returned in skipped.
func Discover(paths []string) (files []DiscoveredFile, skipped []string, err error) {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, nil, err
		}
		if info.IsDir() {
			found, err := ScanDir(p)
			if err != nil {
				return nil, nil, err
			}
			files = append(files, found...)
			continue
		}
		format, ok := DetectFormat(p)
		if !ok || format == FormatYAML {
			skipped = append(skipped, p)
			continue
		}
		files = append(files, DiscoveredFile{Path: p, Format: format})
	}
	return files, skipped, nil
}
