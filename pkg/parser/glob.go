package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ExpandGlobs expands a list of file paths and glob patterns into a deduplicated
// list of matching file paths. Patterns that don't match any files are returned as-is
// (the caller should handle file-not-found errors).
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			// Keep the literal path for a better error message later
			if !seen[pattern] {
				seen[pattern] = true
				result = append(result, pattern)
			}
			continue
		}

		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				result = append(result, match)
			}
		}
	}

	sort.Strings(result)
	return result, nil
}

// LogFile is a combat log file found by ListLogFiles.
type LogFile struct {
	Path    string
	ModTime time.Time
}

// Listing is the outcome of ListLogFiles.
type Listing struct {
	// Files are the files inside the time window, oldest first.
	Files []LogFile

	// Matched is the number of files the pattern matched before the window was applied.
	Matched int
}

// ListLogFiles lists files in folder matching pattern (doublestar syntax,
// relative to folder), ordered by last-write time, oldest first.
// When maxAge is positive, files last written before now-maxAge are dropped.
func ListLogFiles(folder, pattern string, maxAge time.Duration, now time.Time) (*Listing, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("log folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("log folder %s is not a directory", folder)
	}

	matches, err := doublestar.FilepathGlob(filepath.Join(folder, pattern),
		doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, fmt.Errorf("listing %s with pattern %q: %w", folder, pattern, err)
	}

	listing := &Listing{Matched: len(matches)}
	cutoff := time.Time{}
	if maxAge > 0 {
		cutoff = now.Add(-maxAge)
	}

	for _, path := range matches {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !cutoff.IsZero() && fi.ModTime().Before(cutoff) {
			continue
		}
		listing.Files = append(listing.Files, LogFile{Path: path, ModTime: fi.ModTime()})
	}

	sort.SliceStable(listing.Files, func(i, j int) bool {
		if listing.Files[i].ModTime.Equal(listing.Files[j].ModTime) {
			return listing.Files[i].Path < listing.Files[j].Path
		}
		return listing.Files[i].ModTime.Before(listing.Files[j].ModTime)
	})

	return listing, nil
}

// Paths returns the listed file paths in order.
func (l *Listing) Paths() []string {
	paths := make([]string, len(l.Files))
	for i, f := range l.Files {
		paths[i] = f.Path
	}
	return paths
}
