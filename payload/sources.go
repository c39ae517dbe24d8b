package payload

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadSources resolves image sources (directories, glob patterns or explicit
// file paths) into a deduplicated, naturally sorted list of image files.
func LoadSources(sources []string) ([]string, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no image sources provided")
	}

	var all []string
	seen := make(map[string]bool)

	for _, source := range sources {
		paths, err := resolveSource(source)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", source, err)
		}
		for _, p := range paths {
			abs, err := filepath.Abs(p)
			if err != nil {
				return nil, fmt.Errorf("failed to get absolute path for %s: %w", p, err)
			}
			if !seen[abs] {
				seen[abs] = true
				all = append(all, abs)
			}
		}
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("no valid image files found")
	}
	if len(all) > MaxBatchImages {
		return nil, fmt.Errorf("too many images: %d (maximum %d)", len(all), MaxBatchImages)
	}

	sort.Slice(all, func(i, j int) bool {
		return naturalLess(filepath.Base(all[i]), filepath.Base(all[j]))
	})

	return all, nil
}

func resolveSource(source string) ([]string, error) {
	info, err := os.Stat(source)
	if err == nil {
		if info.IsDir() {
			return loadFromDirectory(source)
		}
		if IsImageFile(source) {
			return []string{source}, nil
		}
		return nil, fmt.Errorf("not a supported image file: %s", source)
	}

	matches, err := filepath.Glob(source)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files found matching: %s", source)
	}

	var paths []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if info.IsDir() {
			if dirImages, err := loadFromDirectory(match); err == nil {
				paths = append(paths, dirImages...)
			}
		} else if IsImageFile(match) {
			paths = append(paths, match)
		}
	}
	return paths, nil
}

func loadFromDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		p := filepath.Join(dir, entry.Name())
		if IsImageFile(p) {
			images = append(images, p)
		}
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no image files found in directory")
	}
	return images, nil
}

// IsImageFile reports whether the path has a supported image extension.
// PDFs are handled by the rasterizer, not the image batch path.
func IsImageFile(p string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(p), "."))
	if ext == "pdf" {
		return false
	}
	_, ok := mimeByExt[ext]
	return ok
}

// naturalLess orders filenames with embedded numbers numerically, so
// page_2.png sorts before page_10.png.
func naturalLess(a, b string) bool {
	aLower := strings.ToLower(a)
	bLower := strings.ToLower(b)

	aPos, bPos := 0, 0
	for aPos < len(aLower) && bPos < len(bLower) {
		aChar := aLower[aPos]
		bChar := bLower[bPos]

		aIsDigit := aChar >= '0' && aChar <= '9'
		bIsDigit := bChar >= '0' && bChar <= '9'

		if aIsDigit && bIsDigit {
			aNumStart := aPos
			bNumStart := bPos
			for aPos < len(aLower) && aLower[aPos] >= '0' && aLower[aPos] <= '9' {
				aPos++
			}
			for bPos < len(bLower) && bLower[bPos] >= '0' && bLower[bPos] <= '9' {
				bPos++
			}
			aNum := parseNumber(aLower[aNumStart:aPos])
			bNum := parseNumber(bLower[bNumStart:bPos])
			if aNum != bNum {
				return aNum < bNum
			}
		} else {
			if aChar != bChar {
				return aChar < bChar
			}
			aPos++
			bPos++
		}
	}
	return len(aLower) < len(bLower)
}

func parseNumber(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

// FormatSize renders a byte count as a human-readable string.
func FormatSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.2f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.2f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.2f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
