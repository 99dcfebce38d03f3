// Package zip unpacks WXR exports delivered as ZIP bundles
package zip

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// ExpandOptions contains options for ZIP expansion
type ExpandOptions struct {
	// MaxFileSize is the maximum size for a single file in bytes (0 = unlimited)
	MaxFileSize int64
	// MaxTotalSize is the maximum total size for all extracted files (0 = unlimited)
	MaxTotalSize int64
	// MaxFiles is the maximum number of files to extract (0 = unlimited)
	MaxFiles int
	// AllowedExtensions filters which file extensions to extract (empty = all)
	AllowedExtensions []string
	// SkipPatterns contains patterns to skip (e.g., "__MACOSX")
	SkipPatterns []string
}

// DefaultExpandOptions returns default options for ZIP expansion
func DefaultExpandOptions() ExpandOptions {
	return ExpandOptions{
		MaxFileSize:       256 << 20,
		MaxTotalSize:      1 << 30,
		MaxFiles:          1000,
		AllowedExtensions: []string{".xml", ".wxr"},
		SkipPatterns: []string{
			"__MACOSX",
			".DS_Store",
			"Thumbs.db",
			"desktop.ini",
		},
	}
}

// Entry is one document extracted from an archive
type Entry struct {
	Name    string
	Content []byte
}

var magic = []byte("PK\x03\x04")

// IsArchive reports whether content is a ZIP file
func IsArchive(content []byte) bool {
	return bytes.HasPrefix(content, magic)
}

// Expand extracts the documents of a ZIP archive in memory, sorted by name.
// WordPress splits large exports into numbered files, so name order is import order.
func Expand(ctx context.Context, content []byte, opts ExpandOptions) ([]Entry, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open ZIP: %w", err)
	}

	var entries []Entry
	var totalSize int64
	seen := make(map[string]bool)

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if file.FileInfo().IsDir() {
			continue
		}

		safeName, err := sanitizeFilename(file.Name)
		if err != nil {
			log.Warn().Str("entry", file.Name).Err(err).Msg("Skipping ZIP entry")
			continue
		}
		if shouldSkip(file.Name, opts.SkipPatterns) || !isAllowedExtension(safeName, opts.AllowedExtensions) {
			continue
		}
		if seen[safeName] {
			return nil, fmt.Errorf("duplicate entry %s in archive", safeName)
		}
		seen[safeName] = true

		if opts.MaxFiles > 0 && len(entries) >= opts.MaxFiles {
			return nil, fmt.Errorf("too many files in archive (limit: %d)", opts.MaxFiles)
		}
		if opts.MaxFileSize > 0 && int64(file.UncompressedSize64) > opts.MaxFileSize {
			return nil, fmt.Errorf("file %s exceeds maximum size (%d > %d)",
				safeName, file.UncompressedSize64, opts.MaxFileSize)
		}

		data, err := readFileWithLimit(file, safeName, opts.MaxFileSize)
		if err != nil {
			return nil, err
		}

		totalSize += int64(len(data))
		if opts.MaxTotalSize > 0 && totalSize > opts.MaxTotalSize {
			return nil, fmt.Errorf("total extracted size exceeds maximum (%d > %d)",
				totalSize, opts.MaxTotalSize)
		}

		entries = append(entries, Entry{Name: safeName, Content: data})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// readFileWithLimit reads a file from ZIP with size limit enforcement
func readFileWithLimit(file *zip.File, safeName string, limit int64) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s in ZIP: %w", safeName, err)
	}
	defer rc.Close()

	// declared sizes can lie
	var reader io.Reader = rc
	if limit > 0 {
		reader = io.LimitReader(rc, limit+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s from ZIP: %w", safeName, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("file %s exceeds maximum size (actual data > %d bytes)", safeName, limit)
	}
	return data, nil
}

// sanitizeFilename rejects absolute and escaping paths and flattens the rest to a base name
func sanitizeFilename(filename string) (string, error) {
	if path.IsAbs(filename) || filepath.IsAbs(filename) {
		return "", fmt.Errorf("absolute path not allowed: %s", filename)
	}
	if len(filename) >= 2 && filename[1] == ':' {
		return "", fmt.Errorf("Windows drive letter not allowed: %s", filename)
	}

	filename = strings.ReplaceAll(filename, "\\", "/")
	cleaned := path.Clean(filename)
	if strings.HasPrefix(cleaned, "..") || strings.HasPrefix(cleaned, "/") {
		return "", fmt.Errorf("path traversal not allowed: %s", filename)
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." {
			return "", fmt.Errorf("path traversal not allowed: %s", filename)
		}
	}

	baseName := path.Base(cleaned)
	if baseName == "." || baseName == "/" || baseName == "" {
		return "", fmt.Errorf("invalid filename: %s", filename)
	}
	return baseName, nil
}

func shouldSkip(filename string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(filename, pattern) {
			return true
		}
	}
	return false
}

func isAllowedExtension(filename string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	ext := filepath.Ext(filename)
	for _, a := range allowed {
		if strings.EqualFold(ext, a) {
			return true
		}
	}
	return false
}
