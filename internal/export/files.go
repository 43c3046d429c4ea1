package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafeKey is returned for asset keys that would be written outside the output directory
var ErrUnsafeKey = errors.New("asset key escapes output directory")

// AssetLoader defines the interface for loading assets from a package
type AssetLoader interface {
	Retrieve(key string) ([]byte, error)
}

// Exporter handles exporting assets from a package to disk
type Exporter struct {
	loader    AssetLoader
	outputDir string
	flatten   bool
}

// NewExporter creates a new asset exporter
func NewExporter(loader AssetLoader, outputDir string) *Exporter {
	return &Exporter{
		loader:    loader,
		outputDir: outputDir,
	}
}

// SetFlatten writes every asset directly into the output directory,
// replacing slashes in keys with @ symbols
func (e *Exporter) SetFlatten(flatten bool) {
	e.flatten = flatten
}

// ProgressCallback is called to report export progress
type ProgressCallback func(current int, total int, description string)

// Result summarizes an export
type Result struct {
	Assets int
	Bytes  int64
}

// ExportAssets writes the given assets to the output directory, creating
// subdirectories for slash-separated keys
func (e *Exporter) ExportAssets(ctx context.Context, keys []string, progressCallback ProgressCallback) (Result, error) {
	var result Result
	if len(keys) == 0 {
		return result, nil
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return result, fmt.Errorf("creating output directory: %w", err)
	}

	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		outputPath, err := e.OutputPath(key)
		if err != nil {
			return result, err
		}

		data, err := e.loader.Retrieve(key)
		if err != nil {
			return result, fmt.Errorf("loading asset %s: %w", key, err)
		}

		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			return result, fmt.Errorf("creating directory for %s: %w", key, err)
		}
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return result, fmt.Errorf("writing file %s: %w", outputPath, err)
		}

		result.Assets++
		result.Bytes += int64(len(data))
		slog.Debug("Exported asset", "key", key, "output", outputPath, "bytes", len(data))

		if progressCallback != nil {
			progressCallback(i+1, len(keys), key)
		}
	}

	return result, nil
}

// OutputPath returns where key is written, or ErrUnsafeKey if it would
// land outside the output directory
func (e *Exporter) OutputPath(key string) (string, error) {
	if e.flatten {
		name := sanitizePath(key)
		if name == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) {
			return "", fmt.Errorf("%w: %q", ErrUnsafeKey, key)
		}
		return filepath.Join(e.outputDir, name), nil
	}

	rel := filepath.Clean(filepath.FromSlash(key))
	if rel == "." || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" ||
		rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeKey, key)
	}
	return filepath.Join(e.outputDir, rel), nil
}

// sanitizePath sanitizes a key for use as a filename
// Replaces forward slashes with @ symbols
func sanitizePath(path string) string {
	return strings.ReplaceAll(path, "/", "@")
}
