// Package ingest imports files from disk into a package concurrently.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jchantrell/epack/internal/pack"
)

// Target is the subset of a package the importer writes to
type Target interface {
	Has(key string) bool
	AddFile(path, key string, version uint32) error
	Remove(key string) error
	OriginalSize(key string) uint32
}

// File is a single file to import
type File struct {
	Path string
	Key  string
}

// ProgressCallback is called once per imported or skipped file. Calls are serialized.
type ProgressCallback func(current int, total int, description string)

// Result summarizes an import
type Result struct {
	Added    int
	Replaced int
	Skipped  int
	Bytes    int64
}

// Importer adds files to a target package
type Importer struct {
	target   Target
	workers  int
	version  uint32
	replace  bool
	prefix   string
	progress ProgressCallback
	logger   *slog.Logger
}

// Option configures an Importer
type Option func(*Importer)

// WithWorkers sets the number of files read and compressed at once.
// Values < 1 use the number of CPUs.
func WithWorkers(n int) Option {
	return func(i *Importer) {
		i.workers = n
	}
}

// WithVersion sets the version stored for every file. The default,
// pack.VersionFromModTime, uses each file's modification time.
func WithVersion(v uint32) Option {
	return func(i *Importer) {
		i.version = v
	}
}

// WithReplace replaces keys that already exist instead of skipping them
func WithReplace(replace bool) Option {
	return func(i *Importer) {
		i.replace = replace
	}
}

// WithPrefix prepends prefix and a slash to every key derived from a directory walk
func WithPrefix(prefix string) Option {
	return func(i *Importer) {
		i.prefix = prefix
	}
}

// WithProgress sets the progress callback
func WithProgress(fn ProgressCallback) Option {
	return func(i *Importer) {
		i.progress = fn
	}
}

// WithLogger sets the logger; nil means slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) {
		i.logger = logger
	}
}

// NewImporter creates an importer writing to target
func NewImporter(target Target, opts ...Option) *Importer {
	i := &Importer{
		target:  target,
		version: pack.VersionFromModTime,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.workers < 1 {
		i.workers = runtime.NumCPU()
	}
	if i.logger == nil {
		i.logger = slog.Default()
	}
	return i
}

// Collect returns every regular file under dir keyed by its slash-separated
// path relative to dir, in key order
func (i *Importer) Collect(dir string) ([]File, error) {
	var files []File
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if i.prefix != "" {
			key = path.Join(i.prefix, key)
		}
		files = append(files, File{Path: p, Key: key})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	sort.Slice(files, func(a, b int) bool {
		return files[a].Key < files[b].Key
	})
	return files, nil
}

// ImportDir imports every regular file under dir
func (i *Importer) ImportDir(ctx context.Context, dir string) (Result, error) {
	files, err := i.Collect(dir)
	if err != nil {
		return Result{}, err
	}
	return i.Import(ctx, files)
}

// Import adds files using a bounded pool of workers. It stops at the first
// error; files added before the error stay in the package.
func (i *Importer) Import(ctx context.Context, files []File) (Result, error) {
	var (
		mu     sync.Mutex
		result Result
		done   int
	)

	report := func(f File, skipped, replaced bool, size int64) {
		mu.Lock()
		defer mu.Unlock()

		switch {
		case skipped:
			result.Skipped++
		case replaced:
			result.Replaced++
			result.Bytes += size
		default:
			result.Added++
			result.Bytes += size
		}
		done++
		if i.progress != nil {
			i.progress(done, len(files), f.Key)
		}
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(i.workers)

	for _, f := range files {
		if gctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return i.importFile(f, report)
		})
	}

	err := eg.Wait()
	if err == nil {
		err = ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	i.logger.Debug("Import finished",
		"added", result.Added,
		"replaced", result.Replaced,
		"skipped", result.Skipped,
		"bytes", result.Bytes)
	return result, err
}

func (i *Importer) importFile(f File, report func(File, bool, bool, int64)) error {
	replaced := false
	if i.target.Has(f.Key) {
		if !i.replace {
			i.logger.Debug("Skipping existing asset", "key", f.Key)
			report(f, true, false, 0)
			return nil
		}
		if err := i.target.Remove(f.Key); err != nil {
			return fmt.Errorf("replacing %s: %w", f.Key, err)
		}
		replaced = true
	}

	if err := i.target.AddFile(f.Path, f.Key, i.version); err != nil {
		return fmt.Errorf("importing %s: %w", f.Path, err)
	}

	report(f, false, replaced, int64(i.target.OriginalSize(f.Key)))
	return nil
}
