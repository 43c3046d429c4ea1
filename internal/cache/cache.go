package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jchantrell/epack/internal/pack"
)

// ErrInvalidName is returned for package names that would resolve outside the root
var ErrInvalidName = errors.New("invalid package name")

// Cache owns the packages stored under a root directory and keeps each
// one open after first use
type Cache struct {
	root string
	opts *pack.Options

	mu       sync.Mutex
	packages map[string]*pack.Package // keyed by base path
}

// New creates a cache over root. opts is passed to every package it opens.
func New(root string, opts *pack.Options) *Cache {
	return &Cache{
		root:     root,
		opts:     opts,
		packages: make(map[string]*pack.Package),
	}
}

// DefaultRoot returns the directory used when no root is configured
func DefaultRoot() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".epack")
	}
	return filepath.Join(homeDir, ".epack")
}

// Root returns the directory packages are stored in
func (c *Cache) Root() string {
	return c.root
}

// PackageBase returns the base path of a named package. Names may contain
// forward slashes to group packages in subdirectories.
func (c *Cache) PackageBase(name string) (string, error) {
	name = strings.TrimSuffix(strings.TrimSuffix(name, pack.HeaderExt), pack.BundleExt)
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	}

	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes %s", ErrInvalidName, name, c.root)
	}
	return filepath.Join(c.root, clean), nil
}

// Create creates (or truncates) a named package and caches it
func (c *Cache) Create(name string) (*pack.Package, error) {
	base, err := c.PackageBase(name)
	if err != nil {
		return nil, err
	}
	if err := c.EnsureDir(filepath.Dir(base)); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.packages[base]; ok {
		delete(c.packages, base)
		if err := existing.Close(); err != nil {
			return nil, fmt.Errorf("closing %s: %w", name, err)
		}
	}

	p, err := pack.Create(base, c.opts)
	if err != nil {
		return nil, fmt.Errorf("creating package %s: %w", name, err)
	}
	c.packages[base] = p
	return p, nil
}

// Open returns the named package, opening it on first use
func (c *Cache) Open(name string) (*pack.Package, error) {
	base, err := c.PackageBase(name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.packages[base]; ok {
		return p, nil
	}

	p, err := pack.Open(base, c.opts)
	if err != nil {
		return nil, fmt.Errorf("opening package %s: %w", name, err)
	}
	c.packages[base] = p
	return p, nil
}

// Exists reports whether both files of the named package are present
func (c *Cache) Exists(name string) bool {
	base, err := c.PackageBase(name)
	if err != nil {
		return false
	}
	return c.FileExists(pack.HeaderPath(base)) && c.FileExists(pack.BundlePath(base))
}

// ReadAsset returns the original bytes of key from the named package
func (c *Cache) ReadAsset(name, key string) ([]byte, error) {
	p, err := c.Open(name)
	if err != nil {
		return nil, err
	}
	return p.Retrieve(key)
}

// List returns the names of all packages under the root, found by their
// header files, in lexical order
func (c *Cache) List() ([]string, error) {
	var names []string
	err := filepath.WalkDir(c.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && path == c.root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != pack.HeaderExt {
			return nil
		}

		base := strings.TrimSuffix(path, pack.HeaderExt)
		if !c.FileExists(pack.BundlePath(base)) {
			return nil
		}
		rel, err := filepath.Rel(c.root, base)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing packages in %s: %w", c.root, err)
	}

	sort.Strings(names)
	return names, nil
}

// Close closes every cached package
func (c *Cache) Close() error {
	c.mu.Lock()
	packages := c.packages
	c.packages = make(map[string]*pack.Package)
	c.mu.Unlock()

	var errs []error
	for base, p := range packages {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", base, err))
		}
	}
	return errors.Join(errs...)
}

// EnsureDir creates a directory and all parent directories
func (c *Cache) EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// FileExists checks if a file exists
func (c *Cache) FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// FileSize returns the size of a file, or 0 if it doesn't exist
func (c *Cache) FileSize(filename string) int64 {
	info, err := os.Stat(filename)
	if err != nil {
		return 0
	}
	return info.Size()
}
