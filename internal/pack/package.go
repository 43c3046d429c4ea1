// Package pack implements the asset package storage engine.
//
// A package is a pair of flat files sharing a base name: the header file
// (<base>.eph) holds the name list and the header catalog, and the bundle
// file (<base>.epb) holds the zlib-compressed payloads back to back. Every
// mutating call rewrites the header file in full so that it always
// reflects the in-memory state.
//
// Two mutexes guard a Package. The bundle lock covers the bundle file and
// the in-memory name list and catalog that describe it; the header lock
// covers reads and writes of the header file. No call holds both at once.
// A crash between an add's bundle append and its header rewrite leaves
// unreferenced bytes in the bundle (see Vacuum). A crash during a remove or
// a vacuum can leave the header pointing at payloads that have since moved.
package pack

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zlib"
)

const (
	// FormatTag identifies a header file ("EPAK" in little-endian byte order)
	FormatTag uint32 = 0x4B415045

	// FileVersion is the header layout version written by this package
	FileVersion uint32 = 1

	// HeaderExt is the extension of the header file
	HeaderExt = ".eph"

	// BundleExt is the extension of the bundle file
	BundleExt = ".epb"
)

// HeaderPath returns the header file path for a package base name
func HeaderPath(base string) string {
	return base + HeaderExt
}

// BundlePath returns the bundle file path for a package base name
func BundlePath(base string) string {
	return base + BundleExt
}

// Options configures package behavior
type Options struct {
	// CompressionLevel is the zlib level used for new payloads (-2 to 9)
	CompressionLevel int

	// Checksum stores a CRC-32 of each new payload. Retrieval verifies any
	// non-zero stored checksum regardless of this setting.
	Checksum bool

	// Sync flushes both files to stable storage after every mutation
	Sync bool

	// Logger receives debug events; nil means slog.Default()
	Logger *slog.Logger
}

// DefaultOptions returns the options used when none are given
func DefaultOptions() *Options {
	return &Options{
		CompressionLevel: zlib.DefaultCompression,
	}
}

// Package is an open asset package. It is safe for concurrent use, except
// that Create, Open and Close must not race with other calls.
type Package struct {
	opts  Options
	codec *codec
	log   *slog.Logger

	headerMu sync.Mutex
	header   *os.File
	written  uint64 // generation of the last header written

	bundleMu    sync.Mutex
	bundle      *os.File
	base        string
	fileVersion uint32
	assetCount  uint32
	names       *NameList
	catalog     *HeaderCatalog
	generation  uint64
}

// New returns an uninitialized package; call Create or Open before use
func New(opts *Options) (*Package, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	c, err := newCodec(opts.CompressionLevel)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Package{
		opts:  *opts,
		codec: c,
		log:   logger,
	}, nil
}

// Create creates a new, empty package at base with the given options
func Create(base string, opts *Options) (*Package, error) {
	p, err := New(opts)
	if err != nil {
		return nil, err
	}
	if err := p.Create(base); err != nil {
		return nil, err
	}
	return p, nil
}

// Open opens the existing package at base with the given options
func Open(base string, opts *Options) (*Package, error) {
	p, err := New(opts)
	if err != nil {
		return nil, err
	}
	if err := p.Open(base); err != nil {
		return nil, err
	}
	return p, nil
}

// Create truncates or creates both package files, resets all in-memory
// state and writes an empty header. Any previously open files are closed.
func (p *Package) Create(base string) error {
	if strings.TrimSpace(base) == "" {
		return ErrEmptyFileName
	}
	if err := p.Close(); err != nil {
		return err
	}

	header, bundle, err := openPair(base, os.O_RDWR|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}

	p.bundleMu.Lock()
	p.bundle = bundle
	p.base = base
	p.fileVersion = FileVersion
	p.assetCount = 0
	p.names = NewNameList()
	p.catalog = NewHeaderCatalog()
	gen, snapshot := p.snapshotLocked()
	p.bundleMu.Unlock()

	p.headerMu.Lock()
	p.header = header
	p.written = 0
	p.headerMu.Unlock()

	if err := p.writeHeader(gen, snapshot); err != nil {
		_ = p.Close()
		return err
	}

	p.log.Debug("Package created", "package", base)
	return nil
}

// Open opens both package files without truncation and loads the name
// list and catalog from the header file. Any previously open files are closed.
func (p *Package) Open(base string) error {
	if strings.TrimSpace(base) == "" {
		return ErrEmptyFileName
	}
	if err := p.Close(); err != nil {
		return err
	}

	header, bundle, err := openPair(base, os.O_RDWR)
	if err != nil {
		return err
	}

	data, err := readFile(header)
	if err != nil {
		_ = header.Close()
		_ = bundle.Close()
		return fmt.Errorf("reading header of %s: %w", base, err)
	}

	state, err := decodeHeader(data)
	if err != nil {
		_ = header.Close()
		_ = bundle.Close()
		return fmt.Errorf("decoding header of %s: %w", base, err)
	}

	p.headerMu.Lock()
	p.header = header
	p.written = 0
	p.headerMu.Unlock()

	p.bundleMu.Lock()
	p.bundle = bundle
	p.base = base
	p.fileVersion = state.fileVersion
	p.assetCount = state.assetCount
	p.names = state.names
	p.catalog = state.catalog
	p.generation = 0
	p.bundleMu.Unlock()

	p.log.Debug("Package opened", "package", base, "assets", state.assetCount)
	return nil
}

// Close closes both package files. Closing an unopened package is a no-op.
func (p *Package) Close() error {
	p.bundleMu.Lock()
	bundle := p.bundle
	p.bundle = nil
	p.names = nil
	p.catalog = nil
	p.assetCount = 0
	p.bundleMu.Unlock()

	p.headerMu.Lock()
	header := p.header
	p.header = nil
	p.headerMu.Unlock()

	var errs []error
	if bundle != nil {
		if err := bundle.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing bundle file: %w", err))
		}
	}
	if header != nil {
		if err := header.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing header file: %w", err))
		}
	}
	return errors.Join(errs...)
}

// BaseFilename returns the base name the package was created or opened with
func (p *Package) BaseFilename() string {
	p.bundleMu.Lock()
	defer p.bundleMu.Unlock()
	return p.base
}

// FileVersion returns the header layout version read from disk
func (p *Package) FileVersion() uint32 {
	p.bundleMu.Lock()
	defer p.bundleMu.Unlock()
	return p.fileVersion
}

// AssetCount returns the number of stored assets
func (p *Package) AssetCount() int {
	p.bundleMu.Lock()
	defer p.bundleMu.Unlock()
	return int(p.assetCount)
}

// Names returns the asset keys in name list order
func (p *Package) Names() []string {
	p.bundleMu.Lock()
	defer p.bundleMu.Unlock()
	if p.names == nil {
		return nil
	}
	return p.names.Names()
}

// Has reports whether key is stored
func (p *Package) Has(key string) bool {
	_, ok := p.Entry(key)
	return ok
}

// Entry returns the header entry for key
func (p *Package) Entry(key string) (HeaderEntry, bool) {
	p.bundleMu.Lock()
	defer p.bundleMu.Unlock()
	if p.catalog == nil {
		return HeaderEntry{}, false
	}
	return p.catalog.TryGet(key)
}

// Entries returns every header entry in name list order
func (p *Package) Entries() []HeaderEntry {
	p.bundleMu.Lock()
	defer p.bundleMu.Unlock()
	return p.entriesLocked()
}

// OriginalSize returns the uncompressed size of key, or 0 if unknown
func (p *Package) OriginalSize(key string) uint32 {
	entry, ok := p.Entry(key)
	if !ok {
		return 0
	}
	return entry.OrgSize
}

// Timestamp decodes the packed version of key, or returns the zero time if unknown
func (p *Package) Timestamp(key string) time.Time {
	entry, ok := p.Entry(key)
	if !ok {
		return time.Time{}
	}
	return entry.Timestamp()
}

func (p *Package) entriesLocked() []HeaderEntry {
	if p.names == nil || p.catalog == nil {
		return nil
	}
	out := make([]HeaderEntry, 0, p.names.Len())
	for i := 0; i < p.names.Len(); i++ {
		if entry, ok := p.catalog.TryGet(p.names.Get(i)); ok {
			out = append(out, entry)
		}
	}
	return out
}

// openPair opens the header and bundle files of base with flag
func openPair(base string, flag int) (*os.File, *os.File, error) {
	header, err := os.OpenFile(HeaderPath(base), flag, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrFileOpenFail, err)
	}

	bundle, err := os.OpenFile(BundlePath(base), flag, 0644)
	if err != nil {
		_ = header.Close()
		return nil, nil, fmt.Errorf("%w: %w", ErrFileOpenFail, err)
	}

	return header, bundle, nil
}
