package pack

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
)

// Stats summarizes a package
type Stats struct {
	Assets          int
	OriginalBytes   uint64
	CompressedBytes uint64
	BundleBytes     int64
	HeaderBytes     int64
	OrphanedBytes   int64 // bundle bytes no entry refers to
}

// Ratio returns compressed size over original size, or 0 for an empty package
func (s Stats) Ratio() float64 {
	if s.OriginalBytes == 0 {
		return 0
	}
	return float64(s.CompressedBytes) / float64(s.OriginalBytes)
}

// Stats reports sizes of the package and its files
func (p *Package) Stats() (Stats, error) {
	p.bundleMu.Lock()
	if p.bundle == nil || p.catalog == nil {
		p.bundleMu.Unlock()
		return Stats{}, ErrNotOpen
	}

	stats := Stats{Assets: int(p.assetCount)}
	for _, entry := range p.catalog.entries {
		stats.OriginalBytes += uint64(entry.OrgSize)
		stats.CompressedBytes += uint64(entry.Size)
	}
	info, err := p.bundle.Stat()
	p.bundleMu.Unlock()
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %w", ErrFileReadFail, err)
	}
	stats.BundleBytes = info.Size()
	stats.OrphanedBytes = stats.BundleBytes - int64(stats.CompressedBytes)

	p.headerMu.Lock()
	if p.header != nil {
		if hinfo, err := p.header.Stat(); err == nil {
			stats.HeaderBytes = hinfo.Size()
		}
	}
	p.headerMu.Unlock()

	return stats, nil
}

// Walk calls fn for every entry in name list order. Entries are
// snapshotted first, so fn may call back into the package.
func (p *Package) Walk(fn func(HeaderEntry) error) error {
	p.bundleMu.Lock()
	if p.catalog == nil {
		p.bundleMu.Unlock()
		return ErrNotOpen
	}
	entries := p.entriesLocked()
	p.bundleMu.Unlock()

	for _, entry := range entries {
		if err := fn(entry); err != nil {
			return err
		}
	}
	return nil
}

// Verify checks that the name list, the catalog, the asset count, the
// bundle file and the header file on disk agree. With deep set, every
// asset is also decompressed and checked against its stored checksum.
func (p *Package) Verify(deep bool) error {
	p.bundleMu.Lock()
	err := p.verifyLocked()
	var snapshot []byte
	var keys []string
	if err == nil {
		snapshot = encodeHeader(p.assetCount, p.names, p.catalog)
		keys = p.names.Names()
	}
	p.bundleMu.Unlock()
	if err != nil {
		return err
	}

	p.headerMu.Lock()
	onDisk, err := p.readHeaderLocked()
	p.headerMu.Unlock()
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if !bytes.Equal(onDisk, snapshot) {
		return fmt.Errorf("%w: header file differs from in-memory state", ErrInvalidHeaderData)
	}

	if !deep {
		return nil
	}
	for _, key := range keys {
		if _, err := p.Retrieve(key); err != nil {
			return err
		}
	}
	return nil
}

func (p *Package) verifyLocked() error {
	if p.bundle == nil || p.names == nil || p.catalog == nil {
		return ErrNotOpen
	}

	if p.names.Len() != int(p.assetCount) {
		return fmt.Errorf("%w: %d names for %d assets", ErrInvalidNameList, p.names.Len(), p.assetCount)
	}
	if p.catalog.Len() != p.names.Len() {
		return fmt.Errorf("%w: %d entries for %d names", ErrInvalidHeaderData, p.catalog.Len(), p.names.Len())
	}
	for _, name := range p.names.Names() {
		if _, ok := p.catalog.TryGet(name); !ok {
			return fmt.Errorf("%w: name %q has no catalog entry", ErrInvalidNameList, name)
		}
	}

	info, err := p.bundle.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileReadFail, err)
	}

	entries := p.entriesByOffsetLocked()
	var prevEnd uint64
	for _, entry := range entries {
		if entry.End() > uint64(info.Size()) {
			return fmt.Errorf("%w: asset %q range %d+%d exceeds bundle length %d",
				ErrAssetSizeError, entry.Name, entry.Offset, entry.Size, info.Size())
		}
		if uint64(entry.Offset) < prevEnd {
			return fmt.Errorf("%w: asset %q overlaps the previous payload", ErrAssetSizeError, entry.Name)
		}
		prevEnd = entry.End()
	}
	return nil
}

// Vacuum rewrites the bundle file keeping only the payloads the catalog
// refers to, closing any gaps left by interrupted writes. It returns the
// number of bytes reclaimed. If a move fails, the header is still rewritten
// for the payloads already moved.
func (p *Package) Vacuum() (int64, error) {
	p.bundleMu.Lock()
	if p.bundle == nil || p.catalog == nil || p.names == nil {
		p.bundleMu.Unlock()
		return 0, ErrNotOpen
	}

	info, err := p.bundle.Stat()
	if err != nil {
		p.bundleMu.Unlock()
		return 0, fmt.Errorf("%w: %w", ErrFileReadFail, err)
	}

	var pos uint32
	for _, entry := range p.entriesByOffsetLocked() {
		if entry.End() > uint64(info.Size()) || uint64(entry.Offset) < uint64(pos) {
			p.bundleMu.Unlock()
			return 0, fmt.Errorf("%w: asset %q has an invalid range", ErrAssetSizeError, entry.Name)
		}
		if entry.Offset != pos {
			if err := p.movePayloadLocked(entry, pos); err != nil {
				// payloads already moved keep their new offsets
				gen, snapshot := p.snapshotLocked()
				p.bundleMu.Unlock()
				err = fmt.Errorf("moving asset %q: %w", entry.Name, err)
				if herr := p.writeHeader(gen, snapshot); herr != nil {
					return 0, errors.Join(err, herr)
				}
				return 0, err
			}
			entry.Offset = pos
			p.catalog.entries[entry.Name] = entry
		}
		pos += entry.Size
	}

	reclaimed := info.Size() - int64(pos)
	if reclaimed == 0 {
		p.bundleMu.Unlock()
		return 0, nil
	}
	if err := p.bundle.Truncate(int64(pos)); err != nil {
		p.bundleMu.Unlock()
		return 0, fmt.Errorf("%w: truncating bundle: %w", ErrFileWriteFail, err)
	}
	if p.opts.Sync {
		if err := p.bundle.Sync(); err != nil {
			p.bundleMu.Unlock()
			return 0, fmt.Errorf("%w: %w", ErrFileWriteFail, err)
		}
	}

	gen, snapshot := p.snapshotLocked()
	p.bundleMu.Unlock()

	p.log.Debug("Bundle vacuumed", "package", p.base, "reclaimed", reclaimed)
	if err := p.writeHeader(gen, snapshot); err != nil {
		return 0, err
	}
	return reclaimed, nil
}

// movePayloadLocked copies the payload of entry down to offset to. The
// bundle lock must be held.
func (p *Package) movePayloadLocked(entry HeaderEntry, to uint32) error {
	buf := make([]byte, entry.Size)
	n, err := p.bundle.ReadAt(buf, int64(entry.Offset))
	if n < len(buf) {
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %w", ErrFileReadFail, err)
		}
		return fmt.Errorf("%w: read %d of %d bytes", ErrReadSizeCheck, n, len(buf))
	}

	n, err = p.bundle.WriteAt(buf, int64(to))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileWriteFail, err)
	}
	if n != len(buf) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrWriteSizeCheck, n, len(buf))
	}
	return nil
}

func (p *Package) entriesByOffsetLocked() []HeaderEntry {
	entries := p.catalog.Entries()
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Offset < entries[j].Offset
	})
	return entries
}
