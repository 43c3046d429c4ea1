package pack

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"time"
)

// Add compresses data and stores it under key.
//
// version is stored as given, or VersionFromModTime packs the current time.
// A failed add leaves the package as it was before the call.
func (p *Package) Add(data []byte, key string, version uint32) error {
	if version == VersionFromModTime {
		version = PackTime(time.Now())
	}
	return p.add(data, key, version)
}

// AddFile reads the file at path and stores its content under key.
// VersionFromModTime packs the file's modification time as the version.
func (p *Package) AddFile(path, key string, version uint32) error {
	if path == "" {
		return ErrEmptyFileName
	}
	if key == "" {
		return ErrEmptyKey
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileOpenFail, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileReadFail, err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileReadFail, err)
	}

	if version == VersionFromModTime {
		version = PackTime(info.ModTime())
	}
	return p.add(data, key, version)
}

func (p *Package) add(data []byte, key string, version uint32) error {
	if key == "" {
		return ErrEmptyKey
	}
	if len(data) == 0 {
		return fmt.Errorf("asset %q: %w", key, ErrEmptyBuffer)
	}
	if uint64(len(data)) > math.MaxUint32 {
		return fmt.Errorf("asset %q of %d bytes: %w", key, len(data), ErrAssetSizeError)
	}

	var crc uint32
	if p.opts.Checksum {
		crc = crc32.ChecksumIEEE(data)
	}

	compressed, err := p.codec.compress(data)
	if err != nil {
		return fmt.Errorf("asset %q: %w", key, err)
	}

	p.bundleMu.Lock()
	entry, err := p.appendLocked(key, version, compressed, uint32(len(data)), crc)
	if err != nil {
		p.bundleMu.Unlock()
		return fmt.Errorf("adding asset %q: %w", key, err)
	}
	gen, snapshot := p.snapshotLocked()
	p.bundleMu.Unlock()

	if err := p.writeHeader(gen, snapshot); err != nil {
		p.rollbackAdd(key)
		return fmt.Errorf("adding asset %q: %w", key, err)
	}

	p.log.Debug("Asset added",
		"package", p.base,
		"key", key,
		"offset", entry.Offset,
		"size", entry.Size,
		"org_size", entry.OrgSize)
	return nil
}

// rollbackAdd takes key back out of the package after its header write
// failed. The entry is looked up again because other calls may have moved
// its payload since it was appended.
func (p *Package) rollbackAdd(key string) {
	p.bundleMu.Lock()
	if p.catalog == nil || p.names == nil || p.bundle == nil {
		p.bundleMu.Unlock()
		return
	}
	entry, ok := p.catalog.TryGet(key)
	if !ok {
		p.bundleMu.Unlock()
		return
	}
	if err := p.excisePayloadLocked(entry); err != nil {
		p.log.Warn("Rollback left payload bytes in bundle", "package", p.base, "key", key, "error", err)
	} else {
		p.catalog.RepackOffsets(entry.Size, entry.Offset)
	}
	p.dropLocked(key)
	gen, snapshot := p.snapshotLocked()
	p.bundleMu.Unlock()

	// a concurrent call may already have written a header listing key
	if err := p.writeHeader(gen, snapshot); err != nil {
		p.log.Debug("Header not rewritten after rollback", "package", p.base, "key", key, "error", err)
	}
}

// dropLocked forgets key in memory. The bundle lock must be held.
func (p *Package) dropLocked(key string) {
	p.names.Remove(key)
	_ = p.catalog.Remove(key)
	p.assetCount--
}

// appendLocked records a new entry and writes its payload at the end of the
// bundle file, undoing everything if any step fails. The bundle lock must be held.
func (p *Package) appendLocked(key string, version uint32, payload []byte, orgSize, crc uint32) (HeaderEntry, error) {
	if p.bundle == nil || p.names == nil || p.catalog == nil {
		return HeaderEntry{}, ErrNotOpen
	}

	info, err := p.bundle.Stat()
	if err != nil {
		return HeaderEntry{}, fmt.Errorf("%w: %w", ErrFileReadFail, err)
	}
	end := info.Size()
	if uint64(end)+uint64(len(payload)) > math.MaxUint32 {
		return HeaderEntry{}, fmt.Errorf("%w: bundle would grow to %d bytes", ErrFileSizeError, uint64(end)+uint64(len(payload)))
	}

	entry := HeaderEntry{
		Name:    key,
		Version: version,
		Size:    uint32(len(payload)),
		OrgSize: orgSize,
		Offset:  uint32(end),
		CRC:     crc,
	}

	if _, err := p.names.Append(key); err != nil {
		return HeaderEntry{}, err
	}
	if err := p.catalog.Insert(entry); err != nil {
		p.names.Remove(key)
		return HeaderEntry{}, err
	}

	rollback := func() {
		_ = p.catalog.Remove(key)
		p.names.Remove(key)
		_ = p.bundle.Truncate(end)
	}

	n, err := p.bundle.WriteAt(payload, end)
	if err != nil {
		rollback()
		return HeaderEntry{}, fmt.Errorf("%w: %w", ErrFileWriteFail, err)
	}
	if n != len(payload) {
		rollback()
		return HeaderEntry{}, fmt.Errorf("%w: wrote %d of %d bytes", ErrWriteSizeCheck, n, len(payload))
	}
	if p.opts.Sync {
		if err := p.bundle.Sync(); err != nil {
			rollback()
			return HeaderEntry{}, fmt.Errorf("%w: %w", ErrFileWriteFail, err)
		}
	}

	p.assetCount++
	return entry, nil
}

// Retrieve returns the original bytes stored under key
func (p *Package) Retrieve(key string) ([]byte, error) {
	p.bundleMu.Lock()
	entry, payload, err := p.readPayloadLocked(key)
	p.bundleMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("retrieving asset %q: %w", key, err)
	}

	data, err := p.codec.decompress(payload, entry.OrgSize)
	if err != nil {
		return nil, fmt.Errorf("retrieving asset %q: %w", key, err)
	}

	if entry.CRC != 0 {
		if sum := crc32.ChecksumIEEE(data); sum != entry.CRC {
			return nil, fmt.Errorf("retrieving asset %q: %w: stored %#08x, computed %#08x", key, ErrChecksumMismatch, entry.CRC, sum)
		}
	}
	return data, nil
}

// RetrieveToFile writes the original bytes stored under key to path
func (p *Package) RetrieveToFile(path, key string) error {
	if path == "" {
		return ErrEmptyFileName
	}

	data, err := p.Retrieve(key)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileOpenFail, err)
	}

	n, err := f.Write(data)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: writing %s: %w", ErrFileWriteFail, path, err)
	}
	if n != len(data) {
		_ = f.Close()
		return fmt.Errorf("%w: wrote %d of %d bytes to %s", ErrWriteSizeCheck, n, len(data), path)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", ErrFileWriteFail, path, err)
	}
	return nil
}

// readPayloadLocked reads the compressed bytes of key. The bundle lock must be held.
func (p *Package) readPayloadLocked(key string) (HeaderEntry, []byte, error) {
	if p.bundle == nil || p.catalog == nil {
		return HeaderEntry{}, nil, ErrNotOpen
	}

	entry, ok := p.catalog.TryGet(key)
	if !ok {
		return HeaderEntry{}, nil, ErrNotExistedKey
	}
	if entry.OrgSize == 0 {
		return entry, nil, ErrZeroSizeAsset
	}

	payload := make([]byte, entry.Size)
	n, err := p.bundle.ReadAt(payload, int64(entry.Offset))
	if n < len(payload) {
		if err != nil && !errors.Is(err, io.EOF) {
			return entry, nil, fmt.Errorf("%w: %w", ErrFileReadFail, err)
		}
		return entry, nil, fmt.Errorf("%w: read %d of %d bytes at offset %d", ErrReadSizeCheck, n, len(payload), entry.Offset)
	}
	return entry, payload, nil
}

// Remove deletes key and compacts the bundle file by excising its payload.
//
// Every payload stored after the removed one moves down, so the cost is
// proportional to the bundle size past the removed entry.
func (p *Package) Remove(key string) error {
	p.bundleMu.Lock()
	if p.catalog == nil {
		p.bundleMu.Unlock()
		return fmt.Errorf("removing asset %q: %w: %w", key, ErrInvalidHeaderData, ErrNotOpen)
	}
	if p.names == nil {
		p.bundleMu.Unlock()
		return fmt.Errorf("removing asset %q: %w: %w", key, ErrInvalidNameList, ErrNotOpen)
	}

	entry, ok := p.catalog.TryGet(key)
	if !ok {
		p.bundleMu.Unlock()
		return fmt.Errorf("removing asset %q: %w", key, ErrNotExistedKey)
	}

	if err := p.excisePayloadLocked(entry); err != nil {
		p.bundleMu.Unlock()
		return fmt.Errorf("removing asset %q: %w", key, err)
	}

	p.catalog.RepackOffsets(entry.Size, entry.Offset)
	p.dropLocked(key)

	gen, snapshot := p.snapshotLocked()
	p.bundleMu.Unlock()

	p.log.Debug("Asset removed",
		"package", p.base,
		"key", key,
		"offset", entry.Offset,
		"size", entry.Size)

	return p.writeHeader(gen, snapshot)
}

// excisePayloadLocked erases [offset, offset+size) from the bundle file by
// moving the tail down and truncating. The bundle lock must be held.
func (p *Package) excisePayloadLocked(entry HeaderEntry) error {
	info, err := p.bundle.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileReadFail, err)
	}
	length := info.Size()
	if int64(entry.End()) > length {
		return fmt.Errorf("%w: range %d+%d exceeds bundle length %d", ErrAssetSizeError, entry.Offset, entry.Size, length)
	}

	tail := make([]byte, length-int64(entry.End()))
	n, err := p.bundle.ReadAt(tail, int64(entry.End()))
	if n < len(tail) {
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %w", ErrFileReadFail, err)
		}
		return fmt.Errorf("%w: read %d of %d tail bytes", ErrReadSizeCheck, n, len(tail))
	}

	if len(tail) > 0 {
		n, err = p.bundle.WriteAt(tail, int64(entry.Offset))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrFileWriteFail, err)
		}
		if n != len(tail) {
			return fmt.Errorf("%w: wrote %d of %d tail bytes", ErrWriteSizeCheck, n, len(tail))
		}
	}
	if err := p.bundle.Truncate(length - int64(entry.Size)); err != nil {
		return fmt.Errorf("%w: truncating bundle: %w", ErrFileWriteFail, err)
	}
	if p.opts.Sync {
		if err := p.bundle.Sync(); err != nil {
			return fmt.Errorf("%w: %w", ErrFileWriteFail, err)
		}
	}

	p.log.Debug("Bundle compacted", "package", p.base, "moved_bytes", len(tail))
	return nil
}
