package pack

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// headerState is the decoded content of a header file
type headerState struct {
	fileVersion uint32
	assetCount  uint32
	names       *NameList
	catalog     *HeaderCatalog
}

// encodeHeader lays out a header file:
//
//	uint32 formatTag
//	uint32 fileVersion
//	uint32 assetCount
//	uint32 nameListByteSize
//	byte[nameListByteSize]   NUL-terminated keys in name list order
//	uint32 headerByteSize
//	byte[headerByteSize]     catalog entries
func encodeHeader(assetCount uint32, names *NameList, catalog *HeaderCatalog) []byte {
	nameBytes := names.ExportBytes()
	catalogBytes := catalog.ExportBytes()

	buf := make([]byte, 0, 5*4+len(nameBytes)+len(catalogBytes))
	buf = binary.NativeEndian.AppendUint32(buf, FormatTag)
	buf = binary.NativeEndian.AppendUint32(buf, FileVersion)
	buf = binary.NativeEndian.AppendUint32(buf, assetCount)
	buf = binary.NativeEndian.AppendUint32(buf, uint32(len(nameBytes)))
	buf = append(buf, nameBytes...)
	buf = binary.NativeEndian.AppendUint32(buf, uint32(len(catalogBytes)))
	buf = append(buf, catalogBytes...)
	return buf
}

// decodeHeader parses a header file and checks that the name list, the
// catalog and the asset count agree with each other
func decodeHeader(data []byte) (*headerState, error) {
	if len(data) == 0 {
		return nil, ErrEmptyHeader
	}

	p := 0
	readUint32 := func(field string) (uint32, error) {
		if len(data)-p < 4 {
			return 0, fmt.Errorf("%w: header ends before %s at byte %d", ErrFileSizeError, field, p)
		}
		v := binary.NativeEndian.Uint32(data[p:])
		p += 4
		return v, nil
	}

	tag, err := readUint32("format tag")
	if err != nil {
		return nil, err
	}
	if tag != FormatTag {
		return nil, fmt.Errorf("%w: format tag %#08x, want %#08x", ErrInvalidHeaderData, tag, FormatTag)
	}

	version, err := readUint32("file version")
	if err != nil {
		return nil, err
	}
	if version == 0 || version > FileVersion {
		return nil, fmt.Errorf("%w: unsupported file version %d", ErrInvalidHeaderData, version)
	}

	assetCount, err := readUint32("asset count")
	if err != nil {
		return nil, err
	}

	nameSize, err := readUint32("name list size")
	if err != nil {
		return nil, err
	}
	if uint64(len(data)-p) < uint64(nameSize) {
		return nil, fmt.Errorf("%w: name list of %d bytes exceeds header", ErrFileSizeError, nameSize)
	}
	if assetCount > 0 && nameSize == 0 {
		return nil, fmt.Errorf("%w: %d assets recorded", ErrEmptyNameList, assetCount)
	}

	names := NewNameList()
	if err := names.ImportBytes(data[p : p+int(nameSize)]); err != nil {
		return nil, err
	}
	p += int(nameSize)

	catalogSize, err := readUint32("catalog size")
	if err != nil {
		return nil, err
	}
	if uint64(len(data)-p) < uint64(catalogSize) {
		return nil, fmt.Errorf("%w: catalog of %d bytes exceeds header", ErrFileSizeError, catalogSize)
	}
	if assetCount > 0 && catalogSize == 0 {
		return nil, fmt.Errorf("%w: %d assets recorded without catalog", ErrEmptyHeader, assetCount)
	}

	catalog := NewHeaderCatalog()
	if err := catalog.ImportBytes(data[p : p+int(catalogSize)]); err != nil {
		return nil, err
	}
	p += int(catalogSize)

	if p != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidHeaderData, len(data)-p)
	}

	if names.Len() != int(assetCount) {
		return nil, fmt.Errorf("%w: %d names for %d assets", ErrInvalidNameList, names.Len(), assetCount)
	}
	if catalog.Len() != int(assetCount) {
		return nil, fmt.Errorf("%w: %d entries for %d assets", ErrInvalidHeaderData, catalog.Len(), assetCount)
	}
	for _, name := range names.Names() {
		if _, ok := catalog.TryGet(name); !ok {
			return nil, fmt.Errorf("%w: name %q has no catalog entry", ErrInvalidNameList, name)
		}
	}

	return &headerState{
		fileVersion: version,
		assetCount:  assetCount,
		names:       names,
		catalog:     catalog,
	}, nil
}

// snapshotLocked serializes the in-memory header and stamps it with a new
// generation. The bundle lock must be held.
func (p *Package) snapshotLocked() (uint64, []byte) {
	p.generation++
	return p.generation, encodeHeader(p.assetCount, p.names, p.catalog)
}

// writeHeader rewrites the header file with a snapshot. A snapshot older
// than the one already on disk is dropped, so concurrent mutations can
// finish their header writes in any order.
func (p *Package) writeHeader(gen uint64, data []byte) error {
	p.headerMu.Lock()
	defer p.headerMu.Unlock()

	if p.header == nil {
		return ErrNotOpen
	}
	if gen <= p.written {
		return nil
	}

	n, err := p.header.WriteAt(data, 0)
	if err != nil {
		return fmt.Errorf("%w: writing header: %w", ErrFileWriteFail, err)
	}
	if n != len(data) {
		return fmt.Errorf("%w: wrote %d of %d header bytes", ErrWriteSizeCheck, n, len(data))
	}
	if err := p.header.Truncate(int64(len(data))); err != nil {
		return fmt.Errorf("%w: truncating header: %w", ErrFileWriteFail, err)
	}
	if p.opts.Sync {
		if err := p.header.Sync(); err != nil {
			return fmt.Errorf("%w: syncing header: %w", ErrFileWriteFail, err)
		}
	}

	p.written = gen
	p.log.Debug("Header written", "package", p.base, "bytes", len(data), "generation", gen)
	return nil
}

// readHeaderLocked reads the whole header file. The header lock must be held.
func (p *Package) readHeaderLocked() ([]byte, error) {
	if p.header == nil {
		return nil, ErrNotOpen
	}
	return readFile(p.header)
}

// readFile reads the whole of f regardless of its current position
func readFile(f *os.File) ([]byte, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileReadFail, err)
	}

	data := make([]byte, info.Size())
	n, err := f.ReadAt(data, 0)
	if n < len(data) {
		if err == nil || err == io.EOF {
			return nil, fmt.Errorf("%w: read %d of %d bytes", ErrReadSizeCheck, n, len(data))
		}
		return nil, fmt.Errorf("%w: %w", ErrFileReadFail, err)
	}
	return data, nil
}
