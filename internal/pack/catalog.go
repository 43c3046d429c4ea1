package pack

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"time"
)

// entryFieldCount is the number of uint32 fields stored after each entry name
const entryFieldCount = 5

// HeaderEntry describes one stored asset
type HeaderEntry struct {
	Name    string
	Version uint32 // caller supplied, or a packed timestamp
	Size    uint32 // compressed length in the bundle file
	OrgSize uint32 // original length
	Offset  uint32 // position of the payload in the bundle file
	CRC     uint32 // CRC-32 of the original bytes, 0 when not computed
}

// End returns the bundle offset just past the payload
func (e HeaderEntry) End() uint64 {
	return uint64(e.Offset) + uint64(e.Size)
}

// Timestamp decodes Version as a packed timestamp
func (e HeaderEntry) Timestamp() time.Time {
	return UnpackTime(e.Version)
}

// HeaderCatalog maps asset keys to their header entries
type HeaderCatalog struct {
	entries map[string]HeaderEntry
}

// NewHeaderCatalog creates an empty catalog
func NewHeaderCatalog() *HeaderCatalog {
	return &HeaderCatalog{entries: make(map[string]HeaderEntry)}
}

// Insert adds entry, failing if its key is already present
func (hc *HeaderCatalog) Insert(entry HeaderEntry) error {
	if entry.Name == "" {
		return ErrEmptyKey
	}
	if _, exists := hc.entries[entry.Name]; exists {
		return fmt.Errorf("catalog entry %q: %w", entry.Name, ErrDuplicatedKey)
	}
	hc.entries[entry.Name] = entry
	return nil
}

// Remove deletes the entry for key
func (hc *HeaderCatalog) Remove(key string) error {
	if _, exists := hc.entries[key]; !exists {
		return fmt.Errorf("catalog entry %q: %w", key, ErrNotExistedKey)
	}
	delete(hc.entries, key)
	return nil
}

// TryGet returns the entry for key
func (hc *HeaderCatalog) TryGet(key string) (HeaderEntry, bool) {
	entry, ok := hc.entries[key]
	return entry, ok
}

// Len returns the number of entries
func (hc *HeaderCatalog) Len() int {
	return len(hc.entries)
}

// Entries returns a copy of all entries sorted by key
func (hc *HeaderCatalog) Entries() []HeaderEntry {
	out := make([]HeaderEntry, 0, len(hc.entries))
	for _, entry := range hc.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// RepackOffsets shifts entries stored after a removed payload.
//
// Every entry stored after removedOffset moves down by removedSize. The
// removed entry itself sits at removedOffset and is left untouched; payloads
// are never empty, so no other entry can share its offset. It must run once
// per compaction, before the removed entry is deleted from the catalog.
func (hc *HeaderCatalog) RepackOffsets(removedSize, removedOffset uint32) {
	if removedSize == 0 {
		return
	}
	for key, entry := range hc.entries {
		if entry.Offset <= removedOffset {
			continue
		}
		entry.Offset -= removedSize
		hc.entries[key] = entry
	}
}

// CalcByteSize returns the exact length of ExportBytes
func (hc *HeaderCatalog) CalcByteSize() int {
	size := 0
	for name := range hc.entries {
		size += len(name) + 1
	}
	return size + len(hc.entries)*entryFieldCount*4
}

// ExportBytes serializes the catalog: per entry a NUL-terminated name then
// version, size, orgSize, offset and crc as native-endian uint32 values
func (hc *HeaderCatalog) ExportBytes() []byte {
	buf := make([]byte, 0, hc.CalcByteSize())
	for _, entry := range hc.Entries() {
		buf = append(buf, entry.Name...)
		buf = append(buf, 0)
		buf = binary.NativeEndian.AppendUint32(buf, entry.Version)
		buf = binary.NativeEndian.AppendUint32(buf, entry.Size)
		buf = binary.NativeEndian.AppendUint32(buf, entry.OrgSize)
		buf = binary.NativeEndian.AppendUint32(buf, entry.Offset)
		buf = binary.NativeEndian.AppendUint32(buf, entry.CRC)
	}
	return buf
}

// ImportBytes replaces the catalog with the entries serialized in data.
// On failure the catalog is left empty.
func (hc *HeaderCatalog) ImportBytes(data []byte) error {
	hc.entries = make(map[string]HeaderEntry)

	p := 0
	for p < len(data) {
		end := bytes.IndexByte(data[p:], 0)
		if end < 0 {
			hc.entries = make(map[string]HeaderEntry)
			return fmt.Errorf("unterminated entry name at byte %d: %w", p, ErrInvalidHeaderData)
		}

		name := string(data[p : p+end])
		p += end + 1

		if len(data)-p < entryFieldCount*4 {
			hc.entries = make(map[string]HeaderEntry)
			return fmt.Errorf("truncated entry %q at byte %d: %w", name, p, ErrInvalidHeaderData)
		}

		entry := HeaderEntry{
			Name:    name,
			Version: binary.NativeEndian.Uint32(data[p:]),
			Size:    binary.NativeEndian.Uint32(data[p+4:]),
			OrgSize: binary.NativeEndian.Uint32(data[p+8:]),
			Offset:  binary.NativeEndian.Uint32(data[p+12:]),
			CRC:     binary.NativeEndian.Uint32(data[p+16:]),
		}
		p += entryFieldCount * 4

		if err := hc.Insert(entry); err != nil {
			hc.entries = make(map[string]HeaderEntry)
			return fmt.Errorf("importing entry %q: %w: %w", name, ErrInvalidHeaderData, err)
		}
	}

	return nil
}
