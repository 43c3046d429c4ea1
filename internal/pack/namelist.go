package pack

import (
	"bytes"
	"fmt"
)

// NotFound is returned by NameList.Search when a name is absent.
const NotFound = -1

// NameList is an ordered collection of unique asset keys.
//
// Indices are positions in insertion order and shift down after a removal,
// so callers must not hold on to an index across mutations. Lookups go
// through a map index; the slice keeps the serialized order.
type NameList struct {
	names []string
	index map[string]int
}

// NewNameList creates an empty name list
func NewNameList() *NameList {
	return &NameList{index: make(map[string]int)}
}

// Append adds name to the end of the list and returns its index
func (nl *NameList) Append(name string) (int, error) {
	if name == "" {
		return NotFound, ErrEmptyKey
	}
	if _, exists := nl.index[name]; exists {
		return NotFound, fmt.Errorf("name %q: %w", name, ErrDuplicatedKey)
	}

	nl.names = append(nl.names, name)
	i := len(nl.names) - 1
	nl.index[name] = i
	return i, nil
}

// Search returns the index of name, or NotFound
func (nl *NameList) Search(name string) int {
	if i, ok := nl.index[name]; ok {
		return i
	}
	return NotFound
}

// Get returns the name at index, or an empty string when out of range
func (nl *NameList) Get(index int) string {
	if index < 0 || index >= len(nl.names) {
		return ""
	}
	return nl.names[index]
}

// Remove erases name and shifts every later index down by one.
// It reports whether the name was present.
func (nl *NameList) Remove(name string) bool {
	i, ok := nl.index[name]
	if !ok {
		return false
	}

	nl.names = append(nl.names[:i], nl.names[i+1:]...)
	delete(nl.index, name)
	for j := i; j < len(nl.names); j++ {
		nl.index[nl.names[j]] = j
	}
	return true
}

// Len returns the number of names
func (nl *NameList) Len() int {
	return len(nl.names)
}

// Names returns a copy of the names in insertion order
func (nl *NameList) Names() []string {
	out := make([]string, len(nl.names))
	copy(out, nl.names)
	return out
}

// ByteSize returns the length of the serialized list
func (nl *NameList) ByteSize() int {
	size := 0
	for _, name := range nl.names {
		size += len(name) + 1
	}
	return size
}

// ExportBytes serializes the list as NUL-terminated strings in order
func (nl *NameList) ExportBytes() []byte {
	buf := make([]byte, 0, nl.ByteSize())
	for _, name := range nl.names {
		buf = append(buf, name...)
		buf = append(buf, 0)
	}
	return buf
}

// ImportBytes replaces the list with the NUL-terminated names in data.
// On failure the list is left empty.
func (nl *NameList) ImportBytes(data []byte) error {
	nl.names = nl.names[:0]
	nl.index = make(map[string]int)

	p := 0
	for p < len(data) {
		end := bytes.IndexByte(data[p:], 0)
		if end < 0 {
			nl.reset()
			return fmt.Errorf("unterminated name at byte %d: %w", p, ErrInvalidNameList)
		}
		if end == 0 {
			nl.reset()
			return fmt.Errorf("empty name at byte %d: %w", p, ErrInvalidNameList)
		}

		name := string(data[p : p+end])
		if _, err := nl.Append(name); err != nil {
			nl.reset()
			return fmt.Errorf("importing name %q: %w: %w", name, ErrInvalidNameList, err)
		}
		p += end + 1
	}

	return nil
}

func (nl *NameList) reset() {
	nl.names = nil
	nl.index = make(map[string]int)
}
