package pack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T, entries ...HeaderEntry) *HeaderCatalog {
	t.Helper()
	hc := NewHeaderCatalog()
	for _, entry := range entries {
		require.NoError(t, hc.Insert(entry))
	}
	return hc
}

func TestHeaderCatalog_InsertRemove(t *testing.T) {
	hc := newTestCatalog(t, HeaderEntry{Name: "a", Size: 4, OrgSize: 8})

	err := hc.Insert(HeaderEntry{Name: "a", Size: 1, OrgSize: 1})
	require.ErrorIs(t, err, ErrDuplicatedKey)

	err = hc.Insert(HeaderEntry{Size: 1})
	require.ErrorIs(t, err, ErrEmptyKey)

	entry, ok := hc.TryGet("a")
	require.True(t, ok)
	assert.Equal(t, uint32(4), entry.Size)

	require.NoError(t, hc.Remove("a"))
	require.ErrorIs(t, hc.Remove("a"), ErrNotExistedKey)

	_, ok = hc.TryGet("a")
	assert.False(t, ok)
}

func TestHeaderCatalog_RepackOffsets(t *testing.T) {
	hc := newTestCatalog(t,
		HeaderEntry{Name: "first", Offset: 0, Size: 10, OrgSize: 20},
		HeaderEntry{Name: "removed", Offset: 10, Size: 5, OrgSize: 9},
		HeaderEntry{Name: "third", Offset: 15, Size: 7, OrgSize: 7},
		HeaderEntry{Name: "fourth", Offset: 22, Size: 3, OrgSize: 30},
	)

	hc.RepackOffsets(5, 10)

	offsets := map[string]uint32{}
	for _, entry := range hc.Entries() {
		offsets[entry.Name] = entry.Offset
	}
	assert.Equal(t, map[string]uint32{
		"first":   0,
		"removed": 10,
		"third":   10,
		"fourth":  17,
	}, offsets)
}

func TestHeaderCatalog_CalcByteSize(t *testing.T) {
	hc := newTestCatalog(t,
		HeaderEntry{Name: "abc", Size: 1, OrgSize: 1},
		HeaderEntry{Name: "de", Size: 1, OrgSize: 1},
	)

	assert.Equal(t, 4+3+2*5*4, hc.CalcByteSize())
	assert.Len(t, hc.ExportBytes(), hc.CalcByteSize())
}

func TestHeaderCatalog_ExportImport(t *testing.T) {
	hc := newTestCatalog(t,
		HeaderEntry{Name: "textures/a.dds", Version: 7, Size: 100, OrgSize: 400, Offset: 0, CRC: 0xDEADBEEF},
		HeaderEntry{Name: "meshes/b.mesh", Version: PackTime(testTime()), Size: 55, OrgSize: 60, Offset: 100},
		HeaderEntry{Name: "c", Version: 0, Size: 1, OrgSize: 1, Offset: 155},
	)

	restored := NewHeaderCatalog()
	require.NoError(t, restored.ImportBytes(hc.ExportBytes()))

	assert.Equal(t, hc.Entries(), restored.Entries())
}

func TestHeaderCatalog_ImportMalformed(t *testing.T) {
	hc := newTestCatalog(t, HeaderEntry{Name: "a", Size: 1, OrgSize: 1})
	data := hc.ExportBytes()

	t.Run("truncated fields", func(t *testing.T) {
		restored := NewHeaderCatalog()
		err := restored.ImportBytes(data[:len(data)-1])
		require.ErrorIs(t, err, ErrInvalidHeaderData)
		assert.Equal(t, 0, restored.Len())
	})

	t.Run("unterminated name", func(t *testing.T) {
		restored := NewHeaderCatalog()
		err := restored.ImportBytes([]byte("abc"))
		require.ErrorIs(t, err, ErrInvalidHeaderData)
	})

	t.Run("duplicate entry", func(t *testing.T) {
		restored := NewHeaderCatalog()
		err := restored.ImportBytes(append(append([]byte{}, data...), data...))
		require.ErrorIs(t, err, ErrInvalidHeaderData)
		require.ErrorIs(t, err, ErrDuplicatedKey)
		assert.Equal(t, 0, restored.Len())
	})
}
