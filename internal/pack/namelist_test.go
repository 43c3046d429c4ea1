package pack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameList_AppendAndSearch(t *testing.T) {
	nl := NewNameList()

	i, err := nl.Append("textures/grass.dds")
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	i, err = nl.Append("shaders/basic.hlsl")
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	assert.Equal(t, 1, nl.Search("shaders/basic.hlsl"))
	assert.Equal(t, NotFound, nl.Search("missing"))
	assert.Equal(t, "textures/grass.dds", nl.Get(0))
	assert.Equal(t, "", nl.Get(2))
	assert.Equal(t, "", nl.Get(-1))
	assert.Equal(t, 2, nl.Len())
}

func TestNameList_AppendRejectsEmptyAndDuplicate(t *testing.T) {
	nl := NewNameList()

	_, err := nl.Append("")
	require.ErrorIs(t, err, ErrEmptyKey)

	_, err = nl.Append("a")
	require.NoError(t, err)
	_, err = nl.Append("a")
	require.ErrorIs(t, err, ErrDuplicatedKey)
	assert.Equal(t, 1, nl.Len())
}

func TestNameList_RemoveShiftsIndices(t *testing.T) {
	nl := NewNameList()
	for _, name := range []string{"a", "b", "c", "d"} {
		_, err := nl.Append(name)
		require.NoError(t, err)
	}

	assert.True(t, nl.Remove("b"))
	assert.False(t, nl.Remove("b"))

	assert.Equal(t, []string{"a", "c", "d"}, nl.Names())
	assert.Equal(t, 0, nl.Search("a"))
	assert.Equal(t, 1, nl.Search("c"))
	assert.Equal(t, 2, nl.Search("d"))
	assert.Equal(t, NotFound, nl.Search("b"))
}

func TestNameList_ExportImport(t *testing.T) {
	nl := NewNameList()
	for _, name := range []string{"models/tree.obj", "ui/ünïcode.png", "x"} {
		_, err := nl.Append(name)
		require.NoError(t, err)
	}

	data := nl.ExportBytes()
	assert.Len(t, data, nl.ByteSize())
	assert.Equal(t, byte(0), data[len(data)-1])

	restored := NewNameList()
	_, err := restored.Append("stale")
	require.NoError(t, err)
	require.NoError(t, restored.ImportBytes(data))

	assert.Equal(t, nl.Names(), restored.Names())
	assert.Equal(t, NotFound, restored.Search("stale"))
}

func TestNameList_ImportEmpty(t *testing.T) {
	nl := NewNameList()
	require.NoError(t, nl.ImportBytes(nil))
	assert.Equal(t, 0, nl.Len())
	assert.Empty(t, nl.ExportBytes())
}

func TestNameList_ImportMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"unterminated", []byte("abc\x00def")},
		{"empty token", []byte("abc\x00\x00")},
		{"duplicate", []byte("abc\x00abc\x00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nl := NewNameList()
			err := nl.ImportBytes(tt.data)
			require.ErrorIs(t, err, ErrInvalidNameList)
			assert.Equal(t, 0, nl.Len())
		})
	}
}
