package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLoader map[string][]byte

func (m mapLoader) Retrieve(key string) ([]byte, error) {
	data, ok := m[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func TestExporter_ExportAssets(t *testing.T) {
	loader := mapLoader{
		"readme.txt":            []byte("hello"),
		"textures/grass.dds":    []byte("grass"),
		"textures/ui/frame.dds": []byte("frame"),
	}
	out := t.TempDir()
	e := NewExporter(loader, out)

	var calls []int
	result, err := e.ExportAssets(context.Background(),
		[]string{"readme.txt", "textures/grass.dds", "textures/ui/frame.dds"},
		func(current, total int, description string) {
			assert.Equal(t, 3, total)
			calls = append(calls, current)
		})
	require.NoError(t, err)

	assert.Equal(t, Result{Assets: 3, Bytes: 15}, result)
	assert.Equal(t, []int{1, 2, 3}, calls)

	for key, want := range loader {
		got, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(key)))
		require.NoError(t, err, key)
		assert.Equal(t, want, got)
	}
}

func TestExporter_Flatten(t *testing.T) {
	out := t.TempDir()
	e := NewExporter(mapLoader{"a/b/c.bin": []byte("x")}, out)
	e.SetFlatten(true)

	_, err := e.ExportAssets(context.Background(), []string{"a/b/c.bin"}, nil)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "a@b@c.bin"))
}

func TestExporter_RejectsEscapingKeys(t *testing.T) {
	e := NewExporter(mapLoader{}, t.TempDir())

	for _, key := range []string{"../evil", "a/../../evil", "/etc/passwd", "."} {
		_, err := e.OutputPath(key)
		assert.ErrorIs(t, err, ErrUnsafeKey, key)
	}

	path, err := e.OutputPath("a/../b")
	require.NoError(t, err)
	assert.Equal(t, "b", filepath.Base(path))
}

func TestExporter_MissingAsset(t *testing.T) {
	e := NewExporter(mapLoader{}, t.TempDir())
	_, err := e.ExportAssets(context.Background(), []string{"missing"}, nil)
	require.ErrorContains(t, err, "missing")
}

func TestExporter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewExporter(mapLoader{"k": []byte("v")}, t.TempDir())
	result, err := e.ExportAssets(ctx, []string{"k"}, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.Assets)
}
