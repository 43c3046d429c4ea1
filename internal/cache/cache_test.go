package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jchantrell/epack/internal/pack"
)

func TestCache_PackageBase(t *testing.T) {
	root := t.TempDir()
	c := New(root, nil)

	base, err := c.PackageBase("textures")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "textures"), base)

	base, err = c.PackageBase("levels/forest.eph")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "levels", "forest"), base)

	for _, bad := range []string{"", "  ", "../outside", "/abs/path", "a/../../b"} {
		_, err := c.PackageBase(bad)
		assert.ErrorIs(t, err, ErrInvalidName, bad)
	}
}

func TestCache_CreateOpenList(t *testing.T) {
	root := t.TempDir()
	c := New(root, nil)
	defer c.Close()

	assert.False(t, c.Exists("ui"))

	p, err := c.Create("ui")
	require.NoError(t, err)
	require.NoError(t, p.Add([]byte("button"), "button.png", 0))

	_, err = c.Create("levels/forest")
	require.NoError(t, err)

	assert.True(t, c.Exists("ui"))

	same, err := c.Open("ui")
	require.NoError(t, err)
	assert.Same(t, p, same)

	data, err := c.ReadAsset("ui", "button.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("button"), data)

	// stray header without a bundle is not a package
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.eph"), []byte{1}, 0644))

	names, err := c.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"levels/forest", "ui"}, names)
}

func TestCache_ReopenAfterClose(t *testing.T) {
	c := New(t.TempDir(), &pack.Options{CompressionLevel: 9})
	defer c.Close()

	p, err := c.Create("sounds")
	require.NoError(t, err)
	require.NoError(t, p.Add([]byte("boom"), "boom.wav", 3))
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	reopened, err := c.Open("sounds")
	require.NoError(t, err)
	assert.NotSame(t, p, reopened)
	assert.Equal(t, []string{"boom.wav"}, reopened.Names())
}

func TestCache_OpenMissing(t *testing.T) {
	c := New(t.TempDir(), nil)
	_, err := c.Open("nothing")
	require.ErrorIs(t, err, pack.ErrFileOpenFail)

	_, err = c.ReadAsset("nothing", "k")
	require.Error(t, err)
}

func TestCache_ListMissingRoot(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "absent"), nil)
	names, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCache_CloseClosesPackages(t *testing.T) {
	c := New(t.TempDir(), nil)
	p, err := c.Create("a")
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.ErrorIs(t, p.Add([]byte{1}, "k", 0), pack.ErrNotOpen)
}
