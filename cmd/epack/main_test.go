package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jchantrell/epack/internal/pack"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if store != nil {
		require.NoError(t, store.Close())
	}
	return err
}

func TestCommands_EndToEnd(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "epack.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_level: error\n"), 0644))

	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "textures"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "textures", "grass.dds"), []byte("grass"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "readme.txt"), []byte("hello"), 0644))

	common := []string{"--config", cfgPath, "--root", root, "--no-progress"}
	with := func(args ...string) []string {
		return append(append([]string{}, args...), common...)
	}

	require.NoError(t, run(t, with("create", "game")...))
	require.Error(t, run(t, with("create", "game")...))

	require.NoError(t, run(t, with("add", "game", src)...))
	require.NoError(t, run(t, with("rm", "game", "readme.txt")...))
	require.NoError(t, run(t, with("verify", "game", "--deep")...))

	out := t.TempDir()
	require.NoError(t, run(t, with("extract", "game", out)...))
	got, err := os.ReadFile(filepath.Join(out, "textures", "grass.dds"))
	require.NoError(t, err)
	assert.Equal(t, []byte("grass"), got)

	stdoutPath := filepath.Join(t.TempDir(), "stdout")
	stdout, err := os.Create(stdoutPath)
	require.NoError(t, err)
	saved := os.Stdout
	os.Stdout = stdout
	err = run(t, with("get", "game", "textures/grass.dds")...)
	os.Stdout = saved
	require.NoError(t, stdout.Close())
	require.NoError(t, err)
	got, err = os.ReadFile(stdoutPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("grass"), got)

	dbPath := filepath.Join(t.TempDir(), "index.db")
	require.NoError(t, run(t, with("index", "game", "--database", dbPath)...))
	assert.FileExists(t, dbPath)

	p, err := pack.Open(filepath.Join(root, "game"), nil)
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, []string{"textures/grass.dds"}, p.Names())
}

func TestFormatVersion(t *testing.T) {
	stamp := time.Date(2022, time.August, 9, 17, 44, 0, 0, time.Local)
	assert.Equal(t, "2022-08-09 17:44", formatVersion(pack.PackTime(stamp)))
	assert.Equal(t, "12", formatVersion(12))
}
