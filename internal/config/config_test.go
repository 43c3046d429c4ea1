package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "epack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "epack.db", cfg.Database)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, -1, cfg.CompressionLevel)
	assert.False(t, cfg.Checksum)
	assert.Equal(t, 1000, cfg.BatchSize)
	assert.NotEmpty(t, cfg.Root)
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
root: /srv/assets
database: index.db
log_level: debug
log_format: json
compression_level: 9
checksum: true
sync: true
workers: 4
`))
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Root:             "/srv/assets",
		Database:         "index.db",
		LogLevel:         "debug",
		LogFormat:        "json",
		CompressionLevel: 9,
		Checksum:         true,
		Sync:             true,
		Workers:          4,
		BatchSize:        1000,
	}, cfg)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("EPACK_LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, "log_level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"log level", "log_level: loud\n", "log_level"},
		{"log format", "log_format: xml\n", "log_format"},
		{"compression", "compression_level: 11\n", "compression_level"},
		{"workers", "workers: -1\n", "workers"},
		{"batch size", "batch_size: 0\n", "batch_size"},
		{"root", "root: ' '\n", "root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.ErrorContains(t, err, tt.errText)
		})
	}
}
