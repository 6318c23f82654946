package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/dlt"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 4096, cfg.Decode.ResyncChunkSize)
	assert.Equal(t, "ascii", cfg.Decode.StringEncoding)
	assert.Equal(t, "table", cfg.Output.Format)
	assert.Equal(t, "auto", cfg.Output.Color)
	assert.NotEmpty(t, cfg.Cache.Directory)
	require.NoError(t, cfg.Validate())

	opts, err := cfg.DecodeOptions()
	require.NoError(t, err)
	assert.Equal(t, time.Local, opts.Location)
}

func TestLoadResolvesRelativeDirectories(t *testing.T) {
	path := writeConfig(t, `
logs:
  directory: logs
  maxSizeMB: 10
decode:
  stringEncoding: latin1
  timezone: UTC
  resyncChunkSize: 512
cache:
  enabled: true
  directory: cache
output:
  format: ndjson
  color: never
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	base := filepath.Dir(path)
	assert.Equal(t, filepath.Join(base, "logs"), cfg.Logs.Directory)
	assert.Equal(t, filepath.Join(base, "cache"), cfg.Cache.Directory)
	assert.Equal(t, 10, cfg.Logs.MaxSizeMB)
	assert.Equal(t, 14, cfg.Logs.MaxAgeDays)
	assert.True(t, cfg.Cache.Enabled)

	opts, err := cfg.DecodeOptions()
	require.NoError(t, err)
	assert.Equal(t, dlt.EncodingLatin1, opts.StringEncoding)
	assert.Equal(t, "UTC", opts.Location.String())
	assert.Equal(t, 512, opts.ResyncChunkSize)

	logs := cfg.Logging()
	assert.Equal(t, cfg.Logs.Directory, logs.Directory)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default().Decode, cfg.Decode)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"encoding":      "decode:\n  stringEncoding: ebcdic\n",
		"timezone":      "decode:\n  timezone: Mars/Olympus\n",
		"format":        "output:\n  format: xml\n",
		"color":         "output:\n  color: sometimes\n",
		"unknown field": "decode:\n  speed: 3\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
