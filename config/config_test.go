package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiabertolotti/teamsartifacts/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultPeopleFile, cfg.Export.PeopleFile)
	assert.Equal(t, OutputFormatJSONL, cfg.Output.Format)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
export:
  dir: /data/export
output:
  path: /data/out.jsonl
  format: jsonl
workers: 8
log:
  level: debug
  json: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/export", cfg.Export.Dir)
	assert.Equal(t, "/data/out.jsonl", cfg.Output.Path)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	// File-level defaults survive a partial file.
	assert.Equal(t, DefaultPeopleFile, cfg.Export.PeopleFile)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("export:\n  dir: /from/file\n"), 0o600))

	t.Setenv("TEAMSARTIFACTS_EXPORT_DIR", "/from/env")
	t.Setenv("TEAMSARTIFACTS_WORKERS", "2")
	t.Setenv("TEAMSARTIFACTS_METRICS_LISTEN", ":9402")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Export.Dir)
	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9402", cfg.Metrics.Listen)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		cfg := Default()
		cfg.Export.Dir = t.TempDir()
		return cfg
	}

	t.Run("ok", func(t *testing.T) {
		assert.NoError(t, valid(t).Validate())
	})

	t.Run("missing export dir", func(t *testing.T) {
		cfg := Default()
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("export dir absent on disk", func(t *testing.T) {
		cfg := Default()
		cfg.Export.Dir = filepath.Join(t.TempDir(), "nope")
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad format", func(t *testing.T) {
		cfg := valid(t)
		cfg.Output.Format = "xml"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad workers", func(t *testing.T) {
		cfg := valid(t)
		cfg.Workers = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := valid(t)
		cfg.Log.Level = "loud"
		assert.Error(t, cfg.Validate())
	})

	t.Run("metrics without listen", func(t *testing.T) {
		cfg := valid(t)
		cfg.Metrics.Enabled = true
		assert.Error(t, cfg.Validate())
	})
}
