package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAPIBaseURL, EnvDataDir, EnvStorage, EnvLogLevel} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(dir), cfg)
	assert.Equal(t, "http://localhost:3001", cfg.APIBaseURL)
	assert.Equal(t, "bolt", cfg.Storage)
}

func TestSaveAndLoad(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "nested")

	cfg := Default(dir)
	cfg.Storage = "sqlite"
	cfg.Email = "me@example.com"
	require.NoError(t, cfg.Save())

	info, err := os.Stat(cfg.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`
storage = "file"
api_base_url = "https://vault.example.com"
log_level = "info"
`), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Storage)
	assert.Equal(t, "https://vault.example.com", cfg.APIBaseURL)
	assert.Equal(t, "info", cfg.LogLevel)

	t.Setenv(EnvAPIBaseURL, "http://127.0.0.1:9999")
	t.Setenv(EnvLogLevel, "debug")
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Storage)
	assert.Equal(t, "http://127.0.0.1:9999", cfg.APIBaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadInvalid(t *testing.T) {
	clearEnv(t)

	for name, content := range map[string]string{
		"bad toml":    `storage = `,
		"bad storage": `storage = "floppy"`,
		"bad url":     `api_base_url = "localhost"`,
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0600))
			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}

func TestDefaultDataDir(t *testing.T) {
	t.Setenv(EnvDataDir, "/tmp/elsewhere")
	dir, err := DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/elsewhere", dir)

	t.Setenv(EnvDataDir, "")
	t.Setenv("HOME", "/home/someone")
	dir, err = DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/someone", DirName), dir)
}
