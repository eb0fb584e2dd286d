package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "eva.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFileConfig(t *testing.T) {
	path := writeConfig(t, `
server = "http://eva.internal:3001"
timeout = "45s"
log_file = "/tmp/eva.log"
`)

	cfg, err := LoadFileConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "http://eva.internal:3001", cfg.Server)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, "/tmp/eva.log", cfg.LogFile)
}

func TestLoadFileConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `sever = "http://typo"`)

	_, err := LoadFileConfig(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sever")
}

func TestLoadFileConfigMissingFile(t *testing.T) {
	_, err := LoadFileConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
