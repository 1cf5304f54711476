package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-ui/loom/v2/internal/diag"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.False(t, cfg.Dev)
	assert.Equal(t, DefaultMaxUpdateCount, cfg.MaxUpdateCount)
	assert.Equal(t, DefaultDevtoolsAddr, cfg.Devtools.Addr)
	assert.Equal(t, "loom", cfg.Devtools.Namespace)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"name": "demo", "dev": true}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Name)
	assert.True(t, cfg.Dev)
	assert.Equal(t, DefaultMaxUpdateCount, cfg.MaxUpdateCount)
	assert.Equal(t, DefaultDevtoolsAddr, cfg.Devtools.Addr)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), cfg.Path())
}

func TestLoadFullFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{
		"name": "demo",
		"maxUpdateCount": 50,
		"devtools": {"enabled": true, "addr": "localhost:9000", "namespace": "demo"}
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.MaxUpdateCount)
	assert.True(t, cfg.Devtools.Enabled)
	assert.Equal(t, "localhost:9000", cfg.Devtools.Addr)
	assert.Equal(t, "demo", cfg.Devtools.Namespace)
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{not json`)

	_, err := Load(dir)
	require.Error(t, err)

	var derr *diag.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "L402", derr.Code)
	assert.Equal(t, diag.CategoryConfig, derr.Category)
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"maxUpdateCount": -5}`)

	_, err := Load(dir)
	require.Error(t, err)

	var derr *diag.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "L403", derr.Code)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, Exists(dir))
	writeConfig(t, dir, `{}`)
	assert.True(t, Exists(dir))
}
