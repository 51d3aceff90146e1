package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	settings, err := Load(viper.New())
	require.NoError(t, err)

	assert.Empty(t, settings.Username)
	assert.Equal(t, "20000", settings.TimeoutMs)
	assert.Equal(t, time.Second, settings.BackoffDelay)
	assert.False(t, settings.ForceLicenseChange)
}

func TestLoadReadsConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, configDirName)
	require.NoError(t, os.MkdirAll(dir, configDirMode))
	content := `
username = "reseller@example.com"
timeout_ms = "30000"
backoff_delay_ms = 2000
protect_plan_id = "900"
force_license_change = true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), configMode))

	settings, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "reseller@example.com", settings.Username)
	assert.Equal(t, "30000", settings.TimeoutMs)
	assert.Equal(t, 2*time.Second, settings.BackoffDelay)
	assert.Equal(t, "900", settings.ProtectPlanID)
	assert.True(t, settings.ForceLicenseChange)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, configDirName)
	require.NoError(t, os.MkdirAll(dir, configDirMode))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`username = "from-file"`), configMode))

	t.Setenv("EGR_USERNAME", "from-env")
	t.Setenv("EGR_BASE_URL", "http://127.0.0.1:9999")

	settings, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "from-env", settings.Username)
	assert.Equal(t, "http://127.0.0.1:9999", settings.BaseURL)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, configDirName)
	require.NoError(t, os.MkdirAll(dir, configDirMode))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("username = [broken"), configMode))

	_, err := Load(viper.New())
	require.Error(t, err)
	assert.ErrorContains(t, err, "read config file")
}

func TestInitWritesStarterFileOnce(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := Init(Settings{Username: "reseller@example.com"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, configDirName, "config.toml"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(configMode), info.Mode().Perm())

	settings, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "reseller@example.com", settings.Username)
	assert.Equal(t, "20000", settings.TimeoutMs)
	assert.Equal(t, time.Second, settings.BackoffDelay)

	_, err = Init(Settings{Username: "other"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "already exists")
}
