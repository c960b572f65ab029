package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/flumelog/pkg/codec"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "./data/flume.log", config.LogPath)
	assert.Equal(t, 4, config.OffsetWidth)
	assert.Equal(t, "./data/view.sqlite3", config.ProjectorPath)
	assert.Equal(t, "./data/checkpoints", config.CheckpointDir)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, "127.0.0.1", config.Bind)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, codec.Width4, config.Width())
}

func TestConfigWidth(t *testing.T) {
	cases := []struct {
		name string
		c    Config
		want codec.Width
	}{
		{"width 8", Config{OffsetWidth: 8}, codec.Width8},
		{"width 4", Config{OffsetWidth: 4}, codec.Width4},
		{"unset defaults to 4", Config{}, codec.Width4},
		{"anything else defaults to 4", Config{OffsetWidth: 16}, codec.Width4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.c.Width())
		})
	}
}

func TestSaveThenLoadConfigRoundTrips(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "flumelog_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "nested", "config.yaml")
	want := &Config{
		LogPath:       "/custom/data/flume.log",
		OffsetWidth:   8,
		ProjectorPath: "/custom/data/view.sqlite3",
		CheckpointDir: "/custom/data/checkpoints",
		Bind:          "0.0.0.0",
		Port:          9000,
		Logging:       Logging{Level: "debug"},
	}

	require.NoError(t, SaveConfig(want, configPath))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig("/non/existent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config file does not exist")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "flumelog_config_test")
		require.NoError(t, err)
		defer os.RemoveAll(tmpDir)

		configPath := filepath.Join(tmpDir, "invalid.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644))

		_, err = LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestSaveConfigRejectsUnwritableDirectory(t *testing.T) {
	err := SaveConfig(DefaultConfig(), "/invalid/path/that/cannot/be/created/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create config directory")
}

func TestBootstrapConfigPopulatesPathsUnderDataDir(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "flumelog_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")
	dataDir := filepath.Join(tmpDir, "data")

	config, err := BootstrapConfig(configPath, dataDir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dataDir, "flume.log"), config.LogPath)
	assert.Equal(t, filepath.Join(dataDir, "view.sqlite3"), config.ProjectorPath)
	assert.Equal(t, filepath.Join(dataDir, "checkpoints"), config.CheckpointDir)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, "127.0.0.1", config.Bind)

	require.True(t, ConfigExists(configPath))
	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
}

func TestBootstrapConfigWithoutDataDirUsesDefaults(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "flumelog_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")

	config, err := BootstrapConfig(configPath, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	assert.Contains(t, path, "flumelog")
	assert.Contains(t, path, "config.yaml")
}

func TestConfigExists(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "flumelog_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	existingPath := filepath.Join(tmpDir, "exists.yaml")
	require.NoError(t, os.WriteFile(existingPath, []byte("test"), 0644))

	assert.True(t, ConfigExists(existingPath))
	assert.False(t, ConfigExists(filepath.Join(tmpDir, "does-not-exist.yaml")))
}
