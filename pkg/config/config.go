/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/flumelog/pkg/codec"
)

// Config represents flumelog's configuration.
type Config struct {
	LogPath       string  `yaml:"log_path"`
	OffsetWidth   int     `yaml:"offset_width"`
	ProjectorPath string  `yaml:"projector_path"`
	CheckpointDir string  `yaml:"checkpoint_dir"`
	Bind          string  `yaml:"bind"`
	Port          int     `yaml:"port"`
	Logging       Logging `yaml:"logging"`
}

// Logging contains logging configuration.
type Logging struct {
	Level string `yaml:"level"`
}

// Width returns the configured offset width as a codec.Width, defaulting
// to Width4 for anything other than 8.
func (c *Config) Width() codec.Width {
	if c.OffsetWidth == 8 {
		return codec.Width8
	}
	return codec.Width4
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogPath:       "./data/flume.log",
		OffsetWidth:   4,
		ProjectorPath: "./data/view.sqlite3",
		CheckpointDir: "./data/checkpoints",
		Bind:          "127.0.0.1",
		Port:          8080,
		Logging: Logging{
			Level: "info",
		},
	}
}

// LoadConfig reads and parses the YAML config file at configPath.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfig marshals config as YAML and writes it to configPath (creating
// the parent directory as needed), with file permissions restricted to the
// owner since the log/projector/checkpoint paths it records are local
// filesystem locations.
func SaveConfig(config *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// BootstrapConfig writes a default configuration rooted at dataDir to
// configPath. Callers typically guard this with !ConfigExists(configPath)
// to avoid clobbering an existing file.
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.LogPath = filepath.Join(dataDir, "flume.log")
		config.ProjectorPath = filepath.Join(dataDir, "view.sqlite3")
		config.CheckpointDir = filepath.Join(dataDir, "checkpoints")
	}

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns ~/.config/flumelog/config.yaml, falling back
// to a relative path if the home directory can't be resolved.
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./flumelog.yaml"
	}
	return filepath.Join(homeDir, ".config", "flumelog", "config.yaml")
}

// ConfigExists reports whether a file exists at configPath.
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return err == nil
}
