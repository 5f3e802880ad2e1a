// Package config reads the vcs tool settings from a YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/drpcorg/vcs/utils"
	"gopkg.in/yaml.v3"
)

// EnvPath names the variable that overrides the config file location.
const EnvPath = "VCS_CONFIG"

type Config struct {
	// Store is the directory of the revision database
	Store     string `yaml:"store"`
	Author    string `yaml:"author"`
	LogLevel  string `yaml:"log_level"`
	CacheSize int    `yaml:"cache_size"`
}

func Default() Config {
	author := os.Getenv("USER")
	if author == "" {
		author = "anonymous"
	}
	return Config{
		Store:     ".vcs",
		Author:    author,
		LogLevel:  "warn",
		CacheSize: 64,
	}
}

func (c Config) Level() slog.Level {
	return utils.ParseLevel(c.LogLevel)
}

var (
	// Global is the loaded configuration
	Global Config
	once   sync.Once
)

// Load fills Global once; later calls return the first result.
func Load() error {
	var err error
	once.Do(func() {
		Global, err = LoadFile(Path())
	})
	return err
}

// Path is $VCS_CONFIG or ~/.vcs/config.yaml.
func Path() string {
	if path := os.Getenv(EnvPath); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "vcs.yaml"
	}
	return filepath.Join(home, ".vcs", "config.yaml")
}

// LoadFile reads the file over the defaults. A missing file means
// the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	} else if err != nil {
		return cfg, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = Default().CacheSize
	}
	return cfg, nil
}

// Save writes the config, creating the directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
