package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const defaultServer = "http://localhost:8080"

// fileConfig models the leadctl YAML config file.
type fileConfig struct {
	Server       string `yaml:"server"`
	AccessToken  string `yaml:"access_token,omitempty"`
	RefreshToken string `yaml:"refresh_token,omitempty"`
}

// defaultConfigPath returns $XDG_CONFIG_HOME/leadctl/config.yaml or the
// platform equivalent.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".leadctl.yaml"
	}
	return filepath.Join(dir, "leadctl", "config.yaml")
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fileConfig{Server: defaultServer}, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.Server == "" {
		cfg.Server = defaultServer
	}
	return cfg, nil
}

func saveConfig(path string, cfg fileConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	// tokens are credentials
	return os.WriteFile(path, data, 0o600)
}

// fileTokens persists the token pair into the config file, so every
// rotation survives the process.
type fileTokens struct {
	mu   sync.Mutex
	path string
	cfg  fileConfig
}

func (f *fileTokens) Access() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg.AccessToken
}

func (f *fileTokens) Refresh() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg.RefreshToken
}

func (f *fileTokens) Set(access, refresh string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg.AccessToken, f.cfg.RefreshToken = access, refresh
	return saveConfig(f.path, f.cfg)
}

func (f *fileTokens) Clear() error {
	return f.Set("", "")
}
