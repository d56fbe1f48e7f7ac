package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ferrum-editor/ferrum/internal/types"
	"gopkg.in/yaml.v3"
)

// ConfigStore persists the editor configuration in a JSON or YAML file
type ConfigStore struct {
	path string

	mu     sync.RWMutex
	config types.Config
}

// OpenConfigStore loads path, seeding it with the default config if missing
func OpenConfigStore(path string) (*ConfigStore, error) {
	s := &ConfigStore{path: path}

	cfg, err := LoadConfig(path)
	switch {
	case err == nil:
		s.config = *cfg
	case errors.Is(err, os.ErrNotExist):
		s.config = types.DefaultConfig()
		if err := SaveConfig(&s.config, path); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return s, nil
}

// Get returns the current configuration
func (s *ConfigStore) Get() types.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Set validates, persists and installs cfg
func (s *ConfigStore) Set(cfg types.Config) error {
	if err := validateConfig(&cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := SaveConfig(&cfg, s.path); err != nil {
		return err
	}
	s.config = cfg
	return nil
}

// LoadConfig reads a configuration file; the format follows the extension
func LoadConfig(path string) (*types.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := types.DefaultConfig()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (use .yaml, .yml, or .json)", ext)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

func validateConfig(config *types.Config) error {
	if config.Editor.FontSize <= 0 {
		return fmt.Errorf("editor.fontSize must be positive")
	}
	if config.Terminal.Port < 0 || config.Terminal.Port > 65535 {
		return fmt.Errorf("terminal.port must be between 0 and 65535")
	}
	return nil
}

// SaveConfig writes a configuration file; the format follows the extension
func SaveConfig(config *types.Config, path string) error {
	var data []byte
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s (use .yaml, .yml, or .json)", ext)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// writeFileAtomic replaces path via a temp file in the same directory
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
