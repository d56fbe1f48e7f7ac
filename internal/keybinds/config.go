package keybinds

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
)

// Config is the user's keybinding file. Each section maps an action to a
// comma separated list of keys; listed actions replace the default keys.
//
//	{
//	  // comments and trailing commas are allowed
//	  "global": { "open_settings": "ctrl+o,f2" },
//	  "editor": { "save": "ctrl+s" },
//	}
type Config struct {
	Version  string            `json:"version"`
	Global   map[string]string `json:"global,omitempty"`
	Editor   map[string]string `json:"editor,omitempty"`
	Settings map[string]string `json:"settings,omitempty"`
	Dialog   map[string]string `json:"dialog,omitempty"`
	Recent   map[string]string `json:"recent,omitempty"`
}

func (c *Config) sections() map[Context]map[string]string {
	return map[Context]map[string]string{
		ContextGlobal:   c.Global,
		ContextEditor:   c.Editor,
		ContextSettings: c.Settings,
		ContextDialog:   c.Dialog,
		ContextRecent:   c.Recent,
	}
}

// ParseConfig decodes a JSONC keybinding document
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &config); err != nil {
		return nil, fmt.Errorf("invalid keybinds.json format: %w", err)
	}
	return &config, nil
}

// LoadConfig loads keybinding configuration from a file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// SaveConfig writes configuration as indented JSON
func SaveConfig(config *Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SplitKeys splits a comma separated key list. A literal comma key is "comma".
func SplitKeys(value string) []string {
	var keys []string
	for _, part := range strings.Split(value, ",") {
		key := strings.TrimSpace(part)
		switch key {
		case "":
			continue
		case "comma":
			key = ","
		case "space":
			key = " "
		}
		keys = append(keys, key)
	}
	return keys
}

// ApplyConfig applies user configuration over the bindings in registry.
// Unknown contexts or actions and malformed keys are rejected before any
// binding changes.
func ApplyConfig(registry *Registry, config *Config) error {
	if result := NewValidator().ValidateConfig(config); result.HasErrors() {
		return errors.New(strings.TrimSpace(result.String()))
	}

	for context, section := range config.sections() {
		actions := make([]string, 0, len(section))
		for action := range section {
			actions = append(actions, action)
		}
		sort.Strings(actions)

		for _, name := range actions {
			action := Action(name)
			registry.Unbind(context, action)
			registry.RegisterMultiple(context, SplitKeys(section[name]), action)
		}
	}
	return nil
}

// LoadOrDefault loads user config if it exists, otherwise returns the defaults
func LoadOrDefault(configPath string) (*Registry, error) {
	registry := NewDefaultRegistry()

	if _, err := os.Stat(configPath); err == nil {
		config, err := LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load keybinds.json: %w", err)
		}
		if err := ApplyConfig(registry, config); err != nil {
			return nil, fmt.Errorf("failed to apply keybinds config: %w", err)
		}
	}

	return registry, nil
}

// ExportDefaults renders the default registry as a Config
func ExportDefaults() *Config {
	registry := NewDefaultRegistry()
	config := &Config{Version: "1.0"}

	targets := map[Context]*map[string]string{
		ContextGlobal:   &config.Global,
		ContextEditor:   &config.Editor,
		ContextSettings: &config.Settings,
		ContextDialog:   &config.Dialog,
		ContextRecent:   &config.Recent,
	}

	for context, target := range targets {
		grouped := make(map[string][]string)
		for _, b := range registry.List(context) {
			key := b.Key
			switch key {
			case ",":
				key = "comma"
			case " ":
				key = "space"
			}
			grouped[string(b.Action)] = append(grouped[string(b.Action)], key)
		}
		section := make(map[string]string, len(grouped))
		for action, keys := range grouped {
			section[action] = strings.Join(keys, ",")
		}
		*target = section
	}

	return config
}

// CreateExampleConfig writes the default bindings to path
func CreateExampleConfig(path string) error {
	return SaveConfig(ExportDefaults(), path)
}
