package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/toolmesh/types"
)

// EnvPluginsFile overrides the default plugin-list path.
const EnvPluginsFile = "TOOLMESH_PLUGINS_FILE"

// DefaultPluginsFile is used when no path is given and the environment
// variable is unset.
const DefaultPluginsFile = "plugins.yaml"

// pluginRecord is the YAML shape of one configured plugin.
type pluginRecord struct {
	Name      string `yaml:"name"`
	URL       string `yaml:"url"`
	TimeoutMS int    `yaml:"timeout_ms"`
	Required  bool   `yaml:"required"`
}

type pluginsFile struct {
	Plugins []pluginRecord `yaml:"plugins"`
}

// Parse decodes and validates a plugin list from YAML bytes. Order is
// preserved; names must be unique.
func Parse(data []byte) ([]types.PluginConfig, error) {
	var file pluginsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse plugin list: %w", err)
	}

	configs := make([]types.PluginConfig, 0, len(file.Plugins))
	seen := make(map[string]struct{}, len(file.Plugins))
	for i, rec := range file.Plugins {
		if rec.TimeoutMS < 0 {
			return nil, fmt.Errorf("plugin %q: timeout_ms must not be negative", rec.Name)
		}
		cfg := types.PluginConfig{
			Name:     rec.Name,
			URL:      rec.URL,
			Timeout:  time.Duration(rec.TimeoutMS) * time.Millisecond,
			Required: rec.Required,
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("plugin list entry %d: %w", i, err)
		}
		if _, dup := seen[cfg.Name]; dup {
			return nil, fmt.Errorf("duplicate plugin name: %s", cfg.Name)
		}
		seen[cfg.Name] = struct{}{}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// Load reads and parses the plugin list at path.
func Load(path string) ([]types.PluginConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plugin list %s: %w", path, err)
	}
	return Parse(data)
}

// LoadDefault loads the plugin list from TOOLMESH_PLUGINS_FILE, falling
// back to plugins.yaml.
func LoadDefault() ([]types.PluginConfig, error) {
	path := os.Getenv(EnvPluginsFile)
	if path == "" {
		path = DefaultPluginsFile
	}
	return Load(path)
}
