package types

import (
	"fmt"
	"net/url"
	"time"
)

// DefaultPluginTimeout is applied when a PluginConfig does not set one.
const DefaultPluginTimeout = 30 * time.Second

// PluginConfig is the static configuration for one plugin service.
// It is read once at process start and never mutated afterwards.
type PluginConfig struct {
	// Name uniquely identifies the plugin among all configured plugins.
	Name string `json:"name"`
	// URL is the plugin's base endpoint; requests go to URL + "/execute".
	URL string `json:"url"`
	// Timeout bounds every call to the plugin. Zero means DefaultPluginTimeout.
	Timeout time.Duration `json:"timeout,omitempty"`
	// Required marks the plugin as mandatory: if it cannot be discovered
	// at startup, startup must abort.
	Required bool `json:"required,omitempty"`
}

// EffectiveTimeout returns the configured timeout or the default.
func (c PluginConfig) EffectiveTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultPluginTimeout
}

// Validate checks the config for structural errors.
func (c PluginConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("plugin name must not be empty")
	}
	if c.URL == "" {
		return fmt.Errorf("plugin %s: url must not be empty", c.Name)
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("plugin %s: invalid url: %w", c.Name, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("plugin %s: url must be absolute, got %q", c.Name, c.URL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("plugin %s: timeout must not be negative", c.Name)
	}
	return nil
}

// DiscoveredPlugin captures a plugin the moment its describe call succeeds.
// Instances are immutable; re-discovery replaces the whole value.
type DiscoveredPlugin struct {
	Name         string           `json:"name"`
	URL          string           `json:"url"`
	Version      string           `json:"version"`
	Tools        []ToolDefinition `json:"tools"`
	DiscoveredAt time.Time        `json:"discovered_at"`
}
