package plugins

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/toolmesh/circuitbreaker"
	"github.com/BaSui01/toolmesh/types"
)

// ManagerConfig holds the discovery and retry tunables of a Manager.
type ManagerConfig struct {
	// QuickAttempts is how many describe attempts startup discovery makes
	// per plugin before giving up on it.
	QuickAttempts int
	// QuickRetryDelay is the pause between quick attempts.
	QuickRetryDelay time.Duration
	// BackgroundInterval is the tick interval of background retry.
	BackgroundInterval time.Duration
	// BackgroundWindow is the hard ceiling on background retry, measured
	// from StartBackgroundDiscovery. Plugins still pending when it
	// elapses stay absent until process restart.
	BackgroundWindow time.Duration
	// ValidateArgs enables JSON Schema validation of tool arguments
	// against the tool's advertised input schema before any network call.
	ValidateArgs bool
}

// DefaultManagerConfig returns the default manager configuration.
func DefaultManagerConfig() *ManagerConfig {
	return &ManagerConfig{
		QuickAttempts:      2,
		QuickRetryDelay:    time.Second,
		BackgroundInterval: 30 * time.Second,
		BackgroundWindow:   10 * time.Minute,
		ValidateArgs:       true,
	}
}

// Stats summarizes the manager's current state for the consuming layer.
type Stats struct {
	PluginCount      int      `json:"plugin_count"`
	ToolCount        int      `json:"tool_count"`
	PendingPlugins   []string `json:"pending_plugins"`
	BackgroundActive bool     `json:"background_active"`
}

// DiscoveryCallback is invoked once for every plugin discovered by a
// background tick, so the orchestration layer can register its tools
// without a restart.
type DiscoveryCallback func(*types.DiscoveredPlugin)

// Manager owns plugin discovery, the tool routing table, and the tool
// execution entry point. The routing table and pending set are mutated
// only by discovery paths (startup fan-out, background ticks); tool
// invocations only read.
type Manager struct {
	config   *ManagerConfig
	logger   *zap.Logger
	breakers *circuitbreaker.Factory

	mu         sync.RWMutex
	clients    map[string]*Client
	discovered map[string]*types.DiscoveredPlugin
	routes     map[string]string // tool name -> owning plugin name
	pending    map[string]types.PluginConfig
	callbacks  []DiscoveryCallback

	bgMu       sync.Mutex
	bgCancel   context.CancelFunc
	bgDeadline time.Time
}

// NewManager creates a Manager. The breaker factory is optional: when
// present, every plugin invocation is wrapped in a per-plugin breaker.
func NewManager(config *ManagerConfig, breakers *circuitbreaker.Factory, logger *zap.Logger) *Manager {
	if config == nil {
		config = DefaultManagerConfig()
	}
	if config.QuickAttempts <= 0 {
		config.QuickAttempts = 2
	}
	if config.QuickRetryDelay <= 0 {
		config.QuickRetryDelay = time.Second
	}
	if config.BackgroundInterval <= 0 {
		config.BackgroundInterval = 30 * time.Second
	}
	if config.BackgroundWindow <= 0 {
		config.BackgroundWindow = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		config:     config,
		logger:     logger.With(zap.String("component", "plugin_manager")),
		breakers:   breakers,
		clients:    make(map[string]*Client),
		discovered: make(map[string]*types.DiscoveredPlugin),
		routes:     make(map[string]string),
		pending:    make(map[string]types.PluginConfig),
	}
}

// DiscoverPlugins attempts quick discovery of every configured plugin
// concurrently and waits for all outcomes. Successes populate the routing
// table. Failures of required plugins aggregate into a *DiscoveryError
// that must abort startup; optional failures enter the pending set for
// background retry.
func (m *Manager) DiscoverPlugins(ctx context.Context, configs []types.PluginConfig) error {
	seen := make(map[string]struct{}, len(configs))
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid plugin config: %w", err)
		}
		if _, dup := seen[cfg.Name]; dup {
			return fmt.Errorf("duplicate plugin name: %s", cfg.Name)
		}
		seen[cfg.Name] = struct{}{}
	}

	type outcome struct {
		cfg types.PluginConfig
		err error
	}
	outcomes := make([]outcome, len(configs))

	// Wait for all, then partition; one slow plugin must not mask the
	// outcomes of its siblings, so no fail-fast group context.
	var g errgroup.Group
	for i, cfg := range configs {
		i, cfg := i, cfg
		g.Go(func() error {
			outcomes[i] = outcome{cfg: cfg, err: m.discoverOne(ctx, cfg)}
			return nil
		})
	}
	_ = g.Wait()

	required := make(map[string]error)
	for _, o := range outcomes {
		if o.err == nil {
			continue
		}
		if o.cfg.Required {
			m.logger.Error("required plugin discovery failed",
				zap.String("plugin", o.cfg.Name),
				zap.String("url", o.cfg.URL),
				zap.String("code", string(types.GetErrorCode(o.err))),
				zap.Error(o.err))
			required[o.cfg.Name] = o.err
			continue
		}
		m.logger.Warn("optional plugin unreachable, queued for background retry",
			zap.String("plugin", o.cfg.Name),
			zap.String("url", o.cfg.URL),
			zap.String("code", string(types.GetErrorCode(o.err))),
			zap.Error(o.err))
		m.mu.Lock()
		m.pending[o.cfg.Name] = o.cfg
		m.mu.Unlock()
	}

	if len(required) > 0 {
		return &DiscoveryError{Failures: required}
	}
	return nil
}

// discoverOne runs the quick-discovery attempts for a single plugin and
// registers it on success.
func (m *Manager) discoverOne(ctx context.Context, cfg types.PluginConfig) error {
	client := NewClient(cfg, m.logger)

	var lastErr error
	for attempt := 1; attempt <= m.config.QuickAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.config.QuickRetryDelay):
			}
		}

		desc, err := client.Describe(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		m.register(cfg, client, desc)
		return nil
	}
	return lastErr
}

// register merges a successful describe result into the manager's state.
// Re-discovery replaces the DiscoveredPlugin wholesale, never mutates it.
func (m *Manager) register(cfg types.PluginConfig, client *Client, desc *types.DescribeResponse) *types.DiscoveredPlugin {
	dp := &types.DiscoveredPlugin{
		Name:         cfg.Name,
		URL:          cfg.URL,
		Version:      desc.Version,
		Tools:        desc.Tools,
		DiscoveredAt: time.Now(),
	}

	m.mu.Lock()
	m.clients[cfg.Name] = client
	m.discovered[cfg.Name] = dp
	delete(m.pending, cfg.Name)

	// The plugin's routes are replaced wholesale: entries it owned for
	// tools it no longer advertises are dropped.
	advertised := make(map[string]struct{}, len(desc.Tools))
	for _, tool := range desc.Tools {
		advertised[tool.Name] = struct{}{}
	}
	for toolName, owner := range m.routes {
		if owner == cfg.Name {
			if _, still := advertised[toolName]; !still {
				delete(m.routes, toolName)
			}
		}
	}

	for _, tool := range desc.Tools {
		// Last-writer-wins: the most recently discovered plugin owns a
		// conflicting tool name.
		if owner, exists := m.routes[tool.Name]; exists && owner != cfg.Name {
			m.logger.Warn("tool name conflict, reassigning to most recent plugin",
				zap.String("tool", tool.Name),
				zap.String("previous_owner", owner),
				zap.String("new_owner", cfg.Name))
		}
		m.routes[tool.Name] = cfg.Name
	}
	m.mu.Unlock()

	m.logger.Info("plugin discovered",
		zap.String("plugin", cfg.Name),
		zap.String("version", desc.Version),
		zap.Int("tools", len(desc.Tools)))
	return dp
}

// OnPluginDiscovered registers a callback fired for plugins discovered by
// background retry after startup.
func (m *Manager) OnPluginDiscovered(cb DiscoveryCallback) {
	if cb == nil {
		return
	}
	m.mu.Lock()
	m.callbacks = append(m.callbacks, cb)
	m.mu.Unlock()
}

// GetDiscoveredTools returns the flattened tool list, keeping only tools
// the routing table still attributes to their originating plugin. Tools
// superseded by a later discovery are filtered out.
func (m *Manager) GetDiscoveredTools() []types.ToolDefinition {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var tools []types.ToolDefinition
	for name, dp := range m.discovered {
		for _, tool := range dp.Tools {
			if m.routes[tool.Name] == name {
				tools = append(tools, tool)
			}
		}
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// IsPluginTool reports whether a plugin currently owns the named tool.
func (m *Manager) IsPluginTool(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.routes[name]
	return ok
}

// GetToolPlugin returns the name of the plugin owning the tool.
func (m *Manager) GetToolPlugin(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	owner, ok := m.routes[name]
	return owner, ok
}

// GetPlugin returns the discovery record of a plugin by name.
func (m *Manager) GetPlugin(name string) (*types.DiscoveredPlugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dp, ok := m.discovered[name]
	return dp, ok
}

// PendingPlugins returns the names of plugins not yet discovered, sorted.
func (m *Manager) PendingPlugins() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.pending))
	for name := range m.pending {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats returns plugin/tool counts, pending names, and whether background
// retry is active.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	s := Stats{
		PluginCount: len(m.discovered),
		ToolCount:   len(m.routes),
	}
	for name := range m.pending {
		s.PendingPlugins = append(s.PendingPlugins, name)
	}
	m.mu.RUnlock()

	sort.Strings(s.PendingPlugins)
	s.BackgroundActive = m.BackgroundActive()
	return s
}

// InvokeTool routes a tool call to its owning plugin. Routing failures
// come back as structured success:false responses, never as errors;
// transport failures and circuit rejections come back as errors.
func (m *Manager) InvokeTool(ctx context.Context, tool string, args, state map[string]any, sessionID string) (*types.InvokeResponse, error) {
	m.mu.RLock()
	owner, routed := m.routes[tool]
	client := m.clients[owner]
	var def types.ToolDefinition
	var haveDef bool
	if routed {
		if dp := m.discovered[owner]; dp != nil {
			for _, td := range dp.Tools {
				if td.Name == tool {
					def = td
					haveDef = true
					break
				}
			}
		}
	}
	m.mu.RUnlock()

	if !routed {
		return types.NewInvokeFailure(sessionID, types.ErrToolNotFound,
			fmt.Sprintf("no plugin provides tool %q", tool)), nil
	}
	if client == nil {
		return types.NewInvokeFailure(sessionID, types.ErrPluginNotAvailable,
			fmt.Sprintf("plugin %q owns tool %q but has no registered client", owner, tool)), nil
	}

	if m.config.ValidateArgs && haveDef {
		if err := validateArgs(def, args); err != nil {
			m.logger.Warn("tool arguments rejected by schema",
				zap.String("tool", tool),
				zap.String("plugin", owner),
				zap.Error(err))
			return types.NewInvokeFailure(sessionID, types.ErrToolValidation, err.Error()), nil
		}
	}

	if m.breakers != nil {
		b := m.breakers.Get("plugin:" + owner)
		return circuitbreaker.ExecuteTyped(b, func() (*types.InvokeResponse, error) {
			return client.Invoke(ctx, tool, args, state, sessionID)
		})
	}
	return client.Invoke(ctx, tool, args, state, sessionID)
}
