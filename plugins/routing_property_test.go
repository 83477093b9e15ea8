package plugins

import (
	"fmt"
	"testing"

	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/BaSui01/toolmesh/types"
)

// TestProperty_Routing_LastWriterWins registers random plugins with
// overlapping tool sets in a random order and checks the routing
// invariants: every tool is owned by the plugin that advertised it most
// recently, and the flattened tool list holds exactly one definition per
// owned tool name.
func TestProperty_Routing_LastWriterWins(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		numPlugins := rapid.IntRange(1, 5).Draw(rt, "numPlugins")
		numTools := rapid.IntRange(1, 6).Draw(rt, "numTools")
		numEvents := rapid.IntRange(1, 20).Draw(rt, "numEvents")

		m := NewManager(fastManagerConfig(), nil, zap.NewNop())

		// lastOwner models the expected routing table.
		lastOwner := make(map[string]string)

		for e := 0; e < numEvents; e++ {
			pluginIdx := rapid.IntRange(0, numPlugins-1).Draw(rt, "plugin")
			pluginName := fmt.Sprintf("plugin-%d", pluginIdx)

			// A random non-empty subset of the tool universe.
			toolSet := rapid.SliceOfNDistinct(
				rapid.IntRange(0, numTools-1), 1, numTools,
				func(i int) int { return i },
			).Draw(rt, "tools")

			tools := make([]types.ToolDefinition, 0, len(toolSet))
			inSet := make(map[string]bool, len(toolSet))
			for _, ti := range toolSet {
				name := fmt.Sprintf("tool-%d", ti)
				tools = append(tools, types.ToolDefinition{Name: name})
				inSet[name] = true
				lastOwner[name] = pluginName
			}
			// Re-discovery replaces the plugin's routes wholesale: tools
			// it previously owned but no longer advertises are dropped.
			for tool, owner := range lastOwner {
				if owner == pluginName && !inSet[tool] {
					delete(lastOwner, tool)
				}
			}

			cfg := types.PluginConfig{Name: pluginName, URL: "http://127.0.0.1:1"}
			m.register(cfg, NewClient(cfg, zap.NewNop()), &types.DescribeResponse{
				Name:    pluginName,
				Version: "1.0.0",
				Tools:   tools,
			})
		}

		for tool, wantOwner := range lastOwner {
			owner, ok := m.GetToolPlugin(tool)
			if !ok {
				rt.Fatalf("tool %s lost its routing entry", tool)
			}
			if owner != wantOwner {
				rt.Fatalf("tool %s owned by %s, want most recent writer %s", tool, owner, wantOwner)
			}
		}
		for ti := 0; ti < numTools; ti++ {
			tool := fmt.Sprintf("tool-%d", ti)
			if _, expected := lastOwner[tool]; expected {
				continue
			}
			if owner, ok := m.GetToolPlugin(tool); ok {
				rt.Fatalf("tool %s should have no route, but %s owns it", tool, owner)
			}
		}

		seen := make(map[string]bool)
		for _, tool := range m.GetDiscoveredTools() {
			if seen[tool.Name] {
				rt.Fatalf("tool %s appears more than once in discovered tools", tool.Name)
			}
			seen[tool.Name] = true
			if _, ok := lastOwner[tool.Name]; !ok {
				rt.Fatalf("unexpected tool %s in discovered tools", tool.Name)
			}
		}
	})
}
