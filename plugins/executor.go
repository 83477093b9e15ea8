package plugins

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ToolExecutor is the single callable entry point an orchestration layer
// plugs into its tool-calling loop. It never returns an error and never
// panics: failures of any kind are rendered as "Error: ..." strings so a
// language-model loop sees plain output rather than a nested envelope.
type ToolExecutor func(ctx context.Context, tool string, args map[string]any) any

// NewToolExecutor adapts a Manager into a ToolExecutor. Plugin-owned
// tools are invoked through the manager and their response envelope is
// unwrapped: the raw result on success, "Error: <message>" on failure.
// Names not owned by any plugin defer to fallback, or produce a
// not-found string when fallback is nil.
func NewToolExecutor(m *Manager, fallback ToolExecutor) ToolExecutor {
	return func(ctx context.Context, tool string, args map[string]any) (out any) {
		defer func() {
			if r := recover(); r != nil {
				out = fmt.Sprintf("Error: tool %q panicked: %v", tool, r)
			}
		}()

		if !m.IsPluginTool(tool) {
			if fallback != nil {
				return fallback(ctx, tool, args)
			}
			return fmt.Sprintf("Error: tool %q not found", tool)
		}

		resp, err := m.InvokeTool(ctx, tool, args, nil, "")
		if err != nil {
			// Covers transport failures and circuit-open rejections; an
			// OpenError's message carries the remaining cooldown.
			return "Error: " + err.Error()
		}
		if !resp.Success {
			if resp.Error != nil && resp.Error.Message != "" {
				return "Error: " + resp.Error.Message
			}
			return fmt.Sprintf("Error: tool %q failed without details", tool)
		}
		return resp.Result
	}
}

// ToolCall names one tool invocation of a batch.
type ToolCall struct {
	Tool string
	Args map[string]any
}

// ExecuteBatch runs the calls as independent concurrent tasks, at most
// limit in flight (unbounded when limit <= 0), and joins all of them
// before returning. Each result lands at the caller's index; a failing
// call yields its error string there without aborting siblings.
func ExecuteBatch(ctx context.Context, exec ToolExecutor, calls []ToolCall, limit int) []any {
	results := make([]any, len(calls))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			results[i] = exec(ctx, call.Tool, call.Args)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
