package types

import "encoding/json"

// ToolDefinition describes one capability a plugin advertises.
// InputSchema is a JSON Schema object describing accepted parameters and
// is passed through verbatim to the orchestration layer.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}
