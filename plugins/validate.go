package plugins

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/BaSui01/toolmesh/types"
)

// validateArgs checks tool arguments against the tool's advertised input
// schema. Tools without a schema accept anything.
func validateArgs(def types.ToolDefinition, args map[string]any) error {
	if len(def.InputSchema) == 0 {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(def.InputSchema),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		// A broken schema is the plugin's fault, not the caller's; let
		// the call through rather than blocking a usable tool.
		return nil
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid arguments for tool %q: %s", def.Name, strings.Join(msgs, "; "))
}
