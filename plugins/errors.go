package plugins

import (
	"fmt"
	"sort"
	"strings"
)

// DiscoveryError aggregates the discovery failures of required plugins.
// It aborts startup; the map holds each failed plugin's last error.
type DiscoveryError struct {
	Failures map[string]error
}

func (e *DiscoveryError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for name := range e.Failures {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	fmt.Fprintf(&sb, "discovery failed for %d required plugin(s): ", len(names))
	for i, name := range names {
		if i > 0 {
			sb.WriteString("; ")
		}
		fmt.Fprintf(&sb, "%s: %v", name, e.Failures[name])
	}
	return sb.String()
}

// FailedPlugins returns the names of the failed required plugins, sorted.
func (e *DiscoveryError) FailedPlugins() []string {
	names := make([]string, 0, len(e.Failures))
	for name := range e.Failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
