// Copyright (c) ToolMesh Authors.
// Licensed under the MIT License.

/*
Package config loads the static plugin list the manager discovers at
process start.

The list is a YAML document:

	plugins:
	  - name: cli-tools
	    url: http://localhost:8811
	    timeout_ms: 15000
	    required: true
	  - name: vector-store
	    url: http://localhost:8812

Records are validated and defaulted at load time and are immutable
afterwards. LoadDefault honors the TOOLMESH_PLUGINS_FILE environment
variable before falling back to plugins.yaml in the working directory.
*/
package config
