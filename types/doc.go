// Copyright (c) ToolMesh Authors.
// Licensed under the MIT License.

/*
Package types provides the shared type contracts of the ToolMesh core.

types is the lowest-level package of the module. It depends on nothing
else in the repository and defines the data model exchanged between the
plugin client, the plugin manager, and the consuming orchestration layer.

Core types:

	PluginConfig: static per-plugin configuration (name, url, timeout, required)
	ToolDefinition: a named, schema-described capability advertised by a plugin
	DiscoveredPlugin: the result of a successful describe call
	DescribeResponse: wire response of the describe hook
	InvokeResponse: wire response of the invoke hook (success or structured failure)
	Error, ErrorCode: structured error taxonomy with fluent builders
*/
package types
