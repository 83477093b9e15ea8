// Copyright (c) ToolMesh Authors.
// Licensed under the MIT License.

/*
Package plugins implements the plugin discovery, routing, and resilient
invocation core of ToolMesh.

A Client speaks the two-operation hook protocol (describe, invoke) to
exactly one plugin endpoint over HTTP, with per-call timeouts and typed
transport errors. It performs no retries; retry policy belongs to the
Manager.

The Manager owns the full lifecycle from static configuration to a live
routing table. At startup it discovers all configured plugins
concurrently (two quick attempts each), aborts on required-plugin
failures, and queues optional failures for background retry on a fixed
schedule bounded by a hard time window. Tool invocations are routed
through the owning plugin's client, optionally wrapped in a per-plugin
circuit breaker.

NewToolExecutor adapts a Manager into the single callable entry point an
orchestration layer plugs into its tool-calling loop: plugin envelopes
are unwrapped to raw results or "Error: ..." strings, and nothing on the
call path can crash the caller's loop.
*/
package plugins
