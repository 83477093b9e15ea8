// Copyright (c) ToolMesh Authors.
// Licensed under the MIT License.

/*
Package circuitbreaker provides per-dependency failure isolation.

A Breaker wraps an arbitrary fallible operation so that after a run of
consecutive failures, further calls fail fast with a typed OpenError
instead of waiting on a known-bad dependency, then automatically probes
for recovery after a cooldown.

State machine:

	Closed ──(FailureThreshold consecutive failures)──▶ Open
	Open ──(CooldownPeriod elapsed, evaluated on access)──▶ HalfOpen
	HalfOpen ──(probe success)──▶ Closed
	HalfOpen ──(probe failure)──▶ Open (cooldown restarts)

The Open to HalfOpen transition is lazy: it is evaluated when the breaker
is queried or asked to execute, never by a background timer. A breaker
that is never touched while open never advances.

A Factory provides get-or-create semantics keyed by dependency name so
call sites sharing a dependency share one breaker and one set of counters.
Factories are plain values meant to be constructed and passed in
explicitly; there is no process-wide instance.
*/
package circuitbreaker
