package domain

import "time"

// InvocationRequest captures a single call coming from the CLI, a tool-call
// adapter or the MCP server.
type InvocationRequest struct {
	Action       string
	Parameters   map[string]any
	BypassPolicy bool
	// Timeout overrides the dispatcher timeout when positive.
	Timeout time.Duration
	// Attempts forces retry with this many total attempts when above 1.
	Attempts int
}

// InvocationResult is the ephemeral outcome of one successful dispatch.
type InvocationResult struct {
	ID       string
	Action   string
	Script   string
	Raw      string
	Value    any
	Attempts int
	Duration time.Duration
}

// InvocationOutcome pairs a result with its error, as delivered by the
// asynchronous and batch entry points.
type InvocationOutcome struct {
	Result InvocationResult
	Err    error
}

// ExecutionResult wraps the facts reported by the script runner.
type ExecutionResult struct {
	Stdout     string
	Stderr     string
	ExitCode   int
	DurationMS int64
	TimedOut   bool
}
