// Package orchestrate mediates between model-proposed tool calls and their
// execution. It parses proposals into typed commands, executes them, chains
// booking writes into an independent post-write verification read, and
// appends every outcome to the caller's execution log. A write that cannot be
// re-confirmed is downgraded to failure so it can never be surfaced as
// success.
package orchestrate
