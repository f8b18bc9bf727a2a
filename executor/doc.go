// Package executor implements one deterministic handler per supported
// command. Booking writes enforce the conflict and upsert rules against a
// fresh read of the table; lookups tolerate eventual consistency with a
// bounded retry and fall back to conversation notes. Results are canonical
// core.ToolResult values; booking writes stay unverified until the
// orchestrator's post-write verification confirms them.
package executor
