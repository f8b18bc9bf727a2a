// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal Logger interface while allowing callers to plug any
// structured logger. It also offers domain helpers for tool executions, model
// calls, post-write verification and plan progress.
package logging
