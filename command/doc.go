// Package command turns unvalidated model-proposed tool calls into a closed
// set of typed commands. Each supported action has a schema describing its
// arguments; Parse validates the raw argument map against that schema and
// returns a strict value type, so an unrecognized tool name or a malformed
// payload is a typed parse error rather than a runtime fallthrough.
package command
