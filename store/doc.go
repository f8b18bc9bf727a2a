// Package store provides process-local reference implementations of the core
// repository interfaces: a tabular booking store with a fixed header, a note
// store, a config-backed sheet source and a substring-matching retriever.
// They are safe for concurrent access and suited to tests and local
// development; production deployments supply durable implementations.
package store
