// Package core defines the shared domain model for CareMax: proposed tool
// calls and their canonical results, the per-tenant execution log, durable
// knowledge records with their staged modification requests, booking rows,
// conversation notes, role-based conversation content, and the repository
// interfaces the orchestration layer is written against. Everything here is
// storage-agnostic; concrete implementations live in the store, memory and
// session packages.
package core
