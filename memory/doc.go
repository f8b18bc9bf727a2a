// Package memory implements long-term knowledge storage with a staged
// modification workflow. Record creation applies immediately; edits and
// deletes are staged as ModificationRequests and mutate nothing until a human
// approves them. Consolidation proposes merges through the same staging path.
package memory
