package core

import (
	"sync"
	"time"
)

// ExecutionEntry is one audited tool execution within a turn.
type ExecutionEntry struct {
	Call      ToolCall   `json:"call"`
	Result    ToolResult `json:"result"`
	Timestamp time.Time  `json:"timestamp"`
	Verified  bool       `json:"verified"`
}

// ExecutionLog is the append-only audit trail of executed tool calls. The
// driver keeps one per tenant and resets it at turn start; the orchestrator
// appends every execution outcome, successful or not. It is the sole evidence
// the driver consults before letting the model claim a booking happened.
//
// Concurrency: protected by a mutex; a tenant's turns are sequential but the
// log may be inspected by callers while a turn is in flight.
type ExecutionLog struct {
	mu      sync.RWMutex
	entries []ExecutionEntry
}

// NewExecutionLog creates an empty execution log.
func NewExecutionLog() *ExecutionLog {
	return &ExecutionLog{}
}

// Append records one executed call and its result.
func (l *ExecutionLog) Append(call ToolCall, result ToolResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, ExecutionEntry{
		Call:      call,
		Result:    result,
		Timestamp: time.Now().UTC(),
		Verified:  result.Verified,
	})
}

// Entries returns a defensive copy of all entries in append order.
func (l *ExecutionLog) Entries() []ExecutionEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ExecutionEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *ExecutionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Reset clears the log at the start of a new turn.
func (l *ExecutionLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// HasVerifiedBooking reports whether the turn produced at least one booking
// write that succeeded and passed post-write verification.
func (l *ExecutionLog) HasVerifiedBooking() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.Result.Action == ActionBookAppointment && e.Result.Success && e.Result.Verified {
			return true
		}
	}
	return false
}

// HasErrors reports whether any entry failed.
func (l *ExecutionLog) HasErrors() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if !e.Result.Success {
			return true
		}
	}
	return false
}
