package core

import "time"

// ActionKind identifies a supported action. The set is closed: command.Parse
// maps unknown names to a typed error instead of dispatching.
type ActionKind string

const (
	// ActionBookAppointment creates or updates a booking row.
	ActionBookAppointment ActionKind = "book_appointment"
	// ActionLookupAppointment looks up a booking by phone (and optional date).
	ActionLookupAppointment ActionKind = "get_appointment_by_phone"
	// ActionQuerySheet fetches a configured external sheet as tabular text.
	ActionQuerySheet ActionKind = "query_sheet"
	// ActionRecordKnowledge persists a durable knowledge record.
	ActionRecordKnowledge ActionKind = "record_knowledge"
	// ActionCreateNote appends a conversation note.
	ActionCreateNote ActionKind = "create_note"
	// ActionUnknown marks a proposed call whose name is not in the closed set.
	ActionUnknown ActionKind = "unknown"
)

// StateChanging reports whether the action mutates external state.
func (k ActionKind) StateChanging() bool {
	switch k {
	case ActionBookAppointment, ActionRecordKnowledge, ActionCreateNote:
		return true
	default:
		return false
	}
}

// RequiresVerification reports whether a successful execution must be
// confirmed by an independent post-write read before success is surfaced.
// Only booking writes carry that requirement; knowledge records and notes
// are lower-stakes pass-through writes.
func (k ActionKind) RequiresVerification() bool {
	return k == ActionBookAppointment
}

// ToolCall is an unvalidated action proposed by the model.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResult is the canonical outcome of a proposed action. Verified is
// meaningful only for state-changing actions: a result with Verified=false
// must never be surfaced to the user as success.
type ToolResult struct {
	Success   bool       `json:"success"`
	Action    ActionKind `json:"action"`
	Verified  bool       `json:"verified"`
	Data      any        `json:"data,omitempty"`
	Error     string     `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// FailedResult builds an unsuccessful, unverified result for the action.
func FailedResult(action ActionKind, errMsg string) ToolResult {
	return ToolResult{
		Success:   false,
		Action:    action,
		Verified:  false,
		Error:     errMsg,
		Timestamp: time.Now().UTC(),
	}
}
