package core

import "time"

// AgentRecord is a durable fact in long-term memory. Records mutate only via
// the creation path or an approved ModificationRequest; the retrieval
// collaborator chunks and indexes Content separately.
type AgentRecord struct {
	RecordID  string    `json:"recordId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ModificationType distinguishes staged edits from staged deletes.
type ModificationType string

const (
	// ModificationEdit proposes replacing title and/or content.
	ModificationEdit ModificationType = "edit"
	// ModificationDelete proposes removing the record.
	ModificationDelete ModificationType = "delete"
)

// RequestStatus is the lifecycle state of a ModificationRequest.
type RequestStatus string

const (
	// RequestPending awaits human approval.
	RequestPending RequestStatus = "pending"
	// RequestApproved was applied and is kept only transiently.
	RequestApproved RequestStatus = "approved"
	// RequestRejected was discarded without mutating the record.
	RequestRejected RequestStatus = "rejected"
)

// ModificationRequest is a staged, human-approvable change to an AgentRecord.
// The model proposes; only an explicit approve applies it. Rejection discards
// the request leaving the record untouched.
type ModificationRequest struct {
	RequestID       string           `json:"requestId"`
	Type            ModificationType `json:"type"`
	RecordID        string           `json:"recordId"`
	ProposedTitle   string           `json:"proposedTitle,omitempty"`
	ProposedContent string           `json:"proposedContent,omitempty"`
	Reason          string           `json:"reason,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	Status          RequestStatus    `json:"status"`
}
