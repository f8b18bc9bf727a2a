package core

import (
	"context"
	"errors"
)

// Sentinel errors shared by repository implementations.
var (
	// ErrRecordNotFound indicates the target AgentRecord does not exist.
	ErrRecordNotFound = errors.New("record not found")
	// ErrRequestNotFound indicates the target ModificationRequest does not exist.
	ErrRequestNotFound = errors.New("modification request not found")
)

// BookingStore abstracts the external appointment table. No lock is held
// across calls: correctness under concurrent bookings relies on re-reading at
// write time and rejecting detected conflicts.
type BookingStore interface {
	// Rows returns all appointment rows, excluding the header.
	Rows(ctx context.Context) ([]BookingRow, error)
	// Append adds a new row at the end of the table.
	Append(ctx context.Context, row BookingRow) error
	// Update replaces the row at the given index (0-based, header excluded).
	Update(ctx context.Context, index int, row BookingRow) error
}

// NoteStore persists conversation notes.
type NoteStore interface {
	Append(ctx context.Context, note Note) error
	// Recent returns up to limit notes, newest first.
	Recent(ctx context.Context, limit int) ([]Note, error)
}

// RecordRepository persists AgentRecords and staged ModificationRequests.
// All methods are tenant-scoped; implementations must not share state across
// tenants.
type RecordRepository interface {
	PutRecord(ctx context.Context, tenantID string, rec AgentRecord) error
	GetRecord(ctx context.Context, tenantID, recordID string) (AgentRecord, error)
	ListRecords(ctx context.Context, tenantID string) ([]AgentRecord, error)
	DeleteRecord(ctx context.Context, tenantID, recordID string) error

	PutRequest(ctx context.Context, tenantID string, req ModificationRequest) error
	GetRequest(ctx context.Context, tenantID, requestID string) (ModificationRequest, error)
	ListRequests(ctx context.Context, tenantID string) ([]ModificationRequest, error)
	DeleteRequest(ctx context.Context, tenantID, requestID string) error
}

// SearchResult is a retrieved knowledge snippet with a relevance score.
type SearchResult struct {
	ID      string
	Content string
	Score   float64
}

// Retriever is the knowledge retrieval collaborator. Chunking, embedding and
// ranking are out of scope here; the orchestration layer only indexes record
// content and consumes ranked text.
type Retriever interface {
	Index(ctx context.Context, tenantID, docID, content string) error
	Remove(ctx context.Context, tenantID, docID string) error
	Search(ctx context.Context, tenantID, query string, limit int) ([]SearchResult, error)
}

// SheetEntry describes one configured external sheet. UseWhen is the
// human/model facing hint used for case-insensitive label resolution.
type SheetEntry struct {
	Label         string `json:"label" mapstructure:"label"`
	UseWhen       string `json:"useWhen" mapstructure:"use_when"`
	SpreadsheetID string `json:"spreadsheetId" mapstructure:"spreadsheet_id"`
	Range         string `json:"range" mapstructure:"range"`
}

// SheetSource resolves and fetches configured external sheets.
type SheetSource interface {
	Entries() []SheetEntry
	// Fetch returns raw cell data for the entry; rng overrides the entry's
	// default range when non-empty. No row validation is performed.
	Fetch(ctx context.Context, entry SheetEntry, rng string) ([][]string, error)
}
