package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vortexion256/caremax/command"
	"github.com/vortexion256/caremax/core"
	"github.com/vortexion256/caremax/logging"
)

// KnowledgeWriter is the slice of the memory store the executor needs: direct
// record creation. Edits and deletes go through the approval workflow and are
// never reachable from a tool call.
type KnowledgeWriter interface {
	CreateRecord(ctx context.Context, tenantID, title, content string) (core.AgentRecord, error)
}

// ConflictError reports a booking slot already held by a different phone.
type ConflictError struct {
	Date  string
	Time  string
	Phone string // the phone already holding the slot, normalized
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot %s %s is already booked by another patient", e.Date, e.Time)
}

// BookingOutcome is the data payload of a booking write.
type BookingOutcome struct {
	Row     core.BookingRow `json:"row"`
	Updated bool            `json:"updated"` // true when an existing phone+date row was updated in place
}

// LookupOutcome is the data payload of an appointment lookup.
type LookupOutcome struct {
	Found bool             `json:"found"`
	Row   *core.BookingRow `json:"row,omitempty"`
	// Source is "bookings" for the tabular system of record, "notes" for the
	// textual fallback. Notes-sourced results must not be treated as
	// authoritative.
	Source  string `json:"source,omitempty"`
	Ref     string `json:"ref,omitempty"` // synthesized identifier for notes-sourced hits
	Excerpt string `json:"excerpt,omitempty"`
}

// Options configures an Executor.
type Options struct {
	// LookupRetryDelay is the pause before the single zero-row retry.
	LookupRetryDelay time.Duration
	// NotesScanLimit bounds how many recent notes the lookup fallback reads.
	NotesScanLimit int
	Logger         logging.Logger
}

// Executor executes typed commands against the injected stores.
type Executor struct {
	bookings  core.BookingStore
	notes     core.NoteStore
	sheets    core.SheetSource
	knowledge KnowledgeWriter
	opts      Options
}

// New creates an Executor over the given collaborators.
func New(bookings core.BookingStore, notes core.NoteStore, sheets core.SheetSource, knowledge KnowledgeWriter, optFns ...func(o *Options)) *Executor {
	opts := Options{
		LookupRetryDelay: 300 * time.Millisecond,
		NotesScanLimit:   50,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Executor{bookings: bookings, notes: notes, sheets: sheets, knowledge: knowledge, opts: opts}
}

// Execute runs the command and returns its canonical result. Failures are
// values; Execute never panics on command input.
func (e *Executor) Execute(ctx context.Context, tenantID string, cmd command.Command) core.ToolResult {
	start := time.Now()
	var result core.ToolResult
	switch c := cmd.(type) {
	case command.BookAppointment:
		result = e.bookAppointment(ctx, c)
	case command.LookupAppointment:
		result = e.lookupAppointment(ctx, c)
	case command.QuerySheet:
		result = e.querySheet(ctx, c)
	case command.RecordKnowledge:
		result = e.recordKnowledge(ctx, tenantID, c)
	case command.CreateNote:
		result = e.createNote(ctx, c)
	default:
		// Unreachable for commands produced by command.Parse; kept as a typed
		// default so a future variant cannot silently no-op.
		result = core.FailedResult(core.ActionUnknown, fmt.Sprintf("unhandled command %T", cmd))
	}
	logging.LogToolCall(e.opts.Logger, string(result.Action), time.Since(start), result.Success, result.Verified, result.Error)
	return result
}

// bookAppointment applies the conflict and upsert rules. The returned result
// is intentionally unverified: the orchestrator downgrades it unless the
// post-write read confirms the row.
func (e *Executor) bookAppointment(ctx context.Context, c command.BookAppointment) core.ToolResult {
	rows, err := e.bookings.Rows(ctx)
	if err != nil {
		return core.FailedResult(core.ActionBookAppointment, fmt.Sprintf("booking store unreachable: %v", err))
	}

	row := core.BookingRow{
		Date:        c.Date,
		PatientName: c.PatientName,
		Phone:       c.Phone,
		Doctor:      c.Doctor,
		Time:        c.Time,
		Notes:       c.Notes,
	}

	updateIndex := -1
	for i, existing := range rows {
		existingPhone := command.NormalizePhone(existing.Phone)
		existingDate, dateErr := command.NormalizeDate(existing.Date)
		if dateErr != nil {
			existingDate = strings.TrimSpace(existing.Date)
		}

		// Same slot held by a different phone: business-rule conflict.
		if existingDate == c.Date && existing.Time == c.Time && existingPhone != c.Phone {
			conflict := &ConflictError{Date: c.Date, Time: c.Time, Phone: existingPhone}
			return core.FailedResult(core.ActionBookAppointment, conflict.Error())
		}

		// Same phone already booked that day: update in place.
		if existingPhone == c.Phone && existingDate == c.Date {
			updateIndex = i
		}
	}

	outcome := BookingOutcome{Row: row}
	if updateIndex >= 0 {
		if err := e.bookings.Update(ctx, updateIndex, row); err != nil {
			return core.FailedResult(core.ActionBookAppointment, fmt.Sprintf("update failed: %v", err))
		}
		outcome.Updated = true
	} else {
		if err := e.bookings.Append(ctx, row); err != nil {
			return core.FailedResult(core.ActionBookAppointment, fmt.Sprintf("append failed: %v", err))
		}
	}

	return core.ToolResult{
		Success:   true,
		Action:    core.ActionBookAppointment,
		Verified:  false,
		Data:      outcome,
		Timestamp: time.Now().UTC(),
	}
}

// lookupAppointment scans the table, retries once on an empty result, then
// falls back to recent notes.
func (e *Executor) lookupAppointment(ctx context.Context, c command.LookupAppointment) core.ToolResult {
	row, found, err := e.scanRows(ctx, c.Phone, c.Date)
	if err != nil {
		return core.FailedResult(core.ActionLookupAppointment, fmt.Sprintf("booking store unreachable: %v", err))
	}
	if !found {
		// The table may lag a just-completed write.
		select {
		case <-ctx.Done():
			return core.FailedResult(core.ActionLookupAppointment, ctx.Err().Error())
		case <-time.After(e.opts.LookupRetryDelay):
		}
		row, found, err = e.scanRows(ctx, c.Phone, c.Date)
		if err != nil {
			return core.FailedResult(core.ActionLookupAppointment, fmt.Sprintf("booking store unreachable: %v", err))
		}
	}

	if found {
		return lookupResult(LookupOutcome{Found: true, Row: &row, Source: "bookings"})
	}

	if outcome, ok := e.scanNotes(ctx, c.Phone); ok {
		return lookupResult(outcome)
	}
	return lookupResult(LookupOutcome{Found: false})
}

func lookupResult(outcome LookupOutcome) core.ToolResult {
	return core.ToolResult{
		Success:   true,
		Action:    core.ActionLookupAppointment,
		Data:      outcome,
		Timestamp: time.Now().UTC(),
	}
}

func (e *Executor) scanRows(ctx context.Context, phone, date string) (core.BookingRow, bool, error) {
	rows, err := e.bookings.Rows(ctx)
	if err != nil {
		return core.BookingRow{}, false, err
	}
	for _, existing := range rows {
		if command.NormalizePhone(existing.Phone) != phone {
			continue
		}
		if date != "" {
			existingDate, dateErr := command.NormalizeDate(existing.Date)
			if dateErr != nil || existingDate != date {
				continue
			}
		}
		return existing, true, nil
	}
	return core.BookingRow{}, false, nil
}

// scanNotes looks for a textual appointment mention carrying the phone. The
// synthesized ref marks the hit as notes-sourced, not system-of-record.
func (e *Executor) scanNotes(ctx context.Context, phone string) (LookupOutcome, bool) {
	notes, err := e.notes.Recent(ctx, e.opts.NotesScanLimit)
	if err != nil {
		e.opts.Logger.Warn("lookup.notes_fallback.failed", "error", err.Error())
		return LookupOutcome{}, false
	}
	for _, note := range notes {
		if note.Category != core.NoteBookings {
			continue
		}
		if command.PhoneMatches(note.Content, phone) {
			return LookupOutcome{
				Found:   true,
				Source:  "notes",
				Ref:     "notes:" + note.ID,
				Excerpt: note.Content,
			}, true
		}
	}
	return LookupOutcome{}, false
}

// querySheet resolves the registry entry by case-insensitive label and
// returns the raw cells as flat tabular text. No row validation.
func (e *Executor) querySheet(ctx context.Context, c command.QuerySheet) core.ToolResult {
	entry, ok := resolveSheet(e.sheets.Entries(), c.UseWhen)
	if !ok {
		return core.FailedResult(core.ActionQuerySheet, fmt.Sprintf("no configured sheet matches %q", c.UseWhen))
	}
	cells, err := e.sheets.Fetch(ctx, entry, c.Range)
	if err != nil {
		return core.FailedResult(core.ActionQuerySheet, fmt.Sprintf("sheet fetch failed: %v", err))
	}

	var b strings.Builder
	for i, rowCells := range cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(rowCells, "\t"))
	}
	return core.ToolResult{
		Success:   true,
		Action:    core.ActionQuerySheet,
		Data:      b.String(),
		Timestamp: time.Now().UTC(),
	}
}

func resolveSheet(entries []core.SheetEntry, useWhen string) (core.SheetEntry, bool) {
	for _, entry := range entries {
		if strings.EqualFold(entry.Label, useWhen) {
			return entry, true
		}
	}
	// Secondary match on the use-when hint for model-provided phrasing.
	needle := strings.ToLower(useWhen)
	for _, entry := range entries {
		if needle != "" && strings.Contains(strings.ToLower(entry.UseWhen), needle) {
			return entry, true
		}
	}
	return core.SheetEntry{}, false
}

func (e *Executor) recordKnowledge(ctx context.Context, tenantID string, c command.RecordKnowledge) core.ToolResult {
	rec, err := e.knowledge.CreateRecord(ctx, tenantID, c.Title, c.Content)
	if err != nil {
		return core.FailedResult(core.ActionRecordKnowledge, fmt.Sprintf("create record failed: %v", err))
	}
	return core.ToolResult{
		Success:   true,
		Action:    core.ActionRecordKnowledge,
		Data:      rec,
		Timestamp: time.Now().UTC(),
	}
}

func (e *Executor) createNote(ctx context.Context, c command.CreateNote) core.ToolResult {
	note := core.Note{
		ID:        core.NewID(),
		Content:   c.Content,
		Category:  c.Category,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.notes.Append(ctx, note); err != nil {
		return core.FailedResult(core.ActionCreateNote, fmt.Sprintf("append note failed: %v", err))
	}
	return core.ToolResult{
		Success:   true,
		Action:    core.ActionCreateNote,
		Data:      note,
		Timestamp: time.Now().UTC(),
	}
}
