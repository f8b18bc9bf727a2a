package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vortexion256/caremax/core"
	"github.com/vortexion256/caremax/internal/schema"
)

// ErrUnknownTool marks a proposed call whose name is outside the closed set.
var ErrUnknownTool = errors.New("unknown tool")

// ParseError reports why a proposed tool call could not be turned into a
// typed command.
type ParseError struct {
	Tool    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse call to %q: %s", e.Tool, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ParseError) Unwrap() error { return e.Err }

// Command is the closed set of actions the orchestrator can execute. Concrete
// types implement the unexported marker; there is deliberately no way to
// construct a command for an unsupported action.
type Command interface {
	Kind() core.ActionKind
	isCommand()
}

// BookAppointment creates or updates a booking row. Phone and Date are
// already normalized (digits-only, calendar day).
type BookAppointment struct {
	Date        string
	PatientName string
	Phone       string
	Doctor      string
	Time        string
	Notes       string
}

// Kind implements Command.
func (BookAppointment) Kind() core.ActionKind { return core.ActionBookAppointment }
func (BookAppointment) isCommand()            {}

// LookupAppointment finds a booking by normalized phone, optionally filtered
// to a normalized date.
type LookupAppointment struct {
	Phone string
	Date  string // empty means any date
}

// Kind implements Command.
func (LookupAppointment) Kind() core.ActionKind { return core.ActionLookupAppointment }
func (LookupAppointment) isCommand()            {}

// QuerySheet fetches a configured external sheet by case-insensitive label.
type QuerySheet struct {
	UseWhen string
	Range   string // optional override of the configured range
}

// Kind implements Command.
func (QuerySheet) Kind() core.ActionKind { return core.ActionQuerySheet }
func (QuerySheet) isCommand()            {}

// RecordKnowledge persists a durable knowledge record.
type RecordKnowledge struct {
	Title   string
	Content string
}

// Kind implements Command.
func (RecordKnowledge) Kind() core.ActionKind { return core.ActionRecordKnowledge }
func (RecordKnowledge) isCommand()            {}

// CreateNote appends a conversation note.
type CreateNote struct {
	Content  string
	Category core.NoteCategory
}

// Kind implements Command.
func (CreateNote) Kind() core.ActionKind { return core.ActionCreateNote }
func (CreateNote) isCommand()            {}

// Argument shapes. Schemas are derived from these structs by reflection; the
// same schemas are exposed to the model as tool definitions.

type bookArgs struct {
	Date        string `json:"date" description:"Appointment date, e.g. 2025-01-10"`
	PatientName string `json:"patient_name" description:"Full patient name"`
	Phone       string `json:"phone" description:"Patient phone number"`
	Doctor      string `json:"doctor" description:"Doctor name"`
	Time        string `json:"time" description:"Appointment time, e.g. 10:00"`
	Notes       string `json:"notes,omitempty" description:"Optional free-form notes"`
}

type lookupArgs struct {
	Phone string `json:"phone" description:"Patient phone number"`
	Date  string `json:"date,omitempty" description:"Optional date filter"`
}

type querySheetArgs struct {
	UseWhen string `json:"use_when" description:"Label of the configured sheet to query"`
	Range   string `json:"range,omitempty" description:"Optional cell range override"`
}

type recordKnowledgeArgs struct {
	Title   string `json:"title" description:"Short title of the fact"`
	Content string `json:"content" description:"Fact content to persist"`
}

type createNoteArgs struct {
	Content  string `json:"content" description:"Note content"`
	Category string `json:"category" description:"One of: common_questions, keywords, analytics, insights, other, bookings"`
}

var argSchemas = map[core.ActionKind]map[string]any{
	core.ActionBookAppointment:   schema.Create(bookArgs{}),
	core.ActionLookupAppointment: schema.Create(lookupArgs{}),
	core.ActionQuerySheet:        schema.Create(querySheetArgs{}),
	core.ActionRecordKnowledge:   schema.Create(recordKnowledgeArgs{}),
	core.ActionCreateNote:        schema.Create(createNoteArgs{}),
}

// Parse validates a proposed call and returns its typed command. All failures
// are *ParseError values; Parse never panics on model-shaped input.
func Parse(call core.ToolCall) (Command, error) {
	kind := core.ActionKind(call.Name)
	sch, ok := argSchemas[kind]
	if !ok {
		return nil, &ParseError{Tool: call.Name, Message: "not a supported tool", Err: ErrUnknownTool}
	}

	args := call.Args
	if args == nil {
		args = map[string]any{}
	}
	if err := schema.Validate(args, sch); err != nil {
		return nil, &ParseError{Tool: call.Name, Message: err.Error(), Err: err}
	}

	switch kind {
	case core.ActionBookAppointment:
		return parseBook(call.Name, args)
	case core.ActionLookupAppointment:
		return parseLookup(call.Name, args)
	case core.ActionQuerySheet:
		return QuerySheet{
			UseWhen: strings.TrimSpace(stringArg(args, "use_when")),
			Range:   strings.TrimSpace(stringArg(args, "range")),
		}, nil
	case core.ActionRecordKnowledge:
		return parseRecordKnowledge(call.Name, args)
	default:
		return parseCreateNote(call.Name, args)
	}
}

func parseBook(tool string, args map[string]any) (Command, error) {
	cmd := BookAppointment{
		PatientName: strings.TrimSpace(stringArg(args, "patient_name")),
		Doctor:      strings.TrimSpace(stringArg(args, "doctor")),
		Time:        strings.TrimSpace(stringArg(args, "time")),
		Notes:       strings.TrimSpace(stringArg(args, "notes")),
	}
	for field, v := range map[string]string{
		"patient_name": cmd.PatientName,
		"doctor":       cmd.Doctor,
		"time":         cmd.Time,
	} {
		if v == "" {
			return nil, &ParseError{Tool: tool, Message: fmt.Sprintf("field %q must not be empty", field)}
		}
	}

	phone := NormalizePhone(stringArg(args, "phone"))
	if phone == "" {
		return nil, &ParseError{Tool: tool, Message: "phone must contain digits"}
	}
	cmd.Phone = phone

	date, err := NormalizeDate(stringArg(args, "date"))
	if err != nil {
		return nil, &ParseError{Tool: tool, Message: err.Error(), Err: err}
	}
	cmd.Date = date
	return cmd, nil
}

func parseLookup(tool string, args map[string]any) (Command, error) {
	phone := NormalizePhone(stringArg(args, "phone"))
	if phone == "" {
		return nil, &ParseError{Tool: tool, Message: "phone must contain digits"}
	}
	cmd := LookupAppointment{Phone: phone}
	if raw := strings.TrimSpace(stringArg(args, "date")); raw != "" {
		date, err := NormalizeDate(raw)
		if err != nil {
			return nil, &ParseError{Tool: tool, Message: err.Error(), Err: err}
		}
		cmd.Date = date
	}
	return cmd, nil
}

func parseRecordKnowledge(tool string, args map[string]any) (Command, error) {
	cmd := RecordKnowledge{
		Title:   strings.TrimSpace(stringArg(args, "title")),
		Content: strings.TrimSpace(stringArg(args, "content")),
	}
	if cmd.Title == "" {
		return nil, &ParseError{Tool: tool, Message: `field "title" must not be empty`}
	}
	if cmd.Content == "" {
		return nil, &ParseError{Tool: tool, Message: `field "content" must not be empty`}
	}
	return cmd, nil
}

func parseCreateNote(tool string, args map[string]any) (Command, error) {
	content := strings.TrimSpace(stringArg(args, "content"))
	if content == "" {
		return nil, &ParseError{Tool: tool, Message: `field "content" must not be empty`}
	}
	category := core.NoteCategory(strings.TrimSpace(stringArg(args, "category")))
	if !category.Valid() {
		return nil, &ParseError{Tool: tool, Message: fmt.Sprintf("invalid note category %q", category)}
	}
	return CreateNote{Content: content, Category: category}, nil
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
