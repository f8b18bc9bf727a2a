package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionKindStateChanging(t *testing.T) {
	assert.True(t, ActionBookAppointment.StateChanging())
	assert.True(t, ActionRecordKnowledge.StateChanging())
	assert.True(t, ActionCreateNote.StateChanging())
	assert.False(t, ActionLookupAppointment.StateChanging())
	assert.False(t, ActionQuerySheet.StateChanging())
	assert.False(t, ActionUnknown.StateChanging())
}

func TestActionKindRequiresVerification(t *testing.T) {
	assert.True(t, ActionBookAppointment.RequiresVerification())
	// Non-booking writes are lower-stakes and skip verification.
	assert.False(t, ActionRecordKnowledge.RequiresVerification())
	assert.False(t, ActionCreateNote.RequiresVerification())
}

func TestExecutionLogAppendAndReset(t *testing.T) {
	log := NewExecutionLog()
	assert.Equal(t, 0, log.Len())

	call := ToolCall{Name: string(ActionCreateNote), Args: map[string]any{"content": "x"}}
	log.Append(call, ToolResult{Success: true, Action: ActionCreateNote})
	assert.Equal(t, 1, log.Len())

	entries := log.Entries()
	assert.Len(t, entries, 1)
	assert.Equal(t, ActionCreateNote, entries[0].Result.Action)
	assert.False(t, entries[0].Timestamp.IsZero())

	// Entries returns a copy; mutating it must not affect the log.
	entries[0].Result.Success = false
	assert.True(t, log.Entries()[0].Result.Success)

	log.Reset()
	assert.Equal(t, 0, log.Len())
}

func TestExecutionLogHasVerifiedBooking(t *testing.T) {
	log := NewExecutionLog()
	assert.False(t, log.HasVerifiedBooking())

	// Successful but unverified booking does not count.
	log.Append(ToolCall{Name: string(ActionBookAppointment)}, ToolResult{Success: true, Action: ActionBookAppointment, Verified: false})
	assert.False(t, log.HasVerifiedBooking())

	log.Append(ToolCall{Name: string(ActionBookAppointment)}, ToolResult{Success: true, Action: ActionBookAppointment, Verified: true})
	assert.True(t, log.HasVerifiedBooking())
}

func TestExecutionLogHasErrors(t *testing.T) {
	log := NewExecutionLog()
	log.Append(ToolCall{Name: "x"}, ToolResult{Success: true, Action: ActionQuerySheet})
	assert.False(t, log.HasErrors())
	log.Append(ToolCall{Name: "y"}, FailedResult(ActionUnknown, "unknown tool"))
	assert.True(t, log.HasErrors())
}

func TestContentHelpers(t *testing.T) {
	c := Content{Role: "assistant", Parts: []Part{
		TextPart{Text: "Hello "},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "fc1", Name: "book_appointment", Arguments: `{}`}},
		TextPart{Text: "world"},
	}}
	assert.Equal(t, "Hello world", c.Text())

	calls := c.FunctionCalls()
	assert.Len(t, calls, 1)
	assert.Equal(t, "book_appointment", calls[0].Name)

	u := NewUserText("hi")
	assert.Equal(t, "user", u.Role)
	assert.Equal(t, "hi", u.Text())

	tr := NewToolResponse("fc1", "book_appointment", map[string]any{"ok": true}, "")
	assert.Equal(t, "tool", tr.Role)
	assert.Empty(t, tr.FunctionCalls())
}

func TestBookingRowCellsRoundTrip(t *testing.T) {
	row := BookingRow{Date: "2025-01-10", PatientName: "Ada", Phone: "15550100", Doctor: "Lee", Time: "10:00", Notes: "first visit"}
	cells := row.Cells()
	assert.Equal(t, len(BookingHeader), len(cells))
	assert.Equal(t, row, BookingRowFromCells(cells))

	// Short rows tolerate missing trailing cells.
	partial := BookingRowFromCells([]string{"2025-01-10", "Ada"})
	assert.Equal(t, "2025-01-10", partial.Date)
	assert.Empty(t, partial.Phone)
}

func TestNoteCategoryValid(t *testing.T) {
	for _, c := range []NoteCategory{NoteCommonQuestions, NoteKeywords, NoteAnalytics, NoteInsights, NoteOther, NoteBookings} {
		assert.True(t, c.Valid(), string(c))
	}
	assert.False(t, NoteCategory("misc").Valid())
}

func TestNewIDUnique(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
