package orchestrate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortexion256/caremax/core"
	"github.com/vortexion256/caremax/executor"
	"github.com/vortexion256/caremax/store"
)

type nopKnowledge struct{}

func (nopKnowledge) CreateRecord(ctx context.Context, tenantID, title, content string) (core.AgentRecord, error) {
	return core.AgentRecord{RecordID: core.NewID(), Title: title, Content: content}, nil
}

// droppingBookingStore accepts writes but never persists them, simulating a
// store that acknowledges and then loses the row.
type droppingBookingStore struct{}

func (droppingBookingStore) Rows(ctx context.Context) ([]core.BookingRow, error) { return nil, nil }
func (droppingBookingStore) Append(ctx context.Context, row core.BookingRow) error {
	return nil
}
func (droppingBookingStore) Update(ctx context.Context, index int, row core.BookingRow) error {
	return fmt.Errorf("no such row")
}

func newOrchestrator(bookings core.BookingStore) (*Orchestrator, *store.InMemoryNoteStore) {
	notes := store.NewInMemoryNoteStore()
	sheets := store.NewStaticSheetSource(nil)
	exec := executor.New(bookings, notes, sheets, nopKnowledge{}, func(o *executor.Options) {
		o.LookupRetryDelay = time.Millisecond
	})
	verifier := NewVerifier(bookings, 2, time.Millisecond, nil)
	return New(exec, verifier, notes), notes
}

func bookCall(phone, date, at string) core.ToolCall {
	return core.ToolCall{
		Name: string(core.ActionBookAppointment),
		Args: map[string]any{
			"date":         date,
			"patient_name": "Ada",
			"phone":        phone,
			"doctor":       "Lee",
			"time":         at,
		},
	}
}

func TestExecuteUnknownToolIsTypedFailure(t *testing.T) {
	o, _ := newOrchestrator(store.NewInMemoryBookingStore())
	log := core.NewExecutionLog()

	result := o.Execute(context.Background(), "t1", core.ToolCall{Name: "launch_rockets"}, log)
	assert.False(t, result.Success)
	assert.Equal(t, core.ActionUnknown, result.Action)
	assert.Contains(t, result.Error, "not a supported tool")

	// Failures are logged too.
	require.Equal(t, 1, log.Len())
	assert.False(t, log.Entries()[0].Verified)
}

func TestExecuteValidationFailureKeepsActionKind(t *testing.T) {
	o, _ := newOrchestrator(store.NewInMemoryBookingStore())

	result := o.Execute(context.Background(), "t1", core.ToolCall{
		Name: string(core.ActionBookAppointment),
		Args: map[string]any{"date": "2025-01-10"},
	}, core.NewExecutionLog())
	assert.False(t, result.Success)
	assert.Equal(t, core.ActionBookAppointment, result.Action)
}

func TestExecuteBookingIsVerified(t *testing.T) {
	o, _ := newOrchestrator(store.NewInMemoryBookingStore())
	log := core.NewExecutionLog()

	result := o.Execute(context.Background(), "t1", bookCall("+15550100", "2025-01-10", "10:00"), log)
	require.True(t, result.Success)
	assert.True(t, result.Verified, "persisted booking must verify")
	assert.True(t, log.HasVerifiedBooking())
}

func TestExecuteBookingDowngradedWhenUnverifiable(t *testing.T) {
	o, _ := newOrchestrator(droppingBookingStore{})
	log := core.NewExecutionLog()

	result := o.Execute(context.Background(), "t1", bookCall("+15550100", "2025-01-10", "10:00"), log)
	assert.False(t, result.Success, "unverifiable write must not report success")
	assert.False(t, result.Verified)
	assert.Contains(t, result.Error, "could not be independently verified")
	assert.False(t, log.HasVerifiedBooking())
}

func TestExecuteConflictSecondPhone(t *testing.T) {
	o, _ := newOrchestrator(store.NewInMemoryBookingStore())
	ctx := context.Background()
	log := core.NewExecutionLog()

	first := o.Execute(ctx, "t1", bookCall("+15550100", "2025-01-10", "10:00"), log)
	require.True(t, first.Success)
	require.True(t, first.Verified)

	second := o.Execute(ctx, "t1", bookCall("+15550200", "2025-01-10", "10:00"), log)
	assert.False(t, second.Success)
	assert.Contains(t, second.Error, "already booked")
}

func TestExecuteSamePhoneDateUpdatesAndVerifies(t *testing.T) {
	bookings := store.NewInMemoryBookingStore()
	o, _ := newOrchestrator(bookings)
	ctx := context.Background()
	log := core.NewExecutionLog()

	require.True(t, o.Execute(ctx, "t1", bookCall("+15550100", "2025-01-10", "10:00"), log).Success)
	result := o.Execute(ctx, "t1", bookCall("+15550100", "2025-01-10", "14:00"), log)
	require.True(t, result.Success)
	assert.True(t, result.Verified)

	rows, _ := bookings.Rows(ctx)
	require.Len(t, rows, 1)
	assert.Equal(t, "14:00", rows[0].Time)
}

func TestExecuteLookupNotVerifiedFlag(t *testing.T) {
	o, _ := newOrchestrator(store.NewInMemoryBookingStore())

	result := o.Execute(context.Background(), "t1", core.ToolCall{
		Name: string(core.ActionLookupAppointment),
		Args: map[string]any{"phone": "15550100"},
	}, core.NewExecutionLog())
	assert.True(t, result.Success)
	assert.False(t, result.Verified, "reads carry no verification semantics")
}

func TestExecuteAppendsEveryOutcome(t *testing.T) {
	o, _ := newOrchestrator(store.NewInMemoryBookingStore())
	ctx := context.Background()
	log := core.NewExecutionLog()

	o.Execute(ctx, "t1", bookCall("+15550100", "2025-01-10", "10:00"), log)
	o.Execute(ctx, "t1", core.ToolCall{Name: "bogus"}, log)
	o.Execute(ctx, "t1", core.ToolCall{
		Name: string(core.ActionCreateNote),
		Args: map[string]any{"content": "x", "category": "other"},
	}, log)

	entries := log.Entries()
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Verified)
	assert.False(t, entries[1].Result.Success)
	assert.True(t, entries[2].Result.Success)
}

func TestExecuteLogsAreIndependent(t *testing.T) {
	o, _ := newOrchestrator(store.NewInMemoryBookingStore())
	ctx := context.Background()

	logA := core.NewExecutionLog()
	logB := core.NewExecutionLog()

	require.True(t, o.Execute(ctx, "clinic-a", bookCall("+15550100", "2025-01-10", "10:00"), logA).Verified)
	o.Execute(ctx, "clinic-b", core.ToolCall{
		Name: string(core.ActionLookupAppointment),
		Args: map[string]any{"phone": "15550200"},
	}, logB)

	assert.True(t, logA.HasVerifiedBooking())
	assert.False(t, logB.HasVerifiedBooking(), "one caller's booking must not appear in another caller's log")
	assert.Equal(t, 1, logA.Len())
	assert.Equal(t, 1, logB.Len())
}

func TestVerifierRetriesBeforeFailing(t *testing.T) {
	bookings := store.NewInMemoryBookingStore()
	v := NewVerifier(bookings, 3, time.Millisecond, nil)

	expected := core.BookingRow{Phone: "15550100", Date: "2025-01-10", Time: "10:00"}
	assert.False(t, v.VerifyBooking(context.Background(), expected))

	require.NoError(t, bookings.Append(context.Background(), core.BookingRow{
		Date: "2025-01-10", PatientName: "Ada", Phone: "+1 555 0100", Doctor: "Lee", Time: "10:00",
	}))
	assert.True(t, v.VerifyBooking(context.Background(), expected))

	// Identity matches but the slot time does not: the write is lost.
	expected.Time = "12:00"
	assert.False(t, v.VerifyBooking(context.Background(), expected))
}
