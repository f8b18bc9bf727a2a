package orchestrate

import (
	"context"
	"errors"

	"github.com/vortexion256/caremax/command"
	"github.com/vortexion256/caremax/core"
	"github.com/vortexion256/caremax/executor"
	"github.com/vortexion256/caremax/logging"
)

// Options configures an Orchestrator.
type Options struct {
	// HintNoteLimit bounds the notes pre-read before booking writes.
	HintNoteLimit int
	Logger        logging.Logger
}

// Orchestrator is the deterministic layer deciding whether and how a
// model-proposed action executes. Execution logs are owned by the caller and
// passed per call, so separate tenants never share an audit trail.
type Orchestrator struct {
	exec     *executor.Executor
	verifier *Verifier
	notes    core.NoteStore
	opts     Options
}

// New creates an Orchestrator.
func New(exec *executor.Executor, verifier *Verifier, notes core.NoteStore, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{HintNoteLimit: 10, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Orchestrator{
		exec:     exec,
		verifier: verifier,
		notes:    notes,
		opts:     opts,
	}
}

// Execute validates, runs and (for booking writes) verifies one proposed
// call. Every outcome, including parse failures, is appended to the given
// execution log. An unknown tool name yields an error result, never a panic.
func (o *Orchestrator) Execute(ctx context.Context, tenantID string, call core.ToolCall, log *core.ExecutionLog) core.ToolResult {
	cmd, err := command.Parse(call)
	if err != nil {
		result := core.FailedResult(parseErrorAction(call, err), err.Error())
		log.Append(call, result)
		return result
	}

	if book, ok := cmd.(command.BookAppointment); ok {
		o.noteConsistencyHint(ctx, book)
	}

	result := o.exec.Execute(ctx, tenantID, cmd)

	if result.Success && cmd.Kind().RequiresVerification() {
		result = o.verify(ctx, cmd, result)
	}

	log.Append(call, result)
	return result
}

// parseErrorAction keeps the action kind for known tools with bad arguments,
// and marks unknown names distinctly.
func parseErrorAction(call core.ToolCall, err error) core.ActionKind {
	if errors.Is(err, command.ErrUnknownTool) {
		return core.ActionUnknown
	}
	return core.ActionKind(call.Name)
}

// noteConsistencyHint pre-reads recent booking notes before a write. It is
// best effort and advisory only: a mention of the same phone on another slot
// is logged for the audit trail but does not block execution.
func (o *Orchestrator) noteConsistencyHint(ctx context.Context, book command.BookAppointment) {
	notes, err := o.notes.Recent(ctx, o.opts.HintNoteLimit)
	if err != nil {
		o.opts.Logger.Debug("booking.hint.unavailable", "error", err.Error())
		return
	}
	for _, note := range notes {
		if note.Category != core.NoteBookings {
			continue
		}
		if command.PhoneMatches(note.Content, book.Phone) {
			o.opts.Logger.Info("booking.hint.prior_mention",
				"phone", book.Phone, "note_id", note.ID)
			return
		}
	}
}

// verify downgrades a nominally successful booking write unless the
// independent re-read confirms it.
func (o *Orchestrator) verify(ctx context.Context, cmd command.Command, result core.ToolResult) core.ToolResult {
	book, ok := cmd.(command.BookAppointment)
	if !ok {
		return result
	}
	expected := core.BookingRow{Phone: book.Phone, Date: book.Date, Time: book.Time}
	if o.verifier.VerifyBooking(ctx, expected) {
		result.Verified = true
		return result
	}
	result.Success = false
	result.Verified = false
	result.Error = "booking was submitted but could not be independently verified"
	return result
}
