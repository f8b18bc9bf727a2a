package orchestrate

import (
	"context"
	"time"

	"github.com/vortexion256/caremax/command"
	"github.com/vortexion256/caremax/core"
	"github.com/vortexion256/caremax/logging"
)

// Verifier re-reads the booking store after a write to confirm persistence.
// The read is retried a bounded number of times to tolerate eventual
// consistency; it never blocks indefinitely.
type Verifier struct {
	bookings core.BookingStore
	attempts int
	delay    time.Duration
	logger   logging.Logger
}

// NewVerifier creates a Verifier. Attempts below 1 are clamped to 1.
func NewVerifier(bookings core.BookingStore, attempts int, delay time.Duration, logger logging.Logger) *Verifier {
	if attempts < 1 {
		attempts = 1
	}
	return &Verifier{bookings: bookings, attempts: attempts, delay: delay, logger: logging.OrNoOp(logger)}
}

// VerifyBooking re-queries by normalized phone+date and reports whether a row
// matching the expected write exists. The expected row's phone and date are
// already normalized.
func (v *Verifier) VerifyBooking(ctx context.Context, expected core.BookingRow) bool {
	attempts := 0
	for attempts < v.attempts {
		if attempts > 0 {
			select {
			case <-ctx.Done():
				logging.LogVerification(v.logger, expected.Phone, expected.Date, attempts, false)
				return false
			case <-time.After(v.delay):
			}
		}
		attempts++
		if v.readMatches(ctx, expected) {
			logging.LogVerification(v.logger, expected.Phone, expected.Date, attempts, true)
			return true
		}
	}
	logging.LogVerification(v.logger, expected.Phone, expected.Date, attempts, false)
	return false
}

func (v *Verifier) readMatches(ctx context.Context, expected core.BookingRow) bool {
	rows, err := v.bookings.Rows(ctx)
	if err != nil {
		v.logger.Warn("verification.read.failed", "error", err.Error())
		return false
	}
	for _, row := range rows {
		if command.NormalizePhone(row.Phone) != expected.Phone {
			continue
		}
		date, err := command.NormalizeDate(row.Date)
		if err != nil || date != expected.Date {
			continue
		}
		// Identity matched; the slot time must also reflect the write so a
		// lost update cannot pass as verified.
		if row.Time == expected.Time {
			return true
		}
	}
	return false
}
