package driver

import (
	"regexp"
	"strings"
)

// unverifiedBookingMessage replaces any reply that claims a booking the
// execution log cannot back up.
const unverifiedBookingMessage = "I've submitted your booking request, but I wasn't able to verify it in our system yet. Please don't consider it final until we follow up with a confirmation."

// bookingClaimRe matches the phrasings models use to announce a completed
// booking.
var bookingClaimRe = regexp.MustCompile(`(?i)\b(booked|confirmed|scheduled|reserved|all set)\b`)

// looksLikeBookingConfirmation reports whether the text claims an appointment
// was booked. The model's self-report is never trusted: the caller must cross
// check against the execution log.
func looksLikeBookingConfirmation(text string) bool {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "appointment") && !strings.Contains(lower, "booking") {
		return false
	}
	return bookingClaimRe.MatchString(text)
}

var handoffPhrases = []string{
	"connecting you with a member of our staff",
	"transfer you to a human",
	"a human operator will",
	"our staff will take over",
}

// detectHandoff strips the handoff marker and reports whether the text
// signals that a person should take over.
func detectHandoff(text string) (string, bool) {
	if strings.Contains(text, HandoffMarker) {
		cleaned := strings.TrimSpace(strings.ReplaceAll(text, HandoffMarker, ""))
		if cleaned == "" {
			cleaned = HandoffMessage
		}
		return cleaned, true
	}
	lower := strings.ToLower(text)
	for _, p := range handoffPhrases {
		if strings.Contains(lower, p) {
			return text, true
		}
	}
	return text, false
}
