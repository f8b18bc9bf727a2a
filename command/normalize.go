package command

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// dateLayouts are tried in order when normalizing a date argument.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02.01.2006",
	"01/02/2006",
}

// NormalizePhone reduces a phone number to digits only. Booking identity is
// keyed on this form, so "+1 (555) 0100" and "15550100" collide as intended.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// phoneSpanRe matches one contiguous phone-like span: digits optionally
// joined by common phone separators. Letters and colons break a span, so
// digits from neighboring dates, times or room numbers stay separate.
var phoneSpanRe = regexp.MustCompile(`\+?\d[\d\s().-]*\d`)

// PhoneMatches reports whether the text mentions the normalized phone as a
// phone-like span. Matching is per span, never over the concatenation of all
// digits in the text. Spans shorter than seven digits are ignored; a span may
// differ from the phone by a country-code prefix on either side.
func PhoneMatches(text, phone string) bool {
	if len(phone) < 7 {
		return false
	}
	for _, span := range phoneSpanRe.FindAllString(text, -1) {
		digits := NormalizePhone(span)
		if len(digits) < 7 {
			continue
		}
		if digits == phone || strings.HasSuffix(digits, phone) || strings.HasSuffix(phone, digits) {
			return true
		}
	}
	return false
}

// NormalizeDate reduces a date argument to calendar-day granularity
// (YYYY-MM-DD). Timestamps are truncated to their day.
func NormalizeDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return "", fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date format %q", date)
}
