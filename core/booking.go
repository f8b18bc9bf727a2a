package core

import "time"

// BookingHeader is the fixed column order of the external tabular store.
// The header row is always present; BookingRow cells follow this order.
var BookingHeader = []string{"date", "patient_name", "phone", "doctor", "time", "notes"}

// BookingRow is one appointment row. It has no stable primary key: identity
// is the pair (normalized phone, normalized date), re-derived on each query.
type BookingRow struct {
	Date        string `json:"date"`
	PatientName string `json:"patientName"`
	Phone       string `json:"phone"`
	Doctor      string `json:"doctor"`
	Time        string `json:"time"`
	Notes       string `json:"notes"`
}

// Cells returns the row in the external tabular column order.
func (r BookingRow) Cells() []string {
	return []string{r.Date, r.PatientName, r.Phone, r.Doctor, r.Time, r.Notes}
}

// BookingRowFromCells rebuilds a row from external tabular cells. Short rows
// are tolerated; missing trailing cells become empty fields.
func BookingRowFromCells(cells []string) BookingRow {
	get := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}
	return BookingRow{
		Date:        get(0),
		PatientName: get(1),
		Phone:       get(2),
		Doctor:      get(3),
		Time:        get(4),
		Notes:       get(5),
	}
}

// NoteCategory classifies conversation notes.
type NoteCategory string

const (
	NoteCommonQuestions NoteCategory = "common_questions"
	NoteKeywords        NoteCategory = "keywords"
	NoteAnalytics       NoteCategory = "analytics"
	NoteInsights        NoteCategory = "insights"
	NoteOther           NoteCategory = "other"
	NoteBookings        NoteCategory = "bookings"
)

// Valid reports whether the category is one of the closed enum values.
func (c NoteCategory) Valid() bool {
	switch c {
	case NoteCommonQuestions, NoteKeywords, NoteAnalytics, NoteInsights, NoteOther, NoteBookings:
		return true
	default:
		return false
	}
}

// Note is a conversation annotation. Booking-category notes double as the
// consistency hint source and the lookup fallback when the tabular store has
// no match.
type Note struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	Category  NoteCategory `json:"category"`
	CreatedAt time.Time    `json:"createdAt"`
}
