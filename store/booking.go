package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/vortexion256/caremax/core"
)

// InMemoryBookingStore mimics the external appointment table: an ordered list
// of rows under a fixed header, addressed by position. Like the real store it
// offers no primary key and no locking across read-modify-write cycles; the
// executor re-derives row identity from phone+date on every query.
type InMemoryBookingStore struct {
	mu   sync.RWMutex
	rows []core.BookingRow
}

// NewInMemoryBookingStore creates an empty booking store.
func NewInMemoryBookingStore() *InMemoryBookingStore {
	return &InMemoryBookingStore{}
}

// Rows returns a defensive copy of all rows.
func (s *InMemoryBookingStore) Rows(ctx context.Context) ([]core.BookingRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.BookingRow, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

// Append adds a row at the end of the table.
func (s *InMemoryBookingStore) Append(ctx context.Context, row core.BookingRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return nil
}

// Update replaces the row at index (0-based, header excluded).
func (s *InMemoryBookingStore) Update(ctx context.Context, index int, row core.BookingRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.rows) {
		return fmt.Errorf("row index %d out of range (%d rows)", index, len(s.rows))
	}
	s.rows[index] = row
	return nil
}

// Table renders the store in the external wire shape: header row followed by
// row cells in fixed column order.
func (s *InMemoryBookingStore) Table() [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]string, 0, len(s.rows)+1)
	out = append(out, append([]string(nil), core.BookingHeader...))
	for _, r := range s.rows {
		out = append(out, r.Cells())
	}
	return out
}
