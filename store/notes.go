package store

import (
	"context"
	"sync"

	"github.com/vortexion256/caremax/core"
)

// InMemoryNoteStore keeps conversation notes in append order.
type InMemoryNoteStore struct {
	mu    sync.RWMutex
	notes []core.Note
}

// NewInMemoryNoteStore creates an empty note store.
func NewInMemoryNoteStore() *InMemoryNoteStore {
	return &InMemoryNoteStore{}
}

// Append adds a note.
func (s *InMemoryNoteStore) Append(ctx context.Context, note core.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, note)
	return nil
}

// Recent returns up to limit notes, newest first.
func (s *InMemoryNoteStore) Recent(ctx context.Context, limit int) ([]core.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.notes) {
		limit = len(s.notes)
	}
	out := make([]core.Note, 0, limit)
	for i := len(s.notes) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.notes[i])
	}
	return out, nil
}
