package session

import (
	"sync"
	"time"

	"github.com/vortexion256/caremax/core"
	"github.com/vortexion256/caremax/plan"
)

// Session is the conversation state for one tenant. Turns grow append-only;
// ActivePlan is non-nil while a multi-step plan is pending across turns.
type Session struct {
	ID         string
	Turns      []core.Content
	ActivePlan *plan.ExecutionPlan
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{ID: id, CreatedAt: now, UpdatedAt: now}
}

// AddTurn appends a conversation turn.
func (s *Session) AddTurn(c core.Content) {
	s.Turns = append(s.Turns, c)
	s.UpdatedAt = time.Now().UTC()
}

// Recent returns the last n turns (all of them when n <= 0 or exceeds the
// history) as a copy.
func (s *Session) Recent(n int) []core.Content {
	start := 0
	if n > 0 && len(s.Turns) > n {
		start = len(s.Turns) - n
	}
	out := make([]core.Content, len(s.Turns)-start)
	copy(out, s.Turns[start:])
	return out
}

// Clone returns a deep copy so callers can mutate freely before saving.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Turns = make([]core.Content, len(s.Turns))
	copy(cp.Turns, s.Turns)
	cp.ActivePlan = s.ActivePlan.Clone()
	return &cp
}

// Store persists sessions keyed by tenant.
type Store interface {
	// Get returns the tenant's session, creating it lazily.
	Get(tenantID string) (*Session, error)
	// Save stores a snapshot of the session.
	Save(s *Session) error
}

// InMemoryStore is a volatile Store keeping sessions in a process-local map.
// Safe for concurrent access; every session crossing the boundary is cloned.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*Session)}
}

// Get returns a clone of the tenant's session, creating it if absent.
func (st *InMemoryStore) Get(tenantID string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[tenantID]
	if !ok {
		sess = NewSession(tenantID)
		st.sessions[tenantID] = sess
	}
	return sess.Clone(), nil
}

// Save stores a clone of the snapshot.
func (st *InMemoryStore) Save(s *Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s.Clone()
	return nil
}
