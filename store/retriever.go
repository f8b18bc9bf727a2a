package store

import (
	"context"
	"strings"
	"sync"

	"github.com/vortexion256/caremax/core"
)

// InMemoryRetriever is a naive retrieval collaborator: it indexes whole
// documents per tenant and searches by case-insensitive substring, scoring
// every hit 1.0. Swap for a vector index in production; the orchestration
// layer only consumes ranked text.
type InMemoryRetriever struct {
	mu   sync.RWMutex
	docs map[string]map[string]string // tenantID -> docID -> content
}

// NewInMemoryRetriever creates an empty retriever.
func NewInMemoryRetriever() *InMemoryRetriever {
	return &InMemoryRetriever{docs: map[string]map[string]string{}}
}

// Index stores (or replaces) a document.
func (r *InMemoryRetriever) Index(ctx context.Context, tenantID, docID, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[tenantID]; !ok {
		r.docs[tenantID] = map[string]string{}
	}
	r.docs[tenantID][docID] = content
	return nil
}

// Remove deletes a document if present.
func (r *InMemoryRetriever) Remove(ctx context.Context, tenantID, docID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs[tenantID], docID)
	return nil
}

// Search returns up to limit matching documents.
func (r *InMemoryRetriever) Search(ctx context.Context, tenantID, query string, limit int) ([]core.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	results := []core.SearchResult{}
	q := strings.ToLower(query)
	for id, content := range r.docs[tenantID] {
		if limit > 0 && len(results) >= limit {
			break
		}
		if q == "" || strings.Contains(strings.ToLower(content), q) {
			results = append(results, core.SearchResult{ID: id, Content: content, Score: 1.0})
		}
	}
	return results, nil
}
