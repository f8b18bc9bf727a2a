package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vortexion256/caremax/core"
)

// InMemoryRecordRepository is a process-local core.RecordRepository keyed by
// tenant. Suitable for tests and single-process deployments; swap for a
// database-backed implementation in production.
//
// Concurrency: protected by RWMutex. All reads return copies.
type InMemoryRecordRepository struct {
	mu       sync.RWMutex
	records  map[string]map[string]core.AgentRecord         // tenantID -> recordID -> record
	requests map[string]map[string]core.ModificationRequest // tenantID -> requestID -> request
}

// NewInMemoryRecordRepository creates an empty repository.
func NewInMemoryRecordRepository() *InMemoryRecordRepository {
	return &InMemoryRecordRepository{
		records:  make(map[string]map[string]core.AgentRecord),
		requests: make(map[string]map[string]core.ModificationRequest),
	}
}

// PutRecord inserts or replaces a record.
func (r *InMemoryRecordRepository) PutRecord(_ context.Context, tenantID string, rec core.AgentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.records[tenantID] == nil {
		r.records[tenantID] = make(map[string]core.AgentRecord)
	}
	r.records[tenantID][rec.RecordID] = rec
	return nil
}

// GetRecord returns the record or core.ErrRecordNotFound.
func (r *InMemoryRecordRepository) GetRecord(_ context.Context, tenantID, recordID string) (core.AgentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[tenantID][recordID]
	if !ok {
		return core.AgentRecord{}, core.ErrRecordNotFound
	}
	return rec, nil
}

// ListRecords returns the tenant's records ordered by creation time.
func (r *InMemoryRecordRepository) ListRecords(_ context.Context, tenantID string) ([]core.AgentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.AgentRecord, 0, len(r.records[tenantID]))
	for _, rec := range r.records[tenantID] {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteRecord removes the record or returns core.ErrRecordNotFound.
func (r *InMemoryRecordRepository) DeleteRecord(_ context.Context, tenantID, recordID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[tenantID][recordID]; !ok {
		return core.ErrRecordNotFound
	}
	delete(r.records[tenantID], recordID)
	return nil
}

// PutRequest inserts or replaces a modification request.
func (r *InMemoryRecordRepository) PutRequest(_ context.Context, tenantID string, req core.ModificationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.requests[tenantID] == nil {
		r.requests[tenantID] = make(map[string]core.ModificationRequest)
	}
	r.requests[tenantID][req.RequestID] = req
	return nil
}

// GetRequest returns the request or core.ErrRequestNotFound.
func (r *InMemoryRecordRepository) GetRequest(_ context.Context, tenantID, requestID string) (core.ModificationRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[tenantID][requestID]
	if !ok {
		return core.ModificationRequest{}, core.ErrRequestNotFound
	}
	return req, nil
}

// ListRequests returns the tenant's requests ordered by creation time.
func (r *InMemoryRecordRepository) ListRequests(_ context.Context, tenantID string) ([]core.ModificationRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.ModificationRequest, 0, len(r.requests[tenantID]))
	for _, req := range r.requests[tenantID] {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteRequest removes the request or returns core.ErrRequestNotFound.
func (r *InMemoryRecordRepository) DeleteRequest(_ context.Context, tenantID, requestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[tenantID][requestID]; !ok {
		return core.ErrRequestNotFound
	}
	delete(r.requests[tenantID], requestID)
	return nil
}
