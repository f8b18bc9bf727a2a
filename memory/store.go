package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vortexion256/caremax/core"
	"github.com/vortexion256/caremax/logging"
	"github.com/vortexion256/caremax/model"
)

// Options configures a Store.
type Options struct {
	// ConsolidateTimeout bounds the model call during consolidation.
	ConsolidateTimeout time.Duration
	Logger             logging.Logger
}

// Store is the long-term knowledge store. Creation writes through immediately
// and indexes the content for retrieval. Edits and deletes are staged as
// pending ModificationRequests; only Approve mutates the record, Reject
// discards the request and leaves the record untouched.
type Store struct {
	repo      core.RecordRepository
	retriever core.Retriever
	opts      Options
}

// New creates a Store over the given repository and retriever.
func New(repo core.RecordRepository, retriever core.Retriever, optFns ...func(o *Options)) *Store {
	opts := Options{
		ConsolidateTimeout: 30 * time.Second,
		Logger:             logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Store{repo: repo, retriever: retriever, opts: opts}
}

// CreateRecord persists a new record and indexes its content. Indexing
// failures are logged but do not fail the write.
func (s *Store) CreateRecord(ctx context.Context, tenantID, title, content string) (core.AgentRecord, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return core.AgentRecord{}, fmt.Errorf("record title and content must be non-empty")
	}

	now := time.Now().UTC()
	rec := core.AgentRecord{
		RecordID:  core.NewID(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.PutRecord(ctx, tenantID, rec); err != nil {
		return core.AgentRecord{}, fmt.Errorf("persist record: %w", err)
	}
	if err := s.retriever.Index(ctx, tenantID, rec.RecordID, rec.Title+"\n"+rec.Content); err != nil {
		s.opts.Logger.Warn("memory.index.failed", "record_id", rec.RecordID, "error", err.Error())
	}
	s.opts.Logger.Info("memory.record.created", "record_id", rec.RecordID, "title", title)
	return rec, nil
}

// GetRecord returns the record by ID.
func (s *Store) GetRecord(ctx context.Context, tenantID, recordID string) (core.AgentRecord, error) {
	return s.repo.GetRecord(ctx, tenantID, recordID)
}

// Records lists the tenant's records.
func (s *Store) Records(ctx context.Context, tenantID string) ([]core.AgentRecord, error) {
	return s.repo.ListRecords(ctx, tenantID)
}

// Search returns ranked knowledge snippets for the query.
func (s *Store) Search(ctx context.Context, tenantID, query string, limit int) ([]core.SearchResult, error) {
	return s.retriever.Search(ctx, tenantID, query, limit)
}

// RequestEdit stages an edit to an existing record. The record itself is not
// modified until the request is approved.
func (s *Store) RequestEdit(ctx context.Context, tenantID, recordID, title, content, reason string) (core.ModificationRequest, error) {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
		return core.ModificationRequest{}, fmt.Errorf("edit request must propose a new title or content")
	}
	if _, err := s.repo.GetRecord(ctx, tenantID, recordID); err != nil {
		return core.ModificationRequest{}, err
	}
	req := core.ModificationRequest{
		RequestID:       core.NewID(),
		Type:            core.ModificationEdit,
		RecordID:        recordID,
		ProposedTitle:   strings.TrimSpace(title),
		ProposedContent: strings.TrimSpace(content),
		Reason:          reason,
		CreatedAt:       time.Now().UTC(),
		Status:          core.RequestPending,
	}
	if err := s.repo.PutRequest(ctx, tenantID, req); err != nil {
		return core.ModificationRequest{}, fmt.Errorf("stage edit request: %w", err)
	}
	s.opts.Logger.Info("memory.request.staged", "request_id", req.RequestID, "type", "edit", "record_id", recordID)
	return req, nil
}

// RequestDelete stages a delete of an existing record.
func (s *Store) RequestDelete(ctx context.Context, tenantID, recordID, reason string) (core.ModificationRequest, error) {
	if _, err := s.repo.GetRecord(ctx, tenantID, recordID); err != nil {
		return core.ModificationRequest{}, err
	}
	req := core.ModificationRequest{
		RequestID: core.NewID(),
		Type:      core.ModificationDelete,
		RecordID:  recordID,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
		Status:    core.RequestPending,
	}
	if err := s.repo.PutRequest(ctx, tenantID, req); err != nil {
		return core.ModificationRequest{}, fmt.Errorf("stage delete request: %w", err)
	}
	s.opts.Logger.Info("memory.request.staged", "request_id", req.RequestID, "type", "delete", "record_id", recordID)
	return req, nil
}

// PendingRequests lists staged requests awaiting approval.
func (s *Store) PendingRequests(ctx context.Context, tenantID string) ([]core.ModificationRequest, error) {
	all, err := s.repo.ListRequests(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]core.ModificationRequest, 0, len(all))
	for _, req := range all {
		if req.Status == core.RequestPending {
			out = append(out, req)
		}
	}
	return out, nil
}

// Approve applies a pending request and removes it. Edits update the record
// and refresh the index; deletes remove record and index entry.
func (s *Store) Approve(ctx context.Context, tenantID, requestID string) error {
	req, err := s.repo.GetRequest(ctx, tenantID, requestID)
	if err != nil {
		return err
	}
	if req.Status != core.RequestPending {
		return fmt.Errorf("request %s is not pending", requestID)
	}

	switch req.Type {
	case core.ModificationEdit:
		rec, err := s.repo.GetRecord(ctx, tenantID, req.RecordID)
		if err != nil {
			return err
		}
		if req.ProposedTitle != "" {
			rec.Title = req.ProposedTitle
		}
		if req.ProposedContent != "" {
			rec.Content = req.ProposedContent
		}
		rec.UpdatedAt = time.Now().UTC()
		if err := s.repo.PutRecord(ctx, tenantID, rec); err != nil {
			return fmt.Errorf("apply edit: %w", err)
		}
		if err := s.retriever.Index(ctx, tenantID, rec.RecordID, rec.Title+"\n"+rec.Content); err != nil {
			s.opts.Logger.Warn("memory.index.failed", "record_id", rec.RecordID, "error", err.Error())
		}
	case core.ModificationDelete:
		if err := s.repo.DeleteRecord(ctx, tenantID, req.RecordID); err != nil {
			return fmt.Errorf("apply delete: %w", err)
		}
		if err := s.retriever.Remove(ctx, tenantID, req.RecordID); err != nil {
			s.opts.Logger.Warn("memory.index.remove_failed", "record_id", req.RecordID, "error", err.Error())
		}
	default:
		return fmt.Errorf("unknown modification type %q", req.Type)
	}

	if err := s.repo.DeleteRequest(ctx, tenantID, requestID); err != nil {
		return err
	}
	s.opts.Logger.Info("memory.request.approved", "request_id", requestID, "type", string(req.Type), "record_id", req.RecordID)
	return nil
}

// Reject discards a pending request without touching the record.
func (s *Store) Reject(ctx context.Context, tenantID, requestID string) error {
	req, err := s.repo.GetRequest(ctx, tenantID, requestID)
	if err != nil {
		return err
	}
	if req.Status != core.RequestPending {
		return fmt.Errorf("request %s is not pending", requestID)
	}
	if err := s.repo.DeleteRequest(ctx, tenantID, requestID); err != nil {
		return err
	}
	s.opts.Logger.Info("memory.request.rejected", "request_id", requestID, "record_id", req.RecordID)
	return nil
}

const consolidateInstructions = `You maintain a clinic knowledge base. Given the records below,
propose merges for records covering the same topic. Do not invent content.
Respond with JSON only:
{"proposals":[{"keep_record_id":"...","merged_title":"...","merged_content":"...","remove_record_ids":["..."],"reason":"..."}]}
Return {"proposals":[]} if nothing should be merged.`

type consolidationPayload struct {
	Proposals []consolidationProposal `json:"proposals"`
}

type consolidationProposal struct {
	KeepRecordID    string   `json:"keep_record_id"`
	MergedTitle     string   `json:"merged_title"`
	MergedContent   string   `json:"merged_content"`
	RemoveRecordIDs []string `json:"remove_record_ids"`
	Reason          string   `json:"reason"`
}

// Consolidate asks the model for merge proposals over the tenant's records and
// stages every accepted proposal as pending requests: one edit for the record
// kept, one delete per record merged away. Nothing is applied directly;
// approval still goes through Approve. Proposals referencing unknown records
// are skipped.
func (s *Store) Consolidate(ctx context.Context, tenantID string, m model.Model) ([]core.ModificationRequest, error) {
	records, err := s.repo.ListRecords(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	corpus, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}
	resp, err := model.Complete(ctx, m, model.Request{
		Instructions: consolidateInstructions,
		Contents:     []core.Content{core.NewUserText(string(corpus))},
	}, s.opts.ConsolidateTimeout)
	if err != nil {
		return nil, fmt.Errorf("consolidation model call: %w", err)
	}

	var payload consolidationPayload
	if err := json.Unmarshal([]byte(model.TrimFences(resp.Content.Text())), &payload); err != nil {
		return nil, fmt.Errorf("consolidation payload: %w", err)
	}

	known := make(map[string]bool, len(records))
	for _, rec := range records {
		known[rec.RecordID] = true
	}

	var staged []core.ModificationRequest
	for _, p := range payload.Proposals {
		if !known[p.KeepRecordID] || p.MergedContent == "" {
			s.opts.Logger.Warn("memory.consolidate.proposal_skipped", "keep_record_id", p.KeepRecordID)
			continue
		}
		valid := true
		for _, id := range p.RemoveRecordIDs {
			if !known[id] || id == p.KeepRecordID {
				valid = false
				break
			}
		}
		if !valid || len(p.RemoveRecordIDs) == 0 {
			s.opts.Logger.Warn("memory.consolidate.proposal_skipped", "keep_record_id", p.KeepRecordID)
			continue
		}

		reason := p.Reason
		if reason == "" {
			reason = "consolidation merge"
		}
		edit, err := s.RequestEdit(ctx, tenantID, p.KeepRecordID, p.MergedTitle, p.MergedContent, reason)
		if err != nil {
			return staged, err
		}
		staged = append(staged, edit)
		for _, id := range p.RemoveRecordIDs {
			del, err := s.RequestDelete(ctx, tenantID, id, reason)
			if err != nil {
				return staged, err
			}
			staged = append(staged, del)
		}
	}
	s.opts.Logger.Info("memory.consolidate.completed", "proposals", len(payload.Proposals), "staged", len(staged))
	return staged, nil
}
