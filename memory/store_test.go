package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortexion256/caremax/core"
	"github.com/vortexion256/caremax/model"
	"github.com/vortexion256/caremax/store"
)

const tenant = "clinic-1"

func newStore(t *testing.T) (*Store, *store.InMemoryRetriever) {
	t.Helper()
	retr := store.NewInMemoryRetriever()
	return New(NewInMemoryRecordRepository(), retr), retr
}

func TestCreateRecordIndexesContent(t *testing.T) {
	s, retr := newStore(t)
	ctx := context.Background()

	rec, err := s.CreateRecord(ctx, tenant, "Opening hours", "Mon-Fri 9 to 17")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.RecordID)
	assert.False(t, rec.CreatedAt.IsZero())

	hits, err := retr.Search(ctx, tenant, "opening hours", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, rec.RecordID, hits[0].ID)
}

func TestCreateRecordRejectsEmpty(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.CreateRecord(context.Background(), tenant, "  ", "content")
	assert.Error(t, err)
	_, err = s.CreateRecord(context.Background(), tenant, "title", "")
	assert.Error(t, err)
}

func TestRequestEditDoesNotMutateRecord(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	rec, err := s.CreateRecord(ctx, tenant, "Parking", "Lot B behind the building")
	require.NoError(t, err)

	req, err := s.RequestEdit(ctx, tenant, rec.RecordID, "", "Lot C since June", "lot moved")
	require.NoError(t, err)
	assert.Equal(t, core.RequestPending, req.Status)
	assert.Equal(t, core.ModificationEdit, req.Type)

	got, err := s.GetRecord(ctx, tenant, rec.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "Lot B behind the building", got.Content, "staging must not touch the record")
}

func TestRequestEditUnknownRecord(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.RequestEdit(context.Background(), tenant, "nope", "t", "c", "")
	assert.ErrorIs(t, err, core.ErrRecordNotFound)
}

func TestApproveEditAppliesAndReindexes(t *testing.T) {
	s, retr := newStore(t)
	ctx := context.Background()
	rec, err := s.CreateRecord(ctx, tenant, "Parking", "Lot B")
	require.NoError(t, err)
	req, err := s.RequestEdit(ctx, tenant, rec.RecordID, "", "Lot C since June", "")
	require.NoError(t, err)

	require.NoError(t, s.Approve(ctx, tenant, req.RequestID))

	got, err := s.GetRecord(ctx, tenant, rec.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "Lot C since June", got.Content)
	assert.Equal(t, "Parking", got.Title, "empty proposed title keeps the old one")
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))

	hits, err := retr.Search(ctx, tenant, "lot c", 5)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	pending, err := s.PendingRequests(ctx, tenant)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRejectLeavesRecordIdentical(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	rec, err := s.CreateRecord(ctx, tenant, "Insurance", "We accept plan X")
	require.NoError(t, err)
	before, err := s.GetRecord(ctx, tenant, rec.RecordID)
	require.NoError(t, err)

	req, err := s.RequestEdit(ctx, tenant, rec.RecordID, "Insurance plans", "We accept plan Y", "")
	require.NoError(t, err)
	require.NoError(t, s.Reject(ctx, tenant, req.RequestID))

	after, err := s.GetRecord(ctx, tenant, rec.RecordID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	pending, err := s.PendingRequests(ctx, tenant)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestApproveDeleteRemovesRecordAndIndex(t *testing.T) {
	s, retr := newStore(t)
	ctx := context.Background()
	rec, err := s.CreateRecord(ctx, tenant, "Old promo", "expired offer")
	require.NoError(t, err)
	req, err := s.RequestDelete(ctx, tenant, rec.RecordID, "outdated")
	require.NoError(t, err)

	require.NoError(t, s.Approve(ctx, tenant, req.RequestID))

	_, err = s.GetRecord(ctx, tenant, rec.RecordID)
	assert.ErrorIs(t, err, core.ErrRecordNotFound)
	hits, err := retr.Search(ctx, tenant, "expired", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestApproveUnknownRequest(t *testing.T) {
	s, _ := newStore(t)
	err := s.Approve(context.Background(), tenant, "missing")
	assert.ErrorIs(t, err, core.ErrRequestNotFound)
}

func TestTenantIsolation(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	rec, err := s.CreateRecord(ctx, "tenant-a", "Hours", "9 to 17")
	require.NoError(t, err)

	_, err = s.GetRecord(ctx, "tenant-b", rec.RecordID)
	assert.ErrorIs(t, err, core.ErrRecordNotFound)

	hits, err := s.Search(ctx, "tenant-b", "hours", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestConsolidateStagesRequestsOnly(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	a, err := s.CreateRecord(ctx, tenant, "Hours", "Open 9 to 17")
	require.NoError(t, err)
	b, err := s.CreateRecord(ctx, tenant, "Opening times", "We open at 9 and close at 17")
	require.NoError(t, err)

	m := model.NewMockModel("mock")
	m.EnqueueText(fmt.Sprintf(`{"proposals":[{"keep_record_id":%q,"merged_title":"Opening hours","merged_content":"Open 9 to 17, Mon-Fri","remove_record_ids":[%q],"reason":"duplicate"}]}`, a.RecordID, b.RecordID))

	staged, err := s.Consolidate(ctx, tenant, m)
	require.NoError(t, err)
	require.Len(t, staged, 2)
	assert.Equal(t, core.ModificationEdit, staged[0].Type)
	assert.Equal(t, core.ModificationDelete, staged[1].Type)

	// Nothing applied until approval.
	gotA, err := s.GetRecord(ctx, tenant, a.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "Open 9 to 17", gotA.Content)
	_, err = s.GetRecord(ctx, tenant, b.RecordID)
	assert.NoError(t, err)
}

func TestConsolidateSkipsInvalidProposals(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	_, err := s.CreateRecord(ctx, tenant, "A", "alpha")
	require.NoError(t, err)
	_, err = s.CreateRecord(ctx, tenant, "B", "beta")
	require.NoError(t, err)

	m := model.NewMockModel("mock")
	m.EnqueueText(`{"proposals":[{"keep_record_id":"ghost","merged_title":"x","merged_content":"y","remove_record_ids":["ghost2"]}]}`)

	staged, err := s.Consolidate(ctx, tenant, m)
	require.NoError(t, err)
	assert.Empty(t, staged)
}

func TestConsolidateSkipsWithFewRecords(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	_, err := s.CreateRecord(ctx, tenant, "A", "alpha")
	require.NoError(t, err)

	m := model.NewMockModel("mock")
	staged, err := s.Consolidate(ctx, tenant, m)
	require.NoError(t, err)
	assert.Nil(t, staged)
	assert.Empty(t, m.Requests(), "a single record needs no model call")
}
