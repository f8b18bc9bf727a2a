package caremax

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortexion256/caremax/config"
	"github.com/vortexion256/caremax/core"
	"github.com/vortexion256/caremax/model"
)

func mockConfig() *config.Config {
	cfg := config.Default()
	cfg.Model.Provider = "mock"
	return cfg
}

func TestNewWithDefaults(t *testing.T) {
	a, err := New(func(o *Options) {
		o.Config = mockConfig()
	})
	require.NoError(t, err)
	assert.NotNil(t, a.Memory())
	assert.NotNil(t, a.ExecutionLog("clinic-1"))
	assert.Equal(t, "mock", a.Config().Model.Provider)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Provider = "carrier-pigeon"
	_, err := New(func(o *Options) { o.Config = cfg })
	assert.Error(t, err)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := mockConfig()
	cfg.Driver.MaxToolRounds = 0
	_, err := New(func(o *Options) { o.Config = cfg })
	assert.Error(t, err)
}

func TestChatEndToEndBooking(t *testing.T) {
	m := model.NewMockModel("mock")
	// Intent classification, plan decision, tool proposal, final wording.
	m.EnqueueText(`{"intent":"booking","confidence":0.9,"suggested_tools":["book_appointment"]}`)
	m.EnqueueText("SIMPLE")
	m.EnqueueToolCalls(core.FunctionCall{
		ID:   "c1",
		Name: "book_appointment",
		Arguments: `{"date":"2025-01-10","patient_name":"Ana Silva","phone":"555-0100",` +
			`"doctor":"Lee","time":"10:00"}`,
	})
	m.EnqueueText("Your appointment with Dr. Lee is booked for January 10 at 10:00.")

	a, err := New(func(o *Options) {
		o.Config = mockConfig()
		o.Model = m
	})
	require.NoError(t, err)

	reply, err := a.Chat(context.Background(), "clinic-1", "book me with dr lee on jan 10 at 10")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "booked")
	assert.True(t, a.ExecutionLog("clinic-1").HasVerifiedBooking())
}

func TestMemoryWorkflowThroughFacade(t *testing.T) {
	a, err := New(func(o *Options) { o.Config = mockConfig() })
	require.NoError(t, err)
	ctx := context.Background()

	rec, err := a.Memory().CreateRecord(ctx, "clinic-1", "Hours", "Open 9 to 17")
	require.NoError(t, err)

	req, err := a.Memory().RequestEdit(ctx, "clinic-1", rec.RecordID, "", "Open 8 to 18", "extended hours")
	require.NoError(t, err)
	require.NoError(t, a.Memory().Reject(ctx, "clinic-1", req.RequestID))

	got, err := a.Memory().GetRecord(ctx, "clinic-1", rec.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "Open 9 to 17", got.Content)
}
