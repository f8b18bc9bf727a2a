package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortexion256/caremax/model"
)

func TestHumanRequestSkipsModel(t *testing.T) {
	m := model.NewMockModel("mock")
	c := New(m)

	got := c.Classify(context.Background(), "I want to talk to a human please", nil)
	assert.True(t, got.IsHumanRequest())
	assert.Empty(t, m.Requests(), "human requests must not cost a model round-trip")
}

func TestClassifyUsesModelJSON(t *testing.T) {
	m := model.NewMockModel("mock")
	m.EnqueueText("```json\n{\"intent\":\"booking\",\"confidence\":0.92,\"entities\":{\"date\":\"2025-01-10\"},\"suggested_tools\":[\"book_appointment\"]}\n```")
	c := New(m)

	got := c.Classify(context.Background(), "book me in for the 10th", nil)
	assert.Equal(t, NameBooking, got.Name)
	assert.InDelta(t, 0.92, got.Confidence, 0.001)
	assert.Equal(t, "2025-01-10", got.Entities["date"])
	require.Len(t, m.Requests(), 1)
}

func TestClassifyFallsBackOnModelError(t *testing.T) {
	m := model.NewMockModel("mock")
	m.EnqueueError(errors.New("provider down"))
	c := New(m)

	got := c.Classify(context.Background(), "I need to book an appointment", nil)
	assert.Equal(t, NameBooking, got.Name)
	assert.LessOrEqual(t, got.Confidence, 0.5)
}

func TestClassifyFallsBackOnGarbage(t *testing.T) {
	m := model.NewMockModel("mock")
	m.EnqueueText("sure, happy to help!")
	c := New(m)

	got := c.Classify(context.Background(), "when is my appointment?", nil)
	assert.Equal(t, NameLookup, got.Name)
}

func TestClassifyRejectsUnknownIntentName(t *testing.T) {
	m := model.NewMockModel("mock")
	m.EnqueueText(`{"intent":"world_domination","confidence":0.99}`)
	c := New(m)

	got := c.Classify(context.Background(), "hello", nil)
	assert.Equal(t, NameOther, got.Name)
}

func TestFallbackPolicyOrdering(t *testing.T) {
	p := DefaultFallbackPolicy()
	// Lookup phrasing wins over the bare booking keyword it contains.
	got := p.Classify("When is my appointment?")
	assert.Equal(t, NameLookup, got.Name)

	got = p.Classify("I'd like to schedule a cleaning")
	assert.Equal(t, NameBooking, got.Name)

	got = p.Classify("what's the weather")
	assert.Equal(t, NameOther, got.Name)
}
