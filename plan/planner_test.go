package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortexion256/caremax/command"
	"github.com/vortexion256/caremax/intent"
	"github.com/vortexion256/caremax/model"
)

func TestDecideModelVerdict(t *testing.T) {
	m := model.NewMockModel("mock")
	m.EnqueueText("MULTI")
	p := New(m)

	assert.True(t, p.Decide(context.Background(), intent.Intent{}, "check and book", nil))

	m.EnqueueText("simple")
	assert.False(t, p.Decide(context.Background(), intent.Intent{}, "when is my appointment", nil))
}

func TestDecideFallbackOnModelError(t *testing.T) {
	m := model.NewMockModel("mock")
	m.EnqueueError(errors.New("provider down"))
	p := New(m)

	got := p.Decide(context.Background(), intent.Intent{}, "check availability and then book me in", nil)
	assert.True(t, got, "conjunction heuristic should fire")
}

func TestDecideFallbackOnGarbage(t *testing.T) {
	m := model.NewMockModel("mock")
	m.EnqueueText("happy to help!")
	p := New(m)

	it := intent.Intent{SuggestedTools: []string{"a", "b", "c"}}
	assert.True(t, p.Decide(context.Background(), it, "hello", nil))
}

func TestDecidePolicyHeuristics(t *testing.T) {
	pol := DefaultDecidePolicy()
	assert.False(t, pol.MultiStep(intent.Intent{}, "book me in tomorrow"))
	assert.True(t, pol.MultiStep(intent.Intent{}, "check availability and then book"))
	assert.True(t, pol.MultiStep(intent.Intent{SuggestedTools: []string{"a", "b", "c"}}, "hi"))
}

func TestCreateForcesConfirmationOnStateChangingSteps(t *testing.T) {
	m := model.NewMockModel("mock")
	m.EnqueueText(`{"description":"check then book","steps":[
		{"description":"check availability","tool":"get_appointment_by_phone","args":{"phone":"555"}},
		{"description":"book it","tool":"book_appointment","args":{"phone":"555"},"requires_confirmation":false}
	]}`)
	p := New(m)

	ep, err := p.Create(context.Background(), intent.Intent{}, "check then book", nil, command.ToolDefinitions())
	require.NoError(t, err)
	require.Len(t, ep.Steps, 2)
	assert.False(t, ep.Steps[0].RequiresConfirmation)
	assert.True(t, ep.Steps[1].RequiresConfirmation, "state-changing step must gate even when the payload says otherwise")
	assert.Equal(t, StatusReady, ep.Status)
}

func TestCreateNeedsInfoDominates(t *testing.T) {
	m := model.NewMockModel("mock")
	m.EnqueueText("```json\n" + `{"description":"book","missing_info":["date"],"steps":[
		{"description":"book","tool":"book_appointment","args":{},"required_info":["date"]}
	]}` + "\n```")
	p := New(m)

	ep, err := p.Create(context.Background(), intent.Intent{}, "book me in with dr lee", nil, command.ToolDefinitions())
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsInfo, ep.Status)
	assert.Equal(t, []string{"date"}, ep.MissingInfo)
	assert.Nil(t, NextStep(ep), "a plan missing information must not execute")
}

func TestCreateFirstStepGated(t *testing.T) {
	m := model.NewMockModel("mock")
	m.EnqueueText(`{"description":"just book","steps":[
		{"description":"book","tool":"book_appointment","args":{"phone":"555"}}
	]}`)
	p := New(m)

	ep, err := p.Create(context.Background(), intent.Intent{}, "book me in", nil, command.ToolDefinitions())
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingConfirmation, ep.Status)
	assert.Equal(t, StepAwaitingConfirmation, ep.Steps[0].Status)
	assert.Nil(t, NextStep(ep))
}

func TestCreateRejectsEmptyPlan(t *testing.T) {
	m := model.NewMockModel("mock")
	m.EnqueueText(`{"description":"nothing","steps":[]}`)
	p := New(m)

	_, err := p.Create(context.Background(), intent.Intent{}, "hi", nil, command.ToolDefinitions())
	assert.Error(t, err)
}

func TestCreateRejectsGarbage(t *testing.T) {
	m := model.NewMockModel("mock")
	m.EnqueueText("no json here")
	p := New(m)

	_, err := p.Create(context.Background(), intent.Intent{}, "hi", nil, command.ToolDefinitions())
	assert.Error(t, err)
}
