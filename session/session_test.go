package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortexion256/caremax/core"
	"github.com/vortexion256/caremax/plan"
)

func TestRecentBoundsHistory(t *testing.T) {
	s := NewSession("clinic-1")
	for _, text := range []string{"one", "two", "three", "four"} {
		s.AddTurn(core.NewUserText(text))
	}

	got := s.Recent(2)
	require.Len(t, got, 2)
	assert.Equal(t, "three", got[0].Text())
	assert.Equal(t, "four", got[1].Text())

	assert.Len(t, s.Recent(0), 4)
	assert.Len(t, s.Recent(10), 4)
}

func TestCloneIsolatesMutation(t *testing.T) {
	s := NewSession("clinic-1")
	s.AddTurn(core.NewUserText("hello"))
	s.ActivePlan = &plan.ExecutionPlan{
		PlanID: "p1",
		Status: plan.StatusReady,
		Steps:  []*plan.Step{{StepNumber: 1, Status: plan.StepPending}},
	}

	cp := s.Clone()
	cp.AddTurn(core.NewUserText("extra"))
	cp.ActivePlan.Steps[0].Status = plan.StepCompleted

	assert.Len(t, s.Turns, 1)
	assert.Equal(t, plan.StepPending, s.ActivePlan.Steps[0].Status)
}

func TestStoreGetCreatesLazily(t *testing.T) {
	st := NewInMemoryStore()
	sess, err := st.Get("clinic-1")
	require.NoError(t, err)
	assert.Equal(t, "clinic-1", sess.ID)
	assert.Empty(t, sess.Turns)
}

func TestStoreRoundTrip(t *testing.T) {
	st := NewInMemoryStore()
	sess, err := st.Get("clinic-1")
	require.NoError(t, err)
	sess.AddTurn(core.NewUserText("hi"))
	require.NoError(t, st.Save(sess))

	// Mutating the saved snapshot must not affect the stored copy.
	sess.AddTurn(core.NewUserText("later"))

	got, err := st.Get("clinic-1")
	require.NoError(t, err)
	require.Len(t, got.Turns, 1)
	assert.Equal(t, "hi", got.Turns[0].Text())
}

func TestStoreIsolatesTenants(t *testing.T) {
	st := NewInMemoryStore()
	a, err := st.Get("tenant-a")
	require.NoError(t, err)
	a.AddTurn(core.NewUserText("private"))
	require.NoError(t, st.Save(a))

	b, err := st.Get("tenant-b")
	require.NoError(t, err)
	assert.Empty(t, b.Turns)
}
