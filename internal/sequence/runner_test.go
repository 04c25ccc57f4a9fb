package sequence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) record(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) snapshot() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func TestRunner_EmitsEveryBoundaryInOrder(t *testing.T) {
	plan := Plan{Stages: agents(3), Step: 5 * time.Millisecond, FinalDelay: 5 * time.Millisecond}
	rec := &recorder{}

	r := Run(context.Background(), plan, rec.record)
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not finish")
	}

	states := rec.snapshot()
	require.Len(t, states, len(plan.Boundaries()))
	for i, st := range states {
		assert.Equal(t, plan.At(plan.Boundaries()[i]), st)
	}
	assert.Equal(t, 0, states[0].Completed())
	assert.True(t, states[len(states)-1].Revealed)
}

func TestRunner_StopPreventsFurtherCallbacks(t *testing.T) {
	plan := Plan{Stages: agents(5), Step: time.Hour}
	rec := &recorder{}

	r := Run(context.Background(), plan, rec.record)
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, time.Millisecond)

	r.Stop()
	r.Stop()

	<-r.Done()
	assert.Len(t, rec.snapshot(), 1)
}

func TestRunner_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	plan := Plan{Stages: agents(2), Step: time.Hour}

	r := Run(ctx, plan, nil)
	cancel()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("runner ignored cancelled context")
	}
}
