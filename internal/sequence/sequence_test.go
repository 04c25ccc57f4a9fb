package sequence

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

const d = 800 * time.Millisecond

func agents(n int) []Stage {
	stages := make([]Stage, n)
	for i := range stages {
		stages[i] = Stage{ID: string(rune('a' + i))}
	}
	return stages
}

func TestPlanAt_FixedDelay(t *testing.T) {
	const n = 5
	plan := Plan{Stages: agents(n), Step: d, FinalDelay: time.Second}

	for k := 0; k <= n; k++ {
		st := plan.At(time.Duration(k) * d)
		for i, status := range st.Statuses {
			switch {
			case i < k:
				assert.Equal(t, StatusComplete, status, "k=%d stage=%d", k, i)
			case i == k:
				assert.Equal(t, StatusLoading, status, "k=%d stage=%d", k, i)
			default:
				assert.Equal(t, StatusPending, status, "k=%d stage=%d", k, i)
			}
		}
		assert.Equal(t, k, st.Completed())
	}
}

func TestPlanAt_BetweenBoundaries(t *testing.T) {
	plan := Plan{Stages: agents(3), Step: d}

	got := plan.At(d + d/2).Statuses
	want := []Status{StatusComplete, StatusLoading, StatusPending}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanAt_RevealGating(t *testing.T) {
	plan := Plan{Stages: agents(5), Step: d, FinalDelay: time.Second}
	allDone := 5 * d

	st := plan.At(allDone)
	assert.True(t, st.Complete())
	assert.False(t, st.Revealed)

	assert.False(t, plan.At(allDone+time.Second-time.Millisecond).Revealed)
	assert.True(t, plan.At(allDone+time.Second).Revealed)
	assert.Equal(t, allDone+time.Second, plan.Duration())
}

func TestPlanAt_PerStageDelays(t *testing.T) {
	// routing, six agents, evaluation, synthesis, complete
	stages := []Stage{{ID: "routing", Delay: 2 * time.Second}}
	for _, s := range agents(6) {
		s.Delay = 1500 * time.Millisecond
		stages = append(stages, s)
	}
	stages = append(stages,
		Stage{ID: "evaluation", Delay: time.Second},
		Stage{ID: "synthesis", Delay: 2 * time.Second},
	)
	plan := Plan{Stages: stages, FinalDelay: 3 * time.Second}

	assert.Equal(t, 14*time.Second, plan.StagesDuration())
	assert.Equal(t, 17*time.Second, plan.Duration())

	st := plan.At(2 * time.Second)
	assert.Equal(t, StatusComplete, st.Statuses[0])
	assert.Equal(t, StatusLoading, st.Statuses[1])

	st = plan.At(11 * time.Second)
	assert.Equal(t, 7, st.Completed())
	assert.Equal(t, StatusLoading, st.Statuses[7])
}

func TestPlanAt_Edges(t *testing.T) {
	plan := Plan{Stages: agents(2), Step: d}

	st := plan.At(-time.Second)
	assert.Equal(t, time.Duration(0), st.Elapsed)
	assert.Equal(t, StatusLoading, st.Statuses[0])

	// no final delay: reveal coincides with the last completion
	assert.True(t, plan.At(2*d).Revealed)

	empty := Plan{FinalDelay: time.Second}
	assert.True(t, empty.At(0).Complete())
	assert.False(t, empty.At(0).Revealed)
	assert.True(t, empty.At(time.Second).Revealed)
}

func TestStateAdvance(t *testing.T) {
	plan := Plan{Stages: agents(3), Step: d, FinalDelay: d}

	st := plan.At(0)
	for i := 0; i < 3; i++ {
		st = st.Advance(plan, d)
	}
	assert.True(t, st.Complete())
	assert.False(t, st.Revealed)

	st = st.Advance(plan, d)
	assert.True(t, st.Revealed)
	assert.Equal(t, plan.At(4*d), st)
}

func TestPlanBoundaries(t *testing.T) {
	plan := Plan{Stages: agents(3), Step: d, FinalDelay: time.Second}
	want := []time.Duration{0, d, 2 * d, 3 * d, 3*d + time.Second}
	if diff := cmp.Diff(want, plan.Boundaries()); diff != "" {
		t.Errorf("boundaries mismatch (-want +got):\n%s", diff)
	}

	noFinal := Plan{Stages: agents(2), Step: d}
	assert.Equal(t, []time.Duration{0, d, 2 * d}, noFinal.Boundaries())
}

func TestStatusText(t *testing.T) {
	b, err := StatusLoading.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "loading", string(b))
	assert.Equal(t, "Status(7)", Status(7).String())
	_, err = Status(7).MarshalText()
	assert.Error(t, err)

	var st Status
	assert.NoError(t, st.UnmarshalText([]byte("complete")))
	assert.Equal(t, StatusComplete, st)
	assert.Error(t, st.UnmarshalText([]byte("done")))
}
