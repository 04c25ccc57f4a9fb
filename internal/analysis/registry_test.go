package analysis

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rahul4469/crisis-analyzer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	closed atomic.Int32
}

func (f *fakeSession) Snapshot(now time.Time) any { return "ok" }
func (f *fakeSession) Close()                     { f.closed.Add(1) }

func TestRegistry_AddGet(t *testing.T) {
	r := NewRegistry(time.Minute, nil)
	id := r.NewID()
	s := &fakeSession{}
	r.Add(id, s)

	got, err := r.Get(id)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = r.Get(r.NewID())
	assert.ErrorIs(t, err, models.ErrRunNotFound)

	_, err = r.Get("not-a-uuid")
	assert.ErrorIs(t, err, models.ErrRunNotFound)
}

func TestRegistry_ReplaceClosesPrevious(t *testing.T) {
	r := NewRegistry(time.Minute, nil)
	id := r.NewID()
	first, second := &fakeSession{}, &fakeSession{}
	r.Add(id, first)
	r.Add(id, second)

	assert.Equal(t, int32(1), first.closed.Load())
	assert.Zero(t, second.closed.Load())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_SweepExpired(t *testing.T) {
	r := NewRegistry(time.Minute, nil)
	now := t0
	r.now = func() time.Time { return now }

	stale, fresh := &fakeSession{}, &fakeSession{}
	staleID := r.NewID()
	r.Add(staleID, stale)

	now = now.Add(45 * time.Second)
	freshID := r.NewID()
	r.Add(freshID, fresh)

	now = now.Add(30 * time.Second)
	_, err := r.Get(staleID)
	assert.ErrorIs(t, err, models.ErrRunNotFound, "expired entries are hidden before the sweep")

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, int32(1), stale.closed.Load())
	assert.Zero(t, fresh.closed.Load())

	_, err = r.Get(freshID)
	assert.NoError(t, err)
}

func TestRegistry_RemoveAndClose(t *testing.T) {
	r := NewRegistry(0, nil)
	assert.Equal(t, DefaultRunTTL, r.TTL)

	a, b := &fakeSession{}, &fakeSession{}
	idA, idB := r.NewID(), r.NewID()
	r.Add(idA, a)
	r.Add(idB, b)

	r.Remove(idA)
	r.Remove(idA)
	assert.Equal(t, int32(1), a.closed.Load())

	r.Close()
	assert.Equal(t, int32(1), b.closed.Load())
	assert.Zero(t, r.Len())
}

func TestRegistry_HoldsRuns(t *testing.T) {
	r := NewRegistry(time.Minute, nil)
	id := r.NewID()
	run := Start(t.Context(), id, handoff("smoke"), Options{
		Analyzer: &fakeAnalyzer{result: &models.AnalysisResult{}},
	})
	r.Add(id, run)

	got, err := r.Get(id)
	require.NoError(t, err)
	snap, ok := got.Snapshot(time.Now()).(*Snapshot)
	require.True(t, ok)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, "live", snap.Kind)

	r.Remove(id)
	select {
	case <-run.Done():
	default:
		t.Fatal("removing a run must close it")
	}
}
