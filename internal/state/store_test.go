package state

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/model"
)

func seeded(opts ...Option) *Store {
	s := New(opts...)
	s.SetItems([]model.Item{
		{ID: 1, Title: "milk", Completed: true, OwnerID: 9},
		{ID: 2, Title: "bread", OwnerID: 9},
		{ID: 3, Title: "eggs", Completed: true, OwnerID: 9},
	})
	return s
}

func TestSetItemsCopiesInput(t *testing.T) {
	in := []model.Item{{ID: 1, Title: "a"}}
	s := New()
	s.SetItems(in)
	in[0].Title = "changed"

	it, ok := s.Item(1)
	require.True(t, ok)
	assert.Equal(t, "a", it.Title)
}

func TestInFlightIsIdempotent(t *testing.T) {
	s := seeded()
	var calls atomic.Int32
	s.Subscribe(func() { calls.Add(1) })

	s.AddInFlight(2)
	s.AddInFlight(2)
	assert.True(t, s.InFlight(2))
	assert.Equal(t, int32(1), calls.Load())

	s.RemoveInFlight(2)
	s.RemoveInFlight(2)
	assert.False(t, s.InFlight(2))
	assert.Equal(t, int32(2), calls.Load())
}

func TestApplyOptimisticAndRollback(t *testing.T) {
	s := seeded()

	before, ok := s.ApplyOptimistic(2, func(it model.Item) model.Item {
		it.Completed = !it.Completed
		return it
	})
	require.True(t, ok)
	assert.False(t, before.Completed)

	cur, _ := s.Item(2)
	assert.True(t, cur.Completed)

	s.Rollback(2, before)
	cur, _ = s.Item(2)
	assert.Equal(t, before, cur)
}

func TestApplyOptimisticMissingIsNoop(t *testing.T) {
	s := seeded()
	called := false
	_, ok := s.ApplyOptimistic(42, func(it model.Item) model.Item {
		called = true
		return it
	})
	assert.False(t, ok)
	assert.False(t, called)
	assert.Len(t, s.Items(), 3)
}

func TestCommitReplacesInPlace(t *testing.T) {
	s := seeded()
	s.Commit(2, model.Item{ID: 2, Title: "rye bread", OwnerID: 9})

	items := s.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "rye bread", items[1].Title)
}

func TestCommitPendingAppendsServerItem(t *testing.T) {
	s := seeded()
	tmp, ok := s.BeginCreate("jam", 9)
	require.True(t, ok)
	assert.Less(t, tmp.ID, 0)

	s.Commit(tmp.ID, model.Item{ID: 10, Title: "jam", OwnerID: 9})

	_, pending := s.Pending()
	assert.False(t, pending)
	items := s.Items()
	require.Len(t, items, 4)
	assert.Equal(t, 10, items[3].ID)
}

func TestBeginCreateAllowsOnePlaceholder(t *testing.T) {
	s := New()
	first, ok := s.BeginCreate("one", 1)
	require.True(t, ok)

	_, ok = s.BeginCreate("two", 1)
	assert.False(t, ok)

	p, _ := s.Pending()
	assert.Equal(t, first, p)

	s.DiscardPending(first.ID)
	second, ok := s.BeginCreate("two", 1)
	require.True(t, ok)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestDiscardPendingIgnoresOtherIDs(t *testing.T) {
	s := New()
	tmp, _ := s.BeginCreate("x", 1)
	s.DiscardPending(tmp.ID - 1)
	_, ok := s.Pending()
	assert.True(t, ok)
}

func TestRemoveItem(t *testing.T) {
	s := seeded()
	s.RemoveItem(1)
	s.RemoveItem(99)
	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].ID)
}

func TestFilterProjection(t *testing.T) {
	s := seeded()
	assert.Len(t, s.Visible(), 3)

	s.SetFilter(model.FilterActive)
	assert.Equal(t, model.FilterActive, s.Filter())
	vis := s.Visible()
	require.Len(t, vis, 1)
	assert.Equal(t, 2, vis[0].ID)

	s.SetFilter(model.FilterCompleted)
	assert.Len(t, s.Visible(), 2)
}

func TestCounters(t *testing.T) {
	s := seeded()
	assert.Equal(t, 1, s.ActiveCount())
	assert.Equal(t, 2, s.CompletedCount())
	assert.False(t, s.AllCompleted())

	s.SetItems(nil)
	assert.False(t, s.AllCompleted(), "empty list is never all-completed")

	s.SetItems([]model.Item{{ID: 1, Completed: true}})
	assert.True(t, s.AllCompleted())
}

func TestShowErrorExpires(t *testing.T) {
	s := New(WithErrorTimeout(30 * time.Millisecond))
	s.ShowError("Unable to load todos")
	assert.Equal(t, "Unable to load todos", s.ErrorMessage())

	assert.Eventually(t, func() bool { return s.ErrorMessage() == "" },
		time.Second, 5*time.Millisecond)
}

func TestShowErrorReplacesAndResetsTimer(t *testing.T) {
	s := New(WithErrorTimeout(200 * time.Millisecond))
	s.ShowError("first")
	time.Sleep(120 * time.Millisecond)
	s.ShowError("second")

	// The first timer would have fired by now had it not been replaced.
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, "second", s.ErrorMessage())

	assert.Eventually(t, func() bool { return s.ErrorMessage() == "" },
		time.Second, 5*time.Millisecond)
}

func TestDefaultErrorTimeout(t *testing.T) {
	assert.Equal(t, 3000*time.Millisecond, DefaultErrorTimeout)
	assert.Equal(t, DefaultErrorTimeout, New().errTimeout)
}

func TestDismissError(t *testing.T) {
	s := New(WithErrorTimeout(time.Hour))
	s.ShowError("boom")
	s.DismissError()
	assert.Empty(t, s.ErrorMessage())
	assert.Nil(t, s.errTimer)
}

func TestSubscribeSeesErrorExpiry(t *testing.T) {
	s := New(WithErrorTimeout(10 * time.Millisecond))
	var calls atomic.Int32
	s.Subscribe(func() { calls.Add(1) })

	s.ShowError("x")
	assert.Eventually(t, func() bool { return calls.Load() == 2 },
		time.Second, 5*time.Millisecond)
}

func TestSnapshot(t *testing.T) {
	s := seeded()
	s.AddInFlight(1)
	tmp, _ := s.BeginCreate("jam", 9)
	s.SetFilter(model.FilterCompleted)

	snap := s.Snapshot()
	assert.True(t, snap.InFlight[1])
	require.NotNil(t, snap.Pending)
	assert.Equal(t, tmp.ID, snap.Pending.ID)
	assert.Len(t, snap.Visible(), 2)
	assert.Equal(t, 1, snap.ActiveCount())
	assert.Equal(t, 2, snap.CompletedCount())

	// Mutating the snapshot must not leak into the store.
	snap.Items[0].Title = "changed"
	it, _ := s.Item(1)
	assert.Equal(t, "milk", it.Title)
}
