package state

import (
	"slices"

	"github.com/Makepad-fr/tada/internal/model"
)

// Snapshot is a point-in-time copy of the store used by renderers.
type Snapshot struct {
	Items    []model.Item
	Filter   model.Filter
	InFlight map[int]bool
	Pending  *model.Item
	Error    string
}

// Snapshot copies the whole store under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Items:    slices.Clone(s.items),
		Filter:   s.filter,
		InFlight: make(map[int]bool, len(s.inFlight)),
		Error:    s.errMsg,
	}
	for id := range s.inFlight {
		snap.InFlight[id] = true
	}
	if s.pending != nil {
		p := *s.pending
		snap.Pending = &p
	}
	return snap
}

// Visible returns the items passing the snapshot's filter.
func (snap Snapshot) Visible() []model.Item { return model.Apply(snap.Items, snap.Filter) }

// ActiveCount is the "items left" counter.
func (snap Snapshot) ActiveCount() int {
	_, pending := model.Stats(snap.Items)
	return pending
}

// CompletedCount is the number of completed items.
func (snap Snapshot) CompletedCount() int {
	done, _ := model.Stats(snap.Items)
	return done
}

// AllCompleted reports whether the list is non-empty and fully completed.
func (snap Snapshot) AllCompleted() bool { return allCompleted(snap.Items) }
