// Package state holds the in-memory view of the todo list: items, the active
// filter, which items have a request outstanding, the placeholder for an
// item being created and the transient error banner.
package state

import (
	"slices"
	"sync"
	"time"

	"github.com/Makepad-fr/tada/internal/model"
)

// DefaultErrorTimeout is how long an error message stays visible.
const DefaultErrorTimeout = 3 * time.Second

// Store is safe for concurrent use. Every mutation notifies subscribers after
// the lock is released.
type Store struct {
	mu sync.Mutex

	items    []model.Item
	filter   model.Filter
	inFlight map[int]struct{}
	pending  *model.Item
	nextTemp int

	errMsg     string
	errTimer   *time.Timer
	errGen     uint64
	errTimeout time.Duration

	subs []func()
}

// Option configures a Store.
type Option func(*Store)

// WithErrorTimeout overrides how long ShowError messages stay visible.
func WithErrorTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.errTimeout = d
		}
	}
}

// New returns an empty store with the All filter.
func New(opts ...Option) *Store {
	s := &Store{
		inFlight:   make(map[int]struct{}),
		errTimeout: DefaultErrorTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe registers fn to run after every state change. Callbacks run on the
// goroutine that made the change (or the timer goroutine for error expiry).
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// update runs fn under the lock and notifies subscribers if it reports a change.
func (s *Store) update(fn func() bool) {
	s.mu.Lock()
	changed := fn()
	subs := slices.Clone(s.subs)
	s.mu.Unlock()
	if !changed {
		return
	}
	for _, sub := range subs {
		sub()
	}
}

func (s *Store) indexOf(id int) int {
	return slices.IndexFunc(s.items, func(it model.Item) bool { return it.ID == id })
}

// SetItems replaces the whole list.
func (s *Store) SetItems(items []model.Item) {
	s.update(func() bool {
		s.items = slices.Clone(items)
		return true
	})
}

// Item returns the item with the given id.
func (s *Store) Item(id int) (model.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return model.Item{}, false
}

// Items returns a copy of the full list.
func (s *Store) Items() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// AddInFlight marks id as having a request outstanding. Idempotent.
func (s *Store) AddInFlight(id int) {
	s.update(func() bool {
		if _, ok := s.inFlight[id]; ok {
			return false
		}
		s.inFlight[id] = struct{}{}
		return true
	})
}

// RemoveInFlight clears the in-flight mark. Idempotent.
func (s *Store) RemoveInFlight(id int) {
	s.update(func() bool {
		if _, ok := s.inFlight[id]; !ok {
			return false
		}
		delete(s.inFlight, id)
		return true
	})
}

// InFlight reports whether id has a request outstanding.
func (s *Store) InFlight(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[id]
	return ok
}

// ApplyOptimistic replaces item id with mutate(current). It returns the item
// as it was before the change; ok is false (and nothing happens) if id is not
// in the list.
func (s *Store) ApplyOptimistic(id int, mutate func(model.Item) model.Item) (before model.Item, ok bool) {
	s.update(func() bool {
		i := s.indexOf(id)
		if i < 0 {
			return false
		}
		before, ok = s.items[i], true
		s.items[i] = mutate(before)
		return true
	})
	return before, ok
}

// Commit replaces item id with the server's version. When id belongs to the
// pending placeholder, the placeholder is dropped and serverItem appended.
func (s *Store) Commit(id int, serverItem model.Item) {
	s.update(func() bool {
		if s.pending != nil && s.pending.ID == id {
			s.pending = nil
			if i := s.indexOf(serverItem.ID); i >= 0 {
				s.items[i] = serverItem
			} else {
				s.items = append(s.items, serverItem)
			}
			return true
		}
		i := s.indexOf(id)
		if i < 0 {
			return false
		}
		s.items[i] = serverItem
		return true
	})
}

// Rollback puts original back into slot id.
func (s *Store) Rollback(id int, original model.Item) {
	s.update(func() bool {
		i := s.indexOf(id)
		if i < 0 {
			return false
		}
		s.items[i] = original
		return true
	})
}

// RemoveItem deletes item id from the list.
func (s *Store) RemoveItem(id int) {
	s.update(func() bool {
		i := s.indexOf(id)
		if i < 0 {
			return false
		}
		s.items = slices.Delete(s.items, i, i+1)
		return true
	})
}

// BeginCreate installs a placeholder for an item being created and returns it.
// Only one placeholder may exist; ok is false if one already does.
func (s *Store) BeginCreate(title string, ownerID int) (tmp model.Item, ok bool) {
	s.update(func() bool {
		if s.pending != nil {
			return false
		}
		s.nextTemp--
		tmp = model.Item{ID: s.nextTemp, Title: title, OwnerID: ownerID}
		s.pending = &tmp
		ok = true
		return true
	})
	return tmp, ok
}

// DiscardPending removes the placeholder if it still has the given id.
func (s *Store) DiscardPending(id int) {
	s.update(func() bool {
		if s.pending == nil || s.pending.ID != id {
			return false
		}
		s.pending = nil
		return true
	})
}

// Pending returns the current placeholder, if any.
func (s *Store) Pending() (model.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return model.Item{}, false
	}
	return *s.pending, true
}

// SetFilter changes the active view projection.
func (s *Store) SetFilter(f model.Filter) {
	s.update(func() bool {
		if s.filter == f {
			return false
		}
		s.filter = f
		return true
	})
}

// Filter returns the active filter.
func (s *Store) Filter() model.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Visible returns the items matching the active filter.
func (s *Store) Visible() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Apply(s.items, s.filter)
}

// ShowError displays message and schedules it to clear after the error
// timeout. A newer message replaces the old one and restarts the timer.
func (s *Store) ShowError(message string) {
	s.update(func() bool {
		s.errMsg = message
		s.stopErrTimerLocked()
		gen := s.errGen
		s.errTimer = time.AfterFunc(s.errTimeout, func() { s.expireError(gen) })
		return true
	})
}

// DismissError clears the message immediately.
func (s *Store) DismissError() {
	s.update(func() bool {
		s.stopErrTimerLocked()
		if s.errMsg == "" {
			return false
		}
		s.errMsg = ""
		return true
	})
}

// ErrorMessage returns the visible error message, or "".
func (s *Store) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// stopErrTimerLocked cancels the pending clear. Bumping the generation makes a
// timer that already fired (but has not taken the lock yet) a no-op.
func (s *Store) stopErrTimerLocked() {
	if s.errTimer != nil {
		s.errTimer.Stop()
		s.errTimer = nil
	}
	s.errGen++
}

func (s *Store) expireError(gen uint64) {
	s.update(func() bool {
		if gen != s.errGen {
			return false
		}
		s.errTimer = nil
		s.errMsg = ""
		return true
	})
}

// ActiveCount is the number of items not yet completed.
func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, pending := model.Stats(s.items)
	return pending
}

// CompletedCount is the number of completed items.
func (s *Store) CompletedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	done, _ := model.Stats(s.items)
	return done
}

// AllCompleted reports whether the list is non-empty and every item is done.
func (s *Store) AllCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return allCompleted(s.items)
}

func allCompleted(items []model.Item) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if !it.Completed {
			return false
		}
	}
	return true
}
