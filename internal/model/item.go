package model

import (
	"fmt"
	"strings"
)

// Item is the domain model for a todo entry as the remote API stores it.
// IDs are server-assigned; negative IDs mark a client-side placeholder.
type Item struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	OwnerID   int    `json:"ownerId"`
}

// Temporary reports whether the item is a placeholder that was never persisted.
func (it Item) Temporary() bool { return it.ID < 0 }

// NewItem is the payload sent when creating an item.
type NewItem struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	OwnerID   int    `json:"ownerId"`
}

// Filter is a view projection over the item list. It never leaves the client.
type Filter int

const (
	FilterAll Filter = iota
	FilterActive
	FilterCompleted
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

func (f Filter) String() string {
	switch f {
	case FilterActive:
		return "active"
	case FilterCompleted:
		return "completed"
	default:
		return "all"
	}
}

// Label is the capitalized name shown in the footer.
func (f Filter) Label() string {
	s := f.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// Match reports whether it is visible under f.
func (f Filter) Match(it Item) bool {
	switch f {
	case FilterActive:
		return !it.Completed
	case FilterCompleted:
		return it.Completed
	default:
		return true
	}
}

// Next cycles All -> Active -> Completed -> All.
func (f Filter) Next() Filter {
	return Filters[(int(f)+1)%len(Filters)]
}

// ParseFilter accepts the textual names case-insensitively.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "active":
		return FilterActive, nil
	case "completed", "done":
		return FilterCompleted, nil
	}
	return FilterAll, fmt.Errorf("unknown filter %q (want all|active|completed)", s)
}

// Apply returns the items visible under f, preserving order.
func Apply(items []Item, f Filter) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	return out
}

// Stats counts completed and pending items.
func Stats(items []Item) (done, pending int) {
	for _, it := range items {
		if it.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}
