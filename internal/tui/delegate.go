package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

// listItem adapts model.Item to bubbles/list.Item.
type listItem struct {
	model.Item
}

func (i listItem) FilterValue() string { return i.Title }

// itemDelegate renders one line per item with the current theme's checkboxes.
// Busy rows show the spinner frame in place of the checkbox.
type itemDelegate struct {
	inFlight map[int]bool
	spin     string
}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}

	theme := ui.Current()
	box := mutedStyle.Render(theme.BoxUnchecked)
	text := it.Title
	if it.Completed {
		box = successStyle.Render(theme.BoxChecked)
		text = doneStyle.Render(text)
	}
	if it.Temporary() || d.inFlight[it.ID] {
		box = pendingStyle.Render(d.spin)
		text = mutedStyle.Render(it.Title)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s", prefix, box, text)
}
