package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/state"
)

// ProgressBar renders a Unicode progress bar with percentage.
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 5 {
		width = 5
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	pct := int(float64(done) / float64(total) * 100)
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

// Panel draws a framed box using the current theme. Widths ignore escapes.
func Panel(w io.Writer, lines []string) {
	t := Current()
	maxw := 0
	for _, ln := range lines {
		maxw = max(maxw, lipgloss.Width(ln))
	}
	pad := func(s string) string {
		if vis := lipgloss.Width(s); vis < maxw {
			s += strings.Repeat(" ", maxw-vis)
		}
		return s
	}
	fmt.Fprintln(w, t.CornerTL+strings.Repeat(t.H, maxw+2)+t.CornerTR)
	for _, ln := range lines {
		fmt.Fprintln(w, t.V+" "+pad(ln)+" "+t.V)
	}
	fmt.Fprintln(w, t.CornerBL+strings.Repeat(t.H, maxw+2)+t.CornerBR)
}

// ListLines renders a store snapshot as panel lines: header, progress, the
// visible items, the pending placeholder and the footer.
func ListLines(snap state.Snapshot) []string {
	t := Current()
	done, pending := model.Stats(snap.Items)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d  %s",
		C(t.Title, "Todos"),
		C(t.Success, "✔"), done,
		C(t.Pending, "•"), pending,
		C(t.Accent, "Total"), len(snap.Items),
		C(t.Muted, "["+snap.Filter.Label()+"]"),
	)

	lines := []string{header, C(t.Muted, ProgressBar(done, done+pending, 28)), ""}
	lines = append(lines, ItemLines(snap.Visible(), snap.InFlight)...)
	if snap.Pending != nil {
		lines = append(lines, itemLine(*snap.Pending, true))
	}
	lines = append(lines, "", C(t.Muted, fmt.Sprintf("%d items left", snap.ActiveCount())))
	if snap.Error != "" {
		lines = append(lines, C(t.Error, symCross+" "+snap.Error))
	}
	return lines
}

// ItemLines renders one line per item; busy items get the theme's busy mark.
func ItemLines(items []model.Item, inFlight map[int]bool) []string {
	if len(items) == 0 {
		return []string{C(Current().Muted, "no items")}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, itemLine(it, inFlight[it.ID]))
	}
	return out
}

func itemLine(it model.Item, busy bool) string {
	t := Current()
	box, color := t.BoxUnchecked, t.Muted
	if it.Completed {
		box, color = t.BoxChecked, t.Success
	}
	id := fmt.Sprintf("%4d", it.ID)
	if it.Temporary() {
		id = "   +"
	}
	title := it.Title
	if len(title) > 80 {
		title = title[:77] + "..."
	}
	line := fmt.Sprintf("%s %s %s", C(dim, id), C(color, box), title)
	if busy {
		line += " " + C(t.Pending, t.SymBusy)
	}
	return line
}
