// Package layout holds the sizing rules of the page shell: the report/chat
// split panel, the auto-growing message input and the transcript scroll target.
package layout

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Transition is how long the chat pane takes to open or close.
const Transition = 300 * time.Millisecond

// SplitPanel is the resizable report/chat split.
type SplitPanel struct {
	Visible bool
}

// Toggle flips chat visibility.
func (p SplitPanel) Toggle() SplitPanel { return SplitPanel{Visible: !p.Visible} }

// ChatPercent is the chat pane width: 0 when hidden, 50 when visible.
func (p SplitPanel) ChatPercent() int {
	if p.Visible {
		return 50
	}
	return 0
}

// PercentAt interpolates the chat width elapsed into a toggle from -> p.
func (p SplitPanel) PercentAt(from SplitPanel, elapsed time.Duration) float64 {
	start, end := float64(from.ChatPercent()), float64(p.ChatPercent())
	if elapsed <= 0 {
		return start
	}
	if elapsed >= Transition {
		return end
	}
	return start + (end-start)*float64(elapsed)/float64(Transition)
}

// Columns splits total terminal columns into the report and chat panes.
func (p SplitPanel) Columns(total int) (report, chat int) {
	if total <= 0 {
		return 0, 0
	}
	chat = total * p.ChatPercent() / 100
	return total - chat, chat
}

// Textarea bounds the auto-growing input, in rows.
type Textarea struct {
	Width   int // columns available per row
	MinRows int
	MaxRows int
}

// DefaultTextarea mirrors the chat panel input.
var DefaultTextarea = Textarea{Width: 60, MinRows: 1, MaxRows: 6}

// Rows returns the height needed to show text, clamped to [MinRows, MaxRows].
func (t Textarea) Rows(text string) int {
	rows := 0
	for _, line := range strings.Split(text, "\n") {
		w := lipgloss.Width(line)
		if t.Width <= 0 || w == 0 {
			rows++
			continue
		}
		rows += (w + t.Width - 1) / t.Width
	}
	if rows < t.MinRows {
		rows = t.MinRows
	}
	if t.MaxRows > 0 && rows > t.MaxRows {
		rows = t.MaxRows
	}
	return rows
}

// ScrollTarget is the index to scroll to for a transcript of n messages,
// or -1 when it is empty.
func ScrollTarget(n int) int {
	return n - 1
}
