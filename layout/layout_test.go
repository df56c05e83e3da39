package layout

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitPanel(t *testing.T) {
	hidden := SplitPanel{}
	shown := hidden.Toggle()

	assert.Equal(t, 0, hidden.ChatPercent())
	assert.Equal(t, 50, shown.ChatPercent())
	assert.False(t, shown.Toggle().Visible)

	r, c := shown.Columns(120)
	assert.Equal(t, 60, r)
	assert.Equal(t, 60, c)
	r, c = hidden.Columns(120)
	assert.Equal(t, 120, r)
	assert.Equal(t, 0, c)
}

func TestSplitPanel_PercentAt(t *testing.T) {
	hidden, shown := SplitPanel{}, SplitPanel{Visible: true}
	assert.Equal(t, 0.0, shown.PercentAt(hidden, 0))
	assert.InDelta(t, 25.0, shown.PercentAt(hidden, Transition/2), 1e-9)
	assert.Equal(t, 50.0, shown.PercentAt(hidden, Transition))
	assert.Equal(t, 0.0, hidden.PercentAt(shown, time.Hour))
}

func TestTextareaRows(t *testing.T) {
	ta := Textarea{Width: 10, MinRows: 1, MaxRows: 4}
	assert.Equal(t, 1, ta.Rows(""))
	assert.Equal(t, 1, ta.Rows("corto"))
	assert.Equal(t, 2, ta.Rows(strings.Repeat("a", 11)))
	assert.Equal(t, 3, ta.Rows("a\nb\nc"))
	assert.Equal(t, 4, ta.Rows(strings.Repeat("a\n", 20)), "clamped to MaxRows")

	assert.Equal(t, 2, Textarea{Width: 10, MinRows: 2, MaxRows: 4}.Rows("x"), "clamped to MinRows")
}

func TestScrollTarget(t *testing.T) {
	assert.Equal(t, -1, ScrollTarget(0))
	assert.Equal(t, 4, ScrollTarget(5))
}
