package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/booktype/internal/layout"
)

type region int

const (
	regionConsumed region = iota
	regionTyped
	regionCursor
	regionPending
	regionAfter
)

var (
	consumedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A5A5A"))
	typedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#F0F0F0"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FA8FF"))
	afterStyle    = consumedStyle
)

func (r region) style() lipgloss.Style {
	switch r {
	case regionTyped:
		return typedStyle
	case regionCursor:
		return cursorStyle
	case regionPending:
		return pendingStyle
	case regionAfter:
		return afterStyle
	default:
		return consumedStyle
	}
}

// bounds are the display positions of the sample start, the cursor and the
// sample end.
type bounds struct {
	start  layout.Pos
	cursor layout.Pos
	end    layout.Pos
}

func before(a, b layout.Pos) bool {
	return a.Line < b.Line || (a.Line == b.Line && a.Col < b.Col)
}

func (b bounds) classify(p layout.Pos) region {
	switch {
	case before(p, b.start):
		return regionConsumed
	case before(p, b.cursor):
		return regionTyped
	case p == b.cursor:
		return regionCursor
	case before(p, b.end):
		return regionPending
	default:
		return regionAfter
	}
}

type span struct {
	region region
	text   string
}

// splitLine cuts line into runs of equal region.
func splitLine(line string, row int, b bounds) []span {
	var spans []span
	var cur []rune
	curRegion := region(-1)
	col := 0
	for _, r := range line {
		reg := b.classify(layout.Pos{Line: row, Col: col})
		if reg != curRegion && len(cur) > 0 {
			spans = append(spans, span{region: curRegion, text: string(cur)})
			cur = cur[:0]
		}
		curRegion = reg
		cur = append(cur, r)
		col++
	}
	if len(cur) > 0 {
		spans = append(spans, span{region: curRegion, text: string(cur)})
	}
	return spans
}

// renderLine styles line and pads it to width display columns.
func renderLine(line string, row int, b bounds, width int) string {
	var out strings.Builder
	for _, s := range splitLine(line, row, b) {
		out.WriteString(s.region.style().Render(s.text))
	}
	if pad := width - runewidth.StringWidth(line); pad > 0 {
		out.WriteString(strings.Repeat(" ", pad))
	}
	return out.String()
}

// visibleRange is the slice of layout lines shown on screen.
type visibleRange struct {
	blankTop int
	first    int
	last     int
}

// placeLines centers displayLine a little above the middle of rows and
// returns the visible range of a layout with lineCount lines.
func placeLines(rows, displayLine, lineCount int) visibleRange {
	center := max(rows/2-2, 0)
	displayLine = min(displayLine, lineCount)
	vp := visibleRange{
		blankTop: max(center-displayLine, 0),
		first:    min(max(displayLine-center, 0), lineCount),
	}
	vp.last = min(vp.first+max(rows-vp.blankTop, 0), lineCount)
	return vp
}
