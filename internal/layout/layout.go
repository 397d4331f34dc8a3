// Package layout wraps book text into display lines and indexes the
// (line, column) position of every character offset.
package layout

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	// ErrOffsetOutOfRange is returned for offsets outside [0, Len()).
	ErrOffsetOutOfRange = errors.New("layout: offset out of range")
	// ErrInvalidWidth is returned for widths below 1.
	ErrInvalidWidth = errors.New("layout: width must be at least 1")
)

// Pos is a display position.
type Pos struct {
	Line int
	Col  int
}

// Layout is an immutable set of wrapped lines plus the position index.
type Layout struct {
	width int
	lines []string
	index []Pos
}

// Wrap greedily word-wraps text so that a line plus the next word stays
// strictly under maxWidth. Words longer than the width get a line of their
// own and are never split.
func Wrap(text []rune, maxWidth int) (*Layout, error) {
	if maxWidth < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWidth, maxWidth)
	}
	l := &Layout{
		width: maxWidth,
		index: make([]Pos, 0, len(text)),
	}
	var line, word []rune
	row, col := 0, 0

	place := func() {
		if len(line) == 0 || len(line)+len(word) < maxWidth {
			line = append(line, word...)
		} else {
			l.lines = append(l.lines, string(line))
			line = append([]rune(nil), word...)
			row++
			col = 0
		}
		for range word {
			l.index = append(l.index, Pos{Line: row, Col: col})
			col++
		}
		word = word[:0]
	}

	for _, r := range text {
		word = append(word, r)
		if r == ' ' {
			place()
		}
	}
	// The trailing word has no terminating space; an overflow pushes the
	// current line and the word as two lines.
	if len(word) > 0 {
		place()
	}
	l.lines = append(l.lines, string(line))
	return l, nil
}

// Width returns the wrap width the layout was built for.
func (l *Layout) Width() int {
	return l.width
}

// Len returns the number of indexed characters.
func (l *Layout) Len() int {
	return len(l.index)
}

// Lines returns the wrapped lines. Callers must not modify the slice.
func (l *Layout) Lines() []string {
	return l.lines
}

// LineCount returns the number of lines.
func (l *Layout) LineCount() int {
	return len(l.lines)
}

// Position returns the display position of a character offset.
func (l *Layout) Position(offset int) (Pos, error) {
	if offset < 0 || offset >= len(l.index) {
		return Pos{}, fmt.Errorf("%w: %d not in [0, %d)", ErrOffsetOutOfRange, offset, len(l.index))
	}
	return l.index[offset], nil
}

// Indexer owns the current layout for a fixed text and swaps in a fresh
// layout whenever the width changes.
type Indexer struct {
	text    []rune
	current atomic.Pointer[Layout]
}

// NewIndexer wraps text at the initial width.
func NewIndexer(text []rune, width int) (*Indexer, error) {
	ix := &Indexer{text: text}
	if err := ix.Resize(width); err != nil {
		return nil, err
	}
	return ix, nil
}

// Resize rebuilds the layout when width differs from the current one.
func (ix *Indexer) Resize(width int) error {
	if cur := ix.current.Load(); cur != nil && cur.width == width {
		return nil
	}
	l, err := Wrap(ix.text, width)
	if err != nil {
		return err
	}
	ix.current.Store(l)
	return nil
}

// Layout returns the current layout.
func (ix *Indexer) Layout() *Layout {
	return ix.current.Load()
}
