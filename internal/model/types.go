// Package model defines shared data structures.
package model

import "time"

// Config defines practice settings.
type Config struct {
	Book         string
	WidthPct     int
	FullWidthPct int
	RunID        string
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Book        string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// Attempt records one try at typing a sample. EndIndex-StartIndex is the
// attempted length, which is shorter than the sample on failure.
type Attempt struct {
	Succeeded   bool      `json:"succeeded" yaml:"succeeded"`
	StartIndex  int       `json:"start_index" yaml:"start_index"`
	EndIndex    int       `json:"end_index" yaml:"end_index"`
	StartedAt   time.Time `json:"started" yaml:"started"`
	CompletedAt time.Time `json:"completed" yaml:"completed"`
}

// Len returns the attempted length.
func (a Attempt) Len() int {
	return a.EndIndex - a.StartIndex
}

// Duration returns how long the attempt took.
func (a Attempt) Duration() time.Duration {
	return a.CompletedAt.Sub(a.StartedAt)
}

// Keystroke is one entry of the keystroke audit trail.
type Keystroke struct {
	Correct bool      `json:"correct" yaml:"correct"`
	Key     rune      `json:"key" yaml:"key"`
	Time    time.Time `json:"time" yaml:"time"`
}

// Sample is a span of book text to type.
type Sample struct {
	Start int
	Len   int
}

// End returns the offset just past the sample.
func (s Sample) End() int {
	return s.Start + s.Len
}

// AttemptRow is a stored attempt with its identity.
type AttemptRow struct {
	ID    int64
	Book  string
	RunID string
	Attempt
}

// KeyAggregate aggregates keystroke outcomes for one key.
type KeyAggregate struct {
	Key       string
	Correct   int
	Incorrect int
}

// BookInfo describes a book in the library.
type BookInfo struct {
	Title    string
	Path     string
	Size     int64
	Modified time.Time
	Progress int
	Chars    int
}
