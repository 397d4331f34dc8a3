// Package perflog keeps the ordered attempt history of one book and derives
// the statistics the scheduler needs from it.
package perflog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/verte-zerg/booktype/internal/model"
)

// MinAttemptLen is the noise floor: attempts of this length or shorter are
// left out of every statistic.
const MinAttemptLen = 5

// RollingWindow is the number of attempts in the displayed rolling average.
const RollingWindow = 10

// Source reads a persisted attempt history, oldest first.
type Source interface {
	ListAttempts(ctx context.Context) ([]model.Attempt, error)
}

// Sink persists one attempt.
type Sink interface {
	AppendAttempt(ctx context.Context, a model.Attempt) error
}

// Log is an append-only attempt history backed by a Sink. An attempt is
// visible to readers only after the sink accepted it.
type Log struct {
	mu       sync.Mutex
	sink     Sink
	attempts []model.Attempt
}

// New returns a log seeded with history. A nil sink keeps the log in memory.
func New(sink Sink, history []model.Attempt) *Log {
	return &Log{
		sink:     sink,
		attempts: append([]model.Attempt(nil), history...),
	}
}

// Load reads the history from src. A history that cannot be read or holds
// malformed records is replaced by an empty one.
func Load(ctx context.Context, src Source, sink Sink, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	history, err := src.ListAttempts(ctx)
	if err != nil {
		logger.Warn("attempt history unreadable, starting fresh", "error", err)
		return New(sink, nil)
	}
	for i, a := range history {
		if err := validate(a); err != nil {
			logger.Warn("attempt history corrupt, starting fresh", "record", i, "error", err)
			return New(sink, nil)
		}
	}
	logger.Debug("attempt history loaded", "attempts", len(history))
	return New(sink, history)
}

func validate(a model.Attempt) error {
	if a.StartIndex < 0 {
		return fmt.Errorf("negative start index %d", a.StartIndex)
	}
	if a.EndIndex < a.StartIndex {
		return fmt.Errorf("end index %d before start index %d", a.EndIndex, a.StartIndex)
	}
	return nil
}

// Append persists a and then adds it to the history.
func (l *Log) Append(ctx context.Context, a model.Attempt) error {
	if err := validate(a); err != nil {
		return fmt.Errorf("invalid attempt: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sink != nil {
		if err := l.sink.AppendAttempt(ctx, a); err != nil {
			return fmt.Errorf("failed to persist attempt: %w", err)
		}
	}
	l.attempts = append(l.attempts, a)
	return nil
}

// Len returns the number of attempts.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.attempts)
}

// Attempts returns a copy of the history, oldest first.
func (l *Log) Attempts() []model.Attempt {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Attempt(nil), l.attempts...)
}

// FurthestSuccessfulEnd returns the largest end index of a successful
// attempt, or 0 when nothing succeeded yet.
func (l *Log) FurthestSuccessfulEnd() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	furthest := 0
	for _, a := range l.attempts {
		if a.Succeeded && a.EndIndex > furthest {
			furthest = a.EndIndex
		}
	}
	return furthest
}

// TrailingLengths returns up to n attempted lengths longer than minLen,
// newest first.
func (l *Log) TrailingLengths(n, minLen int) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]int, 0, n)
	for i := len(l.attempts) - 1; i >= 0 && len(out) < n; i-- {
		if length := l.attempts[i].Len(); length > minLen {
			out = append(out, length)
		}
	}
	return out
}

// TrailingFailureRun returns the lengths longer than minLen of the run of
// failed attempts ending at the newest attempt, newest first.
func (l *Log) TrailingFailureRun(minLen int) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []int
	for i := len(l.attempts) - 1; i >= 0; i-- {
		a := l.attempts[i]
		if a.Succeeded {
			break
		}
		if length := a.Len(); length > minLen {
			out = append(out, length)
		}
	}
	return out
}

// RollingAverage returns the sum of the last RollingWindow qualifying
// lengths divided by RollingWindow.
func (l *Log) RollingAverage() int {
	sum := 0
	for _, length := range l.TrailingLengths(RollingWindow, MinAttemptLen) {
		sum += length
	}
	return sum / RollingWindow
}
