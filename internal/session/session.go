// Package session applies typed characters to the current sample and
// reschedules when an attempt ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/verte-zerg/booktype/internal/model"
	"github.com/verte-zerg/booktype/internal/scheduler"
)

var (
	// ErrDone is returned for keystrokes after the book was completed.
	ErrDone = errors.New("session: book complete")
	// ErrNotStarted is returned for keystrokes before Start or Begin.
	ErrNotStarted = errors.New("session: no sample scheduled")
	// ErrPersist wraps every failure to record an attempt or keystroke.
	ErrPersist = errors.New("session: failed to persist")
)

// AttemptLog is the attempt history the controller appends to.
type AttemptLog interface {
	scheduler.History
	Append(ctx context.Context, a model.Attempt) error
	RollingAverage() int
}

// KeystrokeSink receives the keystroke audit trail.
type KeystrokeSink interface {
	AppendKeystroke(ctx context.Context, k model.Keystroke) error
}

// State is the transient per-attempt state.
type State struct {
	Sample    model.Sample
	Cursor    int
	StartedAt time.Time
	Done      bool
}

// Outcome describes what one keystroke did.
type Outcome struct {
	Correct      bool
	Attempt      *model.Attempt
	Next         model.Sample
	BookComplete bool
}

// Controller drives one practice run over a book.
type Controller struct {
	text   []rune
	log    AttemptLog
	keys   KeystrokeSink
	sched  *scheduler.Scheduler
	now    func() time.Time
	logger *slog.Logger
	state  State
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the logger for scheduling decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithScheduler replaces the default scheduler.
func WithScheduler(s *scheduler.Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

// New returns a controller for text. Call Start before the first keystroke.
func New(text []rune, log AttemptLog, keys KeystrokeSink, opts ...Option) *Controller {
	c := &Controller{
		text:  text,
		log:   log,
		keys:  keys,
		sched: scheduler.New(scheduler.Config{}),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Start schedules the first sample. A finished book is not an error; the
// controller reports Done instead.
func (c *Controller) Start() error {
	return c.reschedule()
}

// Begin starts a new attempt at sample.
func (c *Controller) Begin(sample model.Sample) {
	c.state = State{
		Sample:    sample,
		StartedAt: c.now(),
	}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Text returns the book text.
func (c *Controller) Text() []rune {
	return c.text
}

// RollingAverage returns the display statistic of the attempt log.
func (c *Controller) RollingAverage() int {
	return c.log.RollingAverage()
}

// ApplyKeystroke compares r with the next expected character. A mismatch or
// the last correct character of the sample ends the attempt.
func (c *Controller) ApplyKeystroke(ctx context.Context, r rune) (Outcome, error) {
	if c.state.Done {
		return Outcome{BookComplete: true}, ErrDone
	}
	if c.state.Sample.Len <= 0 || c.state.Cursor >= c.state.Sample.Len {
		return Outcome{}, ErrNotStarted
	}
	expected := c.text[c.state.Sample.Start+c.state.Cursor]
	out := Outcome{Correct: r == expected}
	if out.Correct {
		c.state.Cursor++
	}

	if !out.Correct || c.state.Cursor == c.state.Sample.Len {
		attempt := model.Attempt{
			Succeeded:   out.Correct && c.state.Cursor == c.state.Sample.Len,
			StartIndex:  c.state.Sample.Start,
			EndIndex:    c.state.Sample.Start + c.state.Cursor,
			StartedAt:   c.state.StartedAt,
			CompletedAt: c.now(),
		}
		if err := c.log.Append(ctx, attempt); err != nil {
			return out, fmt.Errorf("%w: %w", ErrPersist, err)
		}
		out.Attempt = &attempt
		if err := c.reschedule(); err != nil {
			return out, err
		}
		out.Next = c.state.Sample
		out.BookComplete = c.state.Done
	}

	ks := model.Keystroke{Correct: out.Correct, Key: r, Time: c.now()}
	if err := c.keys.AppendKeystroke(ctx, ks); err != nil {
		return out, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return out, nil
}

func (c *Controller) reschedule() error {
	sample, cal, err := c.sched.NextWithCalibration(c.log, c.text)
	if errors.Is(err, scheduler.ErrBookComplete) {
		c.logger.Info("book complete", "start", sample.Start)
		c.state = State{Sample: sample, Done: true}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to schedule sample: %w", err)
	}
	c.logger.Debug("sample scheduled",
		"start", sample.Start,
		"len", sample.Len,
		"average", cal.Average,
		"peak", cal.Peak,
		"wrong_num", cal.WrongNum,
		"wrong_avg", cal.WrongAvg,
		"target", cal.Target,
	)
	c.Begin(sample)
	return nil
}
