// Package scheduler picks the next sample of book text to practice.
//
// The sample starts where the furthest successful attempt ended. Its length
// stretches slightly past the better of the recent average and the recent
// peak attempt length, and is pulled toward the average failed length with a
// weight that grows with the square of the current failure streak. The end
// is snapped back to the last word boundary inside the window.
package scheduler

import (
	"errors"

	"github.com/verte-zerg/booktype/internal/model"
	"github.com/verte-zerg/booktype/internal/perflog"
)

// Defaults for Config.
const (
	StartingSampleSize = 100
	Stretch            = 5
	AverageWindow      = 50
	PeakWindow         = 10
)

// ErrBookComplete is returned when no text is left after the furthest
// successful attempt.
var ErrBookComplete = errors.New("scheduler: book complete")

// History is the view of the attempt log the scheduler reads.
type History interface {
	FurthestSuccessfulEnd() int
	TrailingLengths(n, minLen int) []int
	TrailingFailureRun(minLen int) []int
}

// Config tunes a Scheduler. Zero values select the defaults.
type Config struct {
	StartingSampleSize int // zero → 100
	Stretch            int // zero → 5
	AverageWindow      int // zero → 50
	PeakWindow         int // zero → 10
	MinAttemptLen      int // zero → perflog.MinAttemptLen
}

// Scheduler computes samples from an attempt history.
type Scheduler struct {
	startingSize  int
	stretch       int
	averageWindow int
	peakWindow    int
	minAttemptLen int
}

// New returns a Scheduler with zero fields of cfg filled by defaults.
func New(cfg Config) *Scheduler {
	s := &Scheduler{
		startingSize:  cfg.StartingSampleSize,
		stretch:       cfg.Stretch,
		averageWindow: cfg.AverageWindow,
		peakWindow:    cfg.PeakWindow,
		minAttemptLen: cfg.MinAttemptLen,
	}
	if s.startingSize <= 0 {
		s.startingSize = StartingSampleSize
	}
	if s.stretch <= 0 {
		s.stretch = Stretch
	}
	if s.averageWindow <= 0 {
		s.averageWindow = AverageWindow
	}
	if s.peakWindow <= 0 {
		s.peakWindow = PeakWindow
	}
	if s.minAttemptLen <= 0 {
		s.minAttemptLen = perflog.MinAttemptLen
	}
	return s
}

var defaultScheduler = New(Config{})

// NextSample schedules with the default configuration.
func NextSample(h History, text []rune) (model.Sample, error) {
	return defaultScheduler.Next(h, text)
}

// Calibration holds the intermediate values of one scheduling decision.
type Calibration struct {
	Average  int
	Peak     int
	Best     int
	WrongNum int
	WrongAvg int
	Target   int
}

// Calibrate computes the target sample length before word snapping.
func (s *Scheduler) Calibrate(h History) Calibration {
	var c Calibration

	// The average divides by the full window even when fewer attempts
	// exist, so early sessions ramp up from the peak rather than the mean.
	for _, length := range h.TrailingLengths(s.averageWindow, s.minAttemptLen) {
		c.Average += length
	}
	c.Average /= s.averageWindow

	recent := h.TrailingLengths(s.peakWindow, s.minAttemptLen)
	if len(recent) == 0 {
		c.Peak = s.startingSize
	}
	for _, length := range recent {
		c.Peak = max(c.Peak, length)
	}
	c.Best = max(c.Average, c.Peak) + s.stretch

	run := h.TrailingFailureRun(s.minAttemptLen)
	c.WrongNum = len(run)
	if c.WrongNum > 0 {
		sum := 0
		for _, length := range run {
			sum += length
		}
		c.WrongAvg = sum / c.WrongNum
	}
	c.Target = Blend(c.Best, c.WrongNum, c.WrongAvg)
	return c
}

// Blend mixes the stretch length with the average failed length. The
// failure weight is wrongNum squared against a fixed weight of 2 for best.
func Blend(best, wrongNum, wrongAvg int) int {
	x := wrongNum * wrongNum
	return (best*2 + wrongAvg*x) / (2 + x)
}

// Next returns the next sample of text for the history h.
func (s *Scheduler) Next(h History, text []rune) (model.Sample, error) {
	sample, _, err := s.NextWithCalibration(h, text)
	return sample, err
}

// NextWithCalibration is Next that also reports how the length was derived.
func (s *Scheduler) NextWithCalibration(h History, text []rune) (model.Sample, Calibration, error) {
	n := len(text)
	if n == 0 {
		return model.Sample{}, Calibration{}, ErrBookComplete
	}
	start := min(h.FurthestSuccessfulEnd(), n-1)
	c := s.Calibrate(h)

	length := SnapToWord(text[start:], c.Target)
	// The offset just past the sample must stay a valid index.
	length = min(length, n-start-1)
	if length <= 0 {
		return model.Sample{Start: start}, c, ErrBookComplete
	}
	return model.Sample{Start: start, Len: length}, c, nil
}

// SnapToWord shortens target so that the window ends right after its last
// space. Without any space in the window the target is kept.
func SnapToWord(text []rune, target int) int {
	if target <= 0 {
		return 0
	}
	window := text[:min(target, len(text))]
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == ' ' {
			return i + 1
		}
	}
	return target
}
