package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/booktype/internal/model"
	"github.com/verte-zerg/booktype/internal/perflog"
)

func attempt(ok bool, start, end int) model.Attempt {
	at := time.Unix(1700000000, 0)
	return model.Attempt{Succeeded: ok, StartIndex: start, EndIndex: end, StartedAt: at, CompletedAt: at}
}

func history(attempts ...model.Attempt) *perflog.Log {
	return perflog.New(nil, attempts)
}

func TestNextSampleEmptyHistory(t *testing.T) {
	text := []rune("the quick brown fox jumps over the lazy dog ")

	sample, c, err := New(Config{}).NextWithCalibration(history(), text)
	require.NoError(t, err)

	assert.Equal(t, 100, c.Peak)
	assert.Equal(t, 105, c.Best)
	assert.Equal(t, 105, c.Target)
	assert.Equal(t, 0, sample.Start)
	// The window covers the whole book and snaps after "dog "; the end
	// offset must stay indexable, so the trailing space is dropped.
	assert.Equal(t, len(text)-1, sample.Len)
	assert.Equal(t, "the quick brown fox jumps over the lazy dog", string(text[:sample.End()]))
}

func TestNextSampleLongBookSnapsToWord(t *testing.T) {
	text := []rune(strings.Repeat("abcdefg ", 50))

	sample, err := NextSample(history(), text)
	require.NoError(t, err)

	// 105 characters snap back to the space at offset 103.
	assert.Equal(t, model.Sample{Start: 0, Len: 104}, sample)
	assert.Equal(t, ' ', text[sample.End()-1])
}

func TestNextSampleResumesAfterFurthestSuccess(t *testing.T) {
	text := []rune(strings.Repeat("abcd ", 16))
	require.Len(t, text, 80)

	sample, err := NextSample(history(attempt(true, 0, 40)), text)
	require.NoError(t, err)
	assert.Equal(t, 40, sample.Start)
	assert.LessOrEqual(t, sample.End(), len(text)-1)
}

func TestNextSampleFailureDoesNotAdvance(t *testing.T) {
	text := []rune(strings.Repeat("abcd ", 100))

	sample, err := NextSample(history(attempt(true, 0, 40), attempt(false, 40, 70)), text)
	require.NoError(t, err)
	assert.Equal(t, 40, sample.Start)
}

func TestNextSampleNoTrailingFailureUsesBest(t *testing.T) {
	text := []rune(strings.Repeat("abcd ", 200))

	sample, c, err := New(Config{}).NextWithCalibration(history(attempt(false, 0, 12), attempt(true, 0, 40)), text)
	require.NoError(t, err)

	assert.Equal(t, 0, c.WrongNum)
	assert.Equal(t, 45, c.Best)
	assert.Equal(t, c.Best, c.Target)
	assert.Equal(t, model.Sample{Start: 40, Len: 45}, sample)
}

func TestBlendFailureWeighting(t *testing.T) {
	assert.Equal(t, 31, Blend(105, 3, 15))
	assert.Equal(t, 105, Blend(105, 0, 0))
	// A single failure only moves the target a third of the way.
	assert.Equal(t, 73, Blend(105, 1, 10))
}

func TestCalibrateTrailingFailures(t *testing.T) {
	h := history(
		attempt(false, 0, 10),
		attempt(false, 0, 15),
		attempt(false, 0, 20),
	)
	c := New(Config{}).Calibrate(h)

	assert.Equal(t, 0, c.Average)
	assert.Equal(t, 20, c.Peak)
	assert.Equal(t, 25, c.Best)
	assert.Equal(t, 3, c.WrongNum)
	assert.Equal(t, 15, c.WrongAvg)
	assert.Equal(t, (25*2+15*9)/11, c.Target)
}

func TestCalibrateNoiseIgnored(t *testing.T) {
	h := history(attempt(true, 0, 3), attempt(false, 3, 5), attempt(false, 3, 8))
	c := New(Config{}).Calibrate(h)

	// Attempts of five characters or fewer are noise for both the peak
	// and the failure streak.
	assert.Equal(t, 100, c.Peak)
	assert.Equal(t, 0, c.WrongNum)
	assert.Equal(t, 105, c.Target)
}

// The average divides by the whole window on purpose: five attempts of 60
// average to 6, not 60, which keeps growth driven by the recent peak.
func TestCalibrateAverageUsesFixedWindow(t *testing.T) {
	var attempts []model.Attempt
	for i := 0; i < 5; i++ {
		attempts = append(attempts, attempt(true, i*60, (i+1)*60))
	}
	c := New(Config{}).Calibrate(history(attempts...))
	assert.Equal(t, 6, c.Average)
	assert.Equal(t, 60, c.Peak)
	assert.Equal(t, 65, c.Best)
}

func TestCalibrateAverageCanBeatPeak(t *testing.T) {
	var attempts []model.Attempt
	for i := 0; i < 40; i++ {
		attempts = append(attempts, attempt(true, 0, 200))
	}
	for i := 0; i < 10; i++ {
		attempts = append(attempts, attempt(true, 200, 210))
	}
	c := New(Config{}).Calibrate(history(attempts...))
	assert.Equal(t, (40*200+10*10)/50, c.Average)
	assert.Equal(t, 10, c.Peak)
	assert.Equal(t, c.Average+5, c.Best)
}

func TestNextSampleBookComplete(t *testing.T) {
	text := []rune("short text ")

	_, err := NextSample(history(attempt(true, 0, len(text)-1)), text)
	assert.ErrorIs(t, err, ErrBookComplete)

	_, err = NextSample(history(attempt(true, 0, len(text)+20)), text)
	assert.ErrorIs(t, err, ErrBookComplete)

	_, err = NextSample(history(), nil)
	assert.ErrorIs(t, err, ErrBookComplete)
}

func TestNextSampleFallbackWithoutSpace(t *testing.T) {
	assert.Equal(t, 5, SnapToWord([]rune("abcdefghij"), 5))
	assert.Equal(t, 0, SnapToWord([]rune("abc"), 0))

	text := []rune("abcdefghijklmnop")
	sample, err := NextSample(history(), text)
	require.NoError(t, err)
	assert.Equal(t, model.Sample{Start: 0, Len: len(text) - 1}, sample)
}

func TestConfigDefaults(t *testing.T) {
	c := New(Config{StartingSampleSize: 20}).Calibrate(history())
	assert.Equal(t, 25, c.Target)

	c = New(Config{Stretch: 1, PeakWindow: 1}).Calibrate(history(attempt(true, 0, 30), attempt(true, 30, 40)))
	assert.Equal(t, 11, c.Target)
}

func TestSchedulingProgressNeverRegresses(t *testing.T) {
	text := []rune(strings.Repeat("lorem ipsum dolor sit amet consectetur adipiscing elit ", 40))
	ctx := context.Background()
	log := history()
	s := New(Config{})

	prevStart := 0
	for step := 0; step < 500; step++ {
		sample, err := s.Next(log, text)
		if err != nil {
			require.ErrorIs(t, err, ErrBookComplete)
			break
		}
		require.GreaterOrEqual(t, sample.Start, prevStart)
		require.Greater(t, sample.Len, 0)
		require.LessOrEqual(t, sample.End(), len(text)-1)

		end := sample.End()
		clamped := end == len(text)-1
		if !clamped {
			assert.Equal(t, ' ', text[end-1], "sample %+v ends mid-word", sample)
		}
		prevStart = sample.Start

		// Every third attempt fails part way through.
		if step%3 == 2 {
			require.NoError(t, log.Append(ctx, attempt(false, sample.Start, sample.Start+sample.Len/2)))
			continue
		}
		require.NoError(t, log.Append(ctx, attempt(true, sample.Start, end)))
	}
}
