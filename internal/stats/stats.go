// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/booktype/internal/model"
)

const sparkChars = " .:-=+*#%@"

// AttemptMetrics computes characters and words per minute for an attempt.
func AttemptMetrics(a model.Attempt) (cpm, wpm float64) {
	minutes := a.Duration().Minutes()
	if minutes <= 0 {
		return 0, 0
	}
	cpm = float64(a.Len()) / minutes
	return cpm, cpm / 5
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Summary aggregates the attempts of a report.
type Summary struct {
	Attempts      int
	Succeeded     int
	Typed         int
	AvgLen        float64
	BestLen       int
	AvgCPM        float64
	BestCPM       float64
	Progress      int
	BookChars     int
	LastPracticed time.Time
}

// SuccessRate returns the fraction of successful attempts.
func (s Summary) SuccessRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Attempts)
}

// ProgressPct returns how far through the book the reader is, in percent.
func (s Summary) ProgressPct() float64 {
	if s.BookChars <= 0 {
		return 0
	}
	return math.Min(100, float64(s.Progress)/float64(s.BookChars)*100)
}

// Summarize aggregates rows. Progress and bookChars are copied through.
func Summarize(rows []model.AttemptRow, progress, bookChars int) Summary {
	s := Summary{Attempts: len(rows), Progress: progress, BookChars: bookChars}
	var totalCPM float64
	for _, row := range rows {
		n := row.Len()
		cpm, _ := AttemptMetrics(row.Attempt)
		s.Typed += n
		totalCPM += cpm
		s.BestLen = max(s.BestLen, n)
		s.BestCPM = math.Max(s.BestCPM, cpm)
		if row.Succeeded {
			s.Succeeded++
		}
		if row.CompletedAt.After(s.LastPracticed) {
			s.LastPracticed = row.CompletedAt
		}
	}
	if s.Attempts > 0 {
		s.AvgLen = float64(s.Typed) / float64(s.Attempts)
		s.AvgCPM = totalCPM / float64(s.Attempts)
	}
	return s
}

// RenderSummary prints a plain text summary.
func RenderSummary(w io.Writer, s Summary) error {
	if s.Attempts == 0 {
		_, err := fmt.Fprintln(w, "No attempts found.")
		return err
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Attempts: %s (%.1f%% completed)", humanize.Comma(int64(s.Attempts)), s.SuccessRate()*100),
		fmt.Sprintf("Characters typed: %s", humanize.Comma(int64(s.Typed))),
		fmt.Sprintf("Avg length: %.1f", s.AvgLen),
		fmt.Sprintf("Best length: %d", s.BestLen),
		fmt.Sprintf("Avg CPM: %.1f", s.AvgCPM),
		fmt.Sprintf("Best CPM: %.1f", s.BestCPM),
	}
	if s.BookChars > 0 {
		lines = append(lines, fmt.Sprintf("Progress: %s / %s (%.1f%%)",
			humanize.Comma(int64(s.Progress)), humanize.Comma(int64(s.BookChars)), s.ProgressPct()))
	}
	if !s.LastPracticed.IsZero() {
		lines = append(lines, fmt.Sprintf("Last practiced: %s", humanize.Time(s.LastPracticed)))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// CurveSeries returns the smoothed attempt length and CPM series.
func CurveSeries(rows []model.AttemptRow, window int) []Series {
	lengths := make([]float64, len(rows))
	cpms := make([]float64, len(rows))
	for i, row := range rows {
		lengths[i] = float64(row.Len())
		cpms[i], _ = AttemptMetrics(row.Attempt)
	}
	return []Series{
		{Name: "Length", Values: MovingAverage(lengths, window)},
		{Name: "CPM", Values: MovingAverage(cpms, window)},
	}
}

// RenderCurves prints learning curves of attempt length and CPM sized to
// totalWidth. A zero totalWidth uses the terminal width.
func RenderCurves(w io.Writer, rows []model.AttemptRow, window, totalWidth, height int, useColor bool) error {
	if len(rows) == 0 {
		return nil
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	p := Plot{Title: "Learning Curves", Width: width, Height: height, Color: useColor}
	return p.Render(w, CurveSeries(rows, window))
}

// KeyAccuracy returns the fraction of correct strokes for a key.
func KeyAccuracy(agg model.KeyAggregate) float64 {
	total := agg.Correct + agg.Incorrect
	if total == 0 {
		return 1
	}
	return float64(agg.Correct) / float64(total)
}

// KeyLabel returns a printable label for a key.
func KeyLabel(key string) string {
	if key == " " {
		return "<space>"
	}
	return key
}

// RenderKeyTable prints per-key aggregates, least accurate first.
func RenderKeyTable(w io.Writer, aggs []model.KeyAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No key stats found.")
		return err
	}
	sorted := append([]model.KeyAggregate(nil), aggs...)
	sort.Slice(sorted, func(i, j int) bool {
		ai, aj := KeyAccuracy(sorted[i]), KeyAccuracy(sorted[j])
		if ai == aj {
			return sorted[i].Key < sorted[j].Key
		}
		return ai < aj
	})

	headers := []string{"Key", "Accuracy", "Correct", "Incorrect"}
	rows := make([][]string, 0, len(sorted))
	for _, agg := range sorted {
		rows = append(rows, []string{
			KeyLabel(agg.Key),
			fmt.Sprintf("%.2f%%", KeyAccuracy(agg)*100),
			fmt.Sprintf("%d", agg.Correct),
			fmt.Sprintf("%d", agg.Incorrect),
		})
	}
	if _, err := fmt.Fprintln(w, "Per-Key"); err != nil {
		return err
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
