package stats

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlotRender(t *testing.T) {
	var buf bytes.Buffer
	p := Plot{Title: "Test Plot", Width: 12, Height: 4}
	err := p.Render(&buf, []Series{
		{Name: "Length", Values: []float64{10, 20, 30, 20, 10}},
		{Name: "CPM", Values: []float64{100, 100, 200, 300, 400}},
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Test Plot") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(out, "Length (solid, 10-30)") || !strings.Contains(out, "CPM (dashed, 100-400)") {
		t.Fatalf("expected legend with ranges, got:\n%s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 1+4+1 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "    30 │ ") {
		t.Fatalf("expected max axis label on first row, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[4], "    10 │ ") {
		t.Fatalf("expected min axis label on last row, got %q", lines[4])
	}
}

func TestPlotRenderSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (Plot{Width: 10}).Render(&buf, []Series{{Name: "empty"}}); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestPlotWidthFor(t *testing.T) {
	if got := PlotWidthFor(80); got != 80-axisLabelWidth-3 {
		t.Fatalf("expected width %d, got %d", 80-axisLabelWidth-3, got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
	if got := PlotWidthFor(5); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
}

func TestResample(t *testing.T) {
	got := resample([]float64{1, 2, 3, 4}, 2)
	if got[0] != 1.5 || got[1] != 3.5 {
		t.Fatalf("expected averaged buckets, got %v", got)
	}
	got = resample([]float64{0, 10}, 3)
	if got[0] != 0 || got[1] != 5 || got[2] != 10 {
		t.Fatalf("expected interpolation, got %v", got)
	}
}
