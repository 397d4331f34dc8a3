package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/booktype/internal/model"
)

func sampleRows() []model.AttemptRow {
	at := time.Date(2024, 4, 2, 8, 30, 0, 0, time.UTC)
	return []model.AttemptRow{
		{ID: 1, Book: "moby", RunID: "r1", Attempt: model.Attempt{Succeeded: true, StartIndex: 0, EndIndex: 42, StartedAt: at, CompletedAt: at.Add(10 * time.Second)}},
		{ID: 2, Book: "moby", RunID: "r1", Attempt: model.Attempt{Succeeded: false, StartIndex: 42, EndIndex: 50, StartedAt: at, CompletedAt: at}},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "json", sampleRows()); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0]["length"] != float64(42) || got[0]["succeeded"] != true || got[0]["run_id"] != "r1" {
		t.Fatalf("unexpected first record: %v", got[0])
	}
	if got[1]["start_index"] != float64(42) {
		t.Fatalf("expected embedded attempt fields flattened, got %v", got[1])
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "YAML", sampleRows()); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	var got []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0]["end_index"] != 42 || got[0]["book"] != "moby" {
		t.Fatalf("unexpected first record: %v", got[0])
	}
	if got[1]["succeeded"] != false {
		t.Fatalf("unexpected second record: %v", got[1])
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "csv", nil); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}
