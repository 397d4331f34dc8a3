// Package export writes the attempt log in machine readable formats.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/booktype/internal/model"
)

// ErrUnknownFormat is returned for formats other than json and yaml.
var ErrUnknownFormat = errors.New("unknown export format")

// Record is one exported attempt.
type Record struct {
	ID    int64  `json:"id" yaml:"id"`
	Book  string `json:"book" yaml:"book"`
	RunID string `json:"run_id" yaml:"run_id"`
	Len   int    `json:"length" yaml:"length"`

	model.Attempt `yaml:",inline"`
}

// Records converts stored rows.
func Records(rows []model.AttemptRow) []Record {
	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = Record{
			ID:      row.ID,
			Book:    row.Book,
			RunID:   row.RunID,
			Len:     row.Len(),
			Attempt: row.Attempt,
		}
	}
	return out
}

// Write encodes rows to w as "json" or "yaml".
func Write(w io.Writer, format string, rows []model.AttemptRow) error {
	records := Records(rows)
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
