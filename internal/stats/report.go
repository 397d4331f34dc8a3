package stats

import (
	"context"

	"github.com/verte-zerg/booktype/internal/model"
	"github.com/verte-zerg/booktype/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Rows       []model.AttemptRow
	Summary    Summary
	KeysAll    []model.KeyAggregate
	KeysWindow []model.KeyAggregate
}

// BuildReport loads and prepares data for stats rendering. bookChars is the
// normalized length of cfg.Book, or zero when unknown.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig, bookChars int) (Report, error) {
	rows, err := st.ListAttemptRows(ctx, cfg)
	if err != nil {
		return Report{}, err
	}

	progress := 0
	if cfg.Book != "" {
		furthest, err := st.FurthestByBook(ctx)
		if err != nil {
			return Report{}, err
		}
		progress = furthest[cfg.Book]
	}

	since := cfg.Since
	if cfg.Last > 0 && len(rows) > 0 {
		since = &rows[0].StartedAt
	}
	keysAll, err := st.ListKeyAggregates(ctx, cfg.Book, since)
	if err != nil {
		return Report{}, err
	}
	keysWindow := keysAll
	if cfg.CurveWindow > 0 && len(rows) > cfg.CurveWindow {
		keysWindow, err = st.ListKeyAggregates(ctx, cfg.Book, &rows[len(rows)-cfg.CurveWindow].StartedAt)
		if err != nil {
			return Report{}, err
		}
	}

	return Report{
		Rows:       rows,
		Summary:    Summarize(rows, progress, bookChars),
		KeysAll:    keysAll,
		KeysWindow: keysWindow,
	}, nil
}
