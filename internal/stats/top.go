package stats

import (
	"sort"

	"github.com/verte-zerg/booktype/internal/model"
)

// TopKeysByFrequency returns the n most typed keys.
func TopKeysByFrequency(aggs []model.KeyAggregate, n int) []string {
	return rankKeys(aggs, n, func(a, b model.KeyAggregate) bool {
		return a.Correct+a.Incorrect > b.Correct+b.Incorrect
	}, func(a, b model.KeyAggregate) bool {
		return a.Correct+a.Incorrect == b.Correct+b.Incorrect
	})
}

// WeakestKeys returns the n least accurate keys among those typed at least
// minStrokes times.
func WeakestKeys(aggs []model.KeyAggregate, n, minStrokes int) []string {
	filtered := make([]model.KeyAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Correct+agg.Incorrect >= minStrokes {
			filtered = append(filtered, agg)
		}
	}
	return rankKeys(filtered, n, func(a, b model.KeyAggregate) bool {
		return KeyAccuracy(a) < KeyAccuracy(b)
	}, func(a, b model.KeyAggregate) bool {
		return KeyAccuracy(a) == KeyAccuracy(b)
	})
}

func rankKeys(aggs []model.KeyAggregate, n int, less, equal func(a, b model.KeyAggregate) bool) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	items := append([]model.KeyAggregate(nil), aggs...)
	sort.Slice(items, func(i, j int) bool {
		if equal(items[i], items[j]) {
			return items[i].Key < items[j].Key
		}
		return less(items[i], items[j])
	})
	n = min(n, len(items))
	out := make([]string, 0, n)
	for _, item := range items[:n] {
		out = append(out, item.Key)
	}
	return out
}
