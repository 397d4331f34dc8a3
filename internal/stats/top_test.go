package stats

import (
	"testing"

	"github.com/verte-zerg/booktype/internal/model"
)

func TestTopKeysByFrequency(t *testing.T) {
	aggs := []model.KeyAggregate{
		{Key: "b", Correct: 3, Incorrect: 1},
		{Key: "a", Correct: 2, Incorrect: 2},
		{Key: "c", Correct: 1, Incorrect: 0},
	}
	top := TopKeysByFrequency(aggs, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(top))
	}
	if top[0] != "a" || top[1] != "b" {
		t.Fatalf("unexpected order: %v", top)
	}
}

func TestWeakestKeys(t *testing.T) {
	aggs := []model.KeyAggregate{
		{Key: "e", Correct: 90, Incorrect: 10},
		{Key: "q", Correct: 0, Incorrect: 2},
		{Key: "z", Correct: 5, Incorrect: 5},
		{Key: "x", Correct: 5, Incorrect: 5},
	}
	weak := WeakestKeys(aggs, 2, 5)
	if len(weak) != 2 || weak[0] != "x" || weak[1] != "z" {
		t.Fatalf("unexpected weak keys: %v", weak)
	}
	if got := WeakestKeys(aggs, 0, 0); got != nil {
		t.Fatalf("expected nil for n=0, got %v", got)
	}
}
