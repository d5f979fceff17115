package aggregator

import (
	"testing"

	"github.com/shopspring/decimal"
	"transcript-cleaner-go/internal/types"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAggregate(t *testing.T) {
	runs := []types.RunSummary{
		{Source: "a.txt", Chunks: 3, TotalCost: d("0.01")},
		{Source: "vid1", Chunks: 1, TotalCost: d("0.02"), ErrorKind: "model", Error: "cleaning service unavailable"},
		{Source: "a.txt", Chunks: 3, TotalCost: d("0.03")},
		{Source: "gone", ErrorKind: "source", Error: "could not read"},
		{Source: "odd", Error: "boom"},
	}

	got := Aggregate(runs)
	if got.Runs != 5 || got.Failed != 3 || got.Succeeded() != 2 {
		t.Errorf("runs/failed/succeeded = %d/%d/%d, want 5/3/2", got.Runs, got.Failed, got.Succeeded())
	}
	if got.Chunks != 7 {
		t.Errorf("Chunks = %d, want 7", got.Chunks)
	}
	if !got.TotalCost.Equal(d("0.06")) {
		t.Errorf("TotalCost = %s, want 0.06", got.TotalCost)
	}
	if !got.CostBySource["a.txt"].Equal(d("0.04")) {
		t.Errorf("CostBySource[a.txt] = %s, want 0.04", got.CostBySource["a.txt"])
	}
	for kind, want := range map[string]int{"model": 1, "source": 1, "unknown": 1} {
		if got.FailuresByKind[kind] != want {
			t.Errorf("FailuresByKind[%s] = %d, want %d", kind, got.FailuresByKind[kind], want)
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(nil)
	if got.Runs != 0 || !got.TotalCost.IsZero() || got.CostBySource == nil {
		t.Errorf("Aggregate(nil) = %+v", got)
	}
}
