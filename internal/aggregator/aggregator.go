package aggregator

import (
	"github.com/shopspring/decimal"
	"transcript-cleaner-go/internal/types"
)

// BatchInsight rolls up the run summaries of one batch.
type BatchInsight struct {
	Runs           int                        `json:"runs"`
	Failed         int                        `json:"failed"`
	Chunks         int                        `json:"chunks"`
	TotalCost      decimal.Decimal            `json:"total_cost"`
	CostBySource   map[string]decimal.Decimal `json:"cost_by_source"`
	FailuresByKind map[string]int             `json:"failures_by_kind"`
}

func (b BatchInsight) Succeeded() int {
	return b.Runs - b.Failed
}

func Aggregate(runs []types.RunSummary) BatchInsight {
	out := BatchInsight{
		TotalCost:      decimal.Zero,
		CostBySource:   map[string]decimal.Decimal{},
		FailuresByKind: map[string]int{},
	}
	for _, r := range runs {
		out.Runs++
		out.Chunks += r.Chunks
		out.TotalCost = out.TotalCost.Add(r.TotalCost)
		// a source listed twice in a manifest is billed twice
		if prev, ok := out.CostBySource[r.Source]; ok {
			out.CostBySource[r.Source] = prev.Add(r.TotalCost)
		} else {
			out.CostBySource[r.Source] = r.TotalCost
		}
		if r.Failed() {
			out.Failed++
			kind := r.ErrorKind
			if kind == "" {
				kind = "unknown"
			}
			out.FailuresByKind[kind]++
		}
	}
	return out
}
