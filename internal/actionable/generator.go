package actionable

import (
	"fmt"

	"transcript-cleaner-go/internal/aggregator"
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

var actions = map[string]string{
	"source":      "Check the manifest paths and that TRANSCRIBE_URL is reachable",
	"model":       "Check LLM credentials and quota; consider raising LLM_MAX_RETRIES",
	"persistence": "Check free disk space and write permission on OUTPUT_DIR",
	"aborted":     "Re-run the cancelled sources",
	"unknown":     "Inspect the error column of the report",
}

// Generate suggests the next step for a batch based on its dominant failure kind.
func Generate(ins aggregator.BatchInsight) ActionCard {
	if ins.Runs == 0 {
		return ActionCard{
			Insight: "Empty batch",
			Action:  "Add sources to the manifest",
			Impact:  "Nothing was cleaned",
		}
	}

	worst, count := "", 0
	for kind, n := range ins.FailuresByKind {
		if n > count || (n == count && kind < worst) {
			worst, count = kind, n
		}
	}
	if count == 0 {
		return ActionCard{
			Insight: fmt.Sprintf("All %d sources cleaned", ins.Runs),
			Action:  "No action needed",
			Impact:  fmt.Sprintf("Spent $%s", ins.TotalCost.StringFixed(4)),
		}
	}

	action, ok := actions[worst]
	if !ok {
		action = actions["unknown"]
	}
	return ActionCard{
		Insight: fmt.Sprintf("%d of %d sources failed, mostly %s errors (%d)", ins.Failed, ins.Runs, worst, count),
		Action:  action,
		Impact:  fmt.Sprintf("%d transcripts missing; $%s already spent", ins.Failed, ins.TotalCost.StringFixed(4)),
	}
}
