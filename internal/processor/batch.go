package processor

import (
	"context"

	"transcript-cleaner-go/internal/types"
)

// CleanBatch runs jobs one after another and summarises each run. A failed
// job does not stop the batch; cancellation does.
func (p *Processor) CleanBatch(ctx context.Context, jobs []types.BatchJob, savePartial bool) []types.RunSummary {
	log := p.log.With("component", "batch").WithField("jobs", len(jobs))
	log.Info("batch started")

	out := make([]types.RunSummary, 0, len(jobs))
	for _, job := range jobs {
		if ctx.Err() != nil {
			log.WithField("done", len(out)).Warn("batch cancelled")
			break
		}
		res := p.Clean(ctx, Request{Source: job.Source, SpeakerInfo: job.SpeakerInfo, SavePartial: savePartial})
		out = append(out, res.Summary())
	}

	log.WithField("done", len(out)).Info("batch finished")
	return out
}
