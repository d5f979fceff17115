package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"transcript-cleaner-go/internal/chunker"
	"transcript-cleaner-go/internal/cleaner"
	"transcript-cleaner-go/internal/continuity"
	"transcript-cleaner-go/internal/logger"
	"transcript-cleaner-go/internal/types"
)

// ChunkSeparator is appended after every cleaned chunk in the assembled output.
const ChunkSeparator = "\n==========\n"

var errReused = errors.New("pipeline already ran; create a new one per run")

// Pipeline cleans one document chunk by chunk. Each cleaning call receives
// the carry-over of the previous chunk, so chunks run strictly in order.
// A Pipeline is single-use: READY -> RUNNING -> DONE or ABORTED.
type Pipeline struct {
	chunker  *chunker.Chunker
	invoker  cleaner.Invoker
	reporter Reporter
	log      *logger.Logger
	state    types.State
}

type Option func(*Pipeline)

func WithReporter(r Reporter) Option {
	return func(p *Pipeline) { p.reporter = r }
}

func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

func New(ch *chunker.Chunker, inv cleaner.Invoker, opts ...Option) *Pipeline {
	p := &Pipeline{
		chunker:  ch,
		invoker:  inv,
		reporter: NopReporter{},
		log:      logger.Discard(),
		state:    types.StateReady,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With("component", "pipeline")
	return p
}

func (p *Pipeline) State() types.State {
	return p.state
}

// Run cleans doc and returns the accumulator. On failure the accumulator
// still carries the text and cost of every chunk cleaned so far.
func (p *Pipeline) Run(ctx context.Context, doc types.Document, speakerInfo string) (types.Accumulator, error) {
	acc := types.Accumulator{TotalCost: decimal.Zero}
	if p.state != types.StateReady {
		return acc, errReused
	}

	chunks := p.chunker.Chunks(doc)
	log := p.log.WithField("chunks", len(chunks))
	if len(chunks) == 0 {
		p.state = types.StateDone
		log.Info("empty transcript, nothing to clean")
		return acc, nil
	}

	p.state = types.StateRunning
	log.Info("cleaning transcript")

	var (
		out       strings.Builder
		carryOver string
	)
	for _, ch := range chunks {
		if err := ctx.Err(); err != nil {
			return p.abort(&acc, &out, fmt.Errorf("%w before chunk %d: %v", types.ErrAborted, ch.Index+1, err))
		}
		p.reporter.Progress(ch.Index+1, len(chunks))

		res, err := p.invoker.Clean(ctx, ch.Content, speakerInfo, carryOver)
		if err != nil {
			if ctx.Err() != nil {
				return p.abort(&acc, &out, fmt.Errorf("%w during chunk %d: %v", types.ErrAborted, ch.Index+1, err))
			}
			return p.abort(&acc, &out, &types.ModelInvocationError{Chunk: ch.Index, Err: err})
		}

		out.WriteString(res.Text)
		out.WriteString(ChunkSeparator)
		acc.TotalCost = acc.TotalCost.Add(res.Cost)
		acc.Records = append(acc.Records, types.ChunkRecord{
			Index:       ch.Index,
			InputChars:  utf8.RuneCountInString(ch.Content),
			OutputChars: utf8.RuneCountInString(res.Text),
			Cost:        res.Cost,
		})
		carryOver = continuity.ExtractCarryOver(res.Text)

		log.WithField("chunk", ch.Index+1).WithField("cost", res.Cost.String()).Debug("chunk cleaned")
	}

	acc.Text = out.String()
	p.state = types.StateDone
	log.WithField("total_cost", acc.TotalCost.String()).Info("transcript cleaned")
	return acc, nil
}

func (p *Pipeline) abort(acc *types.Accumulator, out *strings.Builder, err error) (types.Accumulator, error) {
	acc.Text = out.String()
	p.state = types.StateAborted
	p.log.WithError(err).WithField("cost_so_far", acc.TotalCost.String()).Error("pipeline halted")
	return *acc, err
}
