package processor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"transcript-cleaner-go/internal/chunker"
	"transcript-cleaner-go/internal/cleaner"
	"transcript-cleaner-go/internal/logger"
	"transcript-cleaner-go/internal/pipeline"
	"transcript-cleaner-go/internal/sink"
	"transcript-cleaner-go/internal/types"
)

type Resolver interface {
	Resolve(ctx context.Context, ref string) (types.Document, error)
}

type Sink interface {
	Persist(name, text string) (string, error)
}

// Request is one cleaning job.
type Request struct {
	Source      string `json:"source"`
	SpeakerInfo string `json:"speaker_info"`
	// SavePartial writes the text cleaned so far when the run fails midway.
	SavePartial bool `json:"save_partial,omitempty"`
}

// Result is returned for every request, failed or not. TotalCost always
// holds what was spent, including the chunks cleaned before a failure.
type Result struct {
	Source     string              `json:"source"`
	Location   string              `json:"location,omitempty"`
	Partial    bool                `json:"partial,omitempty"`
	Chunks     int                 `json:"chunks"`
	TotalCost  decimal.Decimal     `json:"total_cost"`
	Records    []types.ChunkRecord `json:"records,omitempty"`
	Text       string              `json:"text,omitempty"`
	DurationMs int64               `json:"duration_ms"`
	Error      string              `json:"error,omitempty"`
	Err        error               `json:"-"`
}

// Kind classifies the failure: source, model, persistence, aborted or "".
func (r Result) Kind() string {
	return types.ErrorKind(r.Err)
}

func (r Result) Summary() types.RunSummary {
	return types.RunSummary{
		Source:    r.Source,
		Location:  r.Location,
		Chunks:    r.Chunks,
		TotalCost: r.TotalCost,
		ErrorKind: r.Kind(),
		Error:     r.Error,
	}
}

// Processor runs source resolution, the cleaning pipeline and persistence
// for one request at a time.
type Processor struct {
	resolver Resolver
	chunker  *chunker.Chunker
	invoker  cleaner.Invoker
	sink     Sink
	reporter pipeline.Reporter
	log      *logger.Logger
}

type Option func(*Processor)

func WithReporter(r pipeline.Reporter) Option {
	return func(p *Processor) { p.reporter = r }
}

func WithLogger(l *logger.Logger) Option {
	return func(p *Processor) { p.log = l }
}

// WithResolver replaces the source resolver, e.g. with a restricted one.
func WithResolver(r Resolver) Option {
	return func(p *Processor) { p.resolver = r }
}

func New(resolver Resolver, ch *chunker.Chunker, inv cleaner.Invoker, s Sink, opts ...Option) *Processor {
	p := &Processor{
		resolver: resolver,
		chunker:  ch,
		invoker:  inv,
		sink:     s,
		reporter: pipeline.NopReporter{},
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Clean processes one request. Nothing is written when resolution or cleaning
// fails, unless SavePartial is set and some chunks were cleaned.
func (p *Processor) Clean(ctx context.Context, req Request) Result {
	start := time.Now()
	log := p.log.WithRun(req.Source).With("component", "processor")
	res := Result{Source: req.Source, TotalCost: decimal.Zero}

	doc, err := p.resolver.Resolve(ctx, req.Source)
	if err != nil {
		return p.fail(log, res, start, err)
	}

	pl := pipeline.New(p.chunker, p.invoker, pipeline.WithLogger(log), pipeline.WithReporter(p.reporter))
	acc, err := pl.Run(ctx, doc, req.SpeakerInfo)
	res.TotalCost = acc.TotalCost
	res.Records = acc.Records
	res.Chunks = len(acc.Records)
	res.Text = acc.Text

	name := sink.OutputName(req.Source, doc.Local)
	if err != nil {
		if req.SavePartial && acc.Text != "" {
			loc, perr := p.sink.Persist(sink.PartialName(name), acc.Text)
			if perr != nil {
				log.WithError(perr).Warn("partial save failed")
			} else {
				res.Location, res.Partial = loc, true
			}
		}
		return p.fail(log, res, start, err)
	}

	loc, err := p.sink.Persist(name, acc.Text)
	if err != nil {
		return p.fail(log, res, start, err)
	}
	res.Location = loc
	res.DurationMs = time.Since(start).Milliseconds()

	log.WithField("location", loc).
		WithField("chunks", res.Chunks).
		WithField("total_cost", res.TotalCost.String()).
		WithField("duration_ms", res.DurationMs).
		Info("transcript processed")
	return res
}

func (p *Processor) fail(log *logger.Logger, res Result, start time.Time, err error) Result {
	res.Err = err
	res.Error = err.Error()
	res.DurationMs = time.Since(start).Milliseconds()
	log.WithError(err).
		WithField("kind", res.Kind()).
		WithField("total_cost", res.TotalCost.String()).
		Error("processing failed")
	return res
}
