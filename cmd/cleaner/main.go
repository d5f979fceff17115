package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"transcript-cleaner-go/internal/actionable"
	"transcript-cleaner-go/internal/aggregator"
	"transcript-cleaner-go/internal/config"
	"transcript-cleaner-go/internal/dataset"
	"transcript-cleaner-go/internal/logger"
	"transcript-cleaner-go/internal/pipeline"
	"transcript-cleaner-go/internal/processor"
)

const usage = `Usage: cleaner [flags] <file or video ID> <speaker info>
       cleaner [flags] -batch <manifest.xlsx>

Examples:
  cleaner interview.txt "Fred Smith (host) and Martha Jones (author of the book)"
  cleaner dQw4w9WgXcQ "two podcast hosts, Ana and Ben"
  cleaner -batch episodes.xlsx -report costs.xlsx

Flags:
`

func main() {
	_ = godotenv.Load() // loads .env

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cleaner", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		savePartial = fs.Bool("save-partial", false, "write the text cleaned so far when a run fails")
		outDir      = fs.String("out-dir", "", "directory for cleaned transcripts (overrides OUTPUT_DIR)")
		batch       = fs.String("batch", "", "xlsx manifest with one source per row")
		report      = fs.String("report", "batch_report.xlsx", "xlsx cost report written in batch mode")
		quiet       = fs.Bool("quiet", false, "hide the progress line")
	)
	fs.Usage = func() {
		fmt.Fprint(stdout, usage)
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		fs.SetOutput(stderr)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	wantArgs := 2
	if *batch != "" {
		wantArgs = 0
	}
	if fs.NArg() != wantArgs {
		fs.Usage()
		return 0
	}

	log := logger.NewWithOutput(stderr)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("invalid configuration")
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}

	var opts []processor.Option
	if !*quiet {
		opts = append(opts, processor.WithReporter(pipeline.ConsoleReporter{W: stderr}))
	}
	proc, err := processor.NewFromConfig(ctx, cfg, log, opts...)
	if err != nil {
		log.WithError(err).Error("startup failed")
		fmt.Fprintf(stderr, "Startup error: %v\n", err)
		return 1
	}

	if *batch != "" {
		return runBatch(ctx, proc, *batch, *report, *savePartial, stdout, stderr)
	}

	res := proc.Clean(ctx, processor.Request{Source: fs.Arg(0), SpeakerInfo: fs.Arg(1), SavePartial: *savePartial})
	if !*quiet {
		fmt.Fprintln(stderr)
	}
	if res.Err != nil {
		fmt.Fprintln(stderr, failureMessage(res))
		fmt.Fprintf(stdout, "Cost=$%s\n", res.TotalCost.String())
		if res.Partial {
			fmt.Fprintf(stdout, "Partial transcript saved to %s\n", res.Location)
		}
		return 1
	}

	fmt.Fprintln(stdout, res.Text)
	fmt.Fprintf(stdout, "Cost=$%s\n", res.TotalCost.String())
	fmt.Fprintf(stdout, "Cleaned transcript saved to %s\n", res.Location)
	return 0
}

func runBatch(ctx context.Context, proc *processor.Processor, manifest, report string, savePartial bool, stdout, stderr io.Writer) int {
	jobs, err := dataset.LoadManifest(manifest)
	if err != nil {
		fmt.Fprintf(stderr, "Could not read manifest %s: %v\n", manifest, err)
		return 1
	}

	runs := proc.CleanBatch(ctx, jobs, savePartial)
	insight := aggregator.Aggregate(runs)
	card := actionable.Generate(insight)

	fmt.Fprintf(stdout, "\n%d/%d sources cleaned, total Cost=$%s\n", insight.Succeeded(), insight.Runs, insight.TotalCost.String())
	fmt.Fprintf(stdout, "%s. %s.\n", card.Insight, card.Action)

	if err := dataset.WriteReport(report, runs); err != nil {
		fmt.Fprintf(stderr, "Could not save report: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Report saved to %s\n", report)

	if insight.Failed > 0 || len(runs) < len(jobs) {
		return 1
	}
	return 0
}

func failureMessage(res processor.Result) string {
	switch res.Kind() {
	case "source":
		return fmt.Sprintf("Could not read or fetch source %q: %v", res.Source, res.Err)
	case "model":
		return fmt.Sprintf("Cleaning service unavailable: %v", res.Err)
	case "persistence":
		return fmt.Sprintf("Could not save output: %v", res.Err)
	case "aborted":
		return "Cancelled before the transcript was fully cleaned"
	default:
		return fmt.Sprintf("Cleaning failed: %v", res.Err)
	}
}
