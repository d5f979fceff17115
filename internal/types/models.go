package types

import "github.com/shopspring/decimal"

// Document is a resolved transcript source. When Segments is non-nil the
// provider already split the transcript and Text is informational only.
// Local is set when the transcript was read from a file.
type Document struct {
	Source   string   `json:"source"`
	Text     string   `json:"text,omitempty"`
	Segments []string `json:"segments,omitempty"`
	Local    bool     `json:"local,omitempty"`
}

func (d Document) PreSegmented() bool {
	return d.Segments != nil
}

// Chunk is one ordered piece of a transcript. Start and End are byte offsets
// into the source text, or -1 when the chunk came from a pre-segmented document.
type Chunk struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

type CleaningResult struct {
	Text string          `json:"text"`
	Cost decimal.Decimal `json:"cost"`
}

type ChunkRecord struct {
	Index       int             `json:"index"`
	InputChars  int             `json:"input_chars"`
	OutputChars int             `json:"output_chars"`
	Cost        decimal.Decimal `json:"cost"`
}

// Accumulator is the in-progress output of one pipeline run.
type Accumulator struct {
	Text      string          `json:"text"`
	TotalCost decimal.Decimal `json:"total_cost"`
	Records   []ChunkRecord   `json:"records"`
}

type State string

const (
	StateReady   State = "READY"
	StateRunning State = "RUNNING"
	StateDone    State = "DONE"
	StateAborted State = "ABORTED"
)

// BatchJob is one row of a batch manifest.
type BatchJob struct {
	Row         int    `json:"row"`
	Source      string `json:"source"`
	SpeakerInfo string `json:"speaker_info"`
}

// RunSummary is the outcome of cleaning one source, used by batch reports.
type RunSummary struct {
	Source    string          `json:"source"`
	Location  string          `json:"location,omitempty"`
	Chunks    int             `json:"chunks"`
	TotalCost decimal.Decimal `json:"total_cost"`
	ErrorKind string          `json:"error_kind,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func (r RunSummary) Failed() bool {
	return r.Error != ""
}
