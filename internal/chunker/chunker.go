package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"transcript-cleaner-go/internal/types"
)

const (
	DefaultMaxChunkSize = 3950
	DefaultOverlap      = 100
)

// DefaultSeparators in priority order: paragraph break, line break, space.
var DefaultSeparators = []string{"\n\n", "\n", " "}

type Config struct {
	MaxChunkSize int
	Overlap      int
	Separators   []string
}

func DefaultConfig() Config {
	return Config{
		MaxChunkSize: DefaultMaxChunkSize,
		Overlap:      DefaultOverlap,
		Separators:   append([]string(nil), DefaultSeparators...),
	}
}

func (c Config) Validate() error {
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("max chunk size must be positive, got %d", c.MaxChunkSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("overlap must not be negative, got %d", c.Overlap)
	}
	if c.Overlap >= c.MaxChunkSize {
		return fmt.Errorf("overlap %d must be smaller than max chunk size %d", c.Overlap, c.MaxChunkSize)
	}
	return nil
}

// Chunker splits transcript text into bounded, overlapping chunks.
// Sizes are counted in runes.
type Chunker struct {
	cfg Config
}

func New(cfg Config) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{cfg: cfg}, nil
}

func (c *Chunker) Config() Config {
	return c.cfg
}

type span struct {
	start, end int
}

// Chunks turns a resolved document into the ordered chunk sequence.
// Pre-segmented documents keep their segments; only oversized segments are split.
func (c *Chunker) Chunks(doc types.Document) []types.Chunk {
	if !doc.PreSegmented() {
		return c.Split(doc.Text)
	}

	var out []types.Chunk
	for _, seg := range doc.Segments {
		if seg == "" {
			continue
		}
		if utf8.RuneCountInString(seg) <= c.cfg.MaxChunkSize {
			out = append(out, types.Chunk{Index: len(out), Content: seg, Start: -1, End: -1})
			continue
		}
		for _, sub := range c.Split(seg) {
			out = append(out, types.Chunk{Index: len(out), Content: sub.Content, Start: -1, End: -1})
		}
	}
	return out
}

// Split cuts text into chunks that are contiguous spans of the input.
// End offsets are strictly increasing and each chunk starts at or before the
// previous chunk's end, so Reassemble can restore the input exactly.
func (c *Chunker) Split(text string) []types.Chunk {
	if text == "" {
		return nil
	}

	var spans []span
	if utf8.RuneCountInString(text) <= c.cfg.MaxChunkSize {
		spans = []span{{0, len(text)}}
	} else {
		spans = c.split(text, span{0, len(text)}, c.cfg.Separators)
	}

	chunks := make([]types.Chunk, len(spans))
	for i, s := range spans {
		chunks[i] = types.Chunk{
			Index:   i,
			Content: text[s.start:s.end],
			Start:   s.start,
			End:     s.end,
		}
	}
	return chunks
}

func (c *Chunker) split(text string, s span, seps []string) []span {
	seg := text[s.start:s.end]

	sep, rest := "", []string(nil)
	for i, candidate := range seps {
		if candidate != "" && strings.Contains(seg, candidate) {
			sep, rest = candidate, seps[i+1:]
			break
		}
	}
	if sep == "" {
		return c.hardCut(text, s)
	}

	var out, small []span
	for _, p := range splitKeep(seg, sep, s.start) {
		if c.length(text, p) <= c.cfg.MaxChunkSize {
			small = append(small, p)
			continue
		}
		out = append(out, c.merge(text, small)...)
		small = nil
		out = append(out, c.split(text, p, rest)...)
	}
	return append(out, c.merge(text, small)...)
}

// merge packs adjacent pieces greedily, carrying up to Overlap runes of
// trailing pieces into the next chunk.
func (c *Chunker) merge(text string, pieces []span) []span {
	var (
		out   []span
		cur   []span
		total int
	)
	for _, p := range pieces {
		l := c.length(text, p)
		if total+l > c.cfg.MaxChunkSize && len(cur) > 0 {
			out = append(out, span{cur[0].start, cur[len(cur)-1].end})
			for total > c.cfg.Overlap || (total+l > c.cfg.MaxChunkSize && total > 0) {
				total -= c.length(text, cur[0])
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		total += l
	}
	if len(cur) > 0 {
		out = append(out, span{cur[0].start, cur[len(cur)-1].end})
	}
	return out
}

// hardCut slices a separator-free span into MaxChunkSize windows on rune
// boundaries, stepping back Overlap runes between windows.
func (c *Chunker) hardCut(text string, s span) []span {
	offsets := make([]int, 0, s.end-s.start+1)
	for i := range text[s.start:s.end] {
		offsets = append(offsets, s.start+i)
	}
	runes := len(offsets)
	offsets = append(offsets, s.end)

	var out []span
	for lo := 0; ; {
		hi := min(lo+c.cfg.MaxChunkSize, runes)
		out = append(out, span{offsets[lo], offsets[hi]})
		if hi == runes {
			break
		}
		lo = hi - c.cfg.Overlap
	}
	return out
}

func (c *Chunker) length(text string, s span) int {
	return utf8.RuneCountInString(text[s.start:s.end])
}

// splitKeep splits seg on sep, leaving each separator attached to the piece it ends.
func splitKeep(seg, sep string, offset int) []span {
	var out []span
	pos := 0
	for {
		i := strings.Index(seg[pos:], sep)
		if i < 0 {
			break
		}
		end := pos + i + len(sep)
		out = append(out, span{offset + pos, offset + end})
		pos = end
	}
	if pos < len(seg) {
		out = append(out, span{offset + pos, offset + len(seg)})
	}
	return out
}

// Reassemble drops the overlap between consecutive split chunks and joins
// them. Pre-segmented chunks (negative offsets) are concatenated as-is.
func Reassemble(chunks []types.Chunk) string {
	var b strings.Builder
	prevEnd := -1
	for _, ch := range chunks {
		if ch.Start < 0 {
			b.WriteString(ch.Content)
			continue
		}
		skip := 0
		if prevEnd > ch.Start {
			skip = prevEnd - ch.Start
		}
		b.WriteString(ch.Content[skip:])
		prevEnd = ch.End
	}
	return b.String()
}
