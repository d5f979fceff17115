package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"transcript-cleaner-go/internal/logger"
	"transcript-cleaner-go/internal/types"
)

const outputSuffix = "_cleaned_transcript.txt"

// OutputName derives the output file name for a source. A file source keeps
// its directory and loses its extension; an identifier is used as given.
func OutputName(source string, isFile bool) string {
	base := source
	if isFile {
		base = strings.TrimSuffix(source, filepath.Ext(source))
	}
	return base + outputSuffix
}

// PartialName marks an output name as holding an incomplete transcript.
func PartialName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".partial" + ext
}

// FileSink writes cleaned transcripts to the local filesystem. When Dir is
// set every output lands directly in it; otherwise names are used as-is.
type FileSink struct {
	Dir string
	Log *logger.Logger
}

// Persist writes text to name atomically, replacing any existing file.
// It returns the final location.
func (s FileSink) Persist(name, text string) (string, error) {
	dest := name
	if s.Dir != "" {
		dest = filepath.Join(s.Dir, filepath.Base(name))
	}
	if err := writeAtomic(dest, text); err != nil {
		return "", &types.PersistenceError{Destination: dest, Err: err}
	}
	if s.Log != nil {
		s.Log.With("component", "sink").WithField("location", dest).WithField("bytes", len(text)).Info("transcript saved")
	}
	return dest, nil
}

func writeAtomic(dest, text string) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cleaned-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
