package sink

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"transcript-cleaner-go/internal/types"
)

func TestOutputName(t *testing.T) {
	tests := []struct {
		source string
		isFile bool
		want   string
	}{
		{"talk.txt", true, "talk_cleaned_transcript.txt"},
		{"interviews/ep1.md", true, "interviews/ep1_cleaned_transcript.txt"},
		{"notes", true, "notes_cleaned_transcript.txt"},
		{"dQw4w9WgXcQ", false, "dQw4w9WgXcQ_cleaned_transcript.txt"},
		{"id.with.dots", false, "id.with.dots_cleaned_transcript.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := OutputName(tt.source, tt.isFile); got != tt.want {
				t.Errorf("OutputName(%q, %v) = %q, want %q", tt.source, tt.isFile, got, tt.want)
			}
		})
	}
}

func TestPartialName(t *testing.T) {
	if got := PartialName("talk_cleaned_transcript.txt"); got != "talk_cleaned_transcript.partial.txt" {
		t.Errorf("PartialName() = %q", got)
	}
}

func TestPersistWritesAndOverwrites(t *testing.T) {
	dir := t.TempDir()
	s := FileSink{Dir: dir}

	loc, err := s.Persist("sub/talk_cleaned_transcript.txt", "first")
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if want := filepath.Join(dir, "talk_cleaned_transcript.txt"); loc != want {
		t.Errorf("location = %q, want %q", loc, want)
	}

	if _, err := s.Persist("talk_cleaned_transcript.txt", "second"); err != nil {
		t.Fatalf("second Persist() error = %v", err)
	}
	data, err := os.ReadFile(loc)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want overwritten content", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the output file", len(entries))
	}
}

func TestPersistWithoutDirUsesName(t *testing.T) {
	name := filepath.Join(t.TempDir(), "nested", "out.txt")
	loc, err := FileSink{}.Persist(name, "text")
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if loc != name {
		t.Errorf("location = %q, want %q", loc, name)
	}
}

func TestPersistFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := FileSink{Dir: filepath.Join(blocker, "sub")}.Persist("out.txt", "text")
	var persErr *types.PersistenceError
	if !errors.As(err, &persErr) {
		t.Fatalf("Persist() error = %v, want PersistenceError", err)
	}
	if types.ErrorKind(err) != "persistence" {
		t.Errorf("ErrorKind() = %q, want persistence", types.ErrorKind(err))
	}
}
