package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"transcript-cleaner-go/internal/types"
)

// LoadManifest reads batch jobs from the first sheet of an .xlsx file.
// Source and speaker columns are detected by header name. Without a
// recognisable header the first two columns are used and the first row is
// treated as data.
func LoadManifest(path string) ([]types.BatchJob, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data rows")
	}

	sourceIdx, speakerIdx := detectColumns(rows[0])
	first := 1
	if sourceIdx == -1 && speakerIdx == -1 {
		sourceIdx, speakerIdx, first = 0, 1, 0
	} else if sourceIdx == -1 {
		sourceIdx = 0
		if speakerIdx == 0 {
			sourceIdx = 1
		}
	}

	var out []types.BatchJob
	for i := first; i < len(rows); i++ {
		r := rows[i]
		job := types.BatchJob{Row: i + 1}
		if sourceIdx < len(r) {
			job.Source = strings.TrimSpace(r[sourceIdx])
		}
		if speakerIdx >= 0 && speakerIdx < len(r) {
			job.SpeakerInfo = strings.TrimSpace(r[speakerIdx])
		}
		// blank rows are common at the bottom of hand-edited sheets
		if job.Source == "" {
			continue
		}
		out = append(out, job)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no jobs in %s", path)
	}
	return out, nil
}

func detectColumns(header []string) (sourceIdx, speakerIdx int) {
	sourceIdx, speakerIdx = -1, -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "speaker") || strings.Contains(l, "participant") || strings.Contains(l, "guest"):
			if speakerIdx == -1 {
				speakerIdx = i
			}
		case strings.Contains(l, "source") || strings.Contains(l, "video") || strings.Contains(l, "file") ||
			strings.Contains(l, "transcript") || strings.Contains(l, "url") || l == "id":
			if sourceIdx == -1 {
				sourceIdx = i
			}
		}
	}
	return sourceIdx, speakerIdx
}
