package dataset

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"transcript-cleaner-go/internal/aggregator"
	"transcript-cleaner-go/internal/types"
)

const (
	reportSheet  = "Report"
	summarySheet = "Summary"
	costFormat   = "$#,##0.0000"
)

var reportHeader = []interface{}{"Source", "Status", "Chunks", "Cost (USD)", "Output", "Error Kind", "Error"}

// WriteReport saves one row per run plus a total row, and a summary sheet
// with failure counts by kind.
func WriteReport(path string, runs []types.RunSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	costStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(costFormat)})
	if err != nil {
		return fmt.Errorf("cost style: %w", err)
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := f.SetSheetRow(reportSheet, "A1", &reportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range runs {
		status := "ok"
		if r.Failed() {
			status = "failed"
		}
		row := []interface{}{r.Source, status, r.Chunks, r.TotalCost.InexactFloat64(), r.Location, r.ErrorKind, r.Error}
		if err := setRow(f, reportSheet, i+2, row); err != nil {
			return err
		}
	}

	insight := aggregator.Aggregate(runs)
	totalRow := len(runs) + 2
	if err := setRow(f, reportSheet, totalRow, []interface{}{"TOTAL", fmt.Sprintf("%d/%d ok", insight.Succeeded(), insight.Runs), insight.Chunks, insight.TotalCost.InexactFloat64()}); err != nil {
		return err
	}

	if err := f.SetCellStyle(reportSheet, "D2", fmt.Sprintf("D%d", totalRow), costStyle); err != nil {
		return fmt.Errorf("style costs: %w", err)
	}
	if err := f.SetCellStyle(reportSheet, "A1", "G1", boldStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetCellStyle(reportSheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("C%d", totalRow), boldStyle); err != nil {
		return fmt.Errorf("style total: %w", err)
	}

	if err := writeSummary(f, insight); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, insight aggregator.BatchInsight) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	rows := [][]interface{}{
		{"Runs", insight.Runs},
		{"Succeeded", insight.Succeeded()},
		{"Failed", insight.Failed},
		{"Total cost (USD)", insight.TotalCost.String()},
	}
	kinds := make([]string, 0, len(insight.FailuresByKind))
	for k := range insight.FailuresByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		rows = append(rows, []interface{}{"Failed: " + k, insight.FailuresByKind[k]})
	}
	for i, r := range rows {
		if err := setRow(f, summarySheet, i+1, r); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func strPtr(s string) *string { return &s }
