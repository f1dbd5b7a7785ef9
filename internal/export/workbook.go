package export

import (
	"bytes"
	"time"

	"github.com/xuri/excelize/v2"

	"community-service/internal/models"
)

const (
	SummarySheet = "Summary"
	ReasonsSheet = "Archive reasons"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Workbook renders the dashboard stats into an XLSX file with a summary sheet and a
// per-reason breakdown of archived requests.
func Workbook(newcomers models.NewcomersStats, groups models.GroupsStats, requests models.RequestsStats, generatedAt time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	rows := [][]any{
		{"Metric", "Value"},
		{"Newcomers", newcomers.Total},
		{"Newcomers connected", newcomers.Connected},
		{"Newcomers not connected", newcomers.NotConnected},
		{"Groups", groups.Total},
		{"Groups pending", groups.Pending},
		{"Groups at capacity", groups.AtCapacity},
		{"Groups not at capacity", groups.NotAtCapacity},
		{"Outstanding requests", requests.Outstanding},
		{"Archived requests", requests.Archived},
		{"Generated at", generatedAt.UTC().Format(time.RFC3339)},
	}
	if err := writeRows(f, SummarySheet, rows); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 28); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(ReasonsSheet); err != nil {
		return nil, err
	}
	reasons := [][]any{{"Reason", "Count"}}
	for _, rc := range requests.ArchivedByReason {
		reasons = append(reasons, []any{rc.Reason, rc.Count})
	}
	if err := writeRows(f, ReasonsSheet, reasons); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(ReasonsSheet, "A1", "B1", bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(ReasonsSheet, "A", "A", 28); err != nil {
		return nil, err
	}

	return f.WriteToBuffer()
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
