package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/randalmurphal/ticketbridge/internal/util"
)

// utcStampFormat is the human-readable timestamp used on the summary sheet.
const utcStampFormat = "2006-Jan-02 03:04 PM (UTC)"

// rowStampFormat is the per-entry timestamp on the detail sheets.
const rowStampFormat = "2006-01-02 15:04:05"

// WriteWorkbook renders the run report into an xlsx file under dir and
// returns its path. The file has a summary sheet, a details sheet (info and
// warnings) and an errors sheet.
func WriteWorkbook(m *Manager, dir string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	summary := m.Summary()
	entries := m.Entries()

	const summarySheet = "Sync Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return "", fmt.Errorf("rename summary sheet: %w", err)
	}

	summaryRows := [][]any{
		{"Metric", "Value"},
		{"Run ID", m.RunID()},
		{"Info Count", summary.InfoCount},
		{"Warnings", summary.WarningCount},
		{"Errors", summary.ErrorCount},
		{"Sync Start Time", m.StartTime().UTC().Format(utcStampFormat)},
		{"Sync End Time", m.EndTime().UTC().Format(utcStampFormat)},
		{"Generated At", time.Now().UTC().Format(utcStampFormat)},
	}
	for i, row := range summaryRows {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return "", fmt.Errorf("write summary row: %w", err)
		}
	}

	if err := writeEntrySheet(f, "Details", entries, LevelInfo, LevelWarning); err != nil {
		return "", err
	}
	if err := writeEntrySheet(f, "Errors", entries, LevelError); err != nil {
		return "", err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", fmt.Errorf("render report workbook: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("SyncReport_%s.xlsx", time.Now().Format("2006-01-02_15-04")))
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write report workbook: %w", err)
	}
	return path, nil
}

func writeEntrySheet(f *excelize.File, name string, entries []Entry, levels ...Level) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	header := []any{"Timestamp", "Level", "Operation", "Message", "Ticket ID", "Work Item ID", "Direction", "Context"}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("write sheet %s header: %w", name, err)
	}

	want := make(map[Level]bool, len(levels))
	for _, l := range levels {
		want[l] = true
	}

	row := 2
	for _, e := range entries {
		if !want[e.Level] {
			continue
		}
		cols := []any{
			e.Timestamp.UTC().Format(rowStampFormat),
			string(e.Level),
			e.Operation,
			e.Message,
			e.TicketID,
			e.WorkItemID,
			e.Direction,
			e.Context,
		}
		if err := f.SetSheetRow(name, fmt.Sprintf("A%d", row), &cols); err != nil {
			return fmt.Errorf("write sheet %s row: %w", name, err)
		}
		row++
	}
	return nil
}
