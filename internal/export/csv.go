// Package export renders report data into downloadable file formats.
package export

import (
	"bytes"
	"encoding/csv"
)

// CSVContentType is the MIME type stamped on uploaded CSV exports.
const CSVContentType = "text/csv"

// WorkoutRow is one pre-formatted line of the workout report. All values
// arrive as display strings; this package only arranges them into a file.
type WorkoutRow struct {
	WorkoutID    string
	StudentName  string
	TrainingType string
	StatusLabel  string
	StartedAt    string
	CompletedAt  string
	Duration     string
	AssignedOn   string
}

// SummaryRow is one pre-formatted line of the per-student aggregate report.
type SummaryRow struct {
	StudentName     string
	NotStarted      string
	InProgress      string
	Completed       string
	AverageDuration string
}

var csvHeader = []string{
	"Workout ID",
	"Student",
	"Training Type",
	"Status",
	"Started At",
	"Completed At",
	"Duration",
	"Assigned On",
}

// WorkoutReportCSV renders the rows as a CSV document with a header line.
// An empty row slice yields a header-only file, not an error.
func WorkoutReportCSV(rows []WorkoutRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		record := []string{
			r.WorkoutID,
			r.StudentName,
			r.TrainingType,
			r.StatusLabel,
			r.StartedAt,
			r.CompletedAt,
			r.Duration,
			r.AssignedOn,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var summaryHeader = []string{
	"Student",
	"Not Started",
	"In Progress",
	"Completed",
	"Average Duration",
}

// StudentSummaryCSV renders the per-student aggregate rows as CSV.
func StudentSummaryCSV(rows []SummaryRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(summaryHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		record := []string{
			r.StudentName,
			r.NotStarted,
			r.InProgress,
			r.Completed,
			r.AverageDuration,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
